package delivery

import "errors"

var (
	// ErrAlreadySent means the notification went out on an earlier attempt.
	ErrAlreadySent = errors.New("notification already sent")
	// ErrInProgress means another worker currently owns the send.
	ErrInProgress = errors.New("notification send in progress")
)
