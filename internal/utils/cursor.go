package utils

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

var ErrInvalidCursor = errors.New("invalid cursor")

// MessageCursor marks the last chat message a client has seen.
type MessageCursor struct {
	Seq int64 `json:"seq"`
}

func EncodeMessageCursor(seq int64) (string, error) {
	b, err := json.Marshal(MessageCursor{Seq: seq})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DecodeMessageCursor treats an empty cursor as "from the beginning".
func DecodeMessageCursor(cursor string) (MessageCursor, error) {
	if cursor == "" {
		return MessageCursor{}, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return MessageCursor{}, ErrInvalidCursor
	}

	var c MessageCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return MessageCursor{}, ErrInvalidCursor
	}
	if c.Seq < 0 {
		return MessageCursor{}, ErrInvalidCursor
	}
	return c, nil
}
