package notifications

import (
	"context"
	"fmt"
)

type Kind string

const (
	// KindJobApplication goes to a contractor when a worker applies to their post.
	KindJobApplication Kind = "job_application"
	// KindContactRequest goes to a worker when a contractor accepts them.
	KindContactRequest Kind = "contact_request"
)

type Recipient struct {
	Email string
	Name  string
}

type Notification struct {
	Recipient Recipient
	Kind      Kind
	Data      map[string]string
}

// Notifier delivers a notification through an external channel (email, SMS...).
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// Render produces the plain-text subject and body for a notification.
func Render(n Notification) (subject, body string) {
	switch n.Kind {
	case KindJobApplication:
		subject = fmt.Sprintf("New application for %q", n.Data["workPostTitle"])
		body = fmt.Sprintf("Hi %s, %s applied to your work post %q. Open WorkLink to review the request.",
			n.Recipient.Name, n.Data["workerName"], n.Data["workPostTitle"])
	case KindContactRequest:
		subject = fmt.Sprintf("%s wants to work with you", n.Data["contractorName"])
		body = fmt.Sprintf("Hi %s, %s accepted your request for %q. You can now chat in WorkLink.",
			n.Recipient.Name, n.Data["contractorName"], n.Data["workPostTitle"])
	default:
		subject = "WorkLink update"
		body = fmt.Sprintf("Hi %s, you have a new update on WorkLink.", n.Recipient.Name)
	}
	return subject, body
}
