package user

import "context"

// Mail is an outgoing message to a user.
type Mail struct {
	To      Email
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers mail. Errors are returned to the caller and never retried.
type Mailer interface {
	Mail(ctx context.Context, m Mail) error
}
