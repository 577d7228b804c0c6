package inmemory

import (
	"context"

	"github.com/next-trace/stashit/domain/user"
)

var _ user.Mailer = (*Mailer)(nil)

func (m *Mailer) Mail(ctx context.Context, msg user.Mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}

	m.Sent = append(m.Sent, Sent{To: msg.To.String(), Subject: msg.Subject, Text: msg.Text, HTML: msg.HTML})

	return nil
}

// Last returns the most recent message, or false when none was sent.
func (m *Mailer) Last() (Sent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.Sent) == 0 {
		return Sent{}, false
	}

	return m.Sent[len(m.Sent)-1], true
}
