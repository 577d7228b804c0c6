package usersvc

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/next-trace/stashit/domain/user"
)

const otpSubject = "OTP Request"

var otpHTML = template.Must(template.New("otp").Parse(`<p>Your OTP code is <strong>{{.Code}}</strong>.</p>`))

// Mailing composes and sends account mail.
type Mailing struct {
	mailer user.Mailer
}

func NewMailing(mailer user.Mailer) *Mailing { return &Mailing{mailer: mailer} }

// SendAuthenticationMail mails the session's one-time code to the user.
func (m *Mailing) SendAuthenticationMail(ctx context.Context, u *user.User, s *user.Session) error {
	var html bytes.Buffer
	if err := otpHTML.Execute(&html, struct{ Code string }{Code: s.Code().String()}); err != nil {
		return fmt.Errorf("render otp mail: %w", err)
	}

	msg := user.Mail{
		To:      u.Email(),
		Subject: otpSubject,
		Text:    "Your OTP code is " + s.Code().String(),
		HTML:    html.String(),
	}

	if err := m.mailer.Mail(ctx, msg); err != nil {
		return fmt.Errorf("send otp mail to %s: %w", u.ID(), err)
	}

	return nil
}
