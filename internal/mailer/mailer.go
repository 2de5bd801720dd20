// Package mailer wraps the outbound SMTP channel used for reset codes and
// the contact form.
package mailer

import (
	"context"
	"errors"

	"github.com/wneessen/go-mail"
)

// ErrAuth marks a delivery failure caused by SMTP authentication, so the
// reset flow can report a misconfigured channel distinctly from a transient
// send failure.
var ErrAuth = errors.New("smtp authentication failed")

// Mailer is the narrow contract the handlers depend on. Configured gates
// the reset flow: an unconfigured channel fails closed with 503 instead of
// silently pretending a code was sent.
type Mailer interface {
	Configured() bool
	Send(ctx context.Context, to, subject, html string) error
}

// SMTP sends mail through a single SMTP account, matching the original
// deployment (one Gmail app password).
type SMTP struct {
	host string
	port int
	user string
	pass string
	from string
}

// NewSMTP builds an SMTP mailer. An empty host yields a mailer whose
// Configured method reports false.
func NewSMTP(host string, port int, user, pass, from string) *SMTP {
	return &SMTP{host: host, port: port, user: user, pass: pass, from: from}
}

// Configured implements Mailer.
func (s *SMTP) Configured() bool {
	return s.host != "" && s.from != ""
}

// Send implements Mailer. Authentication failures are wrapped with ErrAuth.
func (s *SMTP) Send(ctx context.Context, to, subject, html string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, html)

	opts := []mail.Option{
		mail.WithPort(s.port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.user != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.user),
			mail.WithPassword(s.pass),
		)
	}
	client, err := mail.NewClient(s.host, opts...)
	if err != nil {
		return err
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		var sendErr *mail.SendError
		if errors.As(err, &sendErr) && sendErr.Reason == mail.ErrSMTPAuth {
			return errors.Join(ErrAuth, err)
		}
		return err
	}
	return nil
}
