package alertdispatch

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPDispatcher sends alerts as plain-text email via net/smtp. It is
// the one stdlib-only component in this repository: no example in the
// pack wires an email/notification library, and net/smtp is the
// natural, sufficiently narrow choice for "send one plaintext email"
// (see DESIGN.md).
type SMTPDispatcher struct {
	Addr string // host:port of the SMTP relay
	From string
	To   []string

	auth smtp.Auth
}

// NewSMTPDispatcher builds a dispatcher against an unauthenticated or
// pre-authenticated relay. Pass a non-nil auth via WithAuth for relays
// that require it.
func NewSMTPDispatcher(addr, from string, to []string) *SMTPDispatcher {
	return &SMTPDispatcher{Addr: addr, From: from, To: to}
}

// WithAuth attaches SMTP authentication credentials and returns the
// same dispatcher for chaining.
func (d *SMTPDispatcher) WithAuth(auth smtp.Auth) *SMTPDispatcher {
	d.auth = auth
	return d
}

// Send implements Dispatcher.
func (d *SMTPDispatcher) Send(ctx context.Context, alert Alert) error {
	if len(d.To) == 0 {
		return fmt.Errorf("alertdispatch: no recipients configured for alert %q", alert.Subject)
	}

	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		d.From, strings.Join(d.To, ", "), alert.Subject, alert.Message)

	if err := smtp.SendMail(d.Addr, d.auth, d.From, d.To, []byte(body)); err != nil {
		return fmt.Errorf("alertdispatch: send %q: %w", alert.Subject, err)
	}

	return nil
}
