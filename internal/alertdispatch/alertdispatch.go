// Package alertdispatch defines the operator-alert seam the
// capability arbiter and reclaimer use. The original system's
// email_alerts module is out of scope upstream (spec.md names it as
// an external collaborator); this package supplies the interface
// those components depend on plus one concrete SMTP implementation so
// the repository is runnable standalone.
package alertdispatch

import "context"

// Alert is one operator-facing notification: a subject and a
// fully-rendered message body, matching the original's
// send_email_alert(subject, message) contract.
type Alert struct {
	Subject string
	Message string
}

// Dispatcher sends an Alert to its configured recipients. Implementors
// must treat a failed send as an error, never a silent no-op — the
// capability arbiter treats a dispatch failure as fatal.
type Dispatcher interface {
	Send(ctx context.Context, alert Alert) error
}
