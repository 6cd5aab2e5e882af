// Package notify sends transactional email for booking confirmations
// and purchase receipts.  Delivery runs through the Resend API when a
// key is configured and degrades to a logging no-op otherwise, so a
// missing key never breaks a booking.  Send failures are logged and
// swallowed by callers; email is best-effort.
package notify

import (
    "context"
    "log"
)

// Message is one outbound email.
type Message struct {
    To      string
    Subject string
    HTML    string
}

// Sender delivers transactional email.
type Sender interface {
    Send(ctx context.Context, msg Message) error
}

// NoopSender logs sends without delivering them.  Used in
// development and whenever no Resend API key is configured.
type NoopSender struct{}

// Send logs the email and reports success.
func (NoopSender) Send(_ context.Context, msg Message) error {
    log.Printf("notify: email disabled, dropping message to=%s subject=%q", msg.To, msg.Subject)
    return nil
}
