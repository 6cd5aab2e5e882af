package notify

import (
    "context"

    "github.com/resend/resend-go/v2"
)

// ResendSender delivers email via the Resend API.
type ResendSender struct {
    client *resend.Client
    from   string
}

// NewResendSender returns a sender using the given API key and the
// default from address for all outbound mail.
func NewResendSender(apiKey, from string) *ResendSender {
    return &ResendSender{client: resend.NewClient(apiKey), from: from}
}

// Send delivers one message.  The call is synchronous; callers that
// must not block the request path should run it in a goroutine.
func (s *ResendSender) Send(ctx context.Context, msg Message) error {
    params := &resend.SendEmailRequest{
        From:    s.from,
        To:      []string{msg.To},
        Subject: msg.Subject,
        Html:    msg.HTML,
    }
    _, err := s.client.Emails.SendWithContext(ctx, params)
    return err
}

// NewSender picks the Resend sender when an API key is configured
// and the no-op sender otherwise.
func NewSender(apiKey, from string) Sender {
    if apiKey == "" {
        return NoopSender{}
    }
    return NewResendSender(apiKey, from)
}
