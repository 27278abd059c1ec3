package notify

import (
	"context"

	"github.com/mailgun/mailgun-go/v4"

	"github.com/vrno/tokenmarket/internal/apierr"
)

// MailgunSender sends email through Mailgun.
type MailgunSender struct {
	mg     *mailgun.MailgunImpl
	sender string
}

// NewMailgunSender creates an email adapter for the given Mailgun domain.
func NewMailgunSender(domain, apiKey, sender string) *MailgunSender {
	return &MailgunSender{
		mg:     mailgun.NewMailgun(domain, apiKey),
		sender: sender,
	}
}

// Send forwards one message to Mailgun and waits for the provider's answer.
func (s *MailgunSender) Send(ctx context.Context, to, subject, body string) error {
	msg := s.mg.NewMessage(s.sender, subject, body, to)
	if _, _, err := s.mg.Send(ctx, msg); err != nil {
		return apierr.Integration("mailgun", err)
	}
	return nil
}
