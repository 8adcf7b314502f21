// Package infrastructure delivers notifications through SendGrid and Twilio.
package infrastructure

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/felixgeelhaar/spabook/internal/notification/application"
)

// SendGridSender sends email through the SendGrid v3 API.
type SendGridSender struct {
	client   *sendgrid.Client
	fromName string
	from     string
}

// NewSendGridSender creates a sender for the given API key and sender address.
func NewSendGridSender(apiKey, fromEmail, fromName string) *SendGridSender {
	if fromName == "" {
		fromName = "Spa"
	}
	return &SendGridSender{
		client:   sendgrid.NewSendClient(apiKey),
		fromName: fromName,
		from:     fromEmail,
	}
}

func (s *SendGridSender) SendEmail(ctx context.Context, msg application.Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	message := mail.NewSingleEmail(
		mail.NewEmail(s.fromName, s.from),
		msg.Subject,
		mail.NewEmail(msg.ToName, msg.ToAddress),
		msg.PlainText,
		msg.HTML,
	)

	resp, err := s.client.Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
