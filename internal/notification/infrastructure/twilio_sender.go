package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/felixgeelhaar/spabook/internal/notification/application"
)

// ErrInvalidPhone is returned for numbers not in E.164 form.
var ErrInvalidPhone = errors.New("phone number must be in E.164 format")

// TwilioSender sends SMS through the Twilio REST API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioSender creates a sender for the given account.
func NewTwilioSender(accountSID, authToken, fromNumber string) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username:   accountSID,
		Password:   authToken,
		AccountSid: accountSID,
	})
	return &TwilioSender{client: client, from: fromNumber}
}

func (s *TwilioSender) SendSMS(ctx context.Context, msg application.SMS) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !strings.HasPrefix(msg.To, "+") {
		return ErrInvalidPhone
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(msg.To)
	params.SetFrom(s.from)
	params.SetBody(msg.Body)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio: %w", err)
	}
	return nil
}
