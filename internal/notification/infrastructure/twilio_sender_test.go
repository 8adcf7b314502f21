package infrastructure

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/felixgeelhaar/spabook/internal/notification/application"
)

func TestTwilioSender_RejectsLocalNumbers(t *testing.T) {
	s := NewTwilioSender("AC123", "token", "+15005550006")

	err := s.SendSMS(context.Background(), application.SMS{To: "999888777", Body: "hola"})
	assert.ErrorIs(t, err, ErrInvalidPhone)
}

func TestSenders_HonourCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewTwilioSender("AC123", "token", "+15005550006").SendSMS(ctx, application.SMS{To: "+51999888777"})
	assert.ErrorIs(t, err, context.Canceled)

	err = NewSendGridSender("SG.key", "reservas@spa.pe", "").SendEmail(ctx, application.Email{ToAddress: "a@b.pe"})
	assert.ErrorIs(t, err, context.Canceled)
}
