// Package application turns booking events into customer notifications.
package application

import "context"

// Email is a single outgoing message.
type Email struct {
	ToAddress string
	ToName    string
	Subject   string
	PlainText string
	HTML      string
}

// SMS is a single outgoing text message. To is E.164.
type SMS struct {
	To   string
	Body string
}

// EmailSender delivers email.
type EmailSender interface {
	SendEmail(ctx context.Context, msg Email) error
}

// SMSSender delivers text messages.
type SMSSender interface {
	SendSMS(ctx context.Context, msg SMS) error
}

// NoopSender drops every message. It stands in for unconfigured channels.
type NoopSender struct{}

func (NoopSender) SendEmail(context.Context, Email) error { return nil }
func (NoopSender) SendSMS(context.Context, SMS) error     { return nil }
