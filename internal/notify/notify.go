// Package notify delivers outbound email and SMS.
package notify

import (
	"context"
	"errors"
)

var ErrNoBackend = errors.New("no delivery backend configured")

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, html string) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Multi routes email and SMS to separate backends.
type Multi struct {
	Email EmailSender
	SMS   SMSSender
}

func (m *Multi) SendEmail(ctx context.Context, to, subject, html string) error {
	if m.Email == nil {
		return ErrNoBackend
	}
	return m.Email.SendEmail(ctx, to, subject, html)
}

func (m *Multi) SendSMS(ctx context.Context, to, body string) error {
	if m.SMS == nil {
		return ErrNoBackend
	}
	return m.SMS.SendSMS(ctx, to, body)
}
