package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogNotifier writes messages to the log instead of delivering them. Bodies
// carry one-time codes, so they are only logged at debug level.
type LogNotifier struct {
	logger *logrus.Logger
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendEmail(_ context.Context, to, subject, html string) error {
	entry := n.logger.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	})
	entry.Info("email not delivered, no mail backend configured")
	entry.WithField("body", html).Debug("email body")
	return nil
}

func (n *LogNotifier) SendSMS(_ context.Context, to, body string) error {
	entry := n.logger.WithField("to", to)
	entry.Info("sms not delivered, no sms backend configured")
	entry.WithField("body", body).Debug("sms body")
	return nil
}
