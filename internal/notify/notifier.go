package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Notifier sends an outbound message to a single recipient. Callers must
// treat sends as fallible and must not roll back state on failure.
type Notifier interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPNotifier delivers mail through an SMTP relay.
type SMTPNotifier struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPNotifier builds the notifier from SMTP settings.
func NewSMTPNotifier(host string, port int, username, password, from string) *SMTPNotifier {
	return &SMTPNotifier{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// Send delivers the message, honoring context cancellation while the dial is
// in flight.
func (n *SMTPNotifier) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", n.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	done := make(chan error, 1)
	go func() {
		done <- n.dialer.DialAndSend(msg)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SimulatedNotifier logs the message after a fixed delay and always succeeds.
// Stands in for the real transport in development.
type SimulatedNotifier struct {
	logger *zap.Logger
	delay  time.Duration
}

// NewSimulatedNotifier builds the simulated sender.
func NewSimulatedNotifier(logger *zap.Logger, delay time.Duration) *SimulatedNotifier {
	return &SimulatedNotifier{logger: logger, delay: delay}
}

// Send sleeps for the configured delay and logs the message.
func (n *SimulatedNotifier) Send(ctx context.Context, to, subject, htmlBody string) error {
	if n.delay > 0 {
		select {
		case <-time.After(n.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	n.logger.Info("simulated email",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(htmlBody)))
	return nil
}
