// Package email provides the SMTP sink for digest notifications.
package email

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/wneessen/go-mail"
)

// Sender delivers a rendered email to one recipient.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Config holds SMTP connection settings
type Config struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// Mailer sends email over SMTP
type Mailer struct {
	client *mail.Client
	from   string
	logger ectologger.Logger
}

// NewMailer creates a new SMTP mailer
func NewMailer(cfg Config, logger ectologger.Logger) (*Mailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.User),
			mail.WithPassword(cfg.Pass),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &Mailer{
		client: client,
		from:   cfg.From,
		logger: logger,
	}, nil
}

// Send delivers one HTML email
func (m *Mailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		m.logger.WithContext(ctx).WithError(err).WithField("to", to).Error("Failed to send email")
		return err
	}

	m.logger.WithContext(ctx).WithFields(map[string]any{
		"to":      to,
		"subject": subject,
	}).Debug("Sent email")

	return nil
}
