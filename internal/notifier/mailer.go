package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"seat-notifier/internal/config"
)

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Mailer sends notifications over SMTP.
type Mailer struct {
	client   sender
	fromName string
	fromAddr string
}

// NewMailer builds an SMTP mailer from cfg.
func NewMailer(cfg config.SMTPConfig) (*Mailer, error) {
	if !cfg.Enabled() {
		return nil, errors.New("smtp host and from address are required")
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(30 * time.Second),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	return &Mailer{client: client, fromName: cfg.FromName, fromAddr: cfg.FromAddress}, nil
}

func (m *Mailer) Notify(ctx context.Context, to []string, subject, body string) error {
	msg, err := m.buildMessage(to, subject, body)
	if err != nil {
		return &NotifyError{Recipients: to, Err: err}
	}

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return &NotifyError{Recipients: to, Err: err}
	}
	return nil
}

func (m *Mailer) buildMessage(to []string, subject, body string) (*mail.Msg, error) {
	if len(to) == 0 {
		return nil, errors.New("no recipients")
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(m.fromName, m.fromAddr); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to...); err != nil {
		return nil, fmt.Errorf("invalid recipients: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}
