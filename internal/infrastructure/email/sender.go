package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/go-passwordless-api/internal/config"
	"github.com/resend/resend-go/v2"
)

// Sender delivers a callback-token email.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender delivers through a plain SMTP relay.
type SMTPSender struct {
	host     string
	port     string
	from     string
	username string
	password string
}

func (s *SMTPSender) Send(_ context.Context, to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	return smtp.SendMail(addr, auth, s.from, []string{to}, []byte(msg))
}

// ResendSender delivers through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

func (s *ResendSender) Send(ctx context.Context, to, subject, body string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}
	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// LogSender logs emails instead of sending them. Used with TEST_SUPPRESSION.
type LogSender struct {
	logger *slog.Logger
}

func (s *LogSender) Send(_ context.Context, to, subject, body string) error {
	s.logger.Info("callback token email (suppressed)", "to", to, "subject", subject, "body", body)
	return nil
}

// NewSender picks the delivery backend from configuration. TEST_SUPPRESSION
// overrides the provider and routes everything to the log.
func NewSender(cfg *config.Config, logger *slog.Logger) Sender {
	if cfg.TestSuppression {
		return &LogSender{logger: logger}
	}
	if cfg.EmailProvider == "resend" {
		return &ResendSender{
			client: resend.NewClient(cfg.ResendAPIKey),
			from:   cfg.EmailNoreplyAddress,
		}
	}
	return &SMTPSender{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.EmailNoreplyAddress,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
	}
}
