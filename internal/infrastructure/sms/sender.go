package sms

import (
	"context"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/go-passwordless-api/internal/config"
)

// Sender delivers a callback-token SMS.
type Sender interface {
	Send(ctx context.Context, to, message string) error
}

// SNSSender delivers through AWS SNS.
type SNSSender struct {
	client *sns.Client
}

func NewSNSSender(cfg *config.Config) (*SNSSender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &SNSSender{client: sns.NewFromConfig(awsCfg)}, nil
}

func (s *SNSSender) Send(ctx context.Context, to, message string) error {
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: &to,
		Message:     &message,
	})
	return err
}

// LogSender logs messages instead of sending them. Used with TEST_SUPPRESSION
// or when SNS is not configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, to, message string) error {
	s.logger.Info("callback token SMS (suppressed)", "to", to, "message", message)
	return nil
}
