package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	infraconfig "github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/config"
	"go.uber.org/zap"
)

// SESAPI is the subset of the SES client used by SESMailer
type SESAPI interface {
	SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

// SESMailer sends messages through Amazon SES
type SESMailer struct {
	client           SESAPI
	from             string
	configurationSet string
	logger           *zap.Logger
	now              func() time.Time
}

// NewSESClient creates an SES client from configuration. Static credentials
// are used when both keys are set, the default AWS chain otherwise.
func NewSESClient(ctx context.Context, cfg *infraconfig.MailConfig) (*ses.Client, error) {
	if cfg == nil {
		return nil, errors.New("mail configuration is required")
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	return ses.NewFromConfig(awsCfg, func(o *ses.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// NewSESMailer creates a new SESMailer
func NewSESMailer(client SESAPI, cfg *infraconfig.MailConfig, logger *zap.Logger) *SESMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SESMailer{
		client:           client,
		from:             cfg.From,
		configurationSet: cfg.ConfigurationSet,
		logger:           logger,
		now:              time.Now,
	}
}

// Send delivers msg. The transport error is returned unchanged so callers
// can surface its detail.
func (m *SESMailer) Send(ctx context.Context, msg *Message) error {
	raw, err := BuildRawMessage(m.from, msg, m.now())
	if err != nil {
		return err
	}

	input := &ses.SendRawEmailInput{
		RawMessage:   &types.RawMessage{Data: raw},
		Source:       aws.String(m.from),
		Destinations: msg.To,
	}
	if m.configurationSet != "" {
		input.ConfigurationSetName = aws.String(m.configurationSet)
	}

	out, err := m.client.SendRawEmail(ctx, input)
	if err != nil {
		m.logger.Error("SES send failed",
			zap.Strings("to", msg.To),
			zap.Error(err))
		return err
	}

	m.logger.Info("email sent",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("message_id", aws.ToString(out.MessageId)))
	return nil
}

// LogMailer logs messages instead of sending them. Used in development.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a new LogMailer
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

// Send logs msg and reports success
func (m *LogMailer) Send(_ context.Context, msg *Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	attachments := make([]string, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		attachments = append(attachments, a.Path)
	}
	m.logger.Info("email not sent (log driver)",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Strings("attachments", attachments))
	return nil
}
