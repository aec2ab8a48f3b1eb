// Package ses delivers mail through AWS SES v2 as raw MIME messages,
// so attachments and the HTML alternative match the SMTP transport byte for byte.
package ses

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/dmitrymomot/bulkmail/pkg/mailer"
	"github.com/dmitrymomot/bulkmail/pkg/mailer/smtp"
)

// ErrInvalidConfig indicates missing region or credentials.
var ErrInvalidConfig = errors.New("ses: invalid configuration")

// Config holds SES configuration.
type Config struct {
	Region           string `yaml:"region"`
	AccessKey        string `yaml:"access_key"`
	SecretKey        string `yaml:"secret_key"`
	Endpoint         string `yaml:"endpoint"`
	ConfigurationSet string `yaml:"configuration_set"`
}

// Transport implements mailer.Transport.
type Transport struct {
	client *sesv2.Client
	cfg    Config
}

// New creates an SES transport with static credentials.
func New(cfg Config) (*Transport, error) {
	if cfg.Region == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, ErrInvalidConfig
	}

	opts := sesv2.Options{
		Region:           cfg.Region,
		Credentials:      credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		RetryMaxAttempts: 1,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return &Transport{client: sesv2.New(opts), cfg: cfg}, nil
}

// Open verifies the credentials with GetAccount. A suspended account fails here.
func (t *Transport) Open(ctx context.Context) (mailer.Session, error) {
	out, err := t.client.GetAccount(ctx, &sesv2.GetAccountInput{})
	if err != nil {
		return nil, mailer.SessionError("ses", err)
	}
	if out.EnforcementStatus != nil && *out.EnforcementStatus == "SHUTDOWN" {
		return nil, mailer.SessionError("ses", errors.New("account sending is shut down"))
	}
	return mailer.SenderSession(t), nil
}

// Send implements mailer.Sender.
func (t *Transport) Send(ctx context.Context, email *mailer.Email) error {
	m, err := smtp.BuildMessage(email)
	if err != nil {
		return err
	}
	var raw bytes.Buffer
	if _, err := m.WriteTo(&raw); err != nil {
		return fmt.Errorf("ses: render message: %w", err)
	}

	from := email.From
	if addr, err := mail.ParseAddress(email.From); err == nil {
		from = addr.Address
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination:      &types.Destination{ToAddresses: email.To},
		Content:          &types.EmailContent{Raw: &types.RawMessage{Data: raw.Bytes()}},
	}
	if t.cfg.ConfigurationSet != "" {
		input.ConfigurationSetName = aws.String(t.cfg.ConfigurationSet)
	}
	for name, value := range email.Tags {
		v, ok := value.(string)
		if !ok {
			v = "true"
		}
		input.EmailTags = append(input.EmailTags, types.MessageTag{Name: aws.String(name), Value: aws.String(v)})
	}

	if _, err := t.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("ses: %w", err)
	}
	return nil
}

var (
	_ mailer.Transport = (*Transport)(nil)
	_ mailer.Sender    = (*Transport)(nil)
)
