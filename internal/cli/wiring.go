package cli

import (
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/bulkmail/internal/config"
	"github.com/dmitrymomot/bulkmail/internal/dispatch"
	"github.com/dmitrymomot/bulkmail/internal/dispatchlog"
	"github.com/dmitrymomot/bulkmail/internal/templater"
	"github.com/dmitrymomot/bulkmail/pkg/mailer"
	"github.com/dmitrymomot/bulkmail/pkg/mailer/resend"
	"github.com/dmitrymomot/bulkmail/pkg/mailer/ses"
	"github.com/dmitrymomot/bulkmail/pkg/mailer/smtp"
	"github.com/dmitrymomot/bulkmail/pkg/storage"
)

// components is everything a batch needs, built from configuration.
type components struct {
	storage    storage.Storage
	logs       *dispatchlog.Store
	transport  mailer.Transport
	dispatcher *dispatch.Dispatcher
}

func build(cfg *config.Config, log *slog.Logger) (*components, error) {
	st, err := newStorage(cfg.Storage)
	if err != nil {
		return nil, err
	}
	logs, err := dispatchlog.NewStore(st, dispatchlog.Config{SpoolDir: cfg.Storage.SpoolDir})
	if err != nil {
		return nil, err
	}
	transport, err := newTransport(cfg)
	if err != nil {
		return nil, err
	}

	composer := mailer.NewComposer(mailer.ComposerConfig{
		FromName:    cfg.Sender.Name,
		FromAddress: cfg.Sender.Address,
		ReplyTo:     cfg.Sender.ReplyTo,
		Signature:   cfg.Sender.Signature,
		PlainOnly:   cfg.Sender.PlainOnly,
	})
	tpl := templater.New(templater.Config{
		Placeholder:     cfg.Template.Placeholder,
		Fallback:        cfg.Template.Fallback,
		KeepPlaceholder: cfg.Template.KeepPlaceholder,
	})
	d := dispatch.New(transport, mailer.New(composer), tpl, logs,
		dispatch.Config{
			Subject: cfg.Sender.Subject,
			Pacing: dispatch.Pacing{
				Delay:         cfg.Pacing.Delay,
				SkipAfterLast: cfg.Pacing.SkipLast,
			},
			MaxRecipients: cfg.Limits.MaxRecipients,
		},
		dispatch.WithLogger(log),
	)

	return &components{storage: st, logs: logs, transport: transport, dispatcher: d}, nil
}

func newStorage(cfg config.StorageConfig) (storage.Storage, error) {
	switch cfg.Driver {
	case config.StorageS3:
		st, err := storage.New(cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("s3 storage: %w", err)
		}
		return st, nil
	case config.StorageLocal:
		st, err := storage.NewLocal(storage.LocalConfig{Dir: cfg.Dir})
		if err != nil {
			return nil, fmt.Errorf("local storage: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("%w: unknown storage driver %q", config.ErrInvalid, cfg.Driver)
	}
}

func newTransport(cfg *config.Config) (mailer.Transport, error) {
	var (
		t   mailer.Transport
		err error
	)
	switch cfg.Transport {
	case config.TransportSMTP:
		t, err = smtp.New(cfg.SMTP)
	case config.TransportResend:
		t, err = resend.NewTransport(cfg.Resend)
	case config.TransportSES:
		t, err = ses.New(cfg.SES)
	default:
		return nil, fmt.Errorf("%w: unknown transport %q", config.ErrInvalid, cfg.Transport)
	}
	if err != nil {
		return nil, fmt.Errorf("%s transport: %w", cfg.Transport, err)
	}
	return t, nil
}
