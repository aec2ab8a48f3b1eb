// Package dispatch runs a mail-merge batch: it validates the input, opens one
// mail session, sends one personalized message per recipient with pacing and
// records every outcome in a dispatch log.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/dmitrymomot/bulkmail/internal/dispatchlog"
	"github.com/dmitrymomot/bulkmail/internal/recipients"
	"github.com/dmitrymomot/bulkmail/internal/templater"
	"github.com/dmitrymomot/bulkmail/pkg/id"
	"github.com/dmitrymomot/bulkmail/pkg/logger"
	"github.com/dmitrymomot/bulkmail/pkg/mailer"
)

// Batch is the input of one run.
type Batch struct {
	Table      *recipients.Table
	Template   string
	Subject    string             // overrides Config.Subject
	Attachment *mailer.Attachment // optional, shared by every message
}

// Config configures a Dispatcher.
type Config struct {
	Subject       string // default subject
	Pacing        Pacing
	MaxRecipients int // 0 means unlimited
}

// Dispatcher runs batches one at a time.
type Dispatcher struct {
	transport mailer.Transport
	mailer    *mailer.Mailer
	templater *templater.Templater
	logs      *dispatchlog.Store
	logger    *slog.Logger
	cfg       Config

	sleep Sleeper
	now   func() time.Time
	sem   *semaphore.Weighted
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithSleeper replaces time.Sleep for pacing.
func WithSleeper(s Sleeper) Option {
	return func(d *Dispatcher) { d.sleep = s }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// New creates a Dispatcher.
func New(
	transport mailer.Transport,
	m *mailer.Mailer,
	tpl *templater.Templater,
	logs *dispatchlog.Store,
	cfg Config,
	opts ...Option,
) *Dispatcher {
	if cfg.Pacing.Delay == 0 {
		cfg.Pacing.Delay = DefaultDelay
	}
	d := &Dispatcher{
		transport: transport,
		mailer:    m,
		templater: tpl,
		logs:      logs,
		cfg:       cfg,
		logger:    logger.NewNope(),
		sleep:     time.Sleep,
		now:       time.Now,
		sem:       semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run executes a batch. Batches are serialized: a second caller waits until the
// first finishes, or until its own ctx is done. Once sending starts the batch
// runs to completion even if ctx is canceled.
//
// Errors: ErrValidation and ErrSession mean nothing was sent and no log exists.
// Any other error is unexpected; outcomes recorded so far stay in the journal.
func (d *Dispatcher) Run(ctx context.Context, b Batch) (*Result, error) {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("wait for running batch: %w", err)
	}
	defer d.sem.Release(1)

	startedAt := d.now()
	res := &Result{ID: id.NewBatchID(startedAt), State: StateIdle, StartedAt: startedAt}
	ctx = logger.WithBatchID(context.WithoutCancel(ctx), res.ID)

	d.transition(ctx, res, StateValidating)
	subject, err := d.validate(b)
	if err != nil {
		d.logger.WarnContext(ctx, "batch rejected", slog.String("error", err.Error()))
		return res, err
	}
	records := b.Table.Records()
	res.Total = len(records)
	res.Skipped = b.Table.Skipped()

	session, err := d.transport.Open(ctx)
	if err != nil {
		d.logger.ErrorContext(ctx, "open mail session", slog.String("error", err.Error()))
		return res, fmt.Errorf("%w: %w", ErrSession, err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			d.logger.WarnContext(ctx, "close mail session", slog.String("error", err.Error()))
		}
	}()

	log, err := d.logs.Begin(ctx, res.ID)
	if err != nil {
		return res, fmt.Errorf("begin dispatch log: %w", err)
	}
	res.LogID = log.ID()

	d.transition(ctx, res, StateSendingBatch)
	d.logger.InfoContext(ctx, "batch started",
		slog.Int("recipients", res.Total),
		slog.Int("skipped", res.Skipped),
		slog.Bool("attachment", b.Attachment != nil),
	)

	for i, rec := range records {
		body := d.templater.Render(b.Template, rec.Name, rec.HasName)
		err := d.sendOne(ctx, session, rec.Email, subject, body, b.Attachment, res.ID)

		o := Outcome{Email: rec.Email, Err: err}
		var de *mailer.DeliveryError
		if errors.As(err, &de) && de.Cause != nil {
			o.Err = de.Cause
		}
		if rerr := log.Record(o); rerr != nil {
			d.logger.WarnContext(ctx, "journal write failed", slog.String("error", rerr.Error()))
		}
		if err != nil {
			d.logger.WarnContext(ctx, "delivery failed",
				slog.String("to", rec.Email), slog.Int("row", rec.Row), slog.String("error", err.Error()))
		} else {
			d.logger.DebugContext(ctx, "delivered", slog.String("to", rec.Email), slog.Int("row", rec.Row))
		}

		if delay := d.cfg.Pacing.after(i, len(records)); delay > 0 {
			d.sleep(delay)
		}
	}

	res.Outcomes = log.Outcomes()
	res.Sent, res.Failed = log.Counts()

	if _, err := log.Persist(ctx); err != nil {
		log.Abandon()
		return res, err
	}
	res.LogURL = d.logs.URL(res.LogID)
	res.Status = StatusSent
	res.FinishedAt = d.now()
	d.transition(ctx, res, StateCompleted)

	d.logger.InfoContext(ctx, "batch completed",
		slog.Int("sent", res.Sent),
		slog.Int("failed", res.Failed),
		slog.String("log_id", res.LogID),
		slog.Duration("duration", res.Duration()),
	)
	return res, nil
}

func (d *Dispatcher) validate(b Batch) (string, error) {
	if b.Table == nil {
		return "", fmt.Errorf("%w: recipient table is required", ErrValidation)
	}
	if strings.TrimSpace(b.Template) == "" {
		return "", fmt.Errorf("%w: message is required", ErrValidation)
	}
	subject := strings.TrimSpace(b.Subject)
	if subject == "" {
		subject = strings.TrimSpace(d.cfg.Subject)
	}
	if subject == "" {
		return "", fmt.Errorf("%w: subject is required", ErrValidation)
	}
	if d.cfg.MaxRecipients > 0 && b.Table.Len() > d.cfg.MaxRecipients {
		return "", fmt.Errorf("%w: %d recipients exceed the limit of %d", ErrValidation, b.Table.Len(), d.cfg.MaxRecipients)
	}
	return subject, nil
}

// sendOne delivers one message. A panic in the transport becomes a delivery error.
func (d *Dispatcher) sendOne(ctx context.Context, s mailer.Session, to, subject, body string, att *mailer.Attachment, batchID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.ErrorContext(ctx, "panic during send", slog.String("to", to), slog.Any("panic", r))
			err = &mailer.DeliveryError{Recipient: to, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()
	return d.mailer.Send(ctx, s, to, subject, body, att,
		mailer.WithTag("batch_id", batchID),
		mailer.WithHeader("X-Bulkmail-Batch", batchID),
	)
}

func (d *Dispatcher) transition(ctx context.Context, res *Result, to State) {
	d.logger.DebugContext(ctx, "batch state", slog.String("from", res.State.String()), slog.String("to", to.String()))
	res.State = to
}
