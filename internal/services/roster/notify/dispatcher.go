package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/render"
	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/storage"
)

const (
	defaultPollInterval  = 5 * time.Second
	defaultBatchSize     = 50
	defaultMaxAttempts   = 8
	defaultRetryBackoff  = 10 * time.Second
	defaultRetryMaxDelay = 5 * time.Minute
)

// Sink delivers rendered announcement copy to an external channel.
type Sink interface {
	Deliver(ctx context.Context, content string) error
}

// Config controls outbox polling and retry pacing.
type Config struct {
	PollInterval  time.Duration
	BatchSize     int
	MaxAttempts   int
	RetryBackoff  time.Duration
	RetryMaxDelay time.Duration
}

func (c Config) normalized() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = defaultRetryBackoff
	}
	if c.RetryMaxDelay <= 0 {
		c.RetryMaxDelay = defaultRetryMaxDelay
	}
	if c.RetryMaxDelay < c.RetryBackoff {
		c.RetryMaxDelay = c.RetryBackoff
	}
	return c
}

// Dispatcher drains due outbox messages and posts their announcements to a
// sink, retrying failed deliveries with doubling backoff until dead-lettered.
type Dispatcher struct {
	store  storage.OutboxStore
	sink   Sink
	loc    render.Localizer
	cfg    Config
	clock  func() time.Time
	logger *zap.Logger
}

// NewDispatcher wires an outbox dispatcher. A nil logger is replaced with a
// no-op logger.
func NewDispatcher(store storage.OutboxStore, sink Sink, loc render.Localizer, cfg Config, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		store:  store,
		sink:   sink,
		loc:    loc,
		cfg:    cfg.normalized(),
		clock:  time.Now,
		logger: logger,
	}
}

// Run dispatches due messages on every poll tick until the context is
// cancelled. Cancellation is a clean shutdown, not an error.
func (d *Dispatcher) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if d.store == nil || d.sink == nil {
		return fmt.Errorf("outbox store and sink are required")
	}

	if _, err := d.DispatchDue(ctx); err != nil && ctx.Err() == nil {
		d.logger.Warn("outbox dispatch pass failed", zap.Error(err))
	}

	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := d.DispatchDue(ctx); err != nil && ctx.Err() == nil {
				d.logger.Warn("outbox dispatch pass failed", zap.Error(err))
			}
		}
	}
}

// DispatchDue processes every message due at the current tick and reports how
// many were handled, delivered or not.
func (d *Dispatcher) DispatchDue(ctx context.Context) (int, error) {
	if d.store == nil || d.sink == nil {
		return 0, fmt.Errorf("outbox store and sink are required")
	}

	due, err := d.store.ListDueOutboxMessages(ctx, d.cfg.BatchSize, d.clock().UTC())
	if err != nil {
		return 0, fmt.Errorf("list due outbox messages: %w", err)
	}

	processed := 0
	for _, msg := range due {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		d.dispatchOne(ctx, msg)
		processed++
	}
	return processed, nil
}

func (d *Dispatcher) dispatchOne(ctx context.Context, msg storage.OutboxMessageRecord) {
	content := render.Render(d.loc, render.Input{Kind: msg.Kind, PayloadJSON: msg.PayloadJSON})
	if err := d.sink.Deliver(ctx, content); err != nil {
		d.recordFailure(ctx, msg, err)
		return
	}
	// Delivery already happened; a failed status write only risks a duplicate
	// announcement on the next tick.
	if err := d.store.MarkOutboxDelivered(ctx, msg.ID, d.clock().UTC()); err != nil {
		d.logger.Warn("mark outbox message delivered",
			zap.String("message_id", msg.ID),
			zap.Error(err))
	}
}

func (d *Dispatcher) recordFailure(ctx context.Context, msg storage.OutboxMessageRecord, cause error) {
	now := d.clock().UTC()
	attempt := msg.AttemptCount + 1
	if attempt >= d.cfg.MaxAttempts {
		if err := d.store.MarkOutboxDead(ctx, msg.ID, attempt, cause.Error(), now); err != nil {
			d.logger.Warn("mark outbox message dead",
				zap.String("message_id", msg.ID),
				zap.Error(err))
			return
		}
		d.logger.Error("outbox message dead-lettered",
			zap.String("message_id", msg.ID),
			zap.String("kind", msg.Kind),
			zap.Int("attempts", attempt),
			zap.Error(cause))
		return
	}

	delay := d.retryDelay(attempt)
	if err := d.store.MarkOutboxRetry(ctx, msg.ID, attempt, now.Add(delay), cause.Error(), now); err != nil {
		d.logger.Warn("mark outbox message retry",
			zap.String("message_id", msg.ID),
			zap.Error(err))
		return
	}
	d.logger.Warn("outbox delivery failed",
		zap.String("message_id", msg.ID),
		zap.String("kind", msg.Kind),
		zap.Int("attempt", attempt),
		zap.Duration("retry_in", delay),
		zap.Error(cause))
}

// retryDelay doubles the base backoff per prior attempt and caps the result.
func (d *Dispatcher) retryDelay(attempt int) time.Duration {
	delay := d.cfg.RetryBackoff
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= d.cfg.RetryMaxDelay || delay <= 0 {
			return d.cfg.RetryMaxDelay
		}
	}
	if delay > d.cfg.RetryMaxDelay {
		return d.cfg.RetryMaxDelay
	}
	return delay
}
