package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/tizim-bank/internal/domain"
	"github.com/josh-kwaku/tizim-bank/internal/events"
)

const pruneInterval = time.Hour

type outboxStore interface {
	ClaimPending(ctx context.Context, tx *sql.Tx, limit int) ([]domain.OutboxEvent, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.OutboxStatus) error
	PruneDispatched(ctx context.Context, olderThan time.Time) (int64, error)
}

type expiringStore interface {
	PruneExpired(ctx context.Context) (int64, error)
}

type DispatcherConfig struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
	Retention   time.Duration
}

// Dispatcher delivers outbox rows to the event publisher. It never reads or
// writes balances.
type Dispatcher struct {
	outbox      outboxStore
	idempotency expiringStore
	publisher   events.Publisher
	db          txRunner
	logger      *slog.Logger
	cfg         DispatcherConfig
}

func NewDispatcher(
	outbox outboxStore,
	idempotency expiringStore,
	publisher events.Publisher,
	db txRunner,
	logger *slog.Logger,
	cfg DispatcherConfig,
) *Dispatcher {
	return &Dispatcher{
		outbox:      outbox,
		idempotency: idempotency,
		publisher:   publisher,
		db:          db,
		logger:      logger,
		cfg:         cfg,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("outbox dispatcher started",
		"interval", d.cfg.Interval,
		"batch_size", d.cfg.BatchSize,
	)

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()
	pruner := time.NewTicker(pruneInterval)
	defer pruner.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("outbox dispatcher stopped")
			return
		case <-ticker.C:
			if _, err := d.poll(ctx); err != nil {
				d.logger.Error("outbox poll failed", "error", err)
			}
		case <-pruner.C:
			d.prune(ctx)
		}
	}
}

// poll claims one batch and returns how many events were delivered.
func (d *Dispatcher) poll(ctx context.Context) (int, error) {
	delivered := 0
	err := d.db.WithTx(ctx, func(tx *sql.Tx) error {
		batch, err := d.outbox.ClaimPending(ctx, tx, d.cfg.BatchSize)
		if err != nil {
			return err
		}
		for _, ev := range batch {
			status := d.deliver(ctx, ev)
			if err := d.outbox.UpdateStatus(ctx, tx, ev.ID, status); err != nil {
				return err
			}
			if status == domain.OutboxStatusDispatched {
				delivered++
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("poll: %w", err)
	}
	return delivered, nil
}

// deliver publishes one event and returns the status it should move to.
// A failed publish leaves the event pending until MaxAttempts is reached.
func (d *Dispatcher) deliver(ctx context.Context, ev domain.OutboxEvent) domain.OutboxStatus {
	msg, err := events.MessageFor(ev)
	if err != nil {
		d.logger.Error("malformed outbox payload", "outbox_event_id", ev.ID, "error", err)
		return domain.OutboxStatusFailed
	}

	if err := d.publisher.Publish(ctx, msg); err != nil {
		attempt := ev.Attempts + 1
		if attempt >= d.cfg.MaxAttempts {
			d.logger.Error("outbox event abandoned",
				"outbox_event_id", ev.ID,
				"attempts", attempt,
				"error", err,
			)
			return domain.OutboxStatusFailed
		}
		d.logger.Warn("outbox publish failed, will retry",
			"outbox_event_id", ev.ID,
			"attempts", attempt,
			"error", err,
		)
		return domain.OutboxStatusPending
	}
	return domain.OutboxStatusDispatched
}

func (d *Dispatcher) prune(ctx context.Context) {
	n, err := d.outbox.PruneDispatched(ctx, time.Now().UTC().Add(-d.cfg.Retention))
	if err != nil {
		d.logger.Error("failed to prune outbox", "error", err)
	} else if n > 0 {
		d.logger.Info("pruned dispatched outbox events", "count", n)
	}

	n, err = d.idempotency.PruneExpired(ctx)
	if err != nil {
		d.logger.Error("failed to prune idempotency cache", "error", err)
	} else if n > 0 {
		d.logger.Info("pruned expired idempotency keys", "count", n)
	}
}
