package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/tizim-bank/internal/domain"
)

const outboxColumns = `id, event_type, payload, status, attempts, last_attempt, created_at`

type OutboxRepository struct {
	db *sql.DB
}

func NewOutboxRepository(db *sql.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Create must share the transaction of the ledger write it describes.
func (r *OutboxRepository) Create(ctx context.Context, tx *sql.Tx, event *domain.OutboxEvent) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO outbox_events (`+outboxColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID, event.EventType, []byte(event.Payload), event.Status,
		event.Attempts, event.LastAttempt, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", translate(err))
	}
	return nil
}

// ClaimPending locks up to limit pending events for the lifetime of tx.
// SKIP LOCKED lets several dispatchers run without double delivery.
func (r *OutboxRepository) ClaimPending(ctx context.Context, tx *sql.Tx, limit int) ([]domain.OutboxEvent, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+outboxColumns+` FROM outbox_events
		WHERE status = $1 ORDER BY created_at LIMIT $2 FOR UPDATE SKIP LOCKED`,
		domain.OutboxStatusPending, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ClaimPending: %w", err)
	}
	defer rows.Close()

	var events []domain.OutboxEvent
	for rows.Next() {
		e, err := scanOutboxEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("ClaimPending: scan: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ClaimPending: rows: %w", err)
	}
	return events, nil
}

func (r *OutboxRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.OutboxStatus) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE outbox_events SET status = $1, attempts = attempts + 1, last_attempt = now()
		WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateStatus: %w", err)
	}
	return requireOneRow(res, "UpdateStatus")
}

func (r *OutboxRepository) PruneDispatched(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM outbox_events WHERE status = $1 AND last_attempt < $2`,
		domain.OutboxStatusDispatched, olderThan,
	)
	if err != nil {
		return 0, fmt.Errorf("PruneDispatched: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("PruneDispatched: rows affected: %w", err)
	}
	return n, nil
}

func scanOutboxEvent(s scanner) (*domain.OutboxEvent, error) {
	var e domain.OutboxEvent
	var payload []byte
	err := s.Scan(
		&e.ID, &e.EventType, &payload, &e.Status,
		&e.Attempts, &e.LastAttempt, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Payload = payload
	return &e, nil
}
