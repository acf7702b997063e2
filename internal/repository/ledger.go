package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/tizim-bank/internal/domain"
)

const ledgerColumns = `id, account_id, amount, kind, direction, note,
	counterparty_label, performed_by, created_at`

// LedgerRepository has no update or delete: entries are append-only.
type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Create(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_entries (`+ledgerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.AccountID, entry.Amount, entry.Kind, entry.Direction,
		entry.Note, entry.CounterpartyLabel, entry.PerformedBy, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", translate(err))
	}
	return nil
}

func (r *LedgerRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ledger_entries WHERE account_id = $1`, accountID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("GetByAccountID: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE account_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		accountID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("GetByAccountID: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("GetByAccountID: scan: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("GetByAccountID: rows: %w", err)
	}
	return entries, total, nil
}

// SignedSum recomputes the balance implied by the entry log.
func (r *LedgerRepository) SignedSum(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(CASE WHEN direction = 'debit' THEN -amount ELSE amount END), 0)
		FROM ledger_entries WHERE account_id = $1`, accountID,
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("SignedSum: %w", err)
	}
	return sum, nil
}

func scanLedgerEntry(s scanner) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	var performedBy uuid.NullUUID
	err := s.Scan(
		&e.ID, &e.AccountID, &e.Amount, &e.Kind, &e.Direction, &e.Note,
		&e.CounterpartyLabel, &performedBy, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if performedBy.Valid {
		e.PerformedBy = &performedBy.UUID
	}
	return &e, nil
}
