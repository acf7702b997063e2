package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/tizim-bank/internal/domain"
)

const bankColumns = `id, name, address, established_date, created_at`

type BankRepository struct {
	db *sql.DB
}

func NewBankRepository(db *sql.DB) *BankRepository {
	return &BankRepository{db: db}
}

func (r *BankRepository) List(ctx context.Context) ([]domain.Bank, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bankColumns+` FROM banks ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var banks []domain.Bank
	for rows.Next() {
		b, err := scanBank(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		banks = append(banks, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return banks, nil
}

func (r *BankRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Bank, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+bankColumns+` FROM banks WHERE id = $1`, id,
	)
	b, err := scanBank(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return b, nil
}

// Upsert inserts the bank or refreshes the address and date of an existing
// bank with the same name. The seeder relies on names being stable.
func (r *BankRepository) Upsert(ctx context.Context, b *domain.Bank) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO banks (`+bankColumns+`) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET
			address = EXCLUDED.address,
			established_date = EXCLUDED.established_date`,
		b.ID, b.Name, b.Address, b.EstablishedDate, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}

func scanBank(s scanner) (*domain.Bank, error) {
	var b domain.Bank
	if err := s.Scan(&b.ID, &b.Name, &b.Address, &b.EstablishedDate, &b.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}
