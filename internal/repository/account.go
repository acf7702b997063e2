package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/tizim-bank/internal/domain"
)

const accountColumns = `id, user_id, balance, profile_image, face_reference,
	is_face_verified, created_at, updated_at`

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1`, userID,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByUserID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByUserID: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) Create(ctx context.Context, tx *sql.Tx, account *domain.Account) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		account.ID, account.UserID, account.Balance,
		account.ProfileImage, account.FaceReference, account.IsFaceVerified,
		account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// EnsureForUser creates the user's account if it does not exist yet and
// returns it either way. Safe to call repeatedly and concurrently.
func (r *AccountRepository) EnsureForUser(ctx context.Context, userID uuid.UUID) (*domain.Account, bool, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, user_id, balance, created_at, updated_at)
		VALUES ($1, $2, 0, $3, $3)
		ON CONFLICT (user_id) DO NOTHING`,
		uuid.New(), userID, now,
	)
	if err != nil {
		return nil, false, fmt.Errorf("EnsureForUser: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("EnsureForUser: rows affected: %w", err)
	}

	a, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("EnsureForUser: %w", err)
	}
	return a, n == 1, nil
}

func (r *AccountRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Account, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", translate(err))
	}
	return a, nil
}

// UpdateBalance must run on a row previously locked with GetForUpdate in
// the same transaction.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance decimal.Decimal) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance = $1, updated_at = now() WHERE id = $2`,
		newBalance, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateBalance: %w", translate(err))
	}
	return requireOneRow(res, "UpdateBalance")
}

func (r *AccountRepository) GetBalance(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.db.QueryRowContext(ctx,
		`SELECT balance FROM accounts WHERE id = $1`, id,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("GetBalance: %w", domain.ErrNotFound)
		}
		return decimal.Zero, fmt.Errorf("GetBalance: %w", err)
	}
	return balance, nil
}

// UpdateMedia replaces only the image paths that are non-nil. A new face
// reference marks the account as face-verified.
func (r *AccountRepository) UpdateMedia(ctx context.Context, tx *sql.Tx, id uuid.UUID, profileImage, faceReference *string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET
			profile_image    = COALESCE($1, profile_image),
			face_reference   = COALESCE($2, face_reference),
			is_face_verified = is_face_verified OR $2::text IS NOT NULL,
			updated_at       = now()
		WHERE id = $3`,
		profileImage, faceReference, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateMedia: %w", err)
	}
	return requireOneRow(res, "UpdateMedia")
}

func scanAccount(s scanner) (*domain.Account, error) {
	var a domain.Account
	err := s.Scan(
		&a.ID, &a.UserID, &a.Balance,
		&a.ProfileImage, &a.FaceReference, &a.IsFaceVerified,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
