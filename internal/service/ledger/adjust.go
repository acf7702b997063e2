package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/tizim-bank/internal/domain"
	"github.com/josh-kwaku/tizim-bank/internal/logging"
)

type AdjustRequest struct {
	AccountID    uuid.UUID
	SignedAmount decimal.Decimal
	Note         string
	PerformedBy  *uuid.UUID
	// AllowNegative lets a debit take the balance below zero.
	AllowNegative bool
}

func (s *Service) Adjust(ctx context.Context, req AdjustRequest) (*domain.LedgerEntry, error) {
	log := logging.FromContext(ctx)

	signed, err := ValidateAdjust(req)
	if err != nil {
		return nil, fmt.Errorf("Adjust: %w", err)
	}

	direction := domain.DirectionCredit
	if signed.IsNegative() {
		direction = domain.DirectionDebit
	}
	entry := &domain.LedgerEntry{
		ID:          uuid.New(),
		AccountID:   req.AccountID,
		Amount:      signed.Abs(),
		Kind:        domain.EntryKindAdminAdjustment,
		Direction:   direction,
		Note:        req.Note,
		PerformedBy: req.PerformedBy,
	}

	var newBalance decimal.Decimal
	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		acct, err := lockAccount(ctx, tx, s.accounts, req.AccountID)
		if err != nil {
			return err
		}
		newBalance = acct.Balance.Add(signed)
		if newBalance.IsNegative() && !req.AllowNegative {
			return domain.ErrInsufficientFunds
		}
		if err := domain.CheckBalance(newBalance); err != nil {
			return err
		}
		if err := s.accounts.UpdateBalance(ctx, tx, acct.ID, newBalance); err != nil {
			return fmt.Errorf("update balance: %w", err)
		}
		entry.CreatedAt = time.Now().UTC()
		return s.post(ctx, tx, entry)
	})
	if err != nil {
		return nil, fmt.Errorf("Adjust: %w", err)
	}

	log.Info("balance adjusted",
		"account_id", req.AccountID,
		"amount", domain.FormatAmount(signed),
		"balance", domain.FormatAmount(newBalance),
		"performed_by", req.PerformedBy,
		"entry_id", entry.ID,
	)
	if newBalance.IsNegative() {
		log.Warn("account balance is negative after adjustment", "account_id", req.AccountID)
	}
	return entry, nil
}
