package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/tizim-bank/internal/domain"
	"github.com/josh-kwaku/tizim-bank/internal/logging"
)

type TopUpRequest struct {
	AccountID   uuid.UUID
	Amount      decimal.Decimal
	Note        string
	IsFake      bool
	PerformedBy *uuid.UUID
}

// TopUp credits an account. A fake top-up is recorded as fake_payment but
// moves the balance like a real one; callers decide who may request it.
func (s *Service) TopUp(ctx context.Context, req TopUpRequest) (*domain.LedgerEntry, error) {
	log := logging.FromContext(ctx)

	amount, err := ValidateTopUp(req)
	if err != nil {
		return nil, fmt.Errorf("TopUp: %w", err)
	}

	kind := domain.EntryKindTopUp
	if req.IsFake {
		kind = domain.EntryKindFakePayment
	}

	entry := &domain.LedgerEntry{
		ID:          uuid.New(),
		AccountID:   req.AccountID,
		Amount:      amount,
		Kind:        kind,
		Direction:   domain.DirectionCredit,
		Note:        req.Note,
		PerformedBy: req.PerformedBy,
	}

	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		acct, err := lockAccount(ctx, tx, s.accounts, req.AccountID)
		if err != nil {
			return err
		}
		newBalance := acct.Balance.Add(amount)
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
		return nil, fmt.Errorf("TopUp: %w", err)
	}

	log.Info("top-up posted",
		"account_id", req.AccountID,
		"amount", domain.FormatAmount(amount),
		"kind", kind,
		"entry_id", entry.ID,
	)
	return entry, nil
}

func lockAccount(ctx context.Context, tx *sql.Tx, accounts accountRepo, id uuid.UUID) (*domain.Account, error) {
	acct, err := accounts.GetForUpdate(ctx, tx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("lockAccount: %w", domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("lockAccount: %w", err)
	}
	return acct, nil
}
