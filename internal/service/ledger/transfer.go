package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/tizim-bank/internal/domain"
	"github.com/josh-kwaku/tizim-bank/internal/logging"
)

type TransferRequest struct {
	SenderAccountID    uuid.UUID
	RecipientAccountID uuid.UUID
	Amount             decimal.Decimal
	Note               string
	PerformedBy        *uuid.UUID
}

type TransferResult struct {
	Out *domain.LedgerEntry
	In  *domain.LedgerEntry
}

func (s *Service) Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	log := logging.FromContext(ctx)

	amount, err := ValidateTransfer(req)
	if err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}
	req.Amount = amount

	var result *TransferResult
	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		r, err := s.executeTransfer(ctx, tx, req)
		result = r
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}

	log.Info("transfer completed",
		"sender_account", req.SenderAccountID,
		"recipient_account", req.RecipientAccountID,
		"amount", domain.FormatAmount(amount),
		"out_entry", result.Out.ID,
		"in_entry", result.In.ID,
	)
	return result, nil
}

// TransferByEmail resolves the recipient's account from their email and
// then behaves exactly like Transfer.
func (s *Service) TransferByEmail(ctx context.Context, senderAccountID uuid.UUID, recipientEmail string, amount decimal.Decimal, note string, performedBy *uuid.UUID) (*TransferResult, error) {
	if _, err := domain.PositiveAmount(amount); err != nil {
		return nil, fmt.Errorf("TransferByEmail: %w", domain.Invalid("amount", domain.ErrInvalidAmount))
	}

	recipient, err := s.users.GetByEmail(ctx, recipientEmail)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("TransferByEmail: %w", domain.ErrCounterpartyNotFound)
		}
		return nil, fmt.Errorf("TransferByEmail: %w", err)
	}
	recipientAcct, err := s.accounts.GetByUserID(ctx, recipient.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("TransferByEmail: %w", domain.ErrCounterpartyNotFound)
		}
		return nil, fmt.Errorf("TransferByEmail: %w", err)
	}

	return s.Transfer(ctx, TransferRequest{
		SenderAccountID:    senderAccountID,
		RecipientAccountID: recipientAcct.ID,
		Amount:             amount,
		Note:               note,
		PerformedBy:        performedBy,
	})
}

func (s *Service) executeTransfer(ctx context.Context, tx *sql.Tx, req TransferRequest) (*TransferResult, error) {
	locked, err := lockAccountsInOrder(ctx, tx, s.accounts, req.SenderAccountID, req.RecipientAccountID)
	if err != nil {
		return nil, fmt.Errorf("executeTransfer: %w", err)
	}

	sender, recipient := locked[req.SenderAccountID], locked[req.RecipientAccountID]
	if recipient == nil {
		return nil, fmt.Errorf("executeTransfer: %w", domain.ErrCounterpartyNotFound)
	}
	if sender == nil {
		return nil, fmt.Errorf("executeTransfer: %w", domain.ErrAccountNotFound)
	}

	if sender.Balance.LessThan(req.Amount) {
		return nil, fmt.Errorf("executeTransfer: %w", domain.ErrInsufficientFunds)
	}
	recipientBalance := recipient.Balance.Add(req.Amount)
	if err := domain.CheckBalance(recipientBalance); err != nil {
		return nil, fmt.Errorf("executeTransfer: recipient: %w", err)
	}

	senderLabel, err := s.label(ctx, sender)
	if err != nil {
		return nil, fmt.Errorf("executeTransfer: sender: %w", err)
	}
	recipientLabel, err := s.label(ctx, recipient)
	if err != nil {
		return nil, fmt.Errorf("executeTransfer: recipient: %w", err)
	}

	now := time.Now().UTC()
	out := &domain.LedgerEntry{
		ID:                uuid.New(),
		AccountID:         sender.ID,
		Amount:            req.Amount,
		Kind:              domain.EntryKindTransferOut,
		Direction:         domain.DirectionDebit,
		Note:              req.Note,
		CounterpartyLabel: recipientLabel,
		PerformedBy:       req.PerformedBy,
		CreatedAt:         now,
	}
	in := &domain.LedgerEntry{
		ID:                uuid.New(),
		AccountID:         recipient.ID,
		Amount:            req.Amount,
		Kind:              domain.EntryKindTransferIn,
		Direction:         domain.DirectionCredit,
		Note:              req.Note,
		CounterpartyLabel: senderLabel,
		PerformedBy:       req.PerformedBy,
		CreatedAt:         now,
	}

	if err := s.accounts.UpdateBalance(ctx, tx, sender.ID, sender.Balance.Sub(req.Amount)); err != nil {
		return nil, fmt.Errorf("executeTransfer: update sender: %w", err)
	}
	if err := s.accounts.UpdateBalance(ctx, tx, recipient.ID, recipientBalance); err != nil {
		return nil, fmt.Errorf("executeTransfer: update recipient: %w", err)
	}
	if err := s.post(ctx, tx, out); err != nil {
		return nil, fmt.Errorf("executeTransfer: debit: %w", err)
	}
	if err := s.post(ctx, tx, in); err != nil {
		return nil, fmt.Errorf("executeTransfer: credit: %w", err)
	}

	return &TransferResult{Out: out, In: in}, nil
}

// lockAccountsInOrder takes FOR UPDATE locks in ascending id order so two
// opposing transfers cannot deadlock. Missing accounts are absent from the
// returned map.
func lockAccountsInOrder(ctx context.Context, tx *sql.Tx, accounts accountRepo, ids ...uuid.UUID) (map[uuid.UUID]*domain.Account, error) {
	sorted := make([]uuid.UUID, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].String() < sorted[j].String()
	})

	result := make(map[uuid.UUID]*domain.Account, len(ids))
	for _, id := range sorted {
		acct, err := accounts.GetForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("lockAccountsInOrder: %w", err)
		}
		result[id] = acct
	}
	return result, nil
}
