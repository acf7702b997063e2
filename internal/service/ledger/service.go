package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/tizim-bank/internal/domain"
	"github.com/josh-kwaku/tizim-bank/internal/events"
)

// RecentLimit is how many entries the dashboard shows.
const RecentLimit = 5

type accountRepo interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Account, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance decimal.Decimal) error
	GetBalance(ctx context.Context, id uuid.UUID) (decimal.Decimal, error)
}

type ledgerRepo interface {
	Create(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error
	GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error)
}

type outboxRepo interface {
	Create(ctx context.Context, tx *sql.Tx, event *domain.OutboxEvent) error
}

type userRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// Service is the only code path that changes a balance or appends to the
// entry log.
type Service struct {
	accounts accountRepo
	ledger   ledgerRepo
	outbox   outboxRepo
	users    userRepo
	db       txRunner
}

func NewService(
	accounts accountRepo,
	ledger ledgerRepo,
	outbox outboxRepo,
	users userRepo,
	db txRunner,
) *Service {
	return &Service{
		accounts: accounts,
		ledger:   ledger,
		outbox:   outbox,
		users:    users,
		db:       db,
	}
}

// post appends the entry and its outbox event inside tx.
func (s *Service) post(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error {
	if err := s.ledger.Create(ctx, tx, entry); err != nil {
		return fmt.Errorf("post: %w", err)
	}
	ev, err := events.OutboxEventFor(entry)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	if err := s.outbox.Create(ctx, tx, ev); err != nil {
		return fmt.Errorf("post: outbox: %w", err)
	}
	return nil
}

// label returns the display name shown to the other side of a transfer.
func (s *Service) label(ctx context.Context, acct *domain.Account) (string, error) {
	u, err := s.users.GetByID(ctx, acct.UserID)
	if err != nil {
		return "", fmt.Errorf("label: %w", err)
	}
	return u.DisplayName(), nil
}

func (s *Service) Balance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	b, err := s.accounts.GetBalance(ctx, accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("Balance: %w", err)
	}
	return b, nil
}

func (s *Service) History(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error) {
	entries, total, err := s.ledger.GetByAccountID(ctx, accountID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("History: %w", err)
	}
	return entries, total, nil
}

func (s *Service) Recent(ctx context.Context, accountID uuid.UUID) ([]domain.LedgerEntry, error) {
	entries, _, err := s.ledger.GetByAccountID(ctx, accountID, RecentLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("Recent: %w", err)
	}
	return entries, nil
}
