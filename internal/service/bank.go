package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/tizim-bank/internal/domain"
	"github.com/josh-kwaku/tizim-bank/internal/logging"
)

type bankRepo interface {
	List(ctx context.Context) ([]domain.Bank, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Bank, error)
	Upsert(ctx context.Context, b *domain.Bank) error
}

// BankService exposes the read-only bank directory.
type BankService struct {
	banks bankRepo
}

func NewBankService(banks bankRepo) *BankService {
	return &BankService{banks: banks}
}

func (s *BankService) List(ctx context.Context) ([]domain.Bank, error) {
	banks, err := s.banks.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return banks, nil
}

func (s *BankService) Get(ctx context.Context, id uuid.UUID) (*domain.Bank, error) {
	b, err := s.banks.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return b, nil
}

// Seed upserts banks by name.
func (s *BankService) Seed(ctx context.Context, banks []domain.Bank) (int, error) {
	for i := range banks {
		if err := s.banks.Upsert(ctx, &banks[i]); err != nil {
			return i, fmt.Errorf("Seed: %s: %w", banks[i].Name, err)
		}
	}
	logging.FromContext(ctx).Info("banks seeded", "count", len(banks))
	return len(banks), nil
}
