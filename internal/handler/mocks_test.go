package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/tizim-bank/internal/auth"
	"github.com/josh-kwaku/tizim-bank/internal/domain"
	"github.com/josh-kwaku/tizim-bank/internal/service"
	"github.com/josh-kwaku/tizim-bank/internal/service/ledger"
)

type mockAccounts struct {
	acct *domain.Account
	err  error
}

func (m *mockAccounts) GetByUserID(_ context.Context, userID uuid.UUID) (*domain.Account, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.acct, nil
}

type mockLedger struct {
	transferErr error
	lastEmail   string
	lastAmount  decimal.Decimal
	lastTopUp   ledger.TopUpRequest
	lastAdjust  ledger.AdjustRequest
	entryErr    error
	entries     []domain.LedgerEntry
	lastLimit   int
	lastOffset  int
}

func (m *mockLedger) TransferByEmail(_ context.Context, sender uuid.UUID, email string, amount decimal.Decimal, note string, by *uuid.UUID) (*ledger.TransferResult, error) {
	m.lastEmail, m.lastAmount = email, amount
	if m.transferErr != nil {
		return nil, m.transferErr
	}
	out := &domain.LedgerEntry{ID: uuid.New(), AccountID: sender, Amount: amount, Kind: domain.EntryKindTransferOut, Direction: domain.DirectionDebit, Note: note, PerformedBy: by}
	in := &domain.LedgerEntry{ID: uuid.New(), AccountID: uuid.New(), Amount: amount, Kind: domain.EntryKindTransferIn, Direction: domain.DirectionCredit, Note: note, PerformedBy: by}
	return &ledger.TransferResult{Out: out, In: in}, nil
}

func (m *mockLedger) TopUp(_ context.Context, req ledger.TopUpRequest) (*domain.LedgerEntry, error) {
	m.lastTopUp = req
	if m.entryErr != nil {
		return nil, m.entryErr
	}
	kind := domain.EntryKindTopUp
	if req.IsFake {
		kind = domain.EntryKindFakePayment
	}
	return &domain.LedgerEntry{ID: uuid.New(), AccountID: req.AccountID, Amount: req.Amount, Kind: kind, Direction: domain.DirectionCredit}, nil
}

func (m *mockLedger) Adjust(_ context.Context, req ledger.AdjustRequest) (*domain.LedgerEntry, error) {
	m.lastAdjust = req
	if m.entryErr != nil {
		return nil, m.entryErr
	}
	dir := domain.DirectionCredit
	if req.SignedAmount.IsNegative() {
		dir = domain.DirectionDebit
	}
	return &domain.LedgerEntry{ID: uuid.New(), AccountID: req.AccountID, Amount: req.SignedAmount.Abs(), Kind: domain.EntryKindAdminAdjustment, Direction: dir}, nil
}

func (m *mockLedger) History(_ context.Context, _ uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error) {
	m.lastLimit, m.lastOffset = limit, offset
	return m.entries, len(m.entries), m.entryErr
}

func (m *mockLedger) Recent(_ context.Context, _ uuid.UUID) ([]domain.LedgerEntry, error) {
	return m.entries, m.entryErr
}

type mockIdentity struct {
	user      *domain.User
	account   *domain.Account
	err       error
	lastReg   service.RegisterRequest
	lastEmail string
}

func (m *mockIdentity) Register(_ context.Context, req service.RegisterRequest) (*domain.User, *domain.Account, error) {
	m.lastReg = req
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.user, m.account, nil
}

func (m *mockIdentity) Authenticate(_ context.Context, email, _ string) (*domain.User, error) {
	m.lastEmail = email
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

func (m *mockIdentity) Profile(_ context.Context, _ uuid.UUID) (*domain.User, *domain.Account, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.user, m.account, nil
}

func (m *mockIdentity) UpdateProfile(_ context.Context, _ uuid.UUID, _ service.ProfileUpdate) (*domain.User, *domain.Account, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.user, m.account, nil
}

func (m *mockIdentity) ChangePassword(_ context.Context, _ uuid.UUID, _, _, _ string) error {
	return m.err
}

type mockBanks struct {
	banks []domain.Bank
	err   error
}

func (m *mockBanks) List(_ context.Context) ([]domain.Bank, error) { return m.banks, m.err }

func (m *mockBanks) Get(_ context.Context, id uuid.UUID) (*domain.Bank, error) {
	for i := range m.banks {
		if m.banks[i].ID == id {
			return &m.banks[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func withCaller(ctx context.Context, userID uuid.UUID, staff bool) context.Context {
	return auth.ContextWithClaims(ctx, &auth.Claims{UserID: userID, Email: "caller@test.com", IsStaff: staff})
}

type mockAccountsByUser struct {
	accounts map[uuid.UUID]*domain.Account
}

func (m *mockAccountsByUser) GetByUserID(_ context.Context, userID uuid.UUID) (*domain.Account, error) {
	if a, ok := m.accounts[userID]; ok {
		return a, nil
	}
	return nil, domain.ErrNotFound
}
