package ledger_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/tizim-bank/internal/domain"
	"github.com/josh-kwaku/tizim-bank/internal/repository"
	"github.com/josh-kwaku/tizim-bank/internal/service/ledger"
	"github.com/josh-kwaku/tizim-bank/internal/testutil"
)

func setupLedgerService(t *testing.T, db *sql.DB) *ledger.Service {
	t.Helper()
	return ledger.NewService(
		repository.NewAccountRepository(db),
		repository.NewLedgerRepository(db),
		repository.NewOutboxRepository(db),
		repository.NewUserRepository(db),
		repository.NewDB(db),
	)
}

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Equal(t, want, domain.FormatAmount(got))
}

// assertBalanced checks that the stored balance equals the signed sum of the
// account's entries.
func assertBalanced(t *testing.T, db *sql.DB, accountID uuid.UUID) {
	t.Helper()
	balance := testutil.GetAccountBalance(t, db, accountID)
	sum := testutil.SignedEntrySum(t, db, accountID)
	assert.True(t, balance.Equal(sum), "balance %s != entry sum %s", balance, sum)
}

// fundedAccount creates an account at zero and tops it up through the
// ledger so the entry sum matches from the start.
func fundedAccount(t *testing.T, db *sql.DB, svc *ledger.Service, email, first, last, opening string) (*domain.User, *domain.Account) {
	t.Helper()
	u := testutil.SeedTestUser(t, db, email, first, last)
	a := testutil.SeedTestAccount(t, db, u.ID, "0")
	if opening != "0" {
		_, err := svc.TopUp(context.Background(), ledger.TopUpRequest{AccountID: a.ID, Amount: amount(opening)})
		require.NoError(t, err)
	}
	return u, a
}

func TestTransfer_HappyPath(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	sender, senderAcct := fundedAccount(t, db, svc, "alice@test.com", "Alice", "Karimova", "100")
	_, recipientAcct := fundedAccount(t, db, svc, "bob@test.com", "Bob", "Tursunov", "0")

	res, err := svc.Transfer(ctx, ledger.TransferRequest{
		SenderAccountID:    senderAcct.ID,
		RecipientAccountID: recipientAcct.ID,
		Amount:             amount("50"),
		Note:               "lunch",
		PerformedBy:        &sender.ID,
	})
	require.NoError(t, err)

	assertAmount(t, "50.00", testutil.GetAccountBalance(t, db, senderAcct.ID))
	assertAmount(t, "50.00", testutil.GetAccountBalance(t, db, recipientAcct.ID))

	assert.Equal(t, domain.EntryKindTransferOut, res.Out.Kind)
	assert.Equal(t, domain.DirectionDebit, res.Out.Direction)
	assert.Equal(t, "Bob Tursunov", res.Out.CounterpartyLabel)
	assert.Equal(t, domain.EntryKindTransferIn, res.In.Kind)
	assert.Equal(t, domain.DirectionCredit, res.In.Direction)
	assert.Equal(t, "Alice Karimova", res.In.CounterpartyLabel)
	assert.Equal(t, res.Out.CreatedAt, res.In.CreatedAt)
	assert.Equal(t, "lunch", res.In.Note)

	assert.Equal(t, 2, testutil.CountLedgerEntries(t, db, senderAcct.ID))
	assert.Equal(t, 1, testutil.CountLedgerEntries(t, db, recipientAcct.ID))
	// one top-up plus two transfer legs
	assert.Equal(t, 3, testutil.CountOutboxEvents(t, db, domain.OutboxStatusPending))

	assertBalanced(t, db, senderAcct.ID)
	assertBalanced(t, db, recipientAcct.ID)
}

func TestTransferByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	_, senderAcct := fundedAccount(t, db, svc, "carol@test.com", "Carol", "Y", "20")
	_, recipientAcct := fundedAccount(t, db, svc, "dave@test.com", "Dave", "Z", "0")

	_, err := svc.TransferByEmail(ctx, senderAcct.ID, "  DAVE@test.com ", amount("7.25"), "", nil)
	require.NoError(t, err)
	assertAmount(t, "12.75", testutil.GetAccountBalance(t, db, senderAcct.ID))
	assertAmount(t, "7.25", testutil.GetAccountBalance(t, db, recipientAcct.ID))

	_, err = svc.TransferByEmail(ctx, senderAcct.ID, "nobody@test.com", amount("1"), "", nil)
	require.ErrorIs(t, err, domain.ErrCounterpartyNotFound)

	noAcct := testutil.SeedTestUser(t, db, "noacct@test.com", "No", "Account")
	_, err = svc.TransferByEmail(ctx, senderAcct.ID, noAcct.Email, amount("1"), "", nil)
	require.ErrorIs(t, err, domain.ErrCounterpartyNotFound)
}

func TestTransfer_InsufficientFundsWritesNothing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)

	_, senderAcct := fundedAccount(t, db, svc, "s@test.com", "S", "S", "100")
	_, recipientAcct := fundedAccount(t, db, svc, "r@test.com", "R", "R", "0")

	_, err := svc.Transfer(context.Background(), ledger.TransferRequest{
		SenderAccountID:    senderAcct.ID,
		RecipientAccountID: recipientAcct.ID,
		Amount:             amount("150"),
	})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	assertAmount(t, "100.00", testutil.GetAccountBalance(t, db, senderAcct.ID))
	assertAmount(t, "0.00", testutil.GetAccountBalance(t, db, recipientAcct.ID))
	assert.Equal(t, 1, testutil.CountLedgerEntries(t, db, senderAcct.ID))
	assert.Equal(t, 0, testutil.CountLedgerEntries(t, db, recipientAcct.ID))
	assert.Equal(t, 1, testutil.CountOutboxEvents(t, db, domain.OutboxStatusPending))
}

func TestTransfer_RejectsBeforeTouchingStorage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	_, acct := fundedAccount(t, db, svc, "self@test.com", "Self", "S", "10")

	_, err := svc.Transfer(ctx, ledger.TransferRequest{SenderAccountID: acct.ID, RecipientAccountID: acct.ID, Amount: amount("1")})
	require.ErrorIs(t, err, domain.ErrSelfTransferNotAllowed)

	_, err = svc.Transfer(ctx, ledger.TransferRequest{SenderAccountID: acct.ID, RecipientAccountID: uuid.New(), Amount: amount("0")})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	assertAmount(t, "10.00", testutil.GetAccountBalance(t, db, acct.ID))
	assert.Equal(t, 1, testutil.CountLedgerEntries(t, db, acct.ID))
}

func TestTransfer_MissingAccounts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	_, acct := fundedAccount(t, db, svc, "m@test.com", "M", "M", "10")

	_, err := svc.Transfer(ctx, ledger.TransferRequest{SenderAccountID: acct.ID, RecipientAccountID: uuid.New(), Amount: amount("1")})
	require.ErrorIs(t, err, domain.ErrCounterpartyNotFound)

	_, err = svc.Transfer(ctx, ledger.TransferRequest{SenderAccountID: uuid.New(), RecipientAccountID: acct.ID, Amount: amount("1")})
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	assertAmount(t, "10.00", testutil.GetAccountBalance(t, db, acct.ID))
}

func TestTransfer_ConcurrentOverdraft(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)

	_, senderAcct := fundedAccount(t, db, svc, "race@test.com", "Race", "R", "10")
	_, r1 := fundedAccount(t, db, svc, "r1@test.com", "R", "One", "0")
	_, r2 := fundedAccount(t, db, svc, "r2@test.com", "R", "Two", "0")

	var wg sync.WaitGroup
	results := make(chan error, 2)

	for _, recipient := range []uuid.UUID{r1.ID, r2.ID} {
		wg.Add(1)
		go func(to uuid.UUID) {
			defer wg.Done()
			_, err := svc.Transfer(context.Background(), ledger.TransferRequest{
				SenderAccountID:    senderAcct.ID,
				RecipientAccountID: to,
				Amount:             amount("10.00"),
			})
			results <- err
		}(recipient)
	}

	wg.Wait()
	close(results)

	var succeeded, insufficient int
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, domain.ErrInsufficientFunds)
		insufficient++
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, insufficient)
	assertAmount(t, "0.00", testutil.GetAccountBalance(t, db, senderAcct.ID))
	assertBalanced(t, db, senderAcct.ID)
	assertBalanced(t, db, r1.ID)
	assertBalanced(t, db, r2.ID)
}

func TestTransfer_OpposingDirectionsDoNotDeadlock(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)

	_, a := fundedAccount(t, db, svc, "a@test.com", "A", "A", "100")
	_, b := fundedAccount(t, db, svc, "b@test.com", "B", "B", "100")

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := a.ID, b.ID
			if i%2 == 1 {
				from, to = to, from
			}
			_, err := svc.Transfer(context.Background(), ledger.TransferRequest{
				SenderAccountID:    from,
				RecipientAccountID: to,
				Amount:             amount("1.00"),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assertAmount(t, "100.00", testutil.GetAccountBalance(t, db, a.ID))
	assertAmount(t, "100.00", testutil.GetAccountBalance(t, db, b.ID))
	assertBalanced(t, db, a.ID)
	assertBalanced(t, db, b.ID)
}

func TestTopUp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	_, acct := fundedAccount(t, db, svc, "top@test.com", "Top", "Up", "0")
	staff := testutil.SeedStaffUser(t, db, "staff@test.com")

	entry, err := svc.TopUp(ctx, ledger.TopUpRequest{AccountID: acct.ID, Amount: amount("10.005")})
	require.NoError(t, err)
	assertAmount(t, "10.01", entry.Amount)
	assert.Equal(t, domain.EntryKindTopUp, entry.Kind)

	fake, err := svc.TopUp(ctx, ledger.TopUpRequest{AccountID: acct.ID, Amount: amount("5"), IsFake: true, PerformedBy: &staff.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.EntryKindFakePayment, fake.Kind)
	assert.Equal(t, domain.DirectionCredit, fake.Direction)

	_, err = svc.TopUp(ctx, ledger.TopUpRequest{AccountID: acct.ID, Amount: amount("0")})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.TopUp(ctx, ledger.TopUpRequest{AccountID: uuid.New(), Amount: amount("1")})
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	assertAmount(t, "15.01", testutil.GetAccountBalance(t, db, acct.ID))
	assertBalanced(t, db, acct.ID)

	recent, err := svc.Recent(ctx, acct.ID)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, fake.ID, recent[0].ID)
	require.NotNil(t, recent[0].PerformedBy)
	assert.Equal(t, staff.ID, *recent[0].PerformedBy)
}

func TestAdjust(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	_, acct := fundedAccount(t, db, svc, "adj@test.com", "Adj", "User", "20")
	staff := testutil.SeedStaffUser(t, db, "admin@test.com")

	credit, err := svc.Adjust(ctx, ledger.AdjustRequest{AccountID: acct.ID, SignedAmount: amount("5"), PerformedBy: &staff.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.EntryKindAdminAdjustment, credit.Kind)
	assert.Equal(t, domain.DirectionCredit, credit.Direction)

	debit, err := svc.Adjust(ctx, ledger.AdjustRequest{AccountID: acct.ID, SignedAmount: amount("-10"), PerformedBy: &staff.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionDebit, debit.Direction)
	assertAmount(t, "10.00", debit.Amount)
	assertAmount(t, "15.00", testutil.GetAccountBalance(t, db, acct.ID))

	_, err = svc.Adjust(ctx, ledger.AdjustRequest{AccountID: acct.ID, SignedAmount: amount("-20")})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assertAmount(t, "15.00", testutil.GetAccountBalance(t, db, acct.ID))

	_, err = svc.Adjust(ctx, ledger.AdjustRequest{AccountID: acct.ID, SignedAmount: amount("-20"), AllowNegative: true})
	require.NoError(t, err)
	assertAmount(t, "-5.00", testutil.GetAccountBalance(t, db, acct.ID))

	_, err = svc.Adjust(ctx, ledger.AdjustRequest{AccountID: acct.ID, SignedAmount: amount("0")})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	assertBalanced(t, db, acct.ID)
}

func TestBalanceCeiling(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	_, rich := fundedAccount(t, db, svc, "rich@test.com", "Rich", "User", "9999999999.00")
	_, sender := fundedAccount(t, db, svc, "payer@test.com", "Payer", "User", "10")
	_, overdrawn := fundedAccount(t, db, svc, "over@test.com", "Over", "Drawn", "0")

	t.Run("top-up past the ceiling", func(t *testing.T) {
		_, err := svc.TopUp(ctx, ledger.TopUpRequest{AccountID: rich.ID, Amount: amount("9999999999.99")})
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
		assertAmount(t, "9999999999.00", testutil.GetAccountBalance(t, db, rich.ID))
		assert.Equal(t, 1, testutil.CountLedgerEntries(t, db, rich.ID))
	})

	t.Run("transfer that would overflow the recipient", func(t *testing.T) {
		_, err := svc.Transfer(ctx, ledger.TransferRequest{
			SenderAccountID:    sender.ID,
			RecipientAccountID: rich.ID,
			Amount:             amount("1.00"),
		})
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
		assertAmount(t, "10.00", testutil.GetAccountBalance(t, db, sender.ID))
		assertAmount(t, "9999999999.00", testutil.GetAccountBalance(t, db, rich.ID))
		assert.Equal(t, 1, testutil.CountLedgerEntries(t, db, sender.ID))
	})

	t.Run("transfer that lands exactly on the ceiling", func(t *testing.T) {
		_, err := svc.Transfer(ctx, ledger.TransferRequest{
			SenderAccountID:    sender.ID,
			RecipientAccountID: rich.ID,
			Amount:             amount("0.99"),
		})
		require.NoError(t, err)
		assertAmount(t, "9999999999.99", testutil.GetAccountBalance(t, db, rich.ID))
	})

	t.Run("negative adjustment past the floor", func(t *testing.T) {
		_, err := svc.Adjust(ctx, ledger.AdjustRequest{AccountID: overdrawn.ID, SignedAmount: amount("-9999999999.99"), AllowNegative: true})
		require.NoError(t, err)

		_, err = svc.Adjust(ctx, ledger.AdjustRequest{AccountID: overdrawn.ID, SignedAmount: amount("-1"), AllowNegative: true})
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
		assertAmount(t, "-9999999999.99", testutil.GetAccountBalance(t, db, overdrawn.ID))
	})

	assertBalanced(t, db, rich.ID)
	assertBalanced(t, db, sender.ID)
	assertBalanced(t, db, overdrawn.ID)
}

func TestHistory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	_, acct := fundedAccount(t, db, svc, "hist@test.com", "H", "H", "0")
	for range 7 {
		_, err := svc.TopUp(ctx, ledger.TopUpRequest{AccountID: acct.ID, Amount: amount("1")})
		require.NoError(t, err)
	}

	page, total, err := svc.History(ctx, acct.ID, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.Len(t, page, 3)

	recent, err := svc.Recent(ctx, acct.ID)
	require.NoError(t, err)
	assert.Len(t, recent, ledger.RecentLimit)

	balance, err := svc.Balance(ctx, acct.ID)
	require.NoError(t, err)
	assertAmount(t, "7.00", balance)
}
