package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/tizim-bank/internal/domain"
)

const TestPassword = "password123"

func SeedTestUser(t *testing.T, db *sql.DB, email, firstName, lastName string) *domain.User {
	t.Helper()
	return seedUser(t, db, email, firstName, lastName, false)
}

func SeedStaffUser(t *testing.T, db *sql.DB, email string) *domain.User {
	t.Helper()
	return seedUser(t, db, email, "Staff", "Member", true)
}

func seedUser(t *testing.T, db *sql.DB, email, firstName, lastName string, staff bool) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domain.User{
		ID:           uuid.New(),
		Email:        domain.NormalizeEmail(email),
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: string(hash),
		IsStaff:      staff,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO users (id, email, first_name, last_name, password_hash, is_staff, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.IsStaff, u.IsActive, u.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed test user %s: %v", email, err)
	}
	return u
}

// SeedTestAccount inserts an account with an opening balance. The balance is
// written directly, so tests that check the entry-sum invariant should start
// from zero and fund through the ledger.
func SeedTestAccount(t *testing.T, db *sql.DB, userID uuid.UUID, balance string) *domain.Account {
	t.Helper()

	a := &domain.Account{
		ID:        uuid.New(),
		UserID:    userID,
		Balance:   decimal.RequireFromString(balance),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO accounts (id, user_id, balance, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.UserID, a.Balance, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed test account for %s: %v", userID, err)
	}
	return a
}

func GetAccountBalance(t *testing.T, db *sql.DB, accountID uuid.UUID) decimal.Decimal {
	t.Helper()

	var balance decimal.Decimal
	err := db.QueryRow(`SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	if err != nil {
		t.Fatalf("get account balance %s: %v", accountID, err)
	}
	return balance
}

func CountLedgerEntries(t *testing.T, db *sql.DB, accountID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM ledger_entries WHERE account_id = $1`, accountID).Scan(&count)
	if err != nil {
		t.Fatalf("count ledger entries for account %s: %v", accountID, err)
	}
	return count
}

func CountOutboxEvents(t *testing.T, db *sql.DB, status domain.OutboxStatus) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM outbox_events WHERE status = $1`, status).Scan(&count)
	if err != nil {
		t.Fatalf("count outbox events: %v", err)
	}
	return count
}

// SignedEntrySum recomputes an account balance from its entries.
func SignedEntrySum(t *testing.T, db *sql.DB, accountID uuid.UUID) decimal.Decimal {
	t.Helper()

	var sum decimal.Decimal
	err := db.QueryRow(
		`SELECT COALESCE(SUM(CASE WHEN direction = 'credit' THEN amount ELSE -amount END), 0)
		 FROM ledger_entries WHERE account_id = $1`, accountID,
	).Scan(&sum)
	if err != nil {
		t.Fatalf("sum ledger entries for %s: %v", accountID, err)
	}
	return sum
}
