package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EntryKind string

const (
	EntryKindTransferOut     EntryKind = "transfer_out"
	EntryKindTransferIn      EntryKind = "transfer_in"
	EntryKindTopUp           EntryKind = "top_up"
	EntryKindAdminAdjustment EntryKind = "admin_adjustment"
	EntryKindFakePayment     EntryKind = "fake_payment"
)

func (k EntryKind) IsValid() bool {
	switch k {
	case EntryKindTransferOut, EntryKindTransferIn, EntryKindTopUp,
		EntryKindAdminAdjustment, EntryKindFakePayment:
		return true
	}
	return false
}

type Direction string

const (
	DirectionDebit  Direction = "debit"
	DirectionCredit Direction = "credit"
)

// LedgerEntry is append-only. Amount is always positive; Direction carries
// the sign.
type LedgerEntry struct {
	ID                uuid.UUID
	AccountID         uuid.UUID
	Amount            decimal.Decimal
	Kind              EntryKind
	Direction         Direction
	Note              string
	CounterpartyLabel string
	PerformedBy       *uuid.UUID
	CreatedAt         time.Time
}

// Signed returns the entry's contribution to the account balance.
func (e *LedgerEntry) Signed() decimal.Decimal {
	if e.Direction == DirectionDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}
