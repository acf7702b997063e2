package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/tizim-bank/internal/domain"
)

// EntryPosted is published once per committed ledger entry.
type EntryPosted struct {
	EntryID           uuid.UUID        `json:"entry_id"`
	AccountID         uuid.UUID        `json:"account_id"`
	Kind              domain.EntryKind `json:"kind"`
	Direction         domain.Direction `json:"direction"`
	Amount            decimal.Decimal  `json:"amount"`
	Note              string           `json:"note,omitempty"`
	CounterpartyLabel string           `json:"counterparty_label,omitempty"`
	PerformedBy       *uuid.UUID       `json:"performed_by,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
}

func NewEntryPosted(e *domain.LedgerEntry) EntryPosted {
	return EntryPosted{
		EntryID:           e.ID,
		AccountID:         e.AccountID,
		Kind:              e.Kind,
		Direction:         e.Direction,
		Amount:            e.Amount,
		Note:              e.Note,
		CounterpartyLabel: e.CounterpartyLabel,
		PerformedBy:       e.PerformedBy,
		CreatedAt:         e.CreatedAt,
	}
}

// OutboxEventFor wraps the entry for the transactional outbox.
func OutboxEventFor(e *domain.LedgerEntry) (*domain.OutboxEvent, error) {
	payload, err := json.Marshal(NewEntryPosted(e))
	if err != nil {
		return nil, fmt.Errorf("OutboxEventFor: %w", err)
	}
	return &domain.OutboxEvent{
		ID:        uuid.New(),
		EventType: domain.OutboxEventEntryPosted,
		Payload:   payload,
		Status:    domain.OutboxStatusPending,
		CreatedAt: e.CreatedAt,
	}, nil
}

// Message is what a Publisher delivers. Key partitions by account so a
// consumer sees one account's entries in commit order.
type Message struct {
	Key     []byte
	Type    domain.OutboxEventType
	Payload []byte
}

type Publisher interface {
	Publish(ctx context.Context, msgs ...Message) error
	Close() error
}

// MessageFor rebuilds the broker message from a stored outbox row.
func MessageFor(ev domain.OutboxEvent) (Message, error) {
	var body EntryPosted
	if err := json.Unmarshal(ev.Payload, &body); err != nil {
		return Message{}, fmt.Errorf("MessageFor: %w", err)
	}
	return Message{
		Key:     []byte(body.AccountID.String()),
		Type:    ev.EventType,
		Payload: ev.Payload,
	}, nil
}
