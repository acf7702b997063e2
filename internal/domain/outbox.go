package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusDispatched OutboxStatus = "dispatched"
	OutboxStatusFailed     OutboxStatus = "failed"
)

type OutboxEventType string

const OutboxEventEntryPosted OutboxEventType = "ledger.entry_posted"

type OutboxEvent struct {
	ID          uuid.UUID
	EventType   OutboxEventType
	Payload     json.RawMessage
	Status      OutboxStatus
	Attempts    int
	LastAttempt *time.Time
	CreatedAt   time.Time
}
