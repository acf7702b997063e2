package domain

import (
	"time"

	"github.com/google/uuid"
)

type Bank struct {
	ID              uuid.UUID
	Name            string
	Address         string
	EstablishedDate *time.Time
	CreatedAt       time.Time
}
