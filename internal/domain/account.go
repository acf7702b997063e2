package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Account struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Balance        decimal.Decimal
	ProfileImage   *string
	FaceReference  *string
	IsFaceVerified bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
