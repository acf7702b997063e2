package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/tizim-bank/internal/domain"
)

// Each Validate* function checks its fields in a fixed order and reports the
// first failure. Amounts are returned quantized.

func ValidateTransfer(req TransferRequest) (decimal.Decimal, error) {
	amount, err := domain.PositiveAmount(req.Amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ValidateTransfer: %w", domain.Invalid("amount", domain.ErrInvalidAmount))
	}
	if req.SenderAccountID == req.RecipientAccountID {
		return decimal.Zero, fmt.Errorf("ValidateTransfer: %w", domain.Invalid("recipient", domain.ErrSelfTransferNotAllowed))
	}
	return amount, nil
}

func ValidateTopUp(req TopUpRequest) (decimal.Decimal, error) {
	amount, err := domain.PositiveAmount(req.Amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ValidateTopUp: %w", domain.Invalid("amount", domain.ErrInvalidAmount))
	}
	return amount, nil
}

func ValidateAdjust(req AdjustRequest) (decimal.Decimal, error) {
	amount := domain.Quantize(req.SignedAmount)
	if amount.IsZero() {
		return decimal.Zero, fmt.Errorf("ValidateAdjust: %w", domain.Invalid("amount", domain.ErrInvalidAmount))
	}
	if _, err := domain.PositiveAmount(amount.Abs()); err != nil {
		return decimal.Zero, fmt.Errorf("ValidateAdjust: %w", domain.Invalid("amount", domain.ErrInvalidAmount))
	}
	return amount, nil
}
