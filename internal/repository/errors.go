package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/josh-kwaku/tizim-bank/internal/domain"
)

const (
	codeUniqueViolation      = "23505"
	codeNumericOutOfRange    = "22003"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// IsUniqueViolation reports whether err is a Postgres unique constraint error.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeUniqueViolation
}

// translate maps transaction isolation failures to ErrConcurrencyConflict
// and numeric overflow to ErrInvalidAmount. Every other error is returned
// untouched.
func translate(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case codeSerializationFailure, codeDeadlockDetected:
		return fmt.Errorf("%w: %s", domain.ErrConcurrencyConflict, pqErr.Message)
	case codeNumericOutOfRange:
		return fmt.Errorf("%w: %s", domain.ErrInvalidAmount, pqErr.Message)
	}
	return err
}
