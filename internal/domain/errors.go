package domain

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidAmount          = errors.New("amount must be greater than zero with at most two decimal places")
	ErrSelfTransferNotAllowed = errors.New("cannot transfer to yourself")
	ErrCounterpartyNotFound   = errors.New("counterparty not found")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrConcurrencyConflict    = errors.New("concurrent modification, retry the operation")
	ErrAccountNotFound        = errors.New("account not found")
	ErrEmailTaken             = errors.New("an account with this email already exists")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrUserInactive           = errors.New("user is inactive")
	ErrPasswordMismatch       = errors.New("passwords do not match")
	ErrInvalidRequest         = errors.New("invalid request")
	ErrUnsupportedMedia       = errors.New("unsupported media type")
	ErrRequired               = errors.New("required")
	ErrTooLong                = errors.New("too long")
	ErrInvalidEmail           = errors.New("invalid email address")
	ErrPasswordTooShort       = errors.New("password must be at least 8 characters")
	ErrMediaTooLarge          = errors.New("file exceeds the upload size limit")
)

// ValidationError names the first field that failed validation. It unwraps
// to the underlying sentinel so callers can keep using errors.Is.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

func Invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}
