package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"}
	ErrUserInactive       = &AppError{http.StatusForbidden, "USER_INACTIVE", "User account is inactive"}
	ErrStaffOnly          = &AppError{http.StatusForbidden, "STAFF_ONLY", "This action requires staff privileges"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidAmount          = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero with at most two decimal places"}
	ErrSelfTransferNotAllowed = &AppError{http.StatusUnprocessableEntity, "SELF_TRANSFER_NOT_ALLOWED", "Cannot transfer to yourself"}
	ErrCounterpartyNotFound   = &AppError{http.StatusUnprocessableEntity, "COUNTERPARTY_NOT_FOUND", "Recipient not found"}
	ErrInsufficientFunds      = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", "Insufficient funds"}
	ErrAccountNotFound        = &AppError{http.StatusUnprocessableEntity, "ACCOUNT_NOT_FOUND", "Account not found"}
	ErrConcurrencyConflict    = &AppError{http.StatusConflict, "CONCURRENCY_CONFLICT", "Account was modified concurrently, please retry"}
	ErrEmailTaken             = &AppError{http.StatusConflict, "EMAIL_TAKEN", "An account with this email already exists"}
	ErrUnsupportedMedia       = &AppError{http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA", "Only JPEG, PNG and WebP images are accepted"}
	ErrMediaTooLarge          = &AppError{http.StatusRequestEntityTooLarge, "MEDIA_TOO_LARGE", "File exceeds the upload size limit"}
	ErrMissingIdempotencyKey  = &AppError{http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required"}
	ErrIdempotencyConflict    = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
)
