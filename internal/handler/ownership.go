package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/josh-kwaku/tizim-bank/internal/auth"
	"github.com/josh-kwaku/tizim-bank/internal/domain"
	"github.com/josh-kwaku/tizim-bank/internal/logging"
)

type accountFinder interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Account, error)
}

// callerAccount resolves the authenticated user's own account. Handlers
// never take the acting account from the request body.
func callerAccount(r *http.Request, accounts accountFinder) (uuid.UUID, *domain.Account, *AppError) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, nil, ErrMissingToken
	}

	acct, err := accounts.GetByUserID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return uuid.Nil, nil, ErrAccountNotFound
		}
		logging.FromContext(r.Context()).Error("failed to resolve caller account", "error", err)
		return uuid.Nil, nil, ErrInternalError
	}
	return userID, acct, nil
}

func idFromPath(r *http.Request) (uuid.UUID, *AppError) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, ErrResourceNotFound
	}
	return id, nil
}
