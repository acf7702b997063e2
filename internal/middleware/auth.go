package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/josh-kwaku/tizim-bank/internal/auth"
	"github.com/josh-kwaku/tizim-bank/internal/domain"
	"github.com/josh-kwaku/tizim-bank/internal/handler"
	"github.com/josh-kwaku/tizim-bank/internal/logging"
)

func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			claims, err := auth.ValidateToken(token, secret)
			if err != nil {
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			ctx := auth.ContextWithClaims(r.Context(), claims)
			ctx = logging.With(ctx, "user_id", claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type staffLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// VerifyStaff re-reads the staff flag from the user record when the token
// claims it, so a revoked role stops working before the token expires.
// Non-staff tokens pass through without a lookup. Must run after Auth.
func VerifyStaff(users staffLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.ClaimsFromContext(r.Context())
			if !ok || !claims.IsStaff {
				next.ServeHTTP(w, r)
				return
			}

			log := logging.FromContext(r.Context())
			user, err := users.GetByID(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					handler.RespondAppError(w, handler.ErrInvalidToken, nil)
					return
				}
				log.Error("staff lookup failed", "error", err)
				handler.RespondAppError(w, handler.ErrInternalError, nil)
				return
			}
			if !user.IsActive {
				handler.RespondAppError(w, handler.ErrUserInactive, nil)
				return
			}

			if !user.IsStaff {
				log.Warn("token carries a revoked staff claim")
				current := *claims
				current.IsStaff = false
				r = r.WithContext(auth.ContextWithClaims(r.Context(), &current))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireStaff must run after Auth and VerifyStaff.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.ClaimsFromContext(r.Context()); !ok {
			handler.RespondAppError(w, handler.ErrMissingToken, nil)
			return
		}
		if !auth.IsStaff(r.Context()) {
			logging.FromContext(r.Context()).Warn("staff-only route denied", "path", r.URL.Path)
			handler.RespondAppError(w, handler.ErrStaffOnly, nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
