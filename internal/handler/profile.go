package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/tizim-bank/internal/auth"
	"github.com/josh-kwaku/tizim-bank/internal/domain"
	"github.com/josh-kwaku/tizim-bank/internal/logging"
	"github.com/josh-kwaku/tizim-bank/internal/service"
)

type profileService interface {
	Profile(ctx context.Context, userID uuid.UUID) (*domain.User, *domain.Account, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, upd service.ProfileUpdate) (*domain.User, *domain.Account, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, current, next, confirm string) error
}

type recentEntries interface {
	Recent(ctx context.Context, accountID uuid.UUID) ([]domain.LedgerEntry, error)
}

type ProfileHandler struct {
	identity  profileService
	ledger    recentEntries
	maxUpload int64
}

func NewProfileHandler(identity profileService, ledger recentEntries, maxUpload int64) *ProfileHandler {
	return &ProfileHandler{identity: identity, ledger: ledger, maxUpload: maxUpload}
}

type accountDTO struct {
	ID             uuid.UUID `json:"id"`
	Balance        string    `json:"balance"`
	ProfileImage   *string   `json:"profile_image"`
	FaceReference  *string   `json:"face_reference"`
	IsFaceVerified bool      `json:"is_face_verified"`
	CreatedAt      time.Time `json:"created_at"`
}

func toAccountDTO(a *domain.Account) accountDTO {
	return accountDTO{
		ID:             a.ID,
		Balance:        domain.FormatAmount(a.Balance),
		ProfileImage:   mediaURL(a.ProfileImage),
		FaceReference:  mediaURL(a.FaceReference),
		IsFaceVerified: a.IsFaceVerified,
		CreatedAt:      a.CreatedAt,
	}
}

func mediaURL(rel *string) *string {
	if rel == nil {
		return nil
	}
	u := "/media/" + *rel
	return &u
}

type profileDTO struct {
	User    userDTO    `json:"user"`
	Account accountDTO `json:"account"`
}

type dashboardDTO struct {
	profileDTO
	RecentEntries []entryDTO `json:"recent_entries"`
}

// Me is the dashboard: profile, balance and the latest entries.
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	user, acct, err := h.identity.Profile(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("profile lookup failed", "error", err)
		RespondDomainError(w, r, err)
		return
	}

	recent, err := h.ledger.Recent(r.Context(), acct.ID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to load recent entries", "error", err)
		RespondDomainError(w, r, err)
		return
	}

	RespondSuccess(w, http.StatusOK, dashboardDTO{
		profileDTO: profileDTO{
			User:    toUserDTO(user),
			Account: toAccountDTO(acct),
		},
		RecentEntries: toEntryDTOs(recent),
	})
}

// Update takes multipart/form-data: full_name, email and optional
// profile_image / face_reference files.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}
	if !isMultipart(r) {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	form, appErr := parseMultipart(w, r, h.maxUpload)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	defer form.close()

	upd := service.ProfileUpdate{
		FullName: form.value("full_name"),
		Email:    form.value("email"),
	}
	if f := form.file("profile_image"); f != nil {
		upd.ProfileImage = f.upload()
	}
	if f := form.file("face_reference"); f != nil {
		upd.FaceReference = f.upload()
	}

	user, acct, err := h.identity.UpdateProfile(r.Context(), userID, upd)
	if err != nil {
		logging.FromContext(r.Context()).Warn("profile update failed", "error", err)
		RespondDomainError(w, r, err)
		return
	}

	RespondSuccess(w, http.StatusOK, profileDTO{
		User:    toUserDTO(user),
		Account: toAccountDTO(acct),
	})
}

type changePasswordRequest struct {
	CurrentPassword    string `json:"current_password"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`
}

func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if err := h.identity.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword, req.NewPasswordConfirm); err != nil {
		logging.FromContext(r.Context()).Warn("password change failed", "error", err)
		RespondDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
