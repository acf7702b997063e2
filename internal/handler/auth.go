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

type authService interface {
	Register(ctx context.Context, req service.RegisterRequest) (*domain.User, *domain.Account, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
}

type AuthHandler struct {
	identity  authService
	jwtSecret string
	jwtExpiry time.Duration
	maxUpload int64
}

func NewAuthHandler(identity authService, jwtSecret string, jwtExpiry time.Duration, maxUpload int64) *AuthHandler {
	return &AuthHandler{
		identity:  identity,
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
		maxUpload: maxUpload,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "required"})
	}
	if r.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "required"})
	}
	return errs
}

type registerRequest struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type tokenResponse struct {
	Token string  `json:"token"`
	User  userDTO `json:"user"`
}

type userDTO struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	IsStaff  bool      `json:"is_staff"`
}

func toUserDTO(u *domain.User) userDTO {
	return userDTO{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.DisplayName(),
		IsStaff:  u.IsStaff,
	}
}

// Register accepts JSON, or multipart/form-data when a face_reference image
// is attached.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req registerRequest
	var face *formFile
	if isMultipart(r) {
		form, appErr := parseMultipart(w, r, h.maxUpload)
		if appErr != nil {
			RespondAppError(w, appErr, nil)
			return
		}
		defer form.close()
		req = registerRequest{
			FullName:        form.value("full_name"),
			Email:           form.value("email"),
			Password:        form.value("password"),
			PasswordConfirm: form.value("password_confirm"),
		}
		face = form.file("face_reference")
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	svcReq := service.RegisterRequest{
		FullName:        req.FullName,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	}
	if face != nil {
		svcReq.FaceReference = face.upload()
	}

	user, _, err := h.identity.Register(r.Context(), svcReq)
	if err != nil {
		log.Warn("registration failed", "error", err)
		RespondDomainError(w, r, err)
		return
	}

	h.respondWithToken(w, r, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	user, err := h.identity.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	h.respondWithToken(w, r, http.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, user *domain.User) {
	token, err := auth.GenerateToken(auth.Claims{
		UserID:  user.ID,
		Email:   user.Email,
		IsStaff: user.IsStaff,
	}, h.jwtSecret, h.jwtExpiry)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to sign token", "error", err)
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	RespondSuccess(w, status, tokenResponse{
		Token: token,
		User:  toUserDTO(user),
	})
}
