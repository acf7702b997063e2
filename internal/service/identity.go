package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/tizim-bank/internal/domain"
	"github.com/josh-kwaku/tizim-bank/internal/logging"
	"github.com/josh-kwaku/tizim-bank/internal/media"
)

const (
	maxFullNameLen    = 150
	minPasswordLength = 8
)

type identityUserRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, tx *sql.Tx, u *domain.User) error
	UpdateIdentity(ctx context.Context, tx *sql.Tx, id uuid.UUID, email, firstName, lastName string) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type identityAccountRepo interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Account, error)
	Create(ctx context.Context, tx *sql.Tx, account *domain.Account) error
	EnsureForUser(ctx context.Context, userID uuid.UUID) (*domain.Account, bool, error)
	UpdateMedia(ctx context.Context, tx *sql.Tx, id uuid.UUID, profileImage, faceReference *string) error
}

type mediaStore interface {
	Save(ctx context.Context, kind media.Kind, up media.Upload) (string, error)
	Remove(rel string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

type IdentityService struct {
	users      identityUserRepo
	accounts   identityAccountRepo
	media      mediaStore
	db         txRunner
	bcryptCost int
}

func NewIdentityService(users identityUserRepo, accounts identityAccountRepo, store mediaStore, db txRunner, bcryptCost int) *IdentityService {
	return &IdentityService{
		users:      users,
		accounts:   accounts,
		media:      store,
		db:         db,
		bcryptCost: bcryptCost,
	}
}

type RegisterRequest struct {
	FullName        string
	Email           string
	Password        string
	PasswordConfirm string
	FaceReference   *media.Upload
}

// ValidateRegistration reports the first invalid field, checking full_name,
// email, password and password_confirm in that order.
func ValidateRegistration(req RegisterRequest) error {
	if err := validateFullName(req.FullName); err != nil {
		return err
	}
	if err := validateEmail(req.Email); err != nil {
		return err
	}
	return validateNewPassword(req.Password, req.PasswordConfirm)
}

func validateFullName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Invalid("full_name", domain.ErrRequired)
	}
	if utf8.RuneCountInString(name) > maxFullNameLen {
		return domain.Invalid("full_name", domain.ErrTooLong)
	}
	return nil
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.Invalid("email", domain.ErrRequired)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return domain.Invalid("email", domain.ErrInvalidEmail)
	}
	return nil
}

func validateNewPassword(password, confirm string) error {
	if password == "" {
		return domain.Invalid("password", domain.ErrRequired)
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return domain.Invalid("password", domain.ErrPasswordTooShort)
	}
	if confirm == "" {
		return domain.Invalid("password_confirm", domain.ErrRequired)
	}
	if password != confirm {
		return domain.Invalid("password_confirm", domain.ErrPasswordMismatch)
	}
	return nil
}

// Register creates the user and their zero-balance account in one
// transaction. A face reference, when supplied, marks the account verified.
func (s *IdentityService) Register(ctx context.Context, req RegisterRequest) (*domain.User, *domain.Account, error) {
	log := logging.FromContext(ctx)

	if err := ValidateRegistration(req); err != nil {
		return nil, nil, fmt.Errorf("Register: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("Register: hash password: %w", err)
	}

	var faceRef *string
	if req.FaceReference != nil {
		rel, err := s.media.Save(ctx, media.KindFaceReference, *req.FaceReference)
		if err != nil {
			return nil, nil, fmt.Errorf("Register: %w", domain.Invalid("face_reference", err))
		}
		faceRef = &rel
	}

	now := time.Now().UTC()
	first, last := domain.SplitFullName(req.FullName)
	user := &domain.User{
		ID:           uuid.New(),
		Email:        domain.NormalizeEmail(req.Email),
		FirstName:    first,
		LastName:     last,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    now,
	}
	account := &domain.Account{
		ID:             uuid.New(),
		UserID:         user.ID,
		Balance:        decimal.Zero,
		FaceReference:  faceRef,
		IsFaceVerified: faceRef != nil,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.users.Create(ctx, tx, user); err != nil {
			return err
		}
		return s.accounts.Create(ctx, tx, account)
	})
	if err != nil {
		if faceRef != nil {
			s.discard(ctx, *faceRef)
		}
		return nil, nil, fmt.Errorf("Register: %w", err)
	}

	log.Info("user registered",
		"user_id", user.ID,
		"account_id", account.ID,
		"face_verified", account.IsFaceVerified,
	)
	return user, account, nil
}

// EnsureAccount provisions the user's account if it is missing. Ledger
// operations never call it; they fail with ErrAccountNotFound instead.
func (s *IdentityService) EnsureAccount(ctx context.Context, userID uuid.UUID) (*domain.Account, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("EnsureAccount: %w", err)
	}
	acct, created, err := s.accounts.EnsureForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("EnsureAccount: %w", err)
	}
	if created {
		logging.FromContext(ctx).Info("account provisioned", "user_id", userID, "account_id", acct.ID)
	}
	return acct, nil
}

func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("Authenticate: %w", domain.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("Authenticate: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("Authenticate: %w", domain.ErrInvalidCredentials)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("Authenticate: %w", domain.ErrUserInactive)
	}
	return user, nil
}

func (s *IdentityService) Profile(ctx context.Context, userID uuid.UUID) (*domain.User, *domain.Account, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("Profile: %w", err)
	}
	acct, err := s.accounts.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, fmt.Errorf("Profile: %w", domain.ErrAccountNotFound)
		}
		return nil, nil, fmt.Errorf("Profile: %w", err)
	}
	return user, acct, nil
}

type ProfileUpdate struct {
	FullName      string
	Email         string
	ProfileImage  *media.Upload
	FaceReference *media.Upload
}

func (s *IdentityService) UpdateProfile(ctx context.Context, userID uuid.UUID, upd ProfileUpdate) (*domain.User, *domain.Account, error) {
	log := logging.FromContext(ctx)

	if err := validateFullName(upd.FullName); err != nil {
		return nil, nil, fmt.Errorf("UpdateProfile: %w", err)
	}
	if err := validateEmail(upd.Email); err != nil {
		return nil, nil, fmt.Errorf("UpdateProfile: %w", err)
	}

	_, before, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("UpdateProfile: %w", err)
	}

	var saved []string
	store := func(kind media.Kind, field string, up *media.Upload) (*string, error) {
		if up == nil {
			return nil, nil
		}
		rel, err := s.media.Save(ctx, kind, *up)
		if err != nil {
			return nil, domain.Invalid(field, err)
		}
		saved = append(saved, rel)
		return &rel, nil
	}
	cleanup := func() {
		for _, rel := range saved {
			s.discard(ctx, rel)
		}
	}

	profileImage, err := store(media.KindProfileImage, "profile_image", upd.ProfileImage)
	if err != nil {
		return nil, nil, fmt.Errorf("UpdateProfile: %w", err)
	}
	faceRef, err := store(media.KindFaceReference, "face_reference", upd.FaceReference)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("UpdateProfile: %w", err)
	}

	first, last := domain.SplitFullName(upd.FullName)
	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.users.UpdateIdentity(ctx, tx, userID, domain.NormalizeEmail(upd.Email), first, last); err != nil {
			return err
		}
		if profileImage == nil && faceRef == nil {
			return nil
		}
		return s.accounts.UpdateMedia(ctx, tx, before.ID, profileImage, faceRef)
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("UpdateProfile: %w", err)
	}

	if profileImage != nil && before.ProfileImage != nil {
		s.discard(ctx, *before.ProfileImage)
	}
	if faceRef != nil && before.FaceReference != nil {
		s.discard(ctx, *before.FaceReference)
	}

	log.Info("profile updated", "user_id", userID)
	return s.Profile(ctx, userID)
}

func (s *IdentityService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next, confirm string) error {
	if current == "" {
		return fmt.Errorf("ChangePassword: %w", domain.Invalid("current_password", domain.ErrRequired))
	}
	if err := validateNewPassword(next, confirm); err != nil {
		return fmt.Errorf("ChangePassword: %w", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ChangePassword: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return fmt.Errorf("ChangePassword: %w", domain.ErrInvalidCredentials)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("ChangePassword: hash password: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("ChangePassword: %w", err)
	}

	logging.FromContext(ctx).Info("password changed", "user_id", userID)
	return nil
}

func (s *IdentityService) discard(ctx context.Context, rel string) {
	if err := s.media.Remove(rel); err != nil {
		logging.FromContext(ctx).Warn("failed to remove media file", "path", rel, "error", err)
	}
}
