package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/tizim-bank/internal/auth"
	"github.com/josh-kwaku/tizim-bank/internal/domain"
	"github.com/josh-kwaku/tizim-bank/internal/logging"
	"github.com/josh-kwaku/tizim-bank/internal/service/ledger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ledgerService interface {
	TransferByEmail(ctx context.Context, senderAccountID uuid.UUID, recipientEmail string, amount decimal.Decimal, note string, performedBy *uuid.UUID) (*ledger.TransferResult, error)
	TopUp(ctx context.Context, req ledger.TopUpRequest) (*domain.LedgerEntry, error)
	Adjust(ctx context.Context, req ledger.AdjustRequest) (*domain.LedgerEntry, error)
	History(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error)
}

type LedgerHandler struct {
	ledger   ledgerService
	accounts accountFinder
}

func NewLedgerHandler(svc ledgerService, accounts accountFinder) *LedgerHandler {
	return &LedgerHandler{ledger: svc, accounts: accounts}
}

type entryDTO struct {
	ID           uuid.UUID  `json:"id"`
	AccountID    uuid.UUID  `json:"account_id"`
	Kind         string     `json:"kind"`
	Direction    string     `json:"direction"`
	Amount       string     `json:"amount"`
	SignedAmount string     `json:"signed_amount"`
	Note         string     `json:"note"`
	Counterparty string     `json:"counterparty"`
	PerformedBy  *uuid.UUID `json:"performed_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func toEntryDTO(e *domain.LedgerEntry) entryDTO {
	return entryDTO{
		ID:           e.ID,
		AccountID:    e.AccountID,
		Kind:         string(e.Kind),
		Direction:    string(e.Direction),
		Amount:       domain.FormatAmount(e.Amount),
		SignedAmount: domain.FormatAmount(e.Signed()),
		Note:         e.Note,
		Counterparty: e.CounterpartyLabel,
		PerformedBy:  e.PerformedBy,
		CreatedAt:    e.CreatedAt,
	}
}

func toEntryDTOs(entries []domain.LedgerEntry) []entryDTO {
	out := make([]entryDTO, len(entries))
	for i := range entries {
		out[i] = toEntryDTO(&entries[i])
	}
	return out
}

type transferRequest struct {
	RecipientEmail string          `json:"recipient_email"`
	Amount         decimal.Decimal `json:"amount"`
	Note           string          `json:"note"`
}

func (r transferRequest) Validate() []FieldError {
	var errs []FieldError
	if r.RecipientEmail == "" {
		errs = append(errs, FieldError{Field: "recipient_email", Message: "required"})
	}
	return errs
}

type transferResponse struct {
	Out entryDTO `json:"out"`
	In  entryDTO `json:"in"`
}

func (h *LedgerHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	userID, acct, appErr := callerAccount(r, h.accounts)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	res, err := h.ledger.TransferByEmail(r.Context(), acct.ID, req.RecipientEmail, req.Amount, req.Note, &userID)
	if err != nil {
		log.Warn("transfer failed", "error", err)
		RespondDomainError(w, r, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, transferResponse{
		Out: toEntryDTO(res.Out),
		In:  toEntryDTO(res.In),
	})
}

type topUpRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
	Fake   bool            `json:"fake"`
}

// TopUp honours fake only for staff callers; anyone else gets a genuine
// top-up.
func (h *LedgerHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	userID, acct, appErr := callerAccount(r, h.accounts)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req topUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	isFake := req.Fake && auth.IsStaff(r.Context())
	if req.Fake && !isFake {
		log.Info("fake top-up requested by non-staff user, posting a real top-up")
	}

	entry, err := h.ledger.TopUp(r.Context(), ledger.TopUpRequest{
		AccountID:   acct.ID,
		Amount:      req.Amount,
		Note:        req.Note,
		IsFake:      isFake,
		PerformedBy: &userID,
	})
	if err != nil {
		log.Warn("top-up failed", "error", err)
		RespondDomainError(w, r, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toEntryDTO(entry))
}

type adjustRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Note          string          `json:"note"`
	AllowNegative bool            `json:"allow_negative"`
}

// Adjust is mounted behind RequireStaff.
func (h *LedgerHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	staffID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	accountID, appErr := idFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	entry, err := h.ledger.Adjust(r.Context(), ledger.AdjustRequest{
		AccountID:     accountID,
		SignedAmount:  req.Amount,
		Note:          req.Note,
		PerformedBy:   &staffID,
		AllowNegative: req.AllowNegative,
	})
	if err != nil {
		log.Warn("adjustment failed", "account_id", accountID, "error", err)
		RespondDomainError(w, r, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toEntryDTO(entry))
}

type entriesPage struct {
	Entries []entryDTO `json:"entries"`
	Total   int        `json:"total"`
	Limit   int        `json:"limit"`
	Offset  int        `json:"offset"`
}

func (h *LedgerHandler) Entries(w http.ResponseWriter, r *http.Request) {
	_, acct, appErr := callerAccount(r, h.accounts)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	limit, offset, fields := parsePagination(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	entries, total, err := h.ledger.History(r.Context(), acct.ID, limit, offset)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to load entries", "error", err)
		RespondDomainError(w, r, err)
		return
	}

	RespondSuccess(w, http.StatusOK, entriesPage{
		Entries: toEntryDTOs(entries),
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}

func parsePagination(r *http.Request) (limit, offset int, errs []FieldError) {
	limit, offset = defaultPageSize, 0
	q := r.URL.Query()

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPageSize {
			errs = append(errs, FieldError{Field: "limit", Message: fmt.Sprintf("must be between 1 and %d", maxPageSize)})
		} else {
			limit = n
		}
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			errs = append(errs, FieldError{Field: "offset", Message: "must be a non-negative integer"})
		} else {
			offset = n
		}
	}
	return limit, offset, errs
}
