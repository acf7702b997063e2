package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/josh-kwaku/tizim-bank/internal/domain"
	"github.com/josh-kwaku/tizim-bank/internal/logging"
)

type bankService interface {
	List(ctx context.Context) ([]domain.Bank, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Bank, error)
}

type BankHandler struct {
	banks bankService
}

func NewBankHandler(banks bankService) *BankHandler {
	return &BankHandler{banks: banks}
}

type bankDTO struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Address         string    `json:"address"`
	EstablishedDate *string   `json:"established_date"`
}

func toBankDTO(b *domain.Bank) bankDTO {
	dto := bankDTO{ID: b.ID, Name: b.Name, Address: b.Address}
	if b.EstablishedDate != nil {
		d := b.EstablishedDate.Format("2006-01-02")
		dto.EstablishedDate = &d
	}
	return dto
}

func (h *BankHandler) List(w http.ResponseWriter, r *http.Request) {
	banks, err := h.banks.List(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list banks", "error", err)
		RespondDomainError(w, r, err)
		return
	}

	out := make([]bankDTO, len(banks))
	for i := range banks {
		out[i] = toBankDTO(&banks[i])
	}
	RespondSuccess(w, http.StatusOK, out)
}

func (h *BankHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	b, err := h.banks.Get(r.Context(), id)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toBankDTO(b))
}
