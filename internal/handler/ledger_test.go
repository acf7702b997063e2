package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/tizim-bank/internal/domain"
)

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestLedgerHandler_Transfer(t *testing.T) {
	callerID := uuid.New()
	acct := &domain.Account{ID: uuid.New(), UserID: callerID}

	tests := []struct {
		name        string
		body        string
		noAuth      bool
		accountErr  error
		transferErr error
		wantStatus  int
		wantCode    string
	}{
		{
			name:       "success",
			body:       `{"recipient_email":"bob@test.com","amount":"50.00","note":"rent"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "numeric amount accepted",
			body:       `{"recipient_email":"bob@test.com","amount":12.5}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing token",
			body:       `{}`,
			noAuth:     true,
			wantStatus: http.StatusUnauthorized,
			wantCode:   "MISSING_TOKEN",
		},
		{
			name:       "caller has no account",
			body:       `{}`,
			accountErr: fmt.Errorf("GetByUserID: %w", domain.ErrNotFound),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "ACCOUNT_NOT_FOUND",
		},
		{
			name:       "malformed body",
			body:       `{"amount":"abc"`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "missing recipient",
			body:       `{"amount":"5"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:        "invalid amount",
			body:        `{"recipient_email":"bob@test.com","amount":"0"}`,
			transferErr: fmt.Errorf("Transfer: %w", domain.Invalid("amount", domain.ErrInvalidAmount)),
			wantStatus:  http.StatusBadRequest,
			wantCode:    "INVALID_AMOUNT",
		},
		{
			name:        "self transfer",
			body:        `{"recipient_email":"caller@test.com","amount":"5"}`,
			transferErr: domain.Invalid("recipient", domain.ErrSelfTransferNotAllowed),
			wantStatus:  http.StatusUnprocessableEntity,
			wantCode:    "SELF_TRANSFER_NOT_ALLOWED",
		},
		{
			name:        "unknown recipient",
			body:        `{"recipient_email":"ghost@test.com","amount":"5"}`,
			transferErr: domain.ErrCounterpartyNotFound,
			wantStatus:  http.StatusUnprocessableEntity,
			wantCode:    "COUNTERPARTY_NOT_FOUND",
		},
		{
			name:        "insufficient funds",
			body:        `{"recipient_email":"bob@test.com","amount":"150"}`,
			transferErr: domain.ErrInsufficientFunds,
			wantStatus:  http.StatusUnprocessableEntity,
			wantCode:    "INSUFFICIENT_FUNDS",
		},
		{
			name:        "serialization conflict",
			body:        `{"recipient_email":"bob@test.com","amount":"5"}`,
			transferErr: fmt.Errorf("%w: could not serialize access", domain.ErrConcurrencyConflict),
			wantStatus:  http.StatusConflict,
			wantCode:    "CONCURRENCY_CONFLICT",
		},
		{
			name:        "unexpected error",
			body:        `{"recipient_email":"bob@test.com","amount":"5"}`,
			transferErr: errors.New("connection reset"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "INTERNAL_ERROR",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockLedger{transferErr: tc.transferErr}
			h := NewLedgerHandler(svc, &mockAccounts{acct: acct, err: tc.accountErr})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/transfers", strings.NewReader(tc.body))
			if !tc.noAuth {
				req = req.WithContext(withCaller(req.Context(), callerID, false))
			}
			rr := httptest.NewRecorder()

			h.Transfer(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			resp := decodeResponse(t, rr)
			if tc.wantCode == "" {
				assert.True(t, resp.Success)
				return
			}
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.wantCode, resp.Error.Code)
		})
	}
}

func TestLedgerHandler_TransferFormatsAmounts(t *testing.T) {
	callerID := uuid.New()
	svc := &mockLedger{}
	h := NewLedgerHandler(svc, &mockAccounts{acct: &domain.Account{ID: uuid.New()}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transfers",
		strings.NewReader(`{"recipient_email":"bob@test.com","amount":"7.5"}`))
	req = req.WithContext(withCaller(req.Context(), callerID, false))
	rr := httptest.NewRecorder()

	h.Transfer(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var body struct {
		Data transferResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "7.50", body.Data.Out.Amount)
	assert.Equal(t, "-7.50", body.Data.Out.SignedAmount)
	assert.Equal(t, "7.50", body.Data.In.SignedAmount)
	require.NotNil(t, body.Data.Out.PerformedBy)
	assert.Equal(t, callerID, *body.Data.Out.PerformedBy)
	assert.Equal(t, "bob@test.com", svc.lastEmail)
	assert.True(t, decimal.RequireFromString("7.5").Equal(svc.lastAmount))
}

func TestLedgerHandler_TopUpFakeRequiresStaff(t *testing.T) {
	tests := []struct {
		name     string
		staff    bool
		body     string
		wantFake bool
		wantKind string
	}{
		{"customer genuine", false, `{"amount":"10"}`, false, "top_up"},
		{"customer asking for fake gets genuine", false, `{"amount":"10","fake":true}`, false, "top_up"},
		{"staff fake", true, `{"amount":"10","fake":true}`, true, "fake_payment"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockLedger{}
			h := NewLedgerHandler(svc, &mockAccounts{acct: &domain.Account{ID: uuid.New()}})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/top-ups", strings.NewReader(tc.body))
			req = req.WithContext(withCaller(req.Context(), uuid.New(), tc.staff))
			rr := httptest.NewRecorder()

			h.TopUp(rr, req)

			require.Equal(t, http.StatusCreated, rr.Code)
			assert.Equal(t, tc.wantFake, svc.lastTopUp.IsFake)

			var body struct {
				Data entryDTO `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tc.wantKind, body.Data.Kind)
		})
	}
}

func TestLedgerHandler_Adjust(t *testing.T) {
	staffID := uuid.New()
	target := uuid.New()

	tests := []struct {
		name       string
		pathID     string
		body       string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{"credit", target.String(), `{"amount":"25","note":"goodwill"}`, nil, http.StatusCreated, ""},
		{"debit with override", target.String(), `{"amount":"-25","allow_negative":true}`, nil, http.StatusCreated, ""},
		{"bad account id", "not-a-uuid", `{"amount":"1"}`, nil, http.StatusNotFound, "RESOURCE_NOT_FOUND"},
		{"debit below zero", target.String(), `{"amount":"-25"}`, domain.ErrInsufficientFunds, http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS"},
		{"unknown account", target.String(), `{"amount":"1"}`, domain.ErrAccountNotFound, http.StatusUnprocessableEntity, "ACCOUNT_NOT_FOUND"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockLedger{entryErr: tc.svcErr}
			h := NewLedgerHandler(svc, &mockAccounts{})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/accounts/"+tc.pathID+"/adjustments", strings.NewReader(tc.body))
			req.SetPathValue("id", tc.pathID)
			req = req.WithContext(withCaller(req.Context(), staffID, true))
			rr := httptest.NewRecorder()

			h.Adjust(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			resp := decodeResponse(t, rr)
			if tc.wantCode != "" {
				require.NotNil(t, resp.Error)
				assert.Equal(t, tc.wantCode, resp.Error.Code)
				return
			}
			require.NotNil(t, svc.lastAdjust.PerformedBy)
			assert.Equal(t, staffID, *svc.lastAdjust.PerformedBy)
			assert.Equal(t, target, svc.lastAdjust.AccountID)
		})
	}
}

func TestLedgerHandler_EntriesPagination(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", http.StatusOK, defaultPageSize, 0},
		{"explicit", "?limit=5&offset=10", http.StatusOK, 5, 10},
		{"limit too large", "?limit=1000", http.StatusBadRequest, 0, 0},
		{"negative offset", "?offset=-1", http.StatusBadRequest, 0, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockLedger{entries: []domain.LedgerEntry{{ID: uuid.New(), Amount: decimal.RequireFromString("1"), Direction: domain.DirectionCredit}}}
			h := NewLedgerHandler(svc, &mockAccounts{acct: &domain.Account{ID: uuid.New()}})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/me/entries"+tc.query, nil)
			req = req.WithContext(withCaller(req.Context(), uuid.New(), false))
			rr := httptest.NewRecorder()

			h.Entries(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			if tc.wantStatus == http.StatusOK {
				assert.Equal(t, tc.wantLimit, svc.lastLimit)
				assert.Equal(t, tc.wantOffset, svc.lastOffset)
			}
		})
	}
}
