package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/josh-kwaku/tizim-bank/internal/domain"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "serialization failure", err: &pq.Error{Code: "40001", Message: "could not serialize access"}, want: domain.ErrConcurrencyConflict},
		{name: "deadlock", err: fmt.Errorf("wrapped: %w", &pq.Error{Code: "40P01"}), want: domain.ErrConcurrencyConflict},
		{name: "numeric overflow", err: &pq.Error{Code: "22003", Message: "numeric field overflow"}, want: domain.ErrInvalidAmount},
		{name: "unique violation untouched", err: &pq.Error{Code: "23505"}},
		{name: "plain error untouched", err: errors.New("connection refused")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := translate(tc.err)
			if tc.want != nil {
				assert.ErrorIs(t, got, tc.want)
				return
			}
			assert.Same(t, tc.err, got)
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
}
