package repository

import (
	"errors"
	"fmt"
	"testing"

	"chiptable/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"serialization failure", &pgconn.PgError{Code: "40001"}, models.ErrConcurrencyConflict},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, models.ErrConcurrencyConflict},
		{"lock timeout", &pgconn.PgError{Code: "55P03"}, models.ErrConcurrencyConflict},
		{"wrapped lock timeout", fmt.Errorf("query: %w", &pgconn.PgError{Code: "55P03"}), models.ErrConcurrencyConflict},
		{"participant unique", &pgconn.PgError{Code: "23505", ConstraintName: "uq_participants_placed"}, models.ErrDuplicateWager},
		{"balance check", &pgconn.PgError{Code: "23514", TableName: "accounts"}, models.ErrInsufficientFunds},
		{"seat check", &pgconn.PgError{Code: "23514", TableName: "game_tables", ConstraintName: "game_tables_participant_count_check"}, models.ErrCapacity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.err)
			assert.ErrorIs(t, got, tt.target)
			assert.ErrorIs(t, got, tt.err, "original error stays in the chain")
		})
	}

	t.Run("other errors pass through", func(t *testing.T) {
		plain := errors.New("boom")
		assert.Same(t, plain, translateError(plain))

		other := &pgconn.PgError{Code: "23505", ConstraintName: "accounts_pkey"}
		assert.Equal(t, error(other), translateError(other))
	})
}
