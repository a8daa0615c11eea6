package repository

import (
	"errors"
	"fmt"
	"strings"

	"chiptable/models"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes mapped onto domain errors
const (
	pgUniqueViolation      = "23505"
	pgCheckViolation       = "23514"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// translateError maps driver errors onto the domain error kinds while
// keeping the original error in the chain.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
		return fmt.Errorf("%w: %w", models.ErrConcurrencyConflict, err)
	case pgUniqueViolation:
		if strings.HasPrefix(pgErr.ConstraintName, "uq_participants") {
			return fmt.Errorf("%w: %w", models.ErrDuplicateWager, err)
		}
	case pgCheckViolation:
		if pgErr.TableName == "accounts" {
			return fmt.Errorf("%w: %w", models.ErrInsufficientFunds, err)
		}
		if pgErr.TableName == "game_tables" && strings.Contains(pgErr.ConstraintName, "participant_count") {
			return fmt.Errorf("%w: %w", models.ErrCapacity, err)
		}
	}
	return err
}
