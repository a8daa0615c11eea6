package testutil

import (
	"context"
	"testing"

	"chiptable/database"
	"chiptable/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Chips parses a fixed-point chip amount, panicking on malformed input
func Chips(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// CreateFundedAccount inserts an account holding the given chips directly,
// bypassing the ledger. Only test setup uses it.
func CreateFundedAccount(t *testing.T, db *database.DB, userID int64, chips string) {
	t.Helper()
	_, err := db.Exec(context.Background(),
		`INSERT INTO accounts (user_id, chip_balance) VALUES ($1, $2)`, userID, Chips(chips))
	require.NoError(t, err)
}

// CreateTestTable returns a waiting table with default limits
func CreateTestTable(creatorID int64, entryFee string) *models.Table {
	fee := Chips(entryFee)
	return &models.Table{
		ID:               uuid.New(),
		CreatedBy:        creatorID,
		Status:           models.TableStatusWaiting,
		EntryFee:         fee,
		PotAmount:        fee,
		MinPlayers:       models.DefaultMinPlayers,
		MaxPlayers:       models.DefaultMaxPlayers,
		CommissionRate:   models.DefaultCommissionRate,
		ParticipantCount: 1,
	}
}

// CreateTestParticipant returns an unplaced entry row staking the table's fee
func CreateTestParticipant(userID int64, table *models.Table) *models.Participant {
	return &models.Participant{
		ID:             uuid.New(),
		UserID:         userID,
		TableID:        table.ID,
		PredictionKind: models.PredictionExact,
		Stake:          table.EntryFee,
	}
}

// CreateTestLedgerEntry returns a completed entry of the given kind
func CreateTestLedgerEntry(userID int64, kind models.LedgerKind, amount string, tableID *uuid.UUID) *models.LedgerEntry {
	return &models.LedgerEntry{
		UserID:        userID,
		Amount:        Chips(amount),
		Kind:          kind,
		Status:        models.LedgerStatusCompleted,
		TableID:       tableID,
		BalanceBefore: decimal.Zero,
		BalanceAfter:  Chips(amount),
	}
}
