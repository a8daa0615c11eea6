package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TableStats represents aggregated table participation for a user
type TableStats struct {
	TablesPlayed  int
	TablesWon     int
	TotalStaked   decimal.Decimal
	TotalWinnings decimal.Decimal
	BiggestPayout decimal.Decimal
}

// PlayerStats contains detailed statistics for one player
type PlayerStats struct {
	UserID        int64
	ChipBalance   decimal.Decimal
	TablesPlayed  int
	TablesWon     int
	WinPercentage float64
	TotalStaked   decimal.Decimal
	TotalWinnings decimal.Decimal
	NetProfit     decimal.Decimal
	BiggestPayout decimal.Decimal
}

// ScoreboardEntry represents a player's entry in the scoreboard
type ScoreboardEntry struct {
	Rank          int
	UserID        int64
	ChipBalance   decimal.Decimal
	TablesPlayed  int
	WinPercentage float64 // Percentage as 0-100
}

// TierCounts holds the number of winning rows per tier
type TierCounts struct {
	Exact     int
	Close     int
	Condition int
}

// WinnerPayout is one credited winning row
type WinnerPayout struct {
	ParticipantID uuid.UUID
	UserID        int64
	Tier          Tier
	Payout        decimal.Decimal
	Multiplier    decimal.Decimal
}

// SettlementResult is the outcome of evaluating a table
type SettlementResult struct {
	TableID           uuid.UUID
	OutcomeValue      int
	Tiers             TierCounts
	DistributedAmount decimal.Decimal
	CommissionAmount  decimal.Decimal
	HouseAmount       decimal.Decimal
	Winners           []WinnerPayout
}
