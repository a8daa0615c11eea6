package service

import (
	"testing"

	"chiptable/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chips(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func intPtr(v int) *int {
	return &v
}

func guessRow(userID int64, kind models.PredictionKind, value *int, stake string) *models.Participant {
	return &models.Participant{
		ID:             uuid.New(),
		UserID:         userID,
		PredictionKind: kind,
		PredictedValue: value,
		GuessPlaced:    true,
		Stake:          chips(stake),
	}
}

func TestClassifyTier(t *testing.T) {
	tests := []struct {
		name    string
		row     *models.Participant
		outcome int
		want    models.Tier
		wins    bool
	}{
		{"exact hit", guessRow(1, models.PredictionExact, intPtr(42), "1"), 42, models.TierExact, true},
		{"exact miss", guessRow(1, models.PredictionExact, intPtr(41), "1"), 42, "", false},
		{"close at distance 5", guessRow(1, models.PredictionClose, intPtr(37), "1"), 42, models.TierClose, true},
		{"close at distance 6", guessRow(1, models.PredictionClose, intPtr(36), "1"), 42, "", false},
		{"close on exact value", guessRow(1, models.PredictionClose, intPtr(42), "1"), 42, models.TierClose, true},
		{"even on zero", guessRow(1, models.PredictionEven, nil, "1"), 0, models.TierCondition, true},
		{"even on odd", guessRow(1, models.PredictionEven, nil, "1"), 7, "", false},
		{"odd", guessRow(1, models.PredictionOdd, nil, "1"), 99, models.TierCondition, true},
		{"above 50 excludes 50", guessRow(1, models.PredictionAbove50, nil, "1"), 50, "", false},
		{"above 50 at 51", guessRow(1, models.PredictionAbove50, nil, "1"), 51, models.TierCondition, true},
		{"below 50 includes 50", guessRow(1, models.PredictionBelow50, nil, "1"), 50, models.TierCondition, true},
		{"below 50 at 51", guessRow(1, models.PredictionBelow50, nil, "1"), 51, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier, ok := classifyTier(tt.row, tt.outcome)
			assert.Equal(t, tt.wins, ok)
			assert.Equal(t, tt.want, tier)
		})
	}

	t.Run("unplaced row never wins", func(t *testing.T) {
		row := &models.Participant{PredictionKind: models.PredictionEven, Stake: chips("1")}
		_, ok := classifyTier(row, 42)
		assert.False(t, ok)
	})
}

func TestPlanPayouts(t *testing.T) {
	t.Run("exact and even winners", func(t *testing.T) {
		rows := []*models.Participant{
			guessRow(1, models.PredictionExact, intPtr(42), "10"),
			guessRow(2, models.PredictionEven, nil, "10"),
		}

		plan := planPayouts(chips("20"), 5, rows, 42)

		assert.True(t, plan.commission.Equal(chips("1.00")))
		assert.True(t, plan.remaining.Equal(chips("19.00")))
		assert.Equal(t, models.TierCounts{Exact: 1, Condition: 1}, plan.tiers)
		require.Len(t, plan.winners, 2)
		assert.True(t, plan.winners[0].Payout.Equal(chips("15.20")), "exact: %s", plan.winners[0].Payout)
		assert.True(t, plan.winners[1].Payout.Equal(chips("1.90")), "condition: %s", plan.winners[1].Payout)
		assert.True(t, plan.winners[0].Multiplier.Equal(chips("1.52")))
		assert.True(t, plan.distributed.Equal(chips("17.10")))
		assert.True(t, plan.house.Equal(chips("1.90")))
	})

	t.Run("only condition winner", func(t *testing.T) {
		rows := []*models.Participant{
			guessRow(1, models.PredictionOdd, nil, "10"),
			guessRow(2, models.PredictionEven, nil, "10"),
		}

		plan := planPayouts(chips("20"), 5, rows, 42)

		require.Len(t, plan.winners, 1)
		assert.Equal(t, int64(2), plan.winners[0].UserID)
		assert.True(t, plan.winners[0].Payout.Equal(chips("1.90")))
		assert.True(t, plan.house.Equal(chips("17.10")))
	})

	t.Run("no winners keeps everything in the house", func(t *testing.T) {
		rows := []*models.Participant{guessRow(1, models.PredictionExact, intPtr(3), "10")}

		plan := planPayouts(chips("10"), 0, rows, 42)

		assert.Empty(t, plan.winners)
		assert.True(t, plan.commission.IsZero())
		assert.True(t, plan.distributed.IsZero())
		assert.True(t, plan.house.Equal(chips("10")))
	})

	t.Run("pool split rounds down", func(t *testing.T) {
		rows := []*models.Participant{
			guessRow(1, models.PredictionEven, nil, "1"),
			guessRow(2, models.PredictionEven, nil, "1"),
			guessRow(3, models.PredictionEven, nil, "1"),
		}

		plan := planPayouts(chips("3"), 0, rows, 2)

		// 10% of 3.00 is 0.30, a third each
		for _, w := range plan.winners {
			assert.True(t, w.Payout.Equal(chips("0.10")), "payout: %s", w.Payout)
		}
		assert.True(t, plan.house.Equal(chips("2.70")))
	})

	t.Run("every tier at once overdraws the pot", func(t *testing.T) {
		rows := []*models.Participant{
			guessRow(1, models.PredictionExact, intPtr(42), "10"),
			guessRow(2, models.PredictionClose, intPtr(40), "10"),
			guessRow(3, models.PredictionEven, nil, "10"),
		}

		plan := planPayouts(chips("30"), 0, rows, 42)

		assert.True(t, plan.distributed.Equal(chips("36.00")))
		assert.True(t, plan.house.Equal(chips("-6.00")))
		assert.True(t, plan.distributed.Add(plan.house).Equal(plan.remaining))
	})

	t.Run("commission rounds down to the cent", func(t *testing.T) {
		plan := planPayouts(chips("10.99"), 7, nil, 0)
		assert.True(t, plan.commission.Equal(chips("0.76")), "commission: %s", plan.commission)
		assert.True(t, plan.commission.Add(plan.remaining).Equal(chips("10.99")))
	})
}
