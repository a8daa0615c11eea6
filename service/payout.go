package service

import (
	"chiptable/models"

	"github.com/shopspring/decimal"
)

// Share of the post-commission pot set aside for each tier. The shares add up
// to more than one, so a table with winners in every tier can pay out more
// than it holds; the difference is booked against the house.
var tierShares = map[models.Tier]decimal.Decimal{
	models.TierExact:     decimal.NewFromFloat(0.80),
	models.TierClose:     decimal.NewFromFloat(0.30),
	models.TierCondition: decimal.NewFromFloat(0.10),
}

// closeDistance is the widest miss that still wins the close tier
const closeDistance = 5

var hundred = decimal.NewFromInt(100)

// classifyTier returns the tier a placed guess wins with outcome, or false.
// Rows without a placed guess never win.
func classifyTier(p *models.Participant, outcome int) (models.Tier, bool) {
	if !p.GuessPlaced {
		return "", false
	}

	switch p.PredictionKind {
	case models.PredictionExact:
		if p.PredictedValue != nil && *p.PredictedValue == outcome {
			return models.TierExact, true
		}
	case models.PredictionClose:
		if p.PredictedValue != nil && abs(*p.PredictedValue-outcome) <= closeDistance {
			return models.TierClose, true
		}
	case models.PredictionEven:
		if outcome%2 == 0 {
			return models.TierCondition, true
		}
	case models.PredictionOdd:
		if outcome%2 == 1 {
			return models.TierCondition, true
		}
	case models.PredictionAbove50:
		if outcome > 50 {
			return models.TierCondition, true
		}
	case models.PredictionBelow50:
		if outcome <= 50 {
			return models.TierCondition, true
		}
	}
	return "", false
}

// payoutPlan is the full money split of one table
type payoutPlan struct {
	commission  decimal.Decimal
	remaining   decimal.Decimal
	distributed decimal.Decimal
	house       decimal.Decimal
	tiers       models.TierCounts
	winners     []models.WinnerPayout
}

// planPayouts splits pot among the winning rows. Every intermediate amount is
// rounded down to the cent, so distributed never exceeds the sum of the tier
// pools and leftover cents stay with the house.
func planPayouts(pot decimal.Decimal, commissionRate int, rows []*models.Participant, outcome int) payoutPlan {
	plan := payoutPlan{}
	plan.commission = pot.Mul(decimal.NewFromInt(int64(commissionRate))).Div(hundred).RoundDown(2)
	plan.remaining = pot.Sub(plan.commission)

	byTier := make(map[models.Tier][]*models.Participant)
	for _, row := range rows {
		if tier, ok := classifyTier(row, outcome); ok {
			byTier[tier] = append(byTier[tier], row)
		}
	}
	plan.tiers = models.TierCounts{
		Exact:     len(byTier[models.TierExact]),
		Close:     len(byTier[models.TierClose]),
		Condition: len(byTier[models.TierCondition]),
	}

	plan.distributed = decimal.Zero
	for _, tier := range []models.Tier{models.TierExact, models.TierClose, models.TierCondition} {
		winners := byTier[tier]
		if len(winners) == 0 {
			continue
		}
		pool := plan.remaining.Mul(tierShares[tier]).RoundDown(2)
		each := pool.Div(decimal.NewFromInt(int64(len(winners)))).RoundDown(2)
		for _, row := range winners {
			multiplier := decimal.Zero
			if row.Stake.IsPositive() {
				multiplier = each.Div(row.Stake).RoundDown(4)
			}
			plan.winners = append(plan.winners, models.WinnerPayout{
				ParticipantID: row.ID,
				UserID:        row.UserID,
				Tier:          tier,
				Payout:        each,
				Multiplier:    multiplier,
			})
			plan.distributed = plan.distributed.Add(each)
		}
	}

	plan.house = plan.remaining.Sub(plan.distributed)
	return plan
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
