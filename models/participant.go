package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PredictionKind is the kind of guess a participant makes on the outcome
type PredictionKind string

const (
	PredictionExact   PredictionKind = "EXACT"
	PredictionClose   PredictionKind = "CLOSE"
	PredictionEven    PredictionKind = "EVEN"
	PredictionOdd     PredictionKind = "ODD"
	PredictionAbove50 PredictionKind = "ABOVE_50"
	PredictionBelow50 PredictionKind = "BELOW_50"
)

// Outcome bounds
const (
	MinOutcome = 0
	MaxOutcome = 99
)

// NeedsValue reports whether the kind carries a predicted number
func (k PredictionKind) NeedsValue() bool {
	return k == PredictionExact || k == PredictionClose
}

// IsValid checks the kind against the known set
func (k PredictionKind) IsValid() bool {
	switch k {
	case PredictionExact, PredictionClose, PredictionEven, PredictionOdd, PredictionAbove50, PredictionBelow50:
		return true
	}
	return false
}

// Prediction is a validated (kind, value) pair
type Prediction struct {
	Kind  PredictionKind
	Value *int
}

// NewPrediction validates a guess. EXACT and CLOSE need a value in 0..99;
// the other kinds must not carry one.
func NewPrediction(kind PredictionKind, value *int) (Prediction, error) {
	if !kind.IsValid() {
		return Prediction{}, NewValidationError("prediction_kind", "is not a known kind")
	}
	if kind.NeedsValue() {
		if value == nil {
			return Prediction{}, NewValidationError("predicted_value", "is required for "+string(kind))
		}
		if *value < MinOutcome || *value > MaxOutcome {
			return Prediction{}, NewValidationError("predicted_value", "must be between 0 and 99")
		}
		v := *value
		return Prediction{Kind: kind, Value: &v}, nil
	}
	if value != nil {
		return Prediction{}, NewValidationError("predicted_value", "is not allowed for "+string(kind))
	}
	return Prediction{Kind: kind}, nil
}

// Tier is the winning tier a participant row settled into
type Tier string

const (
	TierExact     Tier = "exact"
	TierClose     Tier = "close"
	TierCondition Tier = "condition"
)

// Participant is one wager row of a user at a table. The row created on join
// has GuessPlaced false until the user's first guess fills it.
type Participant struct {
	ID               uuid.UUID       `db:"id"`
	UserID           int64           `db:"user_id"`
	TableID          uuid.UUID       `db:"table_id"`
	PredictionKind   PredictionKind  `db:"prediction_kind"`
	PredictedValue   *int            `db:"predicted_value"`
	GuessPlaced      bool            `db:"guess_placed"`
	Stake            decimal.Decimal `db:"stake"`
	IsWinner         bool            `db:"is_winner"`
	Tier             *Tier           `db:"tier"`
	PayoutAmount     decimal.Decimal `db:"payout_amount"`
	PayoutMultiplier decimal.Decimal `db:"payout_multiplier"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}
