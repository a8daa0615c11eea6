package models

import (
	"time"

	"github.com/google/uuid"
)

// AdminActionType represents the kind of administrative change
type AdminActionType string

const (
	AdminActionTransactionApprove AdminActionType = "TRANSACTION_APPROVE"
	AdminActionTransactionReject  AdminActionType = "TRANSACTION_REJECT"
	AdminActionBalanceBonus       AdminActionType = "BALANCE_BONUS"
)

// AdminAction is the audit row written alongside every admin mutation
type AdminAction struct {
	ID         uuid.UUID       `db:"id"`
	ActionType AdminActionType `db:"action_type"`
	ActorID    int64           `db:"actor_id"`
	TargetID   string          `db:"target_id"`
	Details    map[string]any  `db:"details"`
	CreatedAt  time.Time       `db:"created_at"`
}
