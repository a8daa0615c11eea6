package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account holds a user's chip and wallet balances
type Account struct {
	UserID        int64           `db:"user_id"`
	ChipBalance   decimal.Decimal `db:"chip_balance"`
	WalletBalance decimal.Decimal `db:"wallet_balance"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

// BalanceChange is the before/after pair of one balance mutation
type BalanceChange struct {
	Before decimal.Decimal
	After  decimal.Decimal
}
