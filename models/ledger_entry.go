package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerKind represents the type of balance movement
type LedgerKind string

const (
	LedgerKindEntryFee   LedgerKind = "ENTRY_FEE"
	LedgerKindWin        LedgerKind = "WIN"
	LedgerKindCommission LedgerKind = "COMMISSION"
	LedgerKindBuyChips   LedgerKind = "BUY_CHIPS"
	LedgerKindSellChips  LedgerKind = "SELL_CHIPS"
	LedgerKindRefund     LedgerKind = "REFUND"
	LedgerKindBonus      LedgerKind = "BONUS"
)

// RequiresTable reports whether entries of this kind must reference a table
func (k LedgerKind) RequiresTable() bool {
	return k == LedgerKindEntryFee || k == LedgerKindWin || k == LedgerKindCommission
}

// LedgerStatus is the processing status of a ledger entry
type LedgerStatus string

const (
	LedgerStatusPending   LedgerStatus = "PENDING"
	LedgerStatusCompleted LedgerStatus = "COMPLETED"
	LedgerStatusFailed    LedgerStatus = "FAILED"
	LedgerStatusCancelled LedgerStatus = "CANCELLED"
)

// PaymentMethod is the external rail used for chip purchases
type PaymentMethod string

const (
	PaymentMethodCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentMethodPayPal       PaymentMethod = "PAYPAL"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCrypto       PaymentMethod = "CRYPTO"
	PaymentMethodInternal     PaymentMethod = "INTERNAL"
)

// IsValid checks the method against the known set
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCreditCard, PaymentMethodPayPal, PaymentMethodBankTransfer, PaymentMethodCrypto, PaymentMethodInternal:
		return true
	}
	return false
}

// LedgerEntry is an append-only record of one balance movement.
// BalanceBefore and BalanceAfter are the chip balances around the mutation.
type LedgerEntry struct {
	ID            uuid.UUID       `db:"id"`
	UserID        int64           `db:"user_id"`
	Amount        decimal.Decimal `db:"amount"`
	Kind          LedgerKind      `db:"kind"`
	Status        LedgerStatus    `db:"status"`
	TableID       *uuid.UUID      `db:"table_id"`
	BalanceBefore decimal.Decimal `db:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after"`
	PaymentMethod *PaymentMethod  `db:"payment_method"`
	PaymentRef    *string         `db:"payment_ref"`
	Description   string          `db:"description"`
	ApprovedBy    *int64          `db:"approved_by"`
	ApprovedAt    *time.Time      `db:"approved_at"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

// LedgerFilter narrows ledger history queries
type LedgerFilter struct {
	Kind    *LedgerKind
	Status  *LedgerStatus
	TableID *uuid.UUID
	Limit   int
	Offset  int
}

// BuyChipsParams describes a chip purchase settled by an external payment
type BuyChipsParams struct {
	UserID        int64 `validate:"required"`
	Amount        decimal.Decimal
	PaymentMethod PaymentMethod `validate:"required,oneof=CREDIT_CARD PAYPAL BANK_TRANSFER CRYPTO INTERNAL"`
	PaymentRef    string        `validate:"max=255"`
}
