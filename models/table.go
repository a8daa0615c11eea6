package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TableStatus represents the lifecycle state of a game table
type TableStatus string

const (
	TableStatusWaiting   TableStatus = "WAITING"
	TableStatusActive    TableStatus = "ACTIVE"
	TableStatusCompleted TableStatus = "COMPLETED"
)

// TableEvent drives a table status transition
type TableEvent string

const (
	TableEventPlayersReached TableEvent = "players_reached"
	TableEventSettled        TableEvent = "settled"
)

// Table limits and defaults
const (
	MinTablePlayers       = 2
	MaxTablePlayers       = 20
	DefaultMinPlayers     = 2
	DefaultMaxPlayers     = 10
	DefaultCommissionRate = 5
	MaxCommissionRate     = 20
	AccessCodeLength      = 6
)

// NextTableStatus returns the status reached from cur on evt.
// COMPLETED is terminal; every other pair is rejected with ErrInvalidState.
func NextTableStatus(cur TableStatus, evt TableEvent) (TableStatus, error) {
	switch cur {
	case TableStatusWaiting:
		if evt == TableEventPlayersReached {
			return TableStatusActive, nil
		}
	case TableStatusActive:
		if evt == TableEventSettled {
			return TableStatusCompleted, nil
		}
	}
	return cur, fmt.Errorf("%w: %s --%s--> ?", ErrInvalidState, cur, evt)
}

// Table is one round of the prediction game and the pot staked on it
type Table struct {
	ID                uuid.UUID       `db:"id"`
	CreatedBy         int64           `db:"created_by"`
	Status            TableStatus     `db:"status"`
	EntryFee          decimal.Decimal `db:"entry_fee"`
	PotAmount         decimal.Decimal `db:"pot_amount"`
	MinPlayers        int             `db:"min_players"`
	MaxPlayers        int             `db:"max_players"`
	CommissionRate    int             `db:"commission_rate"`
	CommissionAmount  decimal.Decimal `db:"commission_amount"`
	DistributedAmount decimal.Decimal `db:"distributed_amount"`
	HouseAmount       decimal.Decimal `db:"house_amount"`
	OutcomeValue      *int            `db:"outcome_value"`
	IsPrivate         bool            `db:"is_private"`
	AccessCode        *string         `db:"access_code"`
	ParticipantCount  int             `db:"participant_count"`
	StartTime         *time.Time      `db:"start_time"`
	EndTime           *time.Time      `db:"end_time"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"`
}

// IsWaiting checks if the table is still accepting players
func (t *Table) IsWaiting() bool {
	return t.Status == TableStatusWaiting
}

// IsActive checks if the table accepts guesses and can be settled
func (t *Table) IsActive() bool {
	return t.Status == TableStatusActive
}

// IsCompleted checks if the table has been settled
func (t *Table) IsCompleted() bool {
	return t.Status == TableStatusCompleted
}

// IsFull checks if the table has reached its player limit
func (t *Table) IsFull() bool {
	return t.ParticipantCount >= t.MaxPlayers
}

// HasQuorum checks if enough players have joined to start the round
func (t *Table) HasQuorum() bool {
	return t.ParticipantCount >= t.MinPlayers
}

// Redacted returns a copy without the access code.
func (t *Table) Redacted() *Table {
	c := *t
	c.AccessCode = nil
	return &c
}

// TableDetail combines a table with its wager rows
type TableDetail struct {
	Table        *Table
	Participants []*Participant
}

// TableFilter narrows table listings
type TableFilter struct {
	Status     *TableStatus
	PublicOnly bool
	Limit      int
	Offset     int
}

// CreateTableParams describes a new table. Nil optional fields take the defaults.
type CreateTableParams struct {
	CreatorID      int64 `validate:"required"`
	EntryFee       decimal.Decimal
	MinPlayers     *int `validate:"omitempty,min=2,max=20"`
	MaxPlayers     *int `validate:"omitempty,min=2,max=20"`
	CommissionRate *int `validate:"omitempty,min=0,max=20"`
	IsPrivate      bool
}
