package service

import (
	"context"
	"time"

	"chiptable/events"
	"chiptable/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountRepository defines the interface for chip and wallet balances.
// Mutations are single conditional statements that hold the account row lock
// until the surrounding transaction ends.
type AccountRepository interface {
	// GetByUserID retrieves an account, returning nil if it does not exist
	GetByUserID(ctx context.Context, userID int64) (*models.Account, error)

	// Create opens a zero-balance account
	Create(ctx context.Context, userID int64) (*models.Account, error)

	// DebitChips removes amount from the chip balance, failing with
	// ErrInsufficientFunds or ErrAccountNotFound without changing anything
	DebitChips(ctx context.Context, userID int64, amount decimal.Decimal) (*models.BalanceChange, error)

	// CreditChips adds amount to the chip balance
	CreditChips(ctx context.Context, userID int64, amount decimal.Decimal) (*models.BalanceChange, error)

	// CreditWallet adds amount to the wallet balance
	CreditWallet(ctx context.Context, userID int64, amount decimal.Decimal) (*models.BalanceChange, error)

	// GetTotalChips returns the sum of all chip balances
	GetTotalChips(ctx context.Context) (decimal.Decimal, error)

	// GetTopByChips returns the accounts with the largest chip balances
	GetTopByChips(ctx context.Context, limit int) ([]*models.Account, error)
}

// LedgerRepository defines the interface for the append-only ledger
type LedgerRepository interface {
	// Record appends an entry
	Record(ctx context.Context, entry *models.LedgerEntry) error

	// GetByID retrieves an entry, returning nil if it does not exist
	GetByID(ctx context.Context, id uuid.UUID) (*models.LedgerEntry, error)

	// GetByIDForUpdate retrieves an entry and locks it for the rest of the transaction
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.LedgerEntry, error)

	// UpdateStatus moves a PENDING entry to its final status along with approval fields
	UpdateStatus(ctx context.Context, entry *models.LedgerEntry) error

	// GetByUser returns a user's entries, newest first
	GetByUser(ctx context.Context, userID int64, filter models.LedgerFilter) ([]*models.LedgerEntry, error)

	// GetByTable returns all entries referencing a table, oldest first
	GetByTable(ctx context.Context, tableID uuid.UUID) ([]*models.LedgerEntry, error)

	// GetTotalsByUser sums a user's completed entry amounts per kind
	GetTotalsByUser(ctx context.Context, userID int64) (map[models.LedgerKind]decimal.Decimal, error)
}

// TableRepository defines the interface for game table data access
type TableRepository interface {
	// Create inserts a new table
	Create(ctx context.Context, table *models.Table) error

	// GetByID retrieves a table, returning nil if it does not exist
	GetByID(ctx context.Context, id uuid.UUID) (*models.Table, error)

	// GetByIDForUpdate retrieves a table and locks its row for the rest of the transaction
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Table, error)

	// Update persists status, pot, counters and settlement fields
	Update(ctx context.Context, table *models.Table) error

	// List returns tables matching the filter, newest first
	List(ctx context.Context, filter models.TableFilter) ([]*models.Table, error)

	// GetDueForSettlement returns ids of active tables started before the cutoff
	GetDueForSettlement(ctx context.Context, startedBefore time.Time, limit int) ([]uuid.UUID, error)

	// GetOpenPotTotal returns the sum of pots on tables not yet completed
	GetOpenPotTotal(ctx context.Context) (decimal.Decimal, error)
}

// ParticipantRepository defines the interface for wager rows
type ParticipantRepository interface {
	// Create inserts a wager row
	Create(ctx context.Context, participant *models.Participant) error

	// Update persists guess and settlement fields of a wager row
	Update(ctx context.Context, participant *models.Participant) error

	// GetByTable returns all wager rows of a table, oldest first
	GetByTable(ctx context.Context, tableID uuid.UUID) ([]*models.Participant, error)

	// GetByUserAndTable returns a user's wager rows on a table
	GetByUserAndTable(ctx context.Context, userID int64, tableID uuid.UUID) ([]*models.Participant, error)

	// GetStatsByUser aggregates a user's table participation
	GetStatsByUser(ctx context.Context, userID int64) (*models.TableStats, error)
}

// AdminActionRepository defines the interface for the admin audit trail
type AdminActionRepository interface {
	// Record appends an audit row
	Record(ctx context.Context, action *models.AdminAction) error

	// GetByActor returns the most recent actions taken by an admin
	GetByActor(ctx context.Context, actorID int64, limit int) ([]*models.AdminAction, error)
}

// EventPublisher queues domain events for delivery after commit
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork binds every repository to one transaction
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	AccountRepository() AccountRepository
	LedgerRepository() LedgerRepository
	TableRepository() TableRepository
	ParticipantRepository() ParticipantRepository
	AdminActionRepository() AdminActionRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates units of work
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// OutcomeDrawer produces the winning number of a table
type OutcomeDrawer interface {
	// Draw returns a uniformly distributed value in [0, 99]
	Draw() (int, error)
}

// TableService defines the table lifecycle operations
type TableService interface {
	// CreateTable opens a table, debits the creator's entry fee and seats them
	CreateTable(ctx context.Context, params models.CreateTableParams) (*models.Table, error)

	// JoinTable seats a user, debits the entry fee and activates the table at quorum
	JoinTable(ctx context.Context, userID int64, tableID uuid.UUID, accessCode string) (*models.Table, error)

	// PlaceGuess registers a prediction for a seated user on an active table.
	// The entry fee covers every kind the user places: the first guess fills
	// the seat row and each further kind adds a row at the same stake with no
	// extra debit, so opposite conditions (EVEN and ODD, ABOVE_50 and BELOW_50)
	// on one fee always collect a condition share.
	PlaceGuess(ctx context.Context, userID int64, tableID uuid.UUID, kind models.PredictionKind, value *int) (*models.Participant, error)

	// GetTable returns a table with its wager rows, without the access code
	GetTable(ctx context.Context, tableID uuid.UUID) (*models.TableDetail, error)

	// ListTables returns tables for lobby views, without access codes
	ListTables(ctx context.Context, filter models.TableFilter) ([]*models.Table, error)
}

// SettlementService defines the settlement operations
type SettlementService interface {
	// Evaluate draws the outcome of an active table and pays out its pot exactly once
	Evaluate(ctx context.Context, tableID uuid.UUID) (*models.SettlementResult, error)

	// SettleDueTables evaluates every active table whose round has run out
	// and returns the number of tables settled
	SettleDueTables(ctx context.Context) (int, error)
}

// WalletService defines the chip purchase, sale and admin balance operations
type WalletService interface {
	// OpenAccount creates an empty account for a user
	OpenAccount(ctx context.Context, userID int64) (*models.Account, error)

	// GetAccount returns a user's balances
	GetAccount(ctx context.Context, userID int64) (*models.Account, error)

	// GetLedgerHistory returns a user's ledger entries
	GetLedgerHistory(ctx context.Context, userID int64, filter models.LedgerFilter) ([]*models.LedgerEntry, error)

	// BuyChips credits purchased chips
	BuyChips(ctx context.Context, params models.BuyChipsParams) (*models.LedgerEntry, error)

	// SellChips debits chips and files a pending sale for admin review
	SellChips(ctx context.Context, userID int64, amount decimal.Decimal) (*models.LedgerEntry, error)

	// ApproveSale completes a pending sale and credits the seller's wallet
	ApproveSale(ctx context.Context, entryID uuid.UUID, adminID int64) (*models.LedgerEntry, error)

	// RejectSale cancels a pending sale and refunds the chips
	RejectSale(ctx context.Context, entryID uuid.UUID, adminID int64, reason string) (*models.LedgerEntry, error)

	// GrantBonus credits bonus chips on behalf of an admin
	GrantBonus(ctx context.Context, adminID, userID int64, amount decimal.Decimal, reason string) (*models.LedgerEntry, error)
}

// StatsService defines the read-only player statistics
type StatsService interface {
	// GetPlayerStats returns a player's table record
	GetPlayerStats(ctx context.Context, userID int64) (*models.PlayerStats, error)

	// GetScoreboard returns the players with the most chips
	GetScoreboard(ctx context.Context, limit int) ([]*models.ScoreboardEntry, error)
}
