package events

import (
	"context"
	"sync"

	"chiptable/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange    EventType = "balance_change"
	EventTypeAccountOpened    EventType = "account_opened"
	EventTypeTableCreated     EventType = "table_created"
	EventTypePlayerJoined     EventType = "player_joined"
	EventTypeGuessPlaced      EventType = "guess_placed"
	EventTypeTableStateChange EventType = "table_state_change"
	EventTypeTableSettled     EventType = "table_settled"
	EventTypeSaleReviewed     EventType = "sale_reviewed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a chip balance change that occurred
type BalanceChangeEvent struct {
	UserID       int64             `json:"user_id"`
	TableID      *uuid.UUID        `json:"table_id,omitempty"`
	LedgerKind   models.LedgerKind `json:"ledger_kind"`
	OldBalance   decimal.Decimal   `json:"old_balance"`
	NewBalance   decimal.Decimal   `json:"new_balance"`
	ChangeAmount decimal.Decimal   `json:"change_amount"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// AccountOpenedEvent represents a new account
type AccountOpenedEvent struct {
	UserID int64 `json:"user_id"`
}

func (e AccountOpenedEvent) Type() EventType {
	return EventTypeAccountOpened
}

// TableCreatedEvent represents a newly opened table
type TableCreatedEvent struct {
	TableID   uuid.UUID       `json:"table_id"`
	CreatedBy int64           `json:"created_by"`
	EntryFee  decimal.Decimal `json:"entry_fee"`
	IsPrivate bool            `json:"is_private"`
}

func (e TableCreatedEvent) Type() EventType {
	return EventTypeTableCreated
}

// PlayerJoinedEvent represents a player taking a seat
type PlayerJoinedEvent struct {
	TableID          uuid.UUID       `json:"table_id"`
	UserID           int64           `json:"user_id"`
	ParticipantCount int             `json:"participant_count"`
	PotAmount        decimal.Decimal `json:"pot_amount"`
}

func (e PlayerJoinedEvent) Type() EventType {
	return EventTypePlayerJoined
}

// GuessPlacedEvent represents a registered prediction
type GuessPlacedEvent struct {
	TableID        uuid.UUID             `json:"table_id"`
	UserID         int64                 `json:"user_id"`
	PredictionKind models.PredictionKind `json:"prediction_kind"`
	PredictedValue *int                  `json:"predicted_value,omitempty"`
}

func (e GuessPlacedEvent) Type() EventType {
	return EventTypeGuessPlaced
}

// TableStateChangeEvent represents a table status transition
type TableStateChangeEvent struct {
	TableID   uuid.UUID          `json:"table_id"`
	OldStatus models.TableStatus `json:"old_status"`
	NewStatus models.TableStatus `json:"new_status"`
}

func (e TableStateChangeEvent) Type() EventType {
	return EventTypeTableStateChange
}

// TableSettledEvent carries the settlement result of a table
type TableSettledEvent struct {
	Result *models.SettlementResult `json:"result"`
}

func (e TableSettledEvent) Type() EventType {
	return EventTypeTableSettled
}

// SaleReviewedEvent represents an admin decision on a chip sale
type SaleReviewedEvent struct {
	EntryID uuid.UUID           `json:"entry_id"`
	UserID  int64               `json:"user_id"`
	AdminID int64               `json:"admin_id"`
	Status  models.LedgerStatus `json:"status"`
	Amount  decimal.Decimal     `json:"amount"`
}

func (e SaleReviewedEvent) Type() EventType {
	return EventTypeSaleReviewed
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu          sync.RWMutex
	handlers    map[EventType][]Handler
	allHandlers []Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// SubscribeAll adds a handler that receives every event type
func (b *Bus) SubscribeAll(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.allHandlers = append(b.allHandlers, handler)
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[event.Type()])+len(b.allHandlers))
	handlers = append(handlers, b.handlers[event.Type()]...)
	handlers = append(handlers, b.allHandlers...)
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	// Handlers run asynchronously so a slow subscriber never blocks a commit
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds events raised inside a unit of work until it commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Queued event on transactional bus")
	b.pending = append(b.pending, e)
}

// Pending returns the events queued so far
func (b *TransactionalBus) Pending() []Event {
	return b.pending
}

// Flush emits pending events; called after a successful commit.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithFields(log.Fields{
		"pendingEventCount": len(b.pending),
	}).Debug("Flushing transactional bus")

	// Handlers outlive the request, so they get a fresh context
	eventCtx := context.WithoutCancel(ctx)

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops pending events; called after a rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
