package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chiptable/database"
	"chiptable/events"
	"chiptable/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	lockTimeout      time.Duration
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	accountRepo      service.AccountRepository
	ledgerRepo       service.LedgerRepository
	tableRepo        service.TableRepository
	participantRepo  service.ParticipantRepository
	adminActionRepo  service.AdminActionRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory. Row-lock waits inside
// each unit give up after lockTimeout.
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus, lockTimeout time.Duration) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:          db,
		eventBus:    eventBus,
		lockTimeout: lockTimeout,
	}
}

type unitOfWorkFactory struct {
	db          *database.DB
	eventBus    *events.Bus
	lockTimeout time.Duration
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		lockTimeout:      f.lockTimeout,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.BeginWithLockTimeout(ctx, u.lockTimeout)
	if err != nil {
		return translateError(err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories with the transaction
	u.accountRepo = newAccountRepositoryWithTx(tx)
	u.ledgerRepo = newLedgerRepositoryWithTx(tx)
	u.tableRepo = newTableRepositoryWithTx(tx)
	u.participantRepo = newParticipantRepositoryWithTx(tx)
	u.adminActionRepo = newAdminActionRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction and then releases the queued events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	u.tx = nil
	if err != nil {
		u.transactionalBus.Discard()
		return fmt.Errorf("failed to commit transaction: %w", translateError(err))
	}

	return u.transactionalBus.Flush(u.ctx)
}

// Rollback rolls back the transaction. It is a no-op after Commit.
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	u.tx = nil
	u.transactionalBus.Discard()

	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	return nil
}

// AccountRepository returns the account repository for this unit of work
func (u *unitOfWork) AccountRepository() service.AccountRepository {
	if u.accountRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.accountRepo
}

// LedgerRepository returns the ledger repository for this unit of work
func (u *unitOfWork) LedgerRepository() service.LedgerRepository {
	if u.ledgerRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.ledgerRepo
}

// TableRepository returns the table repository for this unit of work
func (u *unitOfWork) TableRepository() service.TableRepository {
	if u.tableRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.tableRepo
}

// ParticipantRepository returns the participant repository for this unit of work
func (u *unitOfWork) ParticipantRepository() service.ParticipantRepository {
	if u.participantRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.participantRepo
}

// AdminActionRepository returns the admin action repository for this unit of work
func (u *unitOfWork) AdminActionRepository() service.AdminActionRepository {
	if u.adminActionRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.adminActionRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
