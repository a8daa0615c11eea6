package service

import (
	"context"
	"fmt"
	"time"

	"chiptable/config"
	"chiptable/events"
	"chiptable/metrics"
	"chiptable/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type tableService struct {
	uowFactory UnitOfWorkFactory
	config     *config.Config
}

// NewTableService creates a new table service. Optional table settings fall
// back to the configured defaults.
func NewTableService(uowFactory UnitOfWorkFactory, cfg *config.Config) TableService {
	return &tableService{
		uowFactory: uowFactory,
		config:     cfg,
	}
}

func (s *tableService) CreateTable(ctx context.Context, params models.CreateTableParams) (table *models.Table, err error) {
	started := time.Now()
	defer func() { metrics.RecordTableOperation("create", err, started) }()

	if err := validateParams(params); err != nil {
		return nil, err
	}
	if err := validateEntryFee(params); err != nil {
		return nil, err
	}

	table = &models.Table{
		ID:               uuid.New(),
		CreatedBy:        params.CreatorID,
		Status:           models.TableStatusWaiting,
		EntryFee:         params.EntryFee,
		PotAmount:        params.EntryFee,
		MinPlayers:       valueOr(params.MinPlayers, s.config.DefaultMinPlayers),
		MaxPlayers:       valueOr(params.MaxPlayers, s.config.DefaultMaxPlayers),
		CommissionRate:   valueOr(params.CommissionRate, s.config.DefaultCommissionRate),
		IsPrivate:        params.IsPrivate,
		ParticipantCount: 1,
	}
	if table.MinPlayers > table.MaxPlayers {
		return nil, models.NewValidationError("min_players", fmt.Sprintf("must not exceed max_players (%d > %d)", table.MinPlayers, table.MaxPlayers))
	}
	if table.IsPrivate {
		code, err := generateAccessCode()
		if err != nil {
			return nil, err
		}
		table.AccessCode = &code
	}

	err = RunAtomic(ctx, s.uowFactory, func(uow UnitOfWork) error {
		account, err := uow.AccountRepository().GetByUserID(ctx, params.CreatorID)
		if err != nil {
			return fmt.Errorf("failed to get account: %w", err)
		}
		if account == nil {
			return models.ErrAccountNotFound
		}

		// The ledger entry references the table, so the row goes in first
		if err := uow.TableRepository().Create(ctx, table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}

		if err := DebitChips(ctx, uow, &models.LedgerEntry{
			UserID:      params.CreatorID,
			Amount:      table.EntryFee,
			Kind:        models.LedgerKindEntryFee,
			TableID:     &table.ID,
			Description: "Entry fee for own table",
		}); err != nil {
			return fmt.Errorf("failed to debit entry fee: %w", err)
		}

		if err := uow.ParticipantRepository().Create(ctx, newEntryRow(params.CreatorID, table)); err != nil {
			return fmt.Errorf("failed to seat creator: %w", err)
		}

		uow.EventBus().Publish(events.TableCreatedEvent{
			TableID:   table.ID,
			CreatedBy: table.CreatedBy,
			EntryFee:  table.EntryFee,
			IsPrivate: table.IsPrivate,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"tableID":   table.ID,
		"creatorID": table.CreatedBy,
		"entryFee":  table.EntryFee,
		"isPrivate": table.IsPrivate,
	}).Info("Table created")

	// The creator is the only caller that ever sees the access code
	return table, nil
}

func (s *tableService) JoinTable(ctx context.Context, userID int64, tableID uuid.UUID, accessCode string) (table *models.Table, err error) {
	started := time.Now()
	defer func() { metrics.RecordTableOperation("join", err, started) }()

	err = RunAtomic(ctx, s.uowFactory, func(uow UnitOfWork) error {
		// Capacity check-and-increment is serialized by this row lock
		locked, err := uow.TableRepository().GetByIDForUpdate(ctx, tableID)
		if err != nil {
			return fmt.Errorf("failed to lock table: %w", err)
		}
		if locked == nil {
			return models.ErrTableNotFound
		}
		table = locked

		if table.Status == models.TableStatusCompleted {
			return fmt.Errorf("table %s is %s: %w", tableID, table.Status, models.ErrInvalidState)
		}
		if table.IsFull() {
			return fmt.Errorf("table %s has %d/%d players: %w", tableID, table.ParticipantCount, table.MaxPlayers, models.ErrCapacity)
		}
		if !table.IsWaiting() {
			return fmt.Errorf("table %s is %s: %w", tableID, table.Status, models.ErrInvalidState)
		}
		if table.IsPrivate && !accessCodeMatches(table.AccessCode, accessCode) {
			return models.ErrInvalidAccessCode
		}

		seats, err := uow.ParticipantRepository().GetByUserAndTable(ctx, userID, tableID)
		if err != nil {
			return fmt.Errorf("failed to check existing seat: %w", err)
		}
		if len(seats) > 0 {
			return fmt.Errorf("user %d already joined table %s: %w", userID, tableID, models.ErrDuplicateWager)
		}

		if err := DebitChips(ctx, uow, &models.LedgerEntry{
			UserID:      userID,
			Amount:      table.EntryFee,
			Kind:        models.LedgerKindEntryFee,
			TableID:     &table.ID,
			Description: "Entry fee",
		}); err != nil {
			return fmt.Errorf("failed to debit entry fee: %w", err)
		}

		if err := uow.ParticipantRepository().Create(ctx, newEntryRow(userID, table)); err != nil {
			return fmt.Errorf("failed to seat player: %w", err)
		}

		table.PotAmount = table.PotAmount.Add(table.EntryFee)
		table.ParticipantCount++

		if table.HasQuorum() {
			next, err := models.NextTableStatus(table.Status, models.TableEventPlayersReached)
			if err != nil {
				return err
			}
			now := time.Now().UTC()
			uow.EventBus().Publish(events.TableStateChangeEvent{
				TableID:   table.ID,
				OldStatus: table.Status,
				NewStatus: next,
			})
			table.Status = next
			table.StartTime = &now
		}

		if err := uow.TableRepository().Update(ctx, table); err != nil {
			return fmt.Errorf("failed to update table: %w", err)
		}

		uow.EventBus().Publish(events.PlayerJoinedEvent{
			TableID:          table.ID,
			UserID:           userID,
			ParticipantCount: table.ParticipantCount,
			PotAmount:        table.PotAmount,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"tableID": tableID,
		"userID":  userID,
		"players": table.ParticipantCount,
		"status":  table.Status,
	}).Info("Player joined table")

	return table.Redacted(), nil
}

func (s *tableService) PlaceGuess(ctx context.Context, userID int64, tableID uuid.UUID, kind models.PredictionKind, value *int) (participant *models.Participant, err error) {
	started := time.Now()
	defer func() { metrics.RecordTableOperation("guess", err, started) }()

	prediction, err := models.NewPrediction(kind, value)
	if err != nil {
		return nil, err
	}

	err = RunAtomic(ctx, s.uowFactory, func(uow UnitOfWork) error {
		// Locked so a guess cannot land on a table being settled
		table, err := uow.TableRepository().GetByIDForUpdate(ctx, tableID)
		if err != nil {
			return fmt.Errorf("failed to lock table: %w", err)
		}
		if table == nil {
			return models.ErrTableNotFound
		}
		if !table.IsActive() {
			return fmt.Errorf("table %s is %s: %w", tableID, table.Status, models.ErrInvalidState)
		}

		rows, err := uow.ParticipantRepository().GetByUserAndTable(ctx, userID, tableID)
		if err != nil {
			return fmt.Errorf("failed to get wagers: %w", err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("user %d has not joined table %s: %w", userID, tableID, models.ErrParticipantNotFound)
		}

		var unplaced *models.Participant
		for _, row := range rows {
			if !row.GuessPlaced {
				unplaced = row
				continue
			}
			if row.PredictionKind == prediction.Kind {
				return fmt.Errorf("user %d already guessed %s on table %s: %w", userID, prediction.Kind, tableID, models.ErrDuplicateWager)
			}
		}

		// The first guess fills the seat row; later kinds add rows at the same stake
		if unplaced != nil {
			participant = unplaced
			participant.PredictionKind = prediction.Kind
			participant.PredictedValue = prediction.Value
			participant.GuessPlaced = true
			if err := uow.ParticipantRepository().Update(ctx, participant); err != nil {
				return fmt.Errorf("failed to place guess: %w", err)
			}
		} else {
			participant = &models.Participant{
				ID:             uuid.New(),
				UserID:         userID,
				TableID:        tableID,
				PredictionKind: prediction.Kind,
				PredictedValue: prediction.Value,
				GuessPlaced:    true,
				Stake:          table.EntryFee,
			}
			if err := uow.ParticipantRepository().Create(ctx, participant); err != nil {
				return fmt.Errorf("failed to place guess: %w", err)
			}
		}

		uow.EventBus().Publish(events.GuessPlacedEvent{
			TableID:        tableID,
			UserID:         userID,
			PredictionKind: prediction.Kind,
			PredictedValue: prediction.Value,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"tableID": tableID,
		"userID":  userID,
		"kind":    prediction.Kind,
	}).Debug("Guess placed")

	return participant, nil
}

func (s *tableService) GetTable(ctx context.Context, tableID uuid.UUID) (*models.TableDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	table, err := uow.TableRepository().GetByID(ctx, tableID)
	if err != nil {
		return nil, fmt.Errorf("failed to get table: %w", err)
	}
	if table == nil {
		return nil, models.ErrTableNotFound
	}

	participants, err := uow.ParticipantRepository().GetByTable(ctx, tableID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}

	return &models.TableDetail{
		Table:        table.Redacted(),
		Participants: participants,
	}, nil
}

func (s *tableService) ListTables(ctx context.Context, filter models.TableFilter) ([]*models.Table, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	tables, err := uow.TableRepository().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	redacted := make([]*models.Table, len(tables))
	for i, table := range tables {
		redacted[i] = table.Redacted()
	}
	return redacted, nil
}

// newEntryRow is the seat row a player gets on joining. It stays unplaced,
// and so can never win, until the player's first guess fills it in.
func newEntryRow(userID int64, table *models.Table) *models.Participant {
	return &models.Participant{
		ID:             uuid.New(),
		UserID:         userID,
		TableID:        table.ID,
		PredictionKind: models.PredictionExact,
		Stake:          table.EntryFee,
	}
}

// validateEntryFee requires a fee of at least one chip in whole cents
func validateEntryFee(params models.CreateTableParams) error {
	if err := validateChipAmount("entry_fee", params.EntryFee); err != nil {
		return err
	}
	if params.EntryFee.LessThan(minimumStake) {
		return models.NewValidationError("entry_fee", "must be at least 1")
	}
	return nil
}

func valueOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

