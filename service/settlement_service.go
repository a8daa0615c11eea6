package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chiptable/config"
	"chiptable/events"
	"chiptable/metrics"
	"chiptable/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// dueTableBatch caps how many tables one settlement sweep picks up
const dueTableBatch = 50

type settlementService struct {
	uowFactory UnitOfWorkFactory
	drawer     OutcomeDrawer
	config     *config.Config
}

// NewSettlementService creates a new settlement service
func NewSettlementService(uowFactory UnitOfWorkFactory, drawer OutcomeDrawer, cfg *config.Config) SettlementService {
	return &settlementService{
		uowFactory: uowFactory,
		drawer:     drawer,
		config:     cfg,
	}
}

func (s *settlementService) Evaluate(ctx context.Context, tableID uuid.UUID) (result *models.SettlementResult, err error) {
	defer func() { metrics.RecordSettlement(result, err) }()

	err = RunAtomic(ctx, s.uowFactory, func(uow UnitOfWork) error {
		// Exactly one evaluation gets past this lock while the table is ACTIVE
		table, err := uow.TableRepository().GetByIDForUpdate(ctx, tableID)
		if err != nil {
			return fmt.Errorf("failed to lock table: %w", err)
		}
		if table == nil {
			return models.ErrTableNotFound
		}
		next, err := models.NextTableStatus(table.Status, models.TableEventSettled)
		if err != nil {
			return fmt.Errorf("cannot settle table %s: %w", tableID, err)
		}

		outcome, err := s.drawer.Draw()
		if err != nil {
			return err
		}

		rows, err := uow.ParticipantRepository().GetByTable(ctx, tableID)
		if err != nil {
			return fmt.Errorf("failed to get participants: %w", err)
		}

		plan := planPayouts(table.PotAmount, table.CommissionRate, rows, outcome)

		payouts := make(map[uuid.UUID]models.WinnerPayout, len(plan.winners))
		for _, w := range plan.winners {
			payouts[w.ParticipantID] = w
		}

		for _, row := range rows {
			payout, won := payouts[row.ID]
			if !won {
				continue
			}
			tier := payout.Tier
			row.IsWinner = true
			row.Tier = &tier
			row.PayoutAmount = payout.Payout
			row.PayoutMultiplier = payout.Multiplier
			if err := uow.ParticipantRepository().Update(ctx, row); err != nil {
				return fmt.Errorf("failed to update participant %s: %w", row.ID, err)
			}

			// A zero share still marks the row a winner but moves no chips
			if !payout.Payout.IsPositive() {
				continue
			}
			if err := CreditChips(ctx, uow, &models.LedgerEntry{
				UserID:      row.UserID,
				Amount:      payout.Payout,
				Kind:        models.LedgerKindWin,
				TableID:     &table.ID,
				Description: fmt.Sprintf("%s tier win on %d", tier, outcome),
			}); err != nil {
				return fmt.Errorf("failed to credit winnings: %w", err)
			}
		}

		if plan.commission.IsPositive() {
			if err := CreditChips(ctx, uow, &models.LedgerEntry{
				UserID:      table.CreatedBy,
				Amount:      plan.commission,
				Kind:        models.LedgerKindCommission,
				TableID:     &table.ID,
				Description: fmt.Sprintf("%d%% table commission", table.CommissionRate),
			}); err != nil {
				return fmt.Errorf("failed to credit commission: %w", err)
			}
		}

		now := time.Now().UTC()
		uow.EventBus().Publish(events.TableStateChangeEvent{
			TableID:   table.ID,
			OldStatus: table.Status,
			NewStatus: next,
		})
		table.Status = next
		table.OutcomeValue = &outcome
		table.CommissionAmount = plan.commission
		table.DistributedAmount = plan.distributed
		table.HouseAmount = plan.house
		table.EndTime = &now
		if err := uow.TableRepository().Update(ctx, table); err != nil {
			return fmt.Errorf("failed to close table: %w", err)
		}

		result = &models.SettlementResult{
			TableID:           table.ID,
			OutcomeValue:      outcome,
			Tiers:             plan.tiers,
			DistributedAmount: plan.distributed,
			CommissionAmount:  plan.commission,
			HouseAmount:       plan.house,
			Winners:           plan.winners,
		}
		uow.EventBus().Publish(events.TableSettledEvent{Result: result})
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields := log.Fields{
		"tableID":     tableID,
		"outcome":     result.OutcomeValue,
		"winners":     len(result.Winners),
		"distributed": result.DistributedAmount,
		"commission":  result.CommissionAmount,
		"house":       result.HouseAmount,
	}
	if result.HouseAmount.IsNegative() {
		log.WithFields(fields).Warn("Table settled with payouts above the remaining pot")
	} else {
		log.WithFields(fields).Info("Table settled")
	}

	return result, nil
}

func (s *settlementService) SettleDueTables(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.config.RoundDuration)

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	due, err := uow.TableRepository().GetDueForSettlement(ctx, cutoff, dueTableBatch)
	uow.Rollback()
	if err != nil {
		return 0, fmt.Errorf("failed to list due tables: %w", err)
	}

	settled := 0
	for _, tableID := range due {
		if err := ctx.Err(); err != nil {
			return settled, err
		}

		_, err := s.Evaluate(ctx, tableID)
		switch {
		case err == nil:
			settled++
		case errors.Is(err, models.ErrInvalidState), errors.Is(err, models.ErrNotFound):
			// Another worker got there first
			log.WithField("tableID", tableID).Debug("Table already settled")
		case models.IsRetryable(err):
			log.WithError(err).WithField("tableID", tableID).Warn("Table busy, retrying next sweep")
		default:
			log.WithError(err).WithField("tableID", tableID).Error("Failed to settle table")
		}
	}

	return settled, nil
}
