package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chiptable/config"
	"chiptable/events"
	"chiptable/metrics"
	"chiptable/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type walletService struct {
	uowFactory UnitOfWorkFactory
	config     *config.Config
}

// NewWalletService creates a new wallet service. Admin-only operations check
// the caller against the configured admin list.
func NewWalletService(uowFactory UnitOfWorkFactory, cfg *config.Config) WalletService {
	return &walletService{
		uowFactory: uowFactory,
		config:     cfg,
	}
}

func (s *walletService) OpenAccount(ctx context.Context, userID int64) (account *models.Account, err error) {
	if userID <= 0 {
		return nil, models.NewValidationError("user_id", "must be positive")
	}

	err = RunAtomic(ctx, s.uowFactory, func(uow UnitOfWork) error {
		existing, err := uow.AccountRepository().GetByUserID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to get account: %w", err)
		}
		if existing != nil {
			account = existing
			return nil
		}

		account, err = uow.AccountRepository().Create(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}
		uow.EventBus().Publish(events.AccountOpenedEvent{UserID: userID})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *walletService) GetAccount(ctx context.Context, userID int64) (*models.Account, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, models.ErrAccountNotFound
	}
	return account, nil
}

func (s *walletService) GetLedgerHistory(ctx context.Context, userID int64, filter models.LedgerFilter) ([]*models.LedgerEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entries, err := uow.LedgerRepository().GetByUser(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger history: %w", err)
	}
	return entries, nil
}

func (s *walletService) BuyChips(ctx context.Context, params models.BuyChipsParams) (entry *models.LedgerEntry, err error) {
	defer func() { metrics.RecordWalletOperation("buy", err) }()

	if err := validateParams(params); err != nil {
		return nil, err
	}
	if err := validateChipAmount("amount", params.Amount); err != nil {
		return nil, err
	}

	method := params.PaymentMethod
	entry = &models.LedgerEntry{
		UserID:        params.UserID,
		Amount:        params.Amount,
		Kind:          models.LedgerKindBuyChips,
		PaymentMethod: &method,
		Description:   "Chip purchase",
	}
	if params.PaymentRef != "" {
		ref := params.PaymentRef
		entry.PaymentRef = &ref
	}

	err = RunAtomic(ctx, s.uowFactory, func(uow UnitOfWork) error {
		return CreditChips(ctx, uow, entry)
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"userID": params.UserID,
		"amount": params.Amount,
		"method": params.PaymentMethod,
	}).Info("Chips purchased")
	return entry, nil
}

func (s *walletService) SellChips(ctx context.Context, userID int64, amount decimal.Decimal) (entry *models.LedgerEntry, err error) {
	defer func() { metrics.RecordWalletOperation("sell", err) }()

	if err := validateChipAmount("amount", amount); err != nil {
		return nil, err
	}

	// Chips leave the account now; the wallet is paid once an admin approves
	entry = &models.LedgerEntry{
		UserID:      userID,
		Amount:      amount,
		Kind:        models.LedgerKindSellChips,
		Status:      models.LedgerStatusPending,
		Description: "Chip sale awaiting review",
	}

	err = RunAtomic(ctx, s.uowFactory, func(uow UnitOfWork) error {
		return DebitChips(ctx, uow, entry)
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"userID":  userID,
		"amount":  amount,
		"entryID": entry.ID,
	}).Info("Chip sale filed for review")
	return entry, nil
}

func (s *walletService) ApproveSale(ctx context.Context, entryID uuid.UUID, adminID int64) (entry *models.LedgerEntry, err error) {
	defer func() { metrics.RecordWalletOperation("approve", err) }()

	if !s.config.IsAdmin(adminID) {
		return nil, fmt.Errorf("user %d cannot approve sales: %w", adminID, models.ErrForbidden)
	}

	err = RunAtomic(ctx, s.uowFactory, func(uow UnitOfWork) error {
		entry, err = lockPendingSale(ctx, uow, entryID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		entry.ApprovedBy = &adminID
		entry.ApprovedAt = &now
		if err := CompleteSale(ctx, uow, entry); err != nil {
			return fmt.Errorf("failed to complete sale: %w", err)
		}

		return recordReview(ctx, uow, entry, adminID, models.AdminActionTransactionApprove, map[string]any{
			"amount": entry.Amount.StringFixed(2),
		})
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"entryID": entryID,
		"adminID": adminID,
		"amount":  entry.Amount,
	}).Info("Chip sale approved")
	return entry, nil
}

func (s *walletService) RejectSale(ctx context.Context, entryID uuid.UUID, adminID int64, reason string) (entry *models.LedgerEntry, err error) {
	defer func() { metrics.RecordWalletOperation("reject", err) }()

	if !s.config.IsAdmin(adminID) {
		return nil, fmt.Errorf("user %d cannot reject sales: %w", adminID, models.ErrForbidden)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, models.NewValidationError("reason", "is required")
	}

	err = RunAtomic(ctx, s.uowFactory, func(uow UnitOfWork) error {
		entry, err = lockPendingSale(ctx, uow, entryID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		entry.Status = models.LedgerStatusCancelled
		entry.ApprovedBy = &adminID
		entry.ApprovedAt = &now
		entry.Description = fmt.Sprintf("%s (rejected: %s)", entry.Description, reason)
		if err := uow.LedgerRepository().UpdateStatus(ctx, entry); err != nil {
			return fmt.Errorf("failed to cancel sale: %w", err)
		}

		if err := CreditChips(ctx, uow, &models.LedgerEntry{
			UserID:      entry.UserID,
			Amount:      entry.Amount,
			Kind:        models.LedgerKindRefund,
			Description: fmt.Sprintf("Refund of rejected sale %s", entry.ID),
		}); err != nil {
			return fmt.Errorf("failed to refund chips: %w", err)
		}

		return recordReview(ctx, uow, entry, adminID, models.AdminActionTransactionReject, map[string]any{
			"amount": entry.Amount.StringFixed(2),
			"reason": reason,
		})
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"entryID": entryID,
		"adminID": adminID,
		"reason":  reason,
	}).Info("Chip sale rejected")
	return entry, nil
}

func (s *walletService) GrantBonus(ctx context.Context, adminID, userID int64, amount decimal.Decimal, reason string) (entry *models.LedgerEntry, err error) {
	defer func() { metrics.RecordWalletOperation("bonus", err) }()

	if !s.config.IsAdmin(adminID) {
		return nil, fmt.Errorf("user %d cannot grant bonuses: %w", adminID, models.ErrForbidden)
	}
	if err := validateChipAmount("amount", amount); err != nil {
		return nil, err
	}

	description := "Bonus"
	if reason = strings.TrimSpace(reason); reason != "" {
		description = "Bonus: " + reason
	}
	entry = &models.LedgerEntry{
		UserID:      userID,
		Amount:      amount,
		Kind:        models.LedgerKindBonus,
		Description: description,
		ApprovedBy:  &adminID,
	}

	err = RunAtomic(ctx, s.uowFactory, func(uow UnitOfWork) error {
		if err := CreditChips(ctx, uow, entry); err != nil {
			return err
		}
		return uow.AdminActionRepository().Record(ctx, &models.AdminAction{
			ActionType: models.AdminActionBalanceBonus,
			ActorID:    adminID,
			TargetID:   fmt.Sprintf("%d", userID),
			Details: map[string]any{
				"amount":   amount.StringFixed(2),
				"reason":   reason,
				"entry_id": entry.ID.String(),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"adminID": adminID,
		"userID":  userID,
		"amount":  amount,
	}).Info("Bonus granted")
	return entry, nil
}

func lockPendingSale(ctx context.Context, uow UnitOfWork, entryID uuid.UUID) (*models.LedgerEntry, error) {
	entry, err := uow.LedgerRepository().GetByIDForUpdate(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock ledger entry: %w", err)
	}
	if entry == nil {
		return nil, models.ErrLedgerEntryNotFound
	}
	if entry.Kind != models.LedgerKindSellChips || entry.Status != models.LedgerStatusPending {
		return nil, fmt.Errorf("entry %s is a %s %s entry: %w", entryID, entry.Status, entry.Kind, models.ErrInvalidState)
	}
	return entry, nil
}

func recordReview(ctx context.Context, uow UnitOfWork, entry *models.LedgerEntry, adminID int64, actionType models.AdminActionType, details map[string]any) error {
	details["user_id"] = entry.UserID
	if err := uow.AdminActionRepository().Record(ctx, &models.AdminAction{
		ActionType: actionType,
		ActorID:    adminID,
		TargetID:   entry.ID.String(),
		Details:    details,
	}); err != nil {
		return fmt.Errorf("failed to record admin action: %w", err)
	}

	uow.EventBus().Publish(events.SaleReviewedEvent{
		EntryID: entry.ID,
		UserID:  entry.UserID,
		AdminID: adminID,
		Status:  entry.Status,
		Amount:  entry.Amount,
	})
	return nil
}
