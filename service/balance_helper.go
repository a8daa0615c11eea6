package service

import (
	"context"
	"fmt"

	"chiptable/events"
	"chiptable/models"
)

// DebitChips removes entry.Amount from the user's chips and appends entry
// with the balances the account store actually observed. These helpers are
// the only way balances change, so every mutation has exactly one ledger row.
func DebitChips(ctx context.Context, uow UnitOfWork, entry *models.LedgerEntry) error {
	change, err := uow.AccountRepository().DebitChips(ctx, entry.UserID, entry.Amount)
	if err != nil {
		return err
	}
	return recordBalanceChange(ctx, uow, entry, change)
}

// CreditChips adds entry.Amount to the user's chips and appends entry.
func CreditChips(ctx context.Context, uow UnitOfWork, entry *models.LedgerEntry) error {
	change, err := uow.AccountRepository().CreditChips(ctx, entry.UserID, entry.Amount)
	if err != nil {
		return err
	}
	return recordBalanceChange(ctx, uow, entry, change)
}

// CompleteSale pays a pending SELL_CHIPS entry out to the seller's wallet and
// marks it completed. The chips already left the account when the sale was filed.
func CompleteSale(ctx context.Context, uow UnitOfWork, entry *models.LedgerEntry) error {
	if entry.Kind != models.LedgerKindSellChips {
		return fmt.Errorf("entry %s is %s, not a sale: %w", entry.ID, entry.Kind, models.ErrInvalidState)
	}
	entry.Status = models.LedgerStatusCompleted
	if err := uow.LedgerRepository().UpdateStatus(ctx, entry); err != nil {
		return err
	}
	if _, err := uow.AccountRepository().CreditWallet(ctx, entry.UserID, entry.Amount); err != nil {
		return err
	}
	return nil
}

func recordBalanceChange(ctx context.Context, uow UnitOfWork, entry *models.LedgerEntry, change *models.BalanceChange) error {
	entry.BalanceBefore = change.Before
	entry.BalanceAfter = change.After
	if entry.Status == "" {
		entry.Status = models.LedgerStatusCompleted
	}

	if err := uow.LedgerRepository().Record(ctx, entry); err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}

	// Delivered only if the unit of work commits
	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:       entry.UserID,
		TableID:      entry.TableID,
		LedgerKind:   entry.Kind,
		OldBalance:   change.Before,
		NewBalance:   change.After,
		ChangeAmount: change.After.Sub(change.Before),
	})

	return nil
}
