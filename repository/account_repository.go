package repository

import (
	"context"
	"errors"
	"fmt"

	"chiptable/database"
	"chiptable/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountRepository implements the AccountRepository interface
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository with a transaction
func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

// GetByUserID retrieves an account by its user ID
func (r *AccountRepository) GetByUserID(ctx context.Context, userID int64) (*models.Account, error) {
	query := `
		SELECT user_id, chip_balance, wallet_balance, created_at, updated_at
		FROM accounts
		WHERE user_id = $1
	`

	var account models.Account
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&account.UserID,
		&account.ChipBalance,
		&account.WalletBalance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", userID, translateError(err))
	}

	return &account, nil
}

// Create opens a zero-balance account
func (r *AccountRepository) Create(ctx context.Context, userID int64) (*models.Account, error) {
	query := `
		INSERT INTO accounts (user_id)
		VALUES ($1)
		RETURNING user_id, chip_balance, wallet_balance, created_at, updated_at
	`

	var account models.Account
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&account.UserID,
		&account.ChipBalance,
		&account.WalletBalance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create account %d: %w", userID, translateError(err))
	}

	return &account, nil
}

// DebitChips removes amount from the chip balance in one conditional update.
// Nothing changes when the balance is short or the account is missing.
func (r *AccountRepository) DebitChips(ctx context.Context, userID int64, amount decimal.Decimal) (*models.BalanceChange, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("debit amount must be positive: %w", models.ErrValidation)
	}

	query := `
		UPDATE accounts
		SET chip_balance = chip_balance - $1, updated_at = NOW()
		WHERE user_id = $2 AND chip_balance >= $1
		RETURNING chip_balance + $1, chip_balance
	`

	var change models.BalanceChange
	err := r.q.QueryRow(ctx, query, amount, userID).Scan(&change.Before, &change.After)
	if errors.Is(err, pgx.ErrNoRows) {
		account, getErr := r.GetByUserID(ctx, userID)
		if getErr != nil {
			return nil, getErr
		}
		if account == nil {
			return nil, fmt.Errorf("user %d: %w", userID, models.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("user %d has %s chips, needs %s: %w",
			userID, account.ChipBalance.StringFixed(2), amount.StringFixed(2), models.ErrInsufficientFunds)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to debit chips for user %d: %w", userID, translateError(err))
	}

	return &change, nil
}

// CreditChips adds amount to the chip balance
func (r *AccountRepository) CreditChips(ctx context.Context, userID int64, amount decimal.Decimal) (*models.BalanceChange, error) {
	return r.credit(ctx, "chip_balance", userID, amount)
}

// CreditWallet adds amount to the wallet balance
func (r *AccountRepository) CreditWallet(ctx context.Context, userID int64, amount decimal.Decimal) (*models.BalanceChange, error) {
	return r.credit(ctx, "wallet_balance", userID, amount)
}

func (r *AccountRepository) credit(ctx context.Context, column string, userID int64, amount decimal.Decimal) (*models.BalanceChange, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("credit amount must be positive: %w", models.ErrValidation)
	}

	// column is one of two constants above, never caller input
	query := fmt.Sprintf(`
		UPDATE accounts
		SET %[1]s = %[1]s + $1, updated_at = NOW()
		WHERE user_id = $2
		RETURNING %[1]s - $1, %[1]s
	`, column)

	var change models.BalanceChange
	err := r.q.QueryRow(ctx, query, amount, userID).Scan(&change.Before, &change.After)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", userID, models.ErrAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to credit %s for user %d: %w", column, userID, translateError(err))
	}

	return &change, nil
}

// GetTotalChips returns the sum of all chip balances
func (r *AccountRepository) GetTotalChips(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.q.QueryRow(ctx, `SELECT COALESCE(SUM(chip_balance), 0) FROM accounts`).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum chip balances: %w", translateError(err))
	}
	return total, nil
}

// GetTopByChips returns the accounts with the largest chip balances
func (r *AccountRepository) GetTopByChips(ctx context.Context, limit int) ([]*models.Account, error) {
	query := `
		SELECT user_id, chip_balance, wallet_balance, created_at, updated_at
		FROM accounts
		WHERE chip_balance > 0
		ORDER BY chip_balance DESC, user_id
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top accounts: %w", translateError(err))
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		var account models.Account
		if err := rows.Scan(
			&account.UserID,
			&account.ChipBalance,
			&account.WalletBalance,
			&account.CreatedAt,
			&account.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, &account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}
