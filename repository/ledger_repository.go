package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chiptable/database"
	"chiptable/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// LedgerRepository implements the LedgerRepository interface
type LedgerRepository struct {
	q queryable
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *database.DB) *LedgerRepository {
	return &LedgerRepository{q: db.Pool}
}

// newLedgerRepositoryWithTx creates a new ledger repository with a transaction
func newLedgerRepositoryWithTx(tx queryable) *LedgerRepository {
	return &LedgerRepository{q: tx}
}

const ledgerColumns = `
	id, user_id, amount, kind, status, table_id, balance_before, balance_after,
	payment_method, payment_ref, description, approved_by, approved_at, created_at, updated_at
`

func scanLedgerEntry(row pgx.Row) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.Amount,
		&entry.Kind,
		&entry.Status,
		&entry.TableID,
		&entry.BalanceBefore,
		&entry.BalanceAfter,
		&entry.PaymentMethod,
		&entry.PaymentRef,
		&entry.Description,
		&entry.ApprovedBy,
		&entry.ApprovedAt,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Record appends a ledger entry. A zero ID is replaced with a fresh one.
func (r *LedgerRepository) Record(ctx context.Context, entry *models.LedgerEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Status == "" {
		entry.Status = models.LedgerStatusCompleted
	}

	query := `
		INSERT INTO ledger_entries
		(id, user_id, amount, kind, status, table_id, balance_before, balance_after,
		 payment_method, payment_ref, description, approved_by, approved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Amount,
		entry.Kind,
		entry.Status,
		entry.TableID,
		entry.BalanceBefore,
		entry.BalanceAfter,
		entry.PaymentMethod,
		entry.PaymentRef,
		entry.Description,
		entry.ApprovedBy,
		entry.ApprovedAt,
	).Scan(&entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to record %s ledger entry for user %d: %w", entry.Kind, entry.UserID, translateError(err))
	}

	return nil
}

// GetByID retrieves a ledger entry by its ID
func (r *LedgerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.LedgerEntry, error) {
	return r.getByID(ctx, id, false)
}

// GetByIDForUpdate retrieves a ledger entry and locks its row
func (r *LedgerRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.LedgerEntry, error) {
	return r.getByID(ctx, id, true)
}

func (r *LedgerRepository) getByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*models.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	entry, err := scanLedgerEntry(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry %s: %w", id, translateError(err))
	}

	return entry, nil
}

// UpdateStatus moves a PENDING entry to its final status.
// Entries that already left PENDING are never rewritten.
func (r *LedgerRepository) UpdateStatus(ctx context.Context, entry *models.LedgerEntry) error {
	query := `
		UPDATE ledger_entries
		SET status = $1, description = $2, approved_by = $3, approved_at = $4, updated_at = NOW()
		WHERE id = $5 AND status = 'PENDING'
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query,
		entry.Status,
		entry.Description,
		entry.ApprovedBy,
		entry.ApprovedAt,
		entry.ID,
	).Scan(&entry.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("ledger entry %s is not pending: %w", entry.ID, models.ErrInvalidState)
	}
	if err != nil {
		return fmt.Errorf("failed to update ledger entry %s: %w", entry.ID, translateError(err))
	}

	return nil
}

// GetByUser returns a user's ledger entries, newest first. Entries written
// in one transaction share created_at, so order follows insertion sequence.
func (r *LedgerRepository) GetByUser(ctx context.Context, userID int64, filter models.LedgerFilter) ([]*models.LedgerEntry, error) {
	conditions := []string{"user_id = $1"}
	args := []any{userID}

	if filter.Kind != nil {
		args = append(args, *filter.Kind)
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.TableID != nil {
		args = append(args, *filter.TableID)
		conditions = append(conditions, fmt.Sprintf("table_id = $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, max(filter.Offset, 0))

	query := fmt.Sprintf(`
		SELECT %s
		FROM ledger_entries
		WHERE %s
		ORDER BY seq DESC
		LIMIT $%d OFFSET $%d
	`, ledgerColumns, strings.Join(conditions, " AND "), len(args)-1, len(args))

	return r.queryEntries(ctx, query, args...)
}

// GetByTable returns all ledger entries referencing a table, oldest first
func (r *LedgerRepository) GetByTable(ctx context.Context, tableID uuid.UUID) ([]*models.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE table_id = $1 ORDER BY seq`
	return r.queryEntries(ctx, query, tableID)
}

// GetTotalsByUser sums a user's completed entry amounts per kind
func (r *LedgerRepository) GetTotalsByUser(ctx context.Context, userID int64) (map[models.LedgerKind]decimal.Decimal, error) {
	query := `
		SELECT kind, SUM(amount)
		FROM ledger_entries
		WHERE user_id = $1 AND status = 'COMPLETED'
		GROUP BY kind
	`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum ledger entries for user %d: %w", userID, translateError(err))
	}
	defer rows.Close()

	totals := make(map[models.LedgerKind]decimal.Decimal)
	for rows.Next() {
		var kind models.LedgerKind
		var sum decimal.Decimal
		if err := rows.Scan(&kind, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan ledger total: %w", err)
		}
		totals[kind] = sum
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger totals: %w", err)
	}

	return totals, nil
}

func (r *LedgerRepository) queryEntries(ctx context.Context, query string, args ...any) ([]*models.LedgerEntry, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", translateError(err))
	}
	defer rows.Close()

	var entries []*models.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}

	return entries, nil
}
