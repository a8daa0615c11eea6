package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chiptable/database"
	"chiptable/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// TableRepository implements the TableRepository interface
type TableRepository struct {
	q queryable
}

// NewTableRepository creates a new table repository
func NewTableRepository(db *database.DB) *TableRepository {
	return &TableRepository{q: db.Pool}
}

// newTableRepositoryWithTx creates a new table repository with a transaction
func newTableRepositoryWithTx(tx queryable) *TableRepository {
	return &TableRepository{q: tx}
}

const tableColumns = `
	id, created_by, status, entry_fee, pot_amount, min_players, max_players,
	commission_rate, commission_amount, distributed_amount, house_amount, outcome_value,
	is_private, access_code, participant_count, start_time, end_time, created_at, updated_at
`

func scanTable(row pgx.Row) (*models.Table, error) {
	var table models.Table
	err := row.Scan(
		&table.ID,
		&table.CreatedBy,
		&table.Status,
		&table.EntryFee,
		&table.PotAmount,
		&table.MinPlayers,
		&table.MaxPlayers,
		&table.CommissionRate,
		&table.CommissionAmount,
		&table.DistributedAmount,
		&table.HouseAmount,
		&table.OutcomeValue,
		&table.IsPrivate,
		&table.AccessCode,
		&table.ParticipantCount,
		&table.StartTime,
		&table.EndTime,
		&table.CreatedAt,
		&table.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &table, nil
}

// Create inserts a new table. A zero ID is replaced with a fresh one.
func (r *TableRepository) Create(ctx context.Context, table *models.Table) error {
	if table.ID == uuid.Nil {
		table.ID = uuid.New()
	}

	query := `
		INSERT INTO game_tables
		(id, created_by, status, entry_fee, pot_amount, min_players, max_players,
		 commission_rate, is_private, access_code, participant_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		table.ID,
		table.CreatedBy,
		table.Status,
		table.EntryFee,
		table.PotAmount,
		table.MinPlayers,
		table.MaxPlayers,
		table.CommissionRate,
		table.IsPrivate,
		table.AccessCode,
		table.ParticipantCount,
	).Scan(&table.CreatedAt, &table.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", translateError(err))
	}

	return nil
}

// GetByID retrieves a table by its ID
func (r *TableRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Table, error) {
	return r.getByID(ctx, id, false)
}

// GetByIDForUpdate retrieves a table and locks its row until the transaction ends.
// Every mutation of a table and its participants goes through this lock.
func (r *TableRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Table, error) {
	return r.getByID(ctx, id, true)
}

func (r *TableRepository) getByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*models.Table, error) {
	query := `SELECT ` + tableColumns + ` FROM game_tables WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	table, err := scanTable(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get table %s: %w", id, translateError(err))
	}

	return table, nil
}

// Update persists the mutable fields of a table
func (r *TableRepository) Update(ctx context.Context, table *models.Table) error {
	query := `
		UPDATE game_tables
		SET status = $1,
		    pot_amount = $2,
		    participant_count = $3,
		    commission_amount = $4,
		    distributed_amount = $5,
		    house_amount = $6,
		    outcome_value = $7,
		    start_time = $8,
		    end_time = $9,
		    updated_at = NOW()
		WHERE id = $10
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query,
		table.Status,
		table.PotAmount,
		table.ParticipantCount,
		table.CommissionAmount,
		table.DistributedAmount,
		table.HouseAmount,
		table.OutcomeValue,
		table.StartTime,
		table.EndTime,
		table.ID,
	).Scan(&table.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("table %s: %w", table.ID, models.ErrTableNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update table %s: %w", table.ID, translateError(err))
	}

	return nil
}

// List returns tables matching the filter, newest first
func (r *TableRepository) List(ctx context.Context, filter models.TableFilter) ([]*models.Table, error) {
	var conditions []string
	var args []any

	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.PublicOnly {
		conditions = append(conditions, "NOT is_private")
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, max(filter.Offset, 0))

	query := fmt.Sprintf(`
		SELECT %s
		FROM game_tables
		%s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d
	`, tableColumns, where, len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", translateError(err))
	}
	defer rows.Close()

	var tables []*models.Table
	for rows.Next() {
		table, err := scanTable(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		tables = append(tables, table)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tables: %w", err)
	}

	return tables, nil
}

// GetDueForSettlement returns ids of active tables started before the cutoff, oldest first
func (r *TableRepository) GetDueForSettlement(ctx context.Context, startedBefore time.Time, limit int) ([]uuid.UUID, error) {
	query := `
		SELECT id
		FROM game_tables
		WHERE status = 'ACTIVE' AND start_time <= $1
		ORDER BY start_time
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, startedBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get tables due for settlement: %w", translateError(err))
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan table id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate table ids: %w", err)
	}

	return ids, nil
}

// GetOpenPotTotal returns the sum of pots on tables not yet completed
func (r *TableRepository) GetOpenPotTotal(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.q.QueryRow(ctx, `SELECT COALESCE(SUM(pot_amount), 0) FROM game_tables WHERE status <> 'COMPLETED'`).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum open pots: %w", translateError(err))
	}
	return total, nil
}
