package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"chiptable/database"
	"chiptable/models"

	"github.com/google/uuid"
)

// AdminActionRepository implements the AdminActionRepository interface
type AdminActionRepository struct {
	q queryable
}

// NewAdminActionRepository creates a new admin action repository
func NewAdminActionRepository(db *database.DB) *AdminActionRepository {
	return &AdminActionRepository{q: db.Pool}
}

// newAdminActionRepositoryWithTx creates a new admin action repository with a transaction
func newAdminActionRepositoryWithTx(tx queryable) *AdminActionRepository {
	return &AdminActionRepository{q: tx}
}

// Record appends an audit row
func (r *AdminActionRepository) Record(ctx context.Context, action *models.AdminAction) error {
	if action.ID == uuid.Nil {
		action.ID = uuid.New()
	}

	details := action.Details
	if details == nil {
		details = map[string]any{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to marshal admin action details: %w", err)
	}

	query := `
		INSERT INTO admin_actions (id, action_type, actor_id, target_id, details)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err = r.q.QueryRow(ctx, query,
		action.ID,
		action.ActionType,
		action.ActorID,
		action.TargetID,
		detailsJSON,
	).Scan(&action.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record admin action %s: %w", action.ActionType, translateError(err))
	}

	return nil
}

// GetByActor returns the most recent actions taken by an admin
func (r *AdminActionRepository) GetByActor(ctx context.Context, actorID int64, limit int) ([]*models.AdminAction, error) {
	query := `
		SELECT id, action_type, actor_id, target_id, details, created_at
		FROM admin_actions
		WHERE actor_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, actorID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get admin actions for %d: %w", actorID, translateError(err))
	}
	defer rows.Close()

	var actions []*models.AdminAction
	for rows.Next() {
		var action models.AdminAction
		var detailsJSON []byte
		if err := rows.Scan(
			&action.ID,
			&action.ActionType,
			&action.ActorID,
			&action.TargetID,
			&detailsJSON,
			&action.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan admin action: %w", err)
		}
		if err := json.Unmarshal(detailsJSON, &action.Details); err != nil {
			return nil, fmt.Errorf("failed to unmarshal admin action details: %w", err)
		}
		actions = append(actions, &action)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate admin actions: %w", err)
	}

	return actions, nil
}
