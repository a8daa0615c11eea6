package repository

import (
	"context"
	"fmt"

	"chiptable/database"
	"chiptable/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ParticipantRepository implements the ParticipantRepository interface
type ParticipantRepository struct {
	q queryable
}

// NewParticipantRepository creates a new participant repository
func NewParticipantRepository(db *database.DB) *ParticipantRepository {
	return &ParticipantRepository{q: db.Pool}
}

// newParticipantRepositoryWithTx creates a new participant repository with a transaction
func newParticipantRepositoryWithTx(tx queryable) *ParticipantRepository {
	return &ParticipantRepository{q: tx}
}

const participantColumns = `
	id, user_id, table_id, prediction_kind, predicted_value, guess_placed, stake,
	is_winner, tier, payout_amount, payout_multiplier, created_at, updated_at
`

func scanParticipant(row pgx.Row) (*models.Participant, error) {
	var p models.Participant
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.TableID,
		&p.PredictionKind,
		&p.PredictedValue,
		&p.GuessPlaced,
		&p.Stake,
		&p.IsWinner,
		&p.Tier,
		&p.PayoutAmount,
		&p.PayoutMultiplier,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a wager row. A concurrent duplicate surfaces as ErrDuplicateWager.
func (r *ParticipantRepository) Create(ctx context.Context, participant *models.Participant) error {
	if participant.ID == uuid.Nil {
		participant.ID = uuid.New()
	}

	query := `
		INSERT INTO participants
		(id, user_id, table_id, prediction_kind, predicted_value, guess_placed, stake)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		participant.ID,
		participant.UserID,
		participant.TableID,
		participant.PredictionKind,
		participant.PredictedValue,
		participant.GuessPlaced,
		participant.Stake,
	).Scan(&participant.CreatedAt, &participant.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create participant for user %d on table %s: %w",
			participant.UserID, participant.TableID, translateError(err))
	}

	return nil
}

// Update persists guess and settlement fields of a wager row
func (r *ParticipantRepository) Update(ctx context.Context, participant *models.Participant) error {
	query := `
		UPDATE participants
		SET prediction_kind = $1,
		    predicted_value = $2,
		    guess_placed = $3,
		    is_winner = $4,
		    tier = $5,
		    payout_amount = $6,
		    payout_multiplier = $7,
		    updated_at = NOW()
		WHERE id = $8
	`

	result, err := r.q.Exec(ctx, query,
		participant.PredictionKind,
		participant.PredictedValue,
		participant.GuessPlaced,
		participant.IsWinner,
		participant.Tier,
		participant.PayoutAmount,
		participant.PayoutMultiplier,
		participant.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update participant %s: %w", participant.ID, translateError(err))
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("participant %s: %w", participant.ID, models.ErrParticipantNotFound)
	}

	return nil
}

// GetByTable returns all wager rows of a table, oldest first
func (r *ParticipantRepository) GetByTable(ctx context.Context, tableID uuid.UUID) ([]*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE table_id = $1 ORDER BY created_at, id`
	return r.queryParticipants(ctx, query, tableID)
}

// GetByUserAndTable returns a user's wager rows on a table
func (r *ParticipantRepository) GetByUserAndTable(ctx context.Context, userID int64, tableID uuid.UUID) ([]*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE user_id = $1 AND table_id = $2 ORDER BY created_at, id`
	return r.queryParticipants(ctx, query, userID, tableID)
}

// GetStatsByUser aggregates a user's participation per table, so several wager
// rows on one table count as one table played.
func (r *ParticipantRepository) GetStatsByUser(ctx context.Context, userID int64) (*models.TableStats, error) {
	query := `
		WITH per_table AS (
			SELECT p.table_id,
			       MAX(p.stake) AS staked,
			       BOOL_OR(p.is_winner) AS won,
			       SUM(p.payout_amount) AS winnings,
			       MAX(p.payout_amount) AS best
			FROM participants p
			JOIN game_tables t ON t.id = p.table_id
			WHERE p.user_id = $1 AND t.status = 'COMPLETED'
			GROUP BY p.table_id
		)
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE won),
		       COALESCE(SUM(staked), 0),
		       COALESCE(SUM(winnings), 0),
		       COALESCE(MAX(best), 0)
		FROM per_table
	`

	var stats models.TableStats
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&stats.TablesPlayed,
		&stats.TablesWon,
		&stats.TotalStaked,
		&stats.TotalWinnings,
		&stats.BiggestPayout,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get table stats for user %d: %w", userID, translateError(err))
	}

	return &stats, nil
}

func (r *ParticipantRepository) queryParticipants(ctx context.Context, query string, args ...any) ([]*models.Participant, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", translateError(err))
	}
	defer rows.Close()

	var participants []*models.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return participants, nil
}
