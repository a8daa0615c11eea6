package service

import (
	"context"
	"fmt"

	"chiptable/models"
)

// statsService implements the StatsService interface
type statsService struct {
	uowFactory UnitOfWorkFactory
}

// NewStatsService creates a new stats service
func NewStatsService(uowFactory UnitOfWorkFactory) StatsService {
	return &statsService{
		uowFactory: uowFactory,
	}
}

// GetScoreboard returns the players with the most chips, ranked from 1
func (s *statsService) GetScoreboard(ctx context.Context, limit int) ([]*models.ScoreboardEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if limit <= 0 {
		limit = 10
	}

	accounts, err := uow.AccountRepository().GetTopByChips(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top accounts: %w", err)
	}

	entries := make([]*models.ScoreboardEntry, 0, len(accounts))
	for i, account := range accounts {
		tableStats, err := uow.ParticipantRepository().GetStatsByUser(ctx, account.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to get table stats for user %d: %w", account.UserID, err)
		}

		entries = append(entries, &models.ScoreboardEntry{
			Rank:          i + 1,
			UserID:        account.UserID,
			ChipBalance:   account.ChipBalance,
			TablesPlayed:  tableStats.TablesPlayed,
			WinPercentage: winPercentage(tableStats),
		})
	}

	return entries, nil
}

// GetPlayerStats returns detailed statistics for a specific player
func (s *statsService) GetPlayerStats(ctx context.Context, userID int64) (*models.PlayerStats, error) {
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

	tableStats, err := uow.ParticipantRepository().GetStatsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get table stats: %w", err)
	}

	// Net profit comes from the ledger so commissions and open tables count too
	totals, err := uow.LedgerRepository().GetTotalsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger totals: %w", err)
	}
	netProfit := totals[models.LedgerKindWin].
		Add(totals[models.LedgerKindCommission]).
		Sub(totals[models.LedgerKindEntryFee])

	return &models.PlayerStats{
		UserID:        userID,
		ChipBalance:   account.ChipBalance,
		TablesPlayed:  tableStats.TablesPlayed,
		TablesWon:     tableStats.TablesWon,
		WinPercentage: winPercentage(tableStats),
		TotalStaked:   tableStats.TotalStaked,
		TotalWinnings: tableStats.TotalWinnings,
		NetProfit:     netProfit,
		BiggestPayout: tableStats.BiggestPayout,
	}, nil
}

func winPercentage(stats *models.TableStats) float64 {
	if stats.TablesPlayed == 0 {
		return 0
	}
	return float64(stats.TablesWon) / float64(stats.TablesPlayed) * 100
}
