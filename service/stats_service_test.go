package service

import (
	"context"
	"testing"

	"chiptable/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsService_GetPlayerStats(t *testing.T) {
	ctx := context.Background()
	m := newTestMocks()
	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	svc := NewStatsService(m.factory)

	m.accounts.On("GetByUserID", ctx, int64(2)).Return(&models.Account{UserID: 2, ChipBalance: chips("105.20")}, nil)
	m.participants.On("GetStatsByUser", ctx, int64(2)).Return(&models.TableStats{
		TablesPlayed:  4,
		TablesWon:     1,
		TotalStaked:   chips("40"),
		TotalWinnings: chips("15.20"),
		BiggestPayout: chips("15.20"),
	}, nil)
	m.ledger.On("GetTotalsByUser", ctx, int64(2)).Return(map[models.LedgerKind]decimal.Decimal{
		models.LedgerKindEntryFee:   chips("50"),
		models.LedgerKindWin:        chips("15.20"),
		models.LedgerKindCommission: chips("2"),
	}, nil)

	stats, err := svc.GetPlayerStats(ctx, 2)

	require.NoError(t, err)
	assert.Equal(t, 25.0, stats.WinPercentage)
	assert.True(t, stats.NetProfit.Equal(chips("-32.80")), "net: %s", stats.NetProfit)
	assert.True(t, stats.ChipBalance.Equal(chips("105.20")))
	m.assertExpectations(t)
}

func TestStatsService_GetPlayerStats_NotFound(t *testing.T) {
	ctx := context.Background()
	m := newTestMocks()
	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	svc := NewStatsService(m.factory)

	m.accounts.On("GetByUserID", ctx, int64(2)).Return(nil, nil)

	_, err := svc.GetPlayerStats(ctx, 2)
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
}

func TestStatsService_GetScoreboard(t *testing.T) {
	ctx := context.Background()
	m := newTestMocks()
	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	svc := NewStatsService(m.factory)

	m.accounts.On("GetTopByChips", ctx, 10).Return([]*models.Account{
		{UserID: 7, ChipBalance: chips("300")},
		{UserID: 3, ChipBalance: chips("120")},
	}, nil)
	m.participants.On("GetStatsByUser", ctx, int64(7)).Return(&models.TableStats{TablesPlayed: 2, TablesWon: 1}, nil)
	m.participants.On("GetStatsByUser", ctx, int64(3)).Return(&models.TableStats{}, nil)

	entries, err := svc.GetScoreboard(ctx, 0)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, int64(7), entries[0].UserID)
	assert.Equal(t, 50.0, entries[0].WinPercentage)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, 0.0, entries[1].WinPercentage)
}
