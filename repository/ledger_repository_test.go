package repository

import (
	"context"
	"testing"
	"time"

	"chiptable/models"
	"chiptable/repository/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := testutil.SetupTestDatabase(t)
	repo := NewLedgerRepository(testDB.DB)
	tableRepo := NewTableRepository(testDB.DB)
	ctx := context.Background()

	t.Run("record and read back", func(t *testing.T) {
		testDB.Reset(t)
		testutil.CreateFundedAccount(t, testDB.DB, 1, "0")

		method := models.PaymentMethodPayPal
		ref := "pp-123"
		entry := testutil.CreateTestLedgerEntry(1, models.LedgerKindBuyChips, "25.50", nil)
		entry.PaymentMethod = &method
		entry.PaymentRef = &ref
		entry.Description = "chip purchase"

		require.NoError(t, repo.Record(ctx, entry))
		assert.NotEqual(t, uuid.Nil, entry.ID)
		assert.False(t, entry.CreatedAt.IsZero())

		got, err := repo.GetByID(ctx, entry.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, models.LedgerKindBuyChips, got.Kind)
		assert.True(t, got.Amount.Equal(testutil.Chips("25.50")))
		require.NotNil(t, got.PaymentMethod)
		assert.Equal(t, method, *got.PaymentMethod)
		assert.Equal(t, "chip purchase", got.Description)
		assert.Nil(t, got.TableID)
	})

	t.Run("missing entry returns nil", func(t *testing.T) {
		got, err := repo.GetByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("table kinds require a table", func(t *testing.T) {
		testDB.Reset(t)
		testutil.CreateFundedAccount(t, testDB.DB, 1, "0")

		entry := testutil.CreateTestLedgerEntry(1, models.LedgerKindWin, "1", nil)
		assert.Error(t, repo.Record(ctx, entry))
	})

	t.Run("pending entry moves once", func(t *testing.T) {
		testDB.Reset(t)
		testutil.CreateFundedAccount(t, testDB.DB, 1, "0")

		entry := testutil.CreateTestLedgerEntry(1, models.LedgerKindSellChips, "5", nil)
		entry.Status = models.LedgerStatusPending
		require.NoError(t, repo.Record(ctx, entry))

		admin := int64(9)
		now := time.Now().UTC()
		entry.Status = models.LedgerStatusCompleted
		entry.ApprovedBy = &admin
		entry.ApprovedAt = &now
		require.NoError(t, repo.UpdateStatus(ctx, entry))

		entry.Status = models.LedgerStatusCancelled
		err := repo.UpdateStatus(ctx, entry)
		assert.ErrorIs(t, err, models.ErrInvalidState)

		got, err := repo.GetByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, models.LedgerStatusCompleted, got.Status)
		require.NotNil(t, got.ApprovedBy)
		assert.Equal(t, admin, *got.ApprovedBy)
	})

	t.Run("history filters and totals", func(t *testing.T) {
		testDB.Reset(t)
		testutil.CreateFundedAccount(t, testDB.DB, 1, "0")
		table := testutil.CreateTestTable(1, "10")
		require.NoError(t, tableRepo.Create(ctx, table))

		require.NoError(t, repo.Record(ctx, testutil.CreateTestLedgerEntry(1, models.LedgerKindBuyChips, "100", nil)))
		require.NoError(t, repo.Record(ctx, testutil.CreateTestLedgerEntry(1, models.LedgerKindEntryFee, "10", &table.ID)))
		require.NoError(t, repo.Record(ctx, testutil.CreateTestLedgerEntry(1, models.LedgerKindWin, "15.20", &table.ID)))
		pending := testutil.CreateTestLedgerEntry(1, models.LedgerKindSellChips, "20", nil)
		pending.Status = models.LedgerStatusPending
		require.NoError(t, repo.Record(ctx, pending))

		all, err := repo.GetByUser(ctx, 1, models.LedgerFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 4)

		kind := models.LedgerKindWin
		wins, err := repo.GetByUser(ctx, 1, models.LedgerFilter{Kind: &kind})
		require.NoError(t, err)
		require.Len(t, wins, 1)
		assert.True(t, wins[0].Amount.Equal(testutil.Chips("15.2")))

		status := models.LedgerStatusPending
		pendingOnly, err := repo.GetByUser(ctx, 1, models.LedgerFilter{Status: &status})
		require.NoError(t, err)
		assert.Len(t, pendingOnly, 1)

		paged, err := repo.GetByUser(ctx, 1, models.LedgerFilter{Limit: 2, Offset: 3})
		require.NoError(t, err)
		assert.Len(t, paged, 1)

		byTable, err := repo.GetByTable(ctx, table.ID)
		require.NoError(t, err)
		assert.Len(t, byTable, 2)

		totals, err := repo.GetTotalsByUser(ctx, 1)
		require.NoError(t, err)
		assert.True(t, totals[models.LedgerKindEntryFee].Equal(testutil.Chips("10")))
		assert.True(t, totals[models.LedgerKindWin].Equal(testutil.Chips("15.20")))
		_, hasSell := totals[models.LedgerKindSellChips]
		assert.False(t, hasSell, "pending entries are not totalled")
	})
}
