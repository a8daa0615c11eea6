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

func TestTableRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := testutil.SetupTestDatabase(t)
	repo := NewTableRepository(testDB.DB)
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		testDB.Reset(t)
		testutil.CreateFundedAccount(t, testDB.DB, 1, "0")

		code := "A1B2C3"
		table := testutil.CreateTestTable(1, "10")
		table.IsPrivate = true
		table.AccessCode = &code
		require.NoError(t, repo.Create(ctx, table))

		got, err := repo.GetByID(ctx, table.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, models.TableStatusWaiting, got.Status)
		assert.True(t, got.EntryFee.Equal(testutil.Chips("10")))
		assert.True(t, got.PotAmount.Equal(testutil.Chips("10")))
		assert.Nil(t, got.OutcomeValue)
		require.NotNil(t, got.AccessCode)
		assert.Equal(t, code, *got.AccessCode)
	})

	t.Run("missing table returns nil", func(t *testing.T) {
		got, err := repo.GetByIDForUpdate(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("private table needs a code", func(t *testing.T) {
		testDB.Reset(t)
		testutil.CreateFundedAccount(t, testDB.DB, 1, "0")

		table := testutil.CreateTestTable(1, "10")
		table.IsPrivate = true
		assert.Error(t, repo.Create(ctx, table))
	})

	t.Run("update settlement fields", func(t *testing.T) {
		testDB.Reset(t)
		testutil.CreateFundedAccount(t, testDB.DB, 1, "0")
		table := testutil.CreateTestTable(1, "10")
		require.NoError(t, repo.Create(ctx, table))

		now := time.Now().UTC()
		outcome := 42
		table.Status = models.TableStatusCompleted
		table.PotAmount = testutil.Chips("20")
		table.ParticipantCount = 2
		table.CommissionAmount = testutil.Chips("1")
		table.DistributedAmount = testutil.Chips("15.20")
		table.HouseAmount = testutil.Chips("3.80")
		table.OutcomeValue = &outcome
		table.StartTime = &now
		table.EndTime = &now
		require.NoError(t, repo.Update(ctx, table))

		got, err := repo.GetByID(ctx, table.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TableStatusCompleted, got.Status)
		require.NotNil(t, got.OutcomeValue)
		assert.Equal(t, 42, *got.OutcomeValue)
		assert.True(t, got.HouseAmount.Equal(testutil.Chips("3.8")))
	})

	t.Run("participant count cannot pass max", func(t *testing.T) {
		testDB.Reset(t)
		testutil.CreateFundedAccount(t, testDB.DB, 1, "0")
		table := testutil.CreateTestTable(1, "10")
		table.MaxPlayers = 2
		require.NoError(t, repo.Create(ctx, table))

		table.ParticipantCount = 3
		err := repo.Update(ctx, table)
		assert.ErrorIs(t, err, models.ErrCapacity)
	})

	t.Run("list filters and due tables", func(t *testing.T) {
		testDB.Reset(t)
		testutil.CreateFundedAccount(t, testDB.DB, 1, "0")

		code := "FFFFFF"
		private := testutil.CreateTestTable(1, "5")
		private.IsPrivate = true
		private.AccessCode = &code
		require.NoError(t, repo.Create(ctx, private))

		public := testutil.CreateTestTable(1, "5")
		require.NoError(t, repo.Create(ctx, public))

		active := testutil.CreateTestTable(1, "5")
		require.NoError(t, repo.Create(ctx, active))
		started := time.Now().Add(-10 * time.Minute)
		active.Status = models.TableStatusActive
		active.StartTime = &started
		require.NoError(t, repo.Update(ctx, active))

		waiting := models.TableStatusWaiting
		lobby, err := repo.List(ctx, models.TableFilter{Status: &waiting, PublicOnly: true})
		require.NoError(t, err)
		require.Len(t, lobby, 1)
		assert.Equal(t, public.ID, lobby[0].ID)

		all, err := repo.List(ctx, models.TableFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 3)

		due, err := repo.GetDueForSettlement(ctx, time.Now().Add(-5*time.Minute), 10)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{active.ID}, due)

		notYet, err := repo.GetDueForSettlement(ctx, time.Now().Add(-time.Hour), 10)
		require.NoError(t, err)
		assert.Empty(t, notYet)

		pots, err := repo.GetOpenPotTotal(ctx)
		require.NoError(t, err)
		assert.True(t, pots.Equal(testutil.Chips("15")))
	})
}
