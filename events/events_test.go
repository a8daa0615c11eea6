package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"chiptable/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionalBusDelivery(t *testing.T) {
	t.Run("flush delivers pending events", func(t *testing.T) {
		mainBus := NewBus()
		txBus := NewTransactionalBus(mainBus)

		received := make(chan BalanceChangeEvent, 1)
		mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
			if e, ok := event.(BalanceChangeEvent); ok {
				received <- e
			}
		})

		sent := BalanceChangeEvent{
			UserID:       42,
			LedgerKind:   models.LedgerKindWin,
			OldBalance:   decimal.RequireFromString("5.00"),
			NewBalance:   decimal.RequireFromString("20.20"),
			ChangeAmount: decimal.RequireFromString("15.20"),
		}
		txBus.Publish(sent)
		assert.Len(t, txBus.Pending(), 1)

		require.NoError(t, txBus.Flush(context.Background()))
		assert.Empty(t, txBus.Pending())

		select {
		case got := <-received:
			assert.Equal(t, sent.UserID, got.UserID)
			assert.True(t, sent.ChangeAmount.Equal(got.ChangeAmount))
		case <-time.After(2 * time.Second):
			t.Fatal("event was not delivered")
		}
	})

	t.Run("discard drops pending events", func(t *testing.T) {
		mainBus := NewBus()
		txBus := NewTransactionalBus(mainBus)

		delivered := make(chan struct{}, 1)
		mainBus.Subscribe(EventTypeAccountOpened, func(ctx context.Context, event Event) {
			delivered <- struct{}{}
		})

		txBus.Publish(AccountOpenedEvent{UserID: 1})
		txBus.Discard()
		require.NoError(t, txBus.Flush(context.Background()))

		select {
		case <-delivered:
			t.Fatal("discarded event was delivered")
		case <-time.After(200 * time.Millisecond):
		}
	})

	t.Run("subscribe all receives every type", func(t *testing.T) {
		mainBus := NewBus()
		var wg sync.WaitGroup
		wg.Add(2)

		var mu sync.Mutex
		var types []EventType
		mainBus.SubscribeAll(func(ctx context.Context, event Event) {
			defer wg.Done()
			mu.Lock()
			types = append(types, event.Type())
			mu.Unlock()
		})

		mainBus.Emit(context.Background(), AccountOpenedEvent{UserID: 1})
		mainBus.Emit(context.Background(), TableStateChangeEvent{
			OldStatus: models.TableStatusWaiting,
			NewStatus: models.TableStatusActive,
		})
		wg.Wait()

		assert.ElementsMatch(t, []EventType{EventTypeAccountOpened, EventTypeTableStateChange}, types)
	})

	t.Run("panicking handler does not stop others", func(t *testing.T) {
		mainBus := NewBus()
		done := make(chan struct{})

		mainBus.Subscribe(EventTypeTableSettled, func(ctx context.Context, event Event) {
			panic("boom")
		})
		mainBus.Subscribe(EventTypeTableSettled, func(ctx context.Context, event Event) {
			close(done)
		})

		mainBus.Emit(context.Background(), TableSettledEvent{Result: &models.SettlementResult{}})

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("second handler did not run")
		}
	})
}
