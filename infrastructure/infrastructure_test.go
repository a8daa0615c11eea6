package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"chiptable/events"
	"chiptable/models"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishedMessage struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
	err      error
}

func (f *fakePublisher) Publish(ctx context.Context, subject string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, publishedMessage{subject: subject, data: data})
	return nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

type fakeWebhook struct {
	calls  []*discordgo.WebhookParams
	ids    []string
	result error
}

func (f *fakeWebhook) WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.ids = append(f.ids, webhookID)
	f.calls = append(f.calls, data)
	return nil, f.result
}

func TestEventSubjectMapper(t *testing.T) {
	mapper := NewEventSubjectMapper()

	assert.Equal(t, "chiptable.tables.settled", mapper.MapEventToSubject(events.TableSettledEvent{}))
	assert.Equal(t, "chiptable.accounts.balance_changed", mapper.MapEventToSubject(events.BalanceChangeEvent{}))
	assert.Equal(t, "chiptable.wallet.sale_reviewed", mapper.MapEventToSubject(events.SaleReviewedEvent{}))

	// Every known event type lands inside the stream's subject filter
	for eventType, subject := range subjectsByType {
		assert.Regexp(t, `^chiptable\.`, subject, "event type %s", eventType)
	}
}

func TestNATSEventPublisher_Publish(t *testing.T) {
	ctx := context.Background()
	fake := &fakePublisher{}
	publisher := NewNATSEventPublisher(fake, NewEventSubjectMapper())

	tableID := uuid.New()
	err := publisher.Publish(ctx, events.PlayerJoinedEvent{
		TableID:          tableID,
		UserID:           7,
		ParticipantCount: 2,
		PotAmount:        decimal.RequireFromString("20.00"),
	})
	require.NoError(t, err)

	require.Len(t, fake.messages, 1)
	assert.Equal(t, "chiptable.tables.player_joined", fake.messages[0].subject)

	var envelope EventEnvelope
	require.NoError(t, json.Unmarshal(fake.messages[0].data, &envelope))
	assert.Equal(t, "player_joined", envelope.EventType)
	assert.Equal(t, "chiptable", envelope.SourceService)
	_, err = uuid.Parse(envelope.EventID)
	assert.NoError(t, err)

	var payload events.PlayerJoinedEvent
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, tableID, payload.TableID)
	assert.True(t, payload.PotAmount.Equal(decimal.RequireFromString("20")))
}

func TestNATSEventPublisher_PublishError(t *testing.T) {
	fake := &fakePublisher{err: errors.New("no responders")}
	publisher := NewNATSEventPublisher(fake, NewEventSubjectMapper())

	err := publisher.Publish(context.Background(), events.AccountOpenedEvent{UserID: 1})
	assert.ErrorContains(t, err, "no responders")
}

func TestNATSEventPublisher_Attach(t *testing.T) {
	fake := &fakePublisher{}
	bus := events.NewBus()
	NewNATSEventPublisher(fake, NewEventSubjectMapper()).Attach(bus)

	bus.Emit(context.Background(), events.AccountOpenedEvent{UserID: 1})
	bus.Emit(context.Background(), events.TableCreatedEvent{TableID: uuid.New()})

	assert.Eventually(t, func() bool { return fake.count() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestDiscordAnnouncer(t *testing.T) {
	ctx := context.Background()

	t.Run("settled table with a winner", func(t *testing.T) {
		webhook := &fakeWebhook{}
		announcer := NewDiscordAnnouncer(webhook, "123", "token")

		err := announcer.Announce(ctx, events.TableSettledEvent{Result: &models.SettlementResult{
			TableID:           uuid.New(),
			OutcomeValue:      42,
			Tiers:             models.TierCounts{Exact: 1},
			DistributedAmount: decimal.RequireFromString("15.20"),
			CommissionAmount:  decimal.RequireFromString("1.00"),
			Winners: []models.WinnerPayout{{
				UserID:     2,
				Tier:       models.TierExact,
				Payout:     decimal.RequireFromString("15.20"),
				Multiplier: decimal.RequireFromString("1.52"),
			}},
		}})
		require.NoError(t, err)

		require.Len(t, webhook.calls, 1)
		assert.Equal(t, "123", webhook.ids[0])
		embed := webhook.calls[0].Embeds[0]
		assert.Equal(t, colorWin, embed.Color)
		assert.Contains(t, embed.Description, "<@2>")
		assert.Contains(t, embed.Description, "15.20")
		assert.Equal(t, "42", embed.Fields[0].Value)
	})

	t.Run("settled table without winners", func(t *testing.T) {
		webhook := &fakeWebhook{}
		announcer := NewDiscordAnnouncer(webhook, "123", "token")

		err := announcer.Announce(ctx, events.TableSettledEvent{Result: &models.SettlementResult{TableID: uuid.New()}})
		require.NoError(t, err)
		assert.Equal(t, colorNoWin, webhook.calls[0].Embeds[0].Color)
	})

	t.Run("only activation state changes are posted", func(t *testing.T) {
		webhook := &fakeWebhook{}
		announcer := NewDiscordAnnouncer(webhook, "123", "token")

		require.NoError(t, announcer.Announce(ctx, events.TableStateChangeEvent{
			TableID:   uuid.New(),
			OldStatus: models.TableStatusActive,
			NewStatus: models.TableStatusCompleted,
		}))
		require.NoError(t, announcer.Announce(ctx, events.BalanceChangeEvent{UserID: 1}))
		assert.Empty(t, webhook.calls)

		require.NoError(t, announcer.Announce(ctx, events.TableStateChangeEvent{
			TableID:   uuid.New(),
			OldStatus: models.TableStatusWaiting,
			NewStatus: models.TableStatusActive,
		}))
		assert.Len(t, webhook.calls, 1)
	})

	t.Run("webhook failure is returned", func(t *testing.T) {
		webhook := &fakeWebhook{result: errors.New("rate limited")}
		announcer := NewDiscordAnnouncer(webhook, "123", "token")

		err := announcer.Announce(ctx, events.TableSettledEvent{Result: &models.SettlementResult{TableID: uuid.New()}})
		assert.ErrorContains(t, err, "rate limited")
	})
}
