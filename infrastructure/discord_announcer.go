package infrastructure

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"chiptable/events"
	"chiptable/models"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Embed colors
const (
	colorWin    = 0x2ECC71
	colorNoWin  = 0x95A5A6
	colorPlayer = 0x3498DB
)

// WebhookExecutor is the slice of discordgo.Session the announcer needs
type WebhookExecutor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordAnnouncer posts table results to a Discord channel webhook
type DiscordAnnouncer struct {
	executor     WebhookExecutor
	webhookID    string
	webhookToken string
}

// NewDiscordAnnouncer creates an announcer for one webhook
func NewDiscordAnnouncer(executor WebhookExecutor, webhookID, webhookToken string) *DiscordAnnouncer {
	return &DiscordAnnouncer{
		executor:     executor,
		webhookID:    webhookID,
		webhookToken: webhookToken,
	}
}

// Attach subscribes the announcer to the events it posts
func (a *DiscordAnnouncer) Attach(bus *events.Bus) {
	handler := func(ctx context.Context, event events.Event) {
		if err := a.Announce(ctx, event); err != nil {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Error("Failed to announce event on Discord")
		}
	}
	bus.Subscribe(events.EventTypeTableSettled, handler)
	bus.Subscribe(events.EventTypeTableStateChange, handler)
}

// Announce posts an embed for events worth showing to players. Other events are ignored.
func (a *DiscordAnnouncer) Announce(ctx context.Context, event events.Event) error {
	var embed *discordgo.MessageEmbed
	switch e := event.(type) {
	case events.TableSettledEvent:
		embed = settledEmbed(e.Result)
	case events.TableStateChangeEvent:
		if e.NewStatus != models.TableStatusActive {
			return nil
		}
		embed = &discordgo.MessageEmbed{
			Title:       "🎲 Round started",
			Description: fmt.Sprintf("Table `%s` has enough players. Place your guesses!", shortID(e.TableID.String())),
			Color:       colorPlayer,
		}
	default:
		return nil
	}

	_, err := a.executor.WebhookExecute(a.webhookID, a.webhookToken, false, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to execute webhook: %w", err)
	}
	return nil
}

// PostScoreboard posts a rendered scoreboard card
func (a *DiscordAnnouncer) PostScoreboard(ctx context.Context, png []byte) error {
	_, err := a.executor.WebhookExecute(a.webhookID, a.webhookToken, false, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{{
			Title: "🏆 Chip leaderboard",
			Color: colorPlayer,
			Image: &discordgo.MessageEmbedImage{URL: "attachment://scoreboard.png"},
		}},
		Files: []*discordgo.File{{
			Name:        "scoreboard.png",
			ContentType: "image/png",
			Reader:      bytes.NewReader(png),
		}},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to execute webhook: %w", err)
	}
	return nil
}

func settledEmbed(result *models.SettlementResult) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		{
			Name:   "🎯 Outcome",
			Value:  fmt.Sprintf("%d", result.OutcomeValue),
			Inline: true,
		},
		{
			Name:   "💰 Paid out",
			Value:  result.DistributedAmount.StringFixed(2),
			Inline: true,
		},
		{
			Name:   "🏦 Commission",
			Value:  result.CommissionAmount.StringFixed(2),
			Inline: true,
		},
	}

	color := colorNoWin
	description := "No winners this round."
	if len(result.Winners) > 0 {
		color = colorWin
		lines := make([]string, 0, len(result.Winners))
		for _, w := range result.Winners {
			lines = append(lines, fmt.Sprintf("<@%d> %s tier: **%s** (x%s)", w.UserID, w.Tier, w.Payout.StringFixed(2), w.Multiplier.StringFixed(2)))
		}
		description = strings.Join(lines, "\n")
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🏁 Table %s settled", shortID(result.TableID.String())),
		Description: description,
		Color:       color,
		Fields:      fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Exact %d · Close %d · Condition %d", result.Tiers.Exact, result.Tiers.Close, result.Tiers.Condition),
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
