package infrastructure

import (
	"context"
	"fmt"
	"time"

	"chiptable/models"

	log "github.com/sirupsen/logrus"
)

const scoreboardSize = 10

// ScoreboardSource supplies ranked scoreboard entries
type ScoreboardSource interface {
	GetScoreboard(ctx context.Context, limit int) ([]*models.ScoreboardEntry, error)
}

// ScoreboardSink receives a rendered scoreboard card
type ScoreboardSink interface {
	PostScoreboard(ctx context.Context, png []byte) error
}

// ScoreboardPoster renders the chip leaderboard and posts it on a schedule
type ScoreboardPoster struct {
	source    ScoreboardSource
	generator *ScoreboardImageGenerator
	sink      ScoreboardSink
}

// NewScoreboardPoster creates a new scoreboard poster
func NewScoreboardPoster(source ScoreboardSource, sink ScoreboardSink) *ScoreboardPoster {
	return &ScoreboardPoster{
		source:    source,
		generator: NewScoreboardImageGenerator(),
		sink:      sink,
	}
}

// Post renders and posts the current leaderboard once
func (p *ScoreboardPoster) Post(ctx context.Context) error {
	entries, err := p.source.GetScoreboard(ctx, scoreboardSize)
	if err != nil {
		return fmt.Errorf("failed to load scoreboard: %w", err)
	}

	png, err := p.generator.Generate(entries)
	if err != nil {
		return fmt.Errorf("failed to render scoreboard: %w", err)
	}

	return p.sink.PostScoreboard(ctx, png)
}

// Start posts the leaderboard every interval until ctx ends or the
// returned func is called
func (p *ScoreboardPoster) Start(ctx context.Context, interval time.Duration) func() {
	stopChan := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-stopChan:
				return
			case <-ticker.C:
				if err := p.Post(ctx); err != nil {
					log.WithError(err).Error("Failed to post scoreboard")
				}
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}
