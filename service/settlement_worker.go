package service

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// SettlementWorker periodically settles tables whose round has run out
type SettlementWorker struct {
	settler  SettlementService
	interval time.Duration
}

// NewSettlementWorker creates a new settlement worker
func NewSettlementWorker(settler SettlementService, interval time.Duration) *SettlementWorker {
	return &SettlementWorker{
		settler:  settler,
		interval: interval,
	}
}

// Start runs the sweep loop in a goroutine. The returned func stops the loop
// and blocks until the in-flight sweep has returned.
func (w *SettlementWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		log.WithField("interval", w.interval).Info("Settlement worker started")

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			w.sweep(ctx)

			select {
			case <-ctx.Done():
				log.Info("Settlement worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Settlement worker shutting down (stop requested)...")
				return
			case <-ticker.C:
			}
		}
	}()

	var stopped bool
	return func() {
		if !stopped {
			stopped = true
			close(stopChan)
		}
		<-done
	}
}

func (w *SettlementWorker) sweep(ctx context.Context) {
	settled, err := w.settler.SettleDueTables(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.WithError(err).Error("Settlement sweep failed")
		}
		return
	}
	if settled > 0 {
		log.WithField("settled", settled).Info("Settlement sweep finished")
	}
}
