// Package webhook - Retry scheduler
// Background scan of due deliveries plus a daily cleanup pass.
package webhook

import (
	"context"
	"time"

	"go.uber.org/zap"

	"finopsguard/core/types"
	"finopsguard/internal/config"
	"finopsguard/internal/logging"
)

const (
	retentionDays = 30
	cleanupHour   = 2

	// interAttemptPause spaces batch items to avoid thundering herds
	interAttemptPause = 100 * time.Millisecond
)

// Scheduler re-attempts due deliveries on an interval.
type Scheduler struct {
	webhooks   Store
	deliveries DeliveryStore
	dispatcher *Dispatcher
	cfg        config.WebhookConfig
	log        *zap.Logger

	lastCleanup time.Time
}

// NewScheduler wires the retry scheduler.
func NewScheduler(webhooks Store, deliveries DeliveryStore, dispatcher *Dispatcher, cfg config.WebhookConfig) *Scheduler {
	return &Scheduler{
		webhooks:   webhooks,
		deliveries: deliveries,
		dispatcher: dispatcher,
		cfg:        cfg,
		log:        logging.Named("webhook.scheduler"),
	}
}

// Run loops until the context is cancelled. Intended as a detached
// background task spawned at startup.
func (s *Scheduler) Run(ctx context.Context) {
	interval := s.cfg.RetryInterval
	if interval <= 0 {
		interval = 60 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("retry scheduler started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("retry scheduler stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
			s.maybeCleanup(ctx, time.Now())
		}
	}
}

// Sweep processes one batch of due deliveries.
func (s *Scheduler) Sweep(ctx context.Context) {
	batch := s.cfg.RetryBatchSize
	if batch <= 0 {
		batch = 10
	}
	due, err := s.deliveries.DueRetries(ctx, time.Now().UTC(), batch)
	if err != nil {
		s.log.Error("retry scan failed", zap.Error(err))
		return
	}

	for i, delivery := range due {
		if i > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(interAttemptPause):
			}
		}
		s.retry(ctx, delivery)
	}
}

func (s *Scheduler) retry(ctx context.Context, delivery types.WebhookDelivery) {
	w, err := s.webhooks.Get(ctx, delivery.WebhookID)
	if err != nil {
		// Subscription is gone, nothing left to deliver to.
		delivery.Status = types.DeliveryFailed
		delivery.ErrorMessage = "webhook no longer exists"
		if uerr := s.deliveries.Update(ctx, delivery); uerr != nil {
			s.log.Error("orphaned delivery update failed", zap.String("delivery_id", delivery.ID), zap.Error(uerr))
		}
		return
	}

	delivery.AttemptNumber++
	if delivery.AttemptNumber > delivery.MaxAttempts {
		delivery.Status = types.DeliveryFailed
		if err := s.deliveries.Update(ctx, delivery); err != nil {
			s.log.Error("exhausted delivery update failed", zap.String("delivery_id", delivery.ID), zap.Error(err))
		}
		return
	}
	s.dispatcher.Attempt(ctx, w, delivery)
}

// maybeCleanup runs the retention pass once per day during the 02:00
// local hour.
func (s *Scheduler) maybeCleanup(ctx context.Context, now time.Time) {
	if now.Hour() != cleanupHour {
		return
	}
	if now.Sub(s.lastCleanup) < 23*time.Hour {
		return
	}
	s.lastCleanup = now

	cutoff := now.AddDate(0, 0, -retentionDays)
	removed, err := s.deliveries.DeleteTerminalBefore(ctx, cutoff)
	if err != nil {
		s.log.Error("delivery cleanup failed", zap.Error(err))
		return
	}
	if removed > 0 {
		s.log.Info("old deliveries removed", zap.Int("count", removed))
	}
}
