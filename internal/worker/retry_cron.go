package worker

// retry_cron.go: background goroutine that moves email jobs parked in the
// DLQ by an open circuit breaker back to QueueEmail once the breaker lets
// traffic through again.

import (
	"context"
	"encoding/json"
	"time"

	"vestibox/internal/infra"

	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 20
)

type RetryCronConfig struct {
	Queue    Queue
	CB       *infra.CircuitBreaker
	Interval time.Duration // defaults to 30s
}

// StartRetryCron ticks until ctx is cancelled.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	interval := cfg.Interval
	if interval <= 0 {
		interval = retryTickInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Info().Dur("interval", interval).Msg("retry_cron: started")
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				requeueEmails(ctx, cfg.Queue, cfg.CB)
			}
		}
	}()
}

// requeueEmails visits at most retryBatchSize DLQ entries once each.
// Reintentable ones go back to QueueEmail with a fresh attempt count, the
// rest are pushed back to the DLQ head. Returns how many were requeued.
func requeueEmails(ctx context.Context, q Queue, cb *infra.CircuitBreaker) int {
	if cb != nil && cb.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: circuit breaker is open, skipping tick")
		return 0
	}

	dlqKey := DLQPrefix + QueueEmail
	n, err := q.LLen(ctx, dlqKey).Result()
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to read DLQ length")
		return 0
	}
	if n > retryBatchSize {
		n = retryBatchSize
	}

	requeued := 0
	for i := int64(0); i < n; i++ {
		raw, err := q.RPop(ctx, dlqKey).Result()
		if err != nil {
			break
		}
		var entry DLQEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil || !entry.Reintentable {
			_ = q.LPush(ctx, dlqKey, raw).Err()
			continue
		}
		if err := push(ctx, q, QueueEmail, Job{Type: entry.JobType, Payload: entry.Payload}); err != nil {
			log.Error().Err(err).Msg("retry_cron: failed to requeue email job")
			_ = q.LPush(ctx, dlqKey, raw).Err()
			continue
		}
		requeued++
	}

	if requeued > 0 {
		log.Info().Int("count", requeued).Msg("retry_cron: email jobs requeued from DLQ")
	}
	return requeued
}
