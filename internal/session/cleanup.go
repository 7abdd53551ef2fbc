package session

import (
	"context"
	"log/slog"
	"time"

	"credguard/internal/platform/logger"
)

// IdleStore exposes cleanup of idle sessions.
type IdleStore interface {
	CloseIdle(ctx context.Context, cutoff time.Time) (int, error)
}

// Janitor periodically closes sessions idle for longer than the TTL.
type Janitor struct {
	store    IdleStore
	ttl      time.Duration
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// JanitorOption configures Janitor.
type JanitorOption func(*Janitor)

// WithInterval overrides the sweep interval when greater than zero.
func WithInterval(interval time.Duration) JanitorOption {
	return func(j *Janitor) {
		if interval > 0 {
			j.interval = interval
		}
	}
}

// WithJanitorLogger overrides the logger used for sweep results.
func WithJanitorLogger(l *slog.Logger) JanitorOption {
	return func(j *Janitor) {
		if l != nil {
			j.logger = l
		}
	}
}

// WithJanitorClock injects the time source.
func WithJanitorClock(now func() time.Time) JanitorOption {
	return func(j *Janitor) {
		if now != nil {
			j.now = now
		}
	}
}

// NewJanitor constructs a Janitor closing sessions idle for longer than ttl.
func NewJanitor(store IdleStore, ttl time.Duration, opts ...JanitorOption) *Janitor {
	j := &Janitor{
		store:    store,
		ttl:      ttl,
		interval: time.Minute,
		logger:   logger.Discard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(j)
		}
	}
	return j
}

// Start sweeps periodically until ctx is cancelled.
func (j *Janitor) Start(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := j.RunOnce(ctx); err != nil {
				j.logger.ErrorContext(ctx, "session sweep failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce performs a single sweep.
func (j *Janitor) RunOnce(ctx context.Context) (int, error) {
	closed, err := j.store.CloseIdle(ctx, j.now().Add(-j.ttl))
	if err != nil {
		return 0, err
	}
	if closed > 0 {
		j.logger.InfoContext(ctx, "idle sessions closed", "count", closed)
	}
	return closed, nil
}
