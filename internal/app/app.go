// Package app owns the polling loop: fetch candidates, run each through the
// pipeline, persist and announce the passers, sleep, repeat.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sirenfeed/siren/internal/feed"
	"github.com/sirenfeed/siren/internal/metrics"
	"github.com/sirenfeed/siren/internal/pipeline"
	"github.com/sirenfeed/siren/internal/retry"
)

// Fetcher supplies the next batch of candidates.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]feed.Candidate, error)
}

// Processor enriches one candidate and reports whether it passed.
type Processor interface {
	Process(ctx context.Context, cand feed.Candidate) (pipeline.Record, bool)
}

// Store is the persistence slice the orchestrator needs.
type Store interface {
	Insert(ctx context.Context, rec pipeline.Record) (bool, error)
	CleanupOlderThan(ctx context.Context, days int) (int64, error)
}

// Notifier announces a passing record. May be nil.
type Notifier interface {
	Send(ctx context.Context, rec pipeline.Record) error
}

type App struct {
	fetcher        Fetcher
	processor      Processor
	store          Store
	notifier       Notifier
	metrics        *metrics.Metrics
	log            *slog.Logger
	pollInterval   time.Duration
	failureBackoff time.Duration
	retentionDays  int
}

type Options struct {
	PollInterval   time.Duration
	FailureBackoff time.Duration
	RetentionDays  int
}

func New(fetcher Fetcher, processor Processor, store Store, notifier Notifier,
	m *metrics.Metrics, log *slog.Logger, opts Options) *App {
	return &App{
		fetcher:        fetcher,
		processor:      processor,
		store:          store,
		notifier:       notifier,
		metrics:        m,
		log:            log,
		pollInterval:   opts.PollInterval,
		failureBackoff: opts.FailureBackoff,
		retentionDays:  opts.RetentionDays,
	}
}

// Run loops until the context is cancelled. A failed cycle waits the shorter
// failure backoff instead of the full poll interval, so transient outages
// recover quickly.
func (a *App) Run(ctx context.Context) error {
	for {
		err := a.runCycle(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		wait := a.pollInterval
		if err != nil {
			a.log.Error("cycle failed", "err", err)
			a.metrics.SetError(err.Error())
			wait = a.failureBackoff
		} else {
			a.metrics.SetLastRun()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// RunOnce executes a single cycle. Used by the one-shot mode.
func (a *App) RunOnce(ctx context.Context) error {
	return a.runCycle(ctx)
}

func (a *App) runCycle(ctx context.Context) (err error) {
	// A panic anywhere in a cycle must not take the daemon down.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panic: %v", r)
		}
	}()

	start := time.Now()
	defer func() {
		a.metrics.RecordCycleTime(time.Since(start))
	}()

	var candidates []feed.Candidate
	err = retry.WithRetry(ctx, retry.Config{MaxAttempts: 3, Delay: 5 * time.Second, Backoff: true}, func() error {
		var ferr error
		candidates, ferr = a.fetcher.FetchAll(ctx)
		return ferr
	})
	if err != nil {
		return fmt.Errorf("fetch feeds: %w", err)
	}
	a.metrics.IncrementFetched(len(candidates))

	persisted := 0
	for _, cand := range candidates {
		// Cancellation is honored between candidates; an in-flight item
		// always runs to completion or rejection.
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rec, ok := a.processor.Process(ctx, cand)
		if !ok {
			continue
		}

		inserted, err := a.store.Insert(ctx, rec)
		if err != nil {
			a.log.Error("persist failed", "link", rec.Link, "err", err)
			continue
		}
		if !inserted {
			a.log.Debug("already persisted", "link", rec.Link)
			continue
		}
		persisted++
		a.metrics.IncrementPersisted()

		if a.notifier != nil {
			if err := a.notifier.Send(ctx, rec); err != nil {
				a.log.Warn("notification failed", "link", rec.Link, "err", err)
				a.metrics.IncrementNotifyFailures()
			}
		}
	}

	if a.retentionDays > 0 {
		if _, err := a.store.CleanupOlderThan(ctx, a.retentionDays); err != nil {
			a.log.Warn("retention cleanup failed", "err", err)
		}
	}

	a.log.Info("cycle done", "candidates", len(candidates), "persisted", persisted,
		"took", time.Since(start).Round(time.Millisecond))
	return nil
}
