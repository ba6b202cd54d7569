package app

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/sirenfeed/siren/internal/feed"
	"github.com/sirenfeed/siren/internal/metrics"
	"github.com/sirenfeed/siren/internal/pipeline"
)

type fakeFetcher struct {
	batches [][]feed.Candidate
	err     error
	calls   int
}

func (f *fakeFetcher) FetchAll(ctx context.Context) ([]feed.Candidate, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.batches) == 0 {
		return nil, nil
	}
	batch := f.batches[0]
	if len(f.batches) > 1 {
		f.batches = f.batches[1:]
	}
	return batch, nil
}

type fakeProcessor struct {
	pass  map[string]bool
	calls int
}

func (f *fakeProcessor) Process(ctx context.Context, cand feed.Candidate) (pipeline.Record, bool) {
	f.calls++
	return pipeline.Record{Title: cand.Title, Link: cand.Link, Important: f.pass[cand.Link]}, f.pass[cand.Link]
}

type fakeStore struct {
	rows        map[string]bool
	insertErr   error
	cleanupDays int
}

func (f *fakeStore) Insert(ctx context.Context, rec pipeline.Record) (bool, error) {
	if f.insertErr != nil {
		return false, f.insertErr
	}
	if f.rows[rec.Link] {
		return false, nil
	}
	f.rows[rec.Link] = true
	return true, nil
}

func (f *fakeStore) CleanupOlderThan(ctx context.Context, days int) (int64, error) {
	f.cleanupDays = days
	return 0, nil
}

type fakeNotifier struct {
	sent []pipeline.Record
	err  error
}

func (f *fakeNotifier) Send(ctx context.Context, rec pipeline.Record) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, rec)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newApp(f *fakeFetcher, p *fakeProcessor, s *fakeStore, n Notifier) *App {
	return New(f, p, s, n, &metrics.Metrics{}, testLogger(), Options{
		PollInterval:   time.Millisecond,
		FailureBackoff: time.Millisecond,
		RetentionDays:  30,
	})
}

func TestRunOncePersistsAndNotifiesPassers(t *testing.T) {
	fetcher := &fakeFetcher{batches: [][]feed.Candidate{{
		{Title: "A", Link: "https://example.com/a"},
		{Title: "B", Link: "https://example.com/b"},
	}}}
	processor := &fakeProcessor{pass: map[string]bool{"https://example.com/a": true}}
	store := &fakeStore{rows: map[string]bool{}}
	notifier := &fakeNotifier{}

	if err := newApp(fetcher, processor, store, notifier).RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if processor.calls != 2 {
		t.Errorf("processor calls = %d, want 2", processor.calls)
	}
	if !store.rows["https://example.com/a"] {
		t.Error("passing record should be persisted")
	}
	if store.rows["https://example.com/b"] {
		t.Error("rejected record should not be persisted")
	}
	if len(notifier.sent) != 1 || notifier.sent[0].Link != "https://example.com/a" {
		t.Errorf("notifier.sent = %+v", notifier.sent)
	}
	if store.cleanupDays != 30 {
		t.Errorf("cleanup should run with retention days, got %d", store.cleanupDays)
	}
}

func TestRunOnceIdempotentInsert(t *testing.T) {
	fetcher := &fakeFetcher{batches: [][]feed.Candidate{{
		{Title: "A", Link: "https://example.com/a"},
	}}}
	processor := &fakeProcessor{pass: map[string]bool{"https://example.com/a": true}}
	store := &fakeStore{rows: map[string]bool{"https://example.com/a": true}}
	notifier := &fakeNotifier{}

	if err := newApp(fetcher, processor, store, notifier).RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Error("an already persisted record should not be announced again")
	}
}

func TestRunOnceNotifyFailureDoesNotBlock(t *testing.T) {
	fetcher := &fakeFetcher{batches: [][]feed.Candidate{{
		{Title: "A", Link: "https://example.com/a"},
		{Title: "B", Link: "https://example.com/b"},
	}}}
	processor := &fakeProcessor{pass: map[string]bool{
		"https://example.com/a": true,
		"https://example.com/b": true,
	}}
	store := &fakeStore{rows: map[string]bool{}}
	notifier := &fakeNotifier{err: errors.New("telegram down")}

	if err := newApp(fetcher, processor, store, notifier).RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(store.rows) != 2 {
		t.Errorf("both records should be persisted despite notify failures, got %d", len(store.rows))
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	fetcher := &fakeFetcher{}
	processor := &fakeProcessor{pass: map[string]bool{}}
	store := &fakeStore{rows: map[string]bool{}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- newApp(fetcher, processor, store, nil).Run(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	if fetcher.calls == 0 {
		t.Error("at least one cycle should have run")
	}
}

func TestRunOnceRecoversPanic(t *testing.T) {
	fetcher := &fakeFetcher{batches: [][]feed.Candidate{{{Title: "A", Link: "https://example.com/a"}}}}
	store := &fakeStore{rows: map[string]bool{}}
	app := New(fetcher, panicProcessor{}, store, nil, &metrics.Metrics{}, testLogger(), Options{})

	err := app.RunOnce(context.Background())
	if err == nil {
		t.Fatal("panic should surface as an error")
	}
}

type panicProcessor struct{}

func (panicProcessor) Process(ctx context.Context, cand feed.Candidate) (pipeline.Record, bool) {
	panic("boom")
}
