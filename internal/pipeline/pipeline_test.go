package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/sirenfeed/siren/internal/classify"
	"github.com/sirenfeed/siren/internal/feed"
	"github.com/sirenfeed/siren/internal/metrics"
)

type fakeDup struct {
	dup   bool
	err   error
	calls int
}

func (f *fakeDup) IsDuplicate(ctx context.Context, title, link string) (bool, error) {
	f.calls++
	return f.dup, f.err
}

type fakeHosts struct{ allow bool }

func (f fakeHosts) Allow(link string) bool { return f.allow }

type fakeExtractor struct {
	text  string
	calls int
}

func (f *fakeExtractor) Extract(ctx context.Context, link string) string {
	f.calls++
	return f.text
}

type fakeClassifier struct {
	summary        string
	summaryErr     error
	importance     classify.Importance
	importanceErr  error
	summarizeCalls int
	checkCalls     int
}

func (f *fakeClassifier) Summarize(ctx context.Context, content string) (string, error) {
	f.summarizeCalls++
	return f.summary, f.summaryErr
}

func (f *fakeClassifier) CheckImportance(ctx context.Context, title, summary string) (classify.Importance, error) {
	f.checkCalls++
	return f.importance, f.importanceErr
}

type fakeBudget struct{ allow bool }

func (f fakeBudget) TryAcquire() bool { return f.allow }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func candidate() feed.Candidate {
	return feed.Candidate{
		Title:   "Original feed title",
		Link:    "https://example.com/story",
		RawDate: "2024-01-15T10:30:00Z",
	}
}

type deps struct {
	dup        *fakeDup
	hosts      fakeHosts
	titles     *fakeExtractor
	content    *fakeExtractor
	classifier *fakeClassifier
}

func passingDeps() deps {
	return deps{
		dup:     &fakeDup{},
		hosts:   fakeHosts{allow: true},
		titles:  &fakeExtractor{text: "Resolved page title"},
		content: &fakeExtractor{text: strings.Repeat("article body ", 30)},
		classifier: &fakeClassifier{
			summary: "Something happened.",
			importance: classify.Importance{
				Important:      true,
				Reasoning:      "Over a hundred deaths reported.",
				HighImportance: true,
			},
		},
	}
}

func newPipeline(d deps) *Pipeline {
	return New(d.dup, d.hosts, d.titles, d.content, d.classifier, nil, &metrics.Metrics{}, testLogger())
}

func TestProcessPasses(t *testing.T) {
	d := passingDeps()
	rec, ok := newPipeline(d).Process(context.Background(), candidate())
	if !ok {
		t.Fatal("expected candidate to pass")
	}
	if rec.Title != "Resolved page title" {
		t.Errorf("title = %q, want the resolved page title", rec.Title)
	}
	if rec.Summary != "Something happened." {
		t.Errorf("summary = %q", rec.Summary)
	}
	if !rec.Important || !rec.HighImportance {
		t.Errorf("importance fields = %+v", rec)
	}
	if rec.Date.IsZero() {
		t.Error("date should be normalized")
	}
	if rec.Date.Year() != 2024 {
		t.Errorf("date = %v", rec.Date)
	}
}

func TestProcessDuplicateShortCircuits(t *testing.T) {
	d := passingDeps()
	d.dup.dup = true
	_, ok := newPipeline(d).Process(context.Background(), candidate())
	if ok {
		t.Fatal("duplicate should be rejected")
	}
	if d.titles.calls != 0 || d.content.calls != 0 {
		t.Error("no extraction should run for a duplicate")
	}
	if d.classifier.summarizeCalls != 0 {
		t.Error("no model call should run for a duplicate")
	}
}

func TestProcessDupStoreErrorRejects(t *testing.T) {
	d := passingDeps()
	d.dup.err = errors.New("connection refused")
	_, ok := newPipeline(d).Process(context.Background(), candidate())
	if ok {
		t.Fatal("store error should reject, not pass through")
	}
	if d.content.calls != 0 {
		t.Error("no extraction should run when the store cannot be consulted")
	}
}

func TestProcessBlockedHost(t *testing.T) {
	d := passingDeps()
	d.hosts = fakeHosts{allow: false}
	_, ok := newPipeline(d).Process(context.Background(), candidate())
	if ok {
		t.Fatal("blocked host should be rejected")
	}
	if d.content.calls != 0 || d.classifier.summarizeCalls != 0 {
		t.Error("nothing downstream of the host check should run")
	}
}

func TestProcessTitleResolveIsAdvisory(t *testing.T) {
	d := passingDeps()
	d.titles.text = ""
	rec, ok := newPipeline(d).Process(context.Background(), candidate())
	if !ok {
		t.Fatal("title resolution failure must not reject the item")
	}
	if rec.Title != "Original feed title" {
		t.Errorf("title = %q, want cleaned feed title", rec.Title)
	}
}

func TestProcessTitleCleaned(t *testing.T) {
	d := passingDeps()
	d.titles.text = "Resolved page title&#39;s details <b>now</b>"
	rec, ok := newPipeline(d).Process(context.Background(), candidate())
	if !ok {
		t.Fatal("expected pass")
	}
	if rec.Title != "Resolved page title's details now" {
		t.Errorf("title = %q", rec.Title)
	}
}

func TestProcessExtractionFailureRejects(t *testing.T) {
	d := passingDeps()
	d.content.text = ""
	rec, ok := newPipeline(d).Process(context.Background(), candidate())
	if ok {
		t.Fatal("empty extraction should reject")
	}
	if rec.Summary != "" {
		t.Error("no summary should exist after extraction failure")
	}
	if d.classifier.summarizeCalls != 0 {
		t.Error("no model call should run without content")
	}
}

func TestProcessSummarizeFailureRejects(t *testing.T) {
	d := passingDeps()
	d.classifier.summaryErr = errors.New("model reported error: bad input")
	rec, ok := newPipeline(d).Process(context.Background(), candidate())
	if ok {
		t.Fatal("summarization failure should reject")
	}
	if rec.Summary != "" {
		t.Error("summary should stay empty on failure")
	}
	if d.classifier.checkCalls != 0 {
		t.Error("importance check should not run after summarization failure")
	}
}

func TestProcessImportanceFailureRejects(t *testing.T) {
	d := passingDeps()
	d.classifier.importanceErr = errors.New("no choices in response")
	_, ok := newPipeline(d).Process(context.Background(), candidate())
	if ok {
		t.Fatal("importance check failure should reject")
	}
}

func TestProcessNotImportant(t *testing.T) {
	d := passingDeps()
	d.classifier.importance = classify.Importance{
		Important: false,
		Reasoning: "Local sports result.",
	}
	rec, ok := newPipeline(d).Process(context.Background(), candidate())
	if ok {
		t.Fatal("unimportant item should not pass")
	}
	// The item is still fully enriched, it just does not get persisted.
	if rec.Summary == "" || rec.ImportanceReasoning == "" {
		t.Errorf("record should carry enrichment, got %+v", rec)
	}
}

func TestProcessBudgetExhausted(t *testing.T) {
	d := passingDeps()
	p := New(d.dup, d.hosts, d.titles, d.content, d.classifier, fakeBudget{allow: false}, &metrics.Metrics{}, testLogger())
	_, ok := p.Process(context.Background(), candidate())
	if ok {
		t.Fatal("exhausted budget should reject")
	}
	if d.classifier.summarizeCalls != 0 {
		t.Error("no model call should happen past an exhausted budget")
	}
}

func TestProcessMetrics(t *testing.T) {
	d := passingDeps()
	m := &metrics.Metrics{}
	p := New(d.dup, d.hosts, d.titles, d.content, d.classifier, nil, m, testLogger())
	p.Process(context.Background(), candidate())

	d2 := passingDeps()
	d2.dup.dup = true
	p2 := New(d2.dup, d2.hosts, d2.titles, d2.content, d2.classifier, nil, m, testLogger())
	p2.Process(context.Background(), candidate())

	stats := m.GetStats()
	if stats["items_processed"].(int64) != 2 {
		t.Errorf("items_processed = %v", stats["items_processed"])
	}
	if stats["items_passed"].(int64) != 1 {
		t.Errorf("items_passed = %v", stats["items_passed"])
	}
	if stats["duplicates_rejected"].(int64) != 1 {
		t.Errorf("duplicates_rejected = %v", stats["duplicates_rejected"])
	}
}
