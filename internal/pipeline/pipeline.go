// Package pipeline runs each feed candidate through the enrichment stages:
// duplicate check, host check, title resolution and cleanup, content
// extraction, summarization, and the importance check. The first failing
// stage rejects the item; nothing downstream of a failure runs.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/sirenfeed/siren/internal/classify"
	"github.com/sirenfeed/siren/internal/dates"
	"github.com/sirenfeed/siren/internal/feed"
	"github.com/sirenfeed/siren/internal/filter"
	"github.com/sirenfeed/siren/internal/metrics"
)

// Record is a fully enriched item. Only records with Important set are
// persisted; the rest are discarded after enrichment.
type Record struct {
	Title               string
	Link                string
	RawDate             string
	Date                time.Time
	Summary             string
	Important           bool
	ImportanceReasoning string
	HighImportance      bool
}

// DupCheck is the duplicate-detection slice of the pipeline's dependencies.
type DupCheck interface {
	IsDuplicate(ctx context.Context, title, link string) (bool, error)
}

// Extractor pulls a piece of text out of a link. An empty result means
// extraction failed.
type Extractor interface {
	Extract(ctx context.Context, link string) string
}

// Budget gates model calls. A nil budget in the Pipeline means no cap.
type Budget interface {
	TryAcquire() bool
}

type Pipeline struct {
	dup        DupCheck
	hosts      filter.HostPolicy
	titles     Extractor
	content    Extractor
	classifier classify.Classifier
	budget     Budget
	metrics    *metrics.Metrics
	log        *slog.Logger
}

func New(dup DupCheck, hosts filter.HostPolicy, titles, content Extractor,
	classifier classify.Classifier, budget Budget, m *metrics.Metrics, log *slog.Logger) *Pipeline {
	return &Pipeline{
		dup:        dup,
		hosts:      hosts,
		titles:     titles,
		content:    content,
		classifier: classifier,
		budget:     budget,
		metrics:    m,
		log:        log,
	}
}

// Process enriches one candidate. It returns the record and whether the item
// passed every stage. A false return means the record is partial; its fields
// cover only the stages that ran before the rejection.
func (p *Pipeline) Process(ctx context.Context, cand feed.Candidate) (Record, bool) {
	p.metrics.IncrementProcessed()

	rec := Record{
		Title:   cand.Title,
		Link:    cand.Link,
		RawDate: cand.RawDate,
		Date:    dates.Normalize(cand.RawDate, p.log),
	}

	// Duplicate check runs first so known items cost nothing. A store
	// error rejects the item too: it will come around on the next cycle.
	isDup, err := p.dup.IsDuplicate(ctx, rec.Title, rec.Link)
	if err != nil {
		p.log.Error("duplicate check failed, rejecting", "link", rec.Link, "err", err)
		p.metrics.IncrementDuplicates()
		return rec, false
	}
	if isDup {
		p.log.Debug("duplicate rejected", "link", rec.Link)
		p.metrics.IncrementDuplicates()
		return rec, false
	}

	if !p.hosts.Allow(rec.Link) {
		p.log.Debug("host rejected", "link", rec.Link)
		p.metrics.IncrementHostRejected()
		return rec, false
	}

	// Title resolution is advisory: feeds often carry truncated or
	// decorated titles, so the page's own title wins when we can get one.
	// Failure here is not a rejection.
	if resolved := p.titles.Extract(ctx, rec.Link); resolved != "" {
		rec.Title = resolved
	}
	rec.Title = filter.CleanTitle(rec.Title)

	body := p.content.Extract(ctx, rec.Link)
	if body == "" {
		p.log.Debug("content extraction failed", "link", rec.Link)
		p.metrics.IncrementExtractionFailures()
		return rec, false
	}

	if !p.acquireBudget() {
		p.metrics.IncrementClassificationFailures()
		return rec, false
	}
	summary, err := p.classifier.Summarize(ctx, body)
	if err != nil {
		p.log.Warn("summarization failed", "link", rec.Link, "err", err)
		p.metrics.IncrementClassificationFailures()
		return rec, false
	}
	rec.Summary = summary

	if !p.acquireBudget() {
		p.metrics.IncrementClassificationFailures()
		return rec, false
	}
	importance, err := p.classifier.CheckImportance(ctx, rec.Title, rec.Summary)
	if err != nil {
		p.log.Warn("importance check failed", "link", rec.Link, "err", err)
		p.metrics.IncrementClassificationFailures()
		return rec, false
	}
	rec.Important = importance.Important
	rec.ImportanceReasoning = importance.Reasoning
	rec.HighImportance = importance.HighImportance

	if !rec.Important {
		p.log.Debug("not important", "link", rec.Link, "reasoning", rec.ImportanceReasoning)
		p.metrics.IncrementNotImportant()
		return rec, false
	}

	p.metrics.IncrementPassed()
	return rec, true
}

func (p *Pipeline) acquireBudget() bool {
	if p.budget == nil {
		return true
	}
	if !p.budget.TryAcquire() {
		p.log.Warn("model call skipped, budget exhausted")
		return false
	}
	return true
}
