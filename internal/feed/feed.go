// Package feed loads the source list and pulls candidate items from RSS and
// Atom feeds.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"
)

// Candidate is one feed item before any enrichment has run on it.
type Candidate struct {
	Title   string
	Link    string
	RawDate string
}

// FeedsConfig is the YAML source list:
//
//	feeds:
//	  - https://...
type FeedsConfig struct {
	Feeds []string `yaml:"feeds"`
}

// LoadFeeds reads the feed URL list from a YAML file.
func LoadFeeds(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feeds config: %w", err)
	}
	defer f.Close()

	var cfg FeedsConfig
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse feeds config: %w", err)
	}
	return cfg.Feeds, nil
}

// Fetcher downloads and parses the configured feeds.
type Fetcher struct {
	urls     []string
	parser   *gofeed.Parser
	maxBatch int
	log      *slog.Logger
}

func NewFetcher(urls []string, maxBatch int, log *slog.Logger) *Fetcher {
	return &Fetcher{
		urls:     urls,
		parser:   gofeed.NewParser(),
		maxBatch: maxBatch,
		log:      log,
	}
}

// FetchAll pulls every configured feed and flattens the items into
// candidates. A feed that fails to download or parse is logged and skipped;
// one broken source must not starve the rest. The batch is capped at
// maxBatch items when a cap is set.
func (f *Fetcher) FetchAll(ctx context.Context) ([]Candidate, error) {
	var candidates []Candidate
	successCount := 0

	for _, url := range f.urls {
		if err := ctx.Err(); err != nil {
			return candidates, err
		}

		parsed, err := f.parser.ParseURLWithContext(url, ctx)
		if err != nil {
			f.log.Warn("feed fetch failed", "url", url, "err", err)
			continue
		}
		for _, item := range parsed.Items {
			candidates = append(candidates, Candidate{
				Title:   item.Title,
				Link:    item.Link,
				RawDate: item.Published,
			})
		}
		successCount++
		f.log.Debug("feed loaded", "url", url, "items", len(parsed.Items))
	}

	f.log.Info("feeds fetched", "ok", successCount, "total", len(f.urls), "items", len(candidates))

	if f.maxBatch > 0 && len(candidates) > f.maxBatch {
		candidates = candidates[:f.maxBatch]
	}
	return candidates, nil
}
