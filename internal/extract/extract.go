// Package extract derives article text and titles from links. Every method
// of getting text out of a page fails somewhere, so extraction is a chain of
// strategies tried in order until one produces enough text.
package extract

import (
	"context"
	"log/slog"
	"strings"
)

// MinContentLength is the success threshold for article bodies: a result
// must be strictly longer to count. Anything at or below it is a cookie
// banner, a paywall stub, or an error page, and the chain moves on to the
// next strategy.
const MinContentLength = 200

// Strategy is one concrete way of getting text from a link.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, link string) (string, error)
}

// Chain tries strategies strictly in order and returns the first result at
// or above its threshold. Strategy errors are logged and absorbed; the chain
// itself never fails, it just comes back empty.
type Chain struct {
	strategies []Strategy
	minLength  int
	log        *slog.Logger
}

// NewContentChain builds a chain with the article-body success threshold.
func NewContentChain(log *slog.Logger, strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies, minLength: MinContentLength, log: log}
}

// NewTitleChain builds a chain that accepts any non-empty trimmed result.
func NewTitleChain(log *slog.Logger, strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies, minLength: 0, log: log}
}

// Extract runs the chain. Empty result means every strategy failed.
func (c *Chain) Extract(ctx context.Context, link string) string {
	for _, s := range c.strategies {
		text, err := s.Extract(ctx, link)
		if err != nil {
			if c.log != nil {
				c.log.Debug("extraction strategy failed", "strategy", s.Name(), "link", link, "err", err)
			}
			continue
		}

		text = strings.TrimSpace(text)
		if len(text) <= c.minLength {
			if c.log != nil {
				c.log.Debug("extraction result below threshold",
					"strategy", s.Name(), "link", link, "length", len(text), "min", c.minLength)
			}
			continue
		}

		if c.log != nil {
			c.log.Debug("extraction succeeded", "strategy", s.Name(), "link", link, "length", len(text))
		}
		return text
	}
	return ""
}
