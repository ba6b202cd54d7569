package ratelimit

import (
	"log/slog"
	"sync"
	"time"
)

// Budget caps the number of LLM calls per day. A zero or negative limit
// disables the cap.
type Budget struct {
	mu        sync.Mutex
	count     int
	limit     int
	resetTime time.Time
	log       *slog.Logger
}

func NewBudget(limit int, log *slog.Logger) *Budget {
	return &Budget{
		limit:     limit,
		resetTime: time.Now().Add(24 * time.Hour),
		log:       log,
	}
}

// TryAcquire reserves one call against the budget. It returns false when
// the daily limit is exhausted.
func (b *Budget) TryAcquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if time.Now().After(b.resetTime) {
		b.count = 0
		b.resetTime = time.Now().Add(24 * time.Hour)
		if b.log != nil {
			b.log.Info("daily LLM budget reset")
		}
	}

	if b.limit > 0 && b.count >= b.limit {
		if b.log != nil {
			b.log.Warn("daily LLM budget exhausted", "used", b.count, "limit", b.limit)
		}
		return false
	}

	b.count++
	return true
}

// Used reports calls made in the current window.
func (b *Budget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}
