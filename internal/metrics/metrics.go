package metrics

import (
	"sync"
	"time"
)

// Metrics tracks pipeline counters for the monitoring endpoints.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	ItemsFetched           int64
	ItemsProcessed         int64
	DuplicatesRejected     int64
	HostsRejected          int64
	ExtractionFailures     int64
	ClassificationFailures int64
	ItemsPassed            int64
	ItemsNotImportant      int64
	ItemsPersisted         int64
	NotifyFailures         int64

	// Timings
	LastCycleTime    time.Duration
	TotalCycleTime   time.Duration
	AverageCycleTime time.Duration
	CycleCount       int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) IncrementFetched(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsFetched += int64(n)
}

func (m *Metrics) IncrementProcessed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsProcessed++
}

func (m *Metrics) IncrementDuplicates() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesRejected++
}

func (m *Metrics) IncrementHostRejected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HostsRejected++
}

func (m *Metrics) IncrementExtractionFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExtractionFailures++
}

func (m *Metrics) IncrementClassificationFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClassificationFailures++
}

func (m *Metrics) IncrementPassed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsPassed++
}

func (m *Metrics) IncrementNotImportant() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsNotImportant++
}

func (m *Metrics) IncrementPersisted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsPersisted++
}

func (m *Metrics) IncrementNotifyFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotifyFailures++
}

func (m *Metrics) RecordCycleTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastCycleTime = duration
	m.TotalCycleTime += duration
	m.CycleCount++
	m.AverageCycleTime = m.TotalCycleTime / time.Duration(m.CycleCount)
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.IsHealthy
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"items_fetched":           m.ItemsFetched,
		"items_processed":         m.ItemsProcessed,
		"duplicates_rejected":     m.DuplicatesRejected,
		"hosts_rejected":          m.HostsRejected,
		"extraction_failures":     m.ExtractionFailures,
		"classification_failures": m.ClassificationFailures,
		"items_passed":            m.ItemsPassed,
		"items_not_important":     m.ItemsNotImportant,
		"items_persisted":         m.ItemsPersisted,
		"notify_failures":         m.NotifyFailures,
		"last_cycle_time_ms":      m.LastCycleTime.Milliseconds(),
		"average_cycle_time_ms":   m.AverageCycleTime.Milliseconds(),
		"last_run_time":           m.LastRunTime.Format(time.RFC3339),
		"last_error_time":         m.LastErrorTime.Format(time.RFC3339),
		"last_error":              m.LastError,
		"is_healthy":              m.IsHealthy,
	}
}
