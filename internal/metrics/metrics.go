// Package metrics keeps process-wide aggregation statistics for the
// monitoring endpoints. The orchestrator feeds it once per completed run.
package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters across all runs in this process.
	RunsCompleted     int64
	TotalFetched      int64
	TotalCreated      int64
	TotalSkipped      int64
	SourceFailures    int64
	DegradedTranslate int64

	LastRunDuration time.Duration

	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

// RecordRun folds the counters of one completed run into the totals.
func (m *Metrics) RecordRun(fetched, created, skipped, sourceFailures, degraded int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RunsCompleted++
	m.TotalFetched += int64(fetched)
	m.TotalCreated += int64(created)
	m.TotalSkipped += int64(skipped)
	m.SourceFailures += int64(sourceFailures)
	m.DegradedTranslate += int64(degraded)
	m.LastRunDuration = duration
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

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"runs_completed":       m.RunsCompleted,
		"total_fetched":        m.TotalFetched,
		"total_created":        m.TotalCreated,
		"total_skipped":        m.TotalSkipped,
		"source_failures":      m.SourceFailures,
		"degraded_translates":  m.DegradedTranslate,
		"last_run_duration_ms": m.LastRunDuration.Milliseconds(),
		"last_run_time":        m.LastRunTime.Format(time.RFC3339),
		"last_error_time":      m.LastErrorTime.Format(time.RFC3339),
		"last_error":           m.LastError,
		"is_healthy":           m.IsHealthy,
	}
}
