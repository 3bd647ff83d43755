// Package metrics provides in-memory runtime statistics collection.
package metrics

import (
	"math"
	"sync"
	"time"
)

// Operation names for the collector.
const (
	OpSearch   = "search"
	OpGenerate = "llm_generate"
	OpExtract  = "extract"
	OpScrape   = "scrape"
)

// opMetrics accumulates raw counters for one operation type.
type opMetrics struct {
	count     int64
	failures  int64
	totalTime time.Duration
	minTime   time.Duration
	maxTime   time.Duration

	// Token counters stay zero for non-generator operations.
	inputTokens  int64
	outputTokens int64
}

// OperationSnapshot is the computed view of one operation's counters. It
// is persisted into run files, so fields carry JSON tags.
type OperationSnapshot struct {
	Count       int64   `json:"count"`
	Failures    int64   `json:"failures"`
	TotalTimeMs int64   `json:"total_time_ms"`
	AvgTimeMs   float64 `json:"avg_time_ms"`
	MinTimeMs   int64   `json:"min_time_ms"`
	MaxTimeMs   int64   `json:"max_time_ms"`

	// Token stats, nil when the operation does not consume tokens.
	TotalInputTokens  *int64   `json:"total_input_tokens,omitempty"`
	TotalOutputTokens *int64   `json:"total_output_tokens,omitempty"`
	AvgInputTokens    *float64 `json:"avg_input_tokens,omitempty"`
	AvgOutputTokens   *float64 `json:"avg_output_tokens,omitempty"`
}

// Snapshot is the full point-in-time view across all operations.
type Snapshot struct {
	UptimeSeconds float64            `json:"uptime_seconds"`
	Search        *OperationSnapshot `json:"search,omitempty"`
	Generate      *OperationSnapshot `json:"generate,omitempty"`
	Extract       *OperationSnapshot `json:"extract,omitempty"`
	Scrape        *OperationSnapshot `json:"scrape,omitempty"`
}

// Collector aggregates runtime statistics in memory.
// All methods are safe for concurrent use.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*opMetrics
}

// NewCollector creates a collector with its uptime clock started.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*opMetrics),
	}
}

// Record records timing and success for one call of an operation.
func (c *Collector) Record(op string, duration time.Duration, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record(op, duration, success, 0, 0)
}

// RecordGeneratorUsage records timing plus token usage for a generator call.
func (c *Collector) RecordGeneratorUsage(op string, duration time.Duration, success bool, inputTokens, outputTokens int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record(op, duration, success, inputTokens, outputTokens)
}

// record updates counters. Caller holds the write lock.
func (c *Collector) record(op string, duration time.Duration, success bool, in, out int64) {
	m, ok := c.ops[op]
	if !ok {
		m = &opMetrics{minTime: time.Duration(math.MaxInt64)}
		c.ops[op] = m
	}

	m.count++
	if !success {
		m.failures++
	}
	m.totalTime += duration
	if duration < m.minTime {
		m.minTime = duration
	}
	if duration > m.maxTime {
		m.maxTime = duration
	}
	m.inputTokens += in
	m.outputTokens += out
}

// Snapshot returns a point-in-time view of all recorded operations.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		UptimeSeconds: time.Since(c.startTime).Seconds(),
		Search:        snapshotOp(c.ops[OpSearch]),
		Generate:      snapshotOp(c.ops[OpGenerate]),
		Extract:       snapshotOp(c.ops[OpExtract]),
		Scrape:        snapshotOp(c.ops[OpScrape]),
	}
}

// snapshotOp computes the view for one operation, nil when nothing was
// recorded.
func snapshotOp(m *opMetrics) *OperationSnapshot {
	if m == nil || m.count == 0 {
		return nil
	}

	snap := &OperationSnapshot{
		Count:       m.count,
		Failures:    m.failures,
		TotalTimeMs: m.totalTime.Milliseconds(),
		AvgTimeMs:   float64(m.totalTime.Milliseconds()) / float64(m.count),
		MinTimeMs:   m.minTime.Milliseconds(),
		MaxTimeMs:   m.maxTime.Milliseconds(),
	}

	if m.inputTokens > 0 || m.outputTokens > 0 {
		totalIn, totalOut := m.inputTokens, m.outputTokens
		avgIn := float64(totalIn) / float64(m.count)
		avgOut := float64(totalOut) / float64(m.count)
		snap.TotalInputTokens = &totalIn
		snap.TotalOutputTokens = &totalOut
		snap.AvgInputTokens = &avgIn
		snap.AvgOutputTokens = &avgOut
	}

	return snap
}
