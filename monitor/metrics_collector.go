package monitor

import (
	"sort"
	"sync"
	"time"

	"github.com/glimte/contractgate/interceptors"
)

const maxSamples = 100

var _ interceptors.MetricsCollector = (*MetricsCollector)(nil)

// MetricsCollector is an in-memory metrics collector keyed by contract version.
// Error counts are kept per validation error kind.
type MetricsCollector struct {
	mu sync.RWMutex

	// Envelope counters by contract version
	messageCounters map[string]int64

	// Error counters by contract version and error kind
	errorCounters map[string]map[string]int64

	// Processing time stats by contract version
	processingTimes map[string]*TimeStats
}

// TimeStats tracks timing statistics
type TimeStats struct {
	Count   int64
	TotalMs int64
	MinMs   int64
	MaxMs   int64
	samples []int64 // last maxSamples, for percentiles
}

// NewMetricsCollector creates a new in-memory metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		messageCounters: make(map[string]int64),
		errorCounters:   make(map[string]map[string]int64),
		processingTimes: make(map[string]*TimeStats),
	}
}

// IncrementMessageCount implements interceptors.MetricsCollector
func (c *MetricsCollector) IncrementMessageCount(version string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messageCounters[version]++
}

// RecordProcessingTime implements interceptors.MetricsCollector
func (c *MetricsCollector) RecordProcessingTime(version string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	durationMs := duration.Milliseconds()

	stats, exists := c.processingTimes[version]
	if !exists {
		stats = &TimeStats{
			MinMs:   durationMs,
			MaxMs:   durationMs,
			samples: make([]int64, 0, maxSamples),
		}
		c.processingTimes[version] = stats
	}

	stats.Count++
	stats.TotalMs += durationMs

	if durationMs < stats.MinMs {
		stats.MinMs = durationMs
	}
	if durationMs > stats.MaxMs {
		stats.MaxMs = durationMs
	}

	if len(stats.samples) >= maxSamples {
		stats.samples = stats.samples[1:]
	}
	stats.samples = append(stats.samples, durationMs)
}

// IncrementErrorCount implements interceptors.MetricsCollector
func (c *MetricsCollector) IncrementErrorCount(version string, errorType string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.errorCounters[version] == nil {
		c.errorCounters[version] = make(map[string]int64)
	}
	c.errorCounters[version][errorType]++
}

// Snapshot returns a copy of all collected metrics
func (c *MetricsCollector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		MessageCounts:   make(map[string]int64),
		ErrorCounts:     make(map[string]map[string]int64),
		ProcessingStats: make(map[string]ProcessingStats),
		CollectedAt:     time.Now().UTC(),
	}

	for version, count := range c.messageCounters {
		snap.MessageCounts[version] = count
	}

	for version, kinds := range c.errorCounters {
		snap.ErrorCounts[version] = make(map[string]int64, len(kinds))
		for kind, count := range kinds {
			snap.ErrorCounts[version][kind] = count
		}
	}

	for version, stats := range c.processingTimes {
		procStats := ProcessingStats{
			Count: stats.Count,
			MinMs: stats.MinMs,
			MaxMs: stats.MaxMs,
		}
		if stats.Count > 0 {
			procStats.AvgMs = stats.TotalMs / stats.Count
		}
		if len(stats.samples) > 0 {
			sorted := make([]int64, len(stats.samples))
			copy(sorted, stats.samples)
			sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

			procStats.P50Ms = percentile(sorted, 0.50)
			procStats.P95Ms = percentile(sorted, 0.95)
			procStats.P99Ms = percentile(sorted, 0.99)
		}
		snap.ProcessingStats[version] = procStats
	}

	return snap
}

// Reset clears all collected metrics
func (c *MetricsCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messageCounters = make(map[string]int64)
	c.errorCounters = make(map[string]map[string]int64)
	c.processingTimes = make(map[string]*TimeStats)
}

// percentile expects sorted samples
func percentile(sorted []int64, p float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[int(float64(len(sorted)-1)*p)]
}

// Snapshot is a point-in-time copy of the collected metrics
type Snapshot struct {
	MessageCounts   map[string]int64            `json:"message_counts"`
	ErrorCounts     map[string]map[string]int64 `json:"error_counts"`
	ProcessingStats map[string]ProcessingStats  `json:"processing_stats"`
	CollectedAt     time.Time                   `json:"collected_at"`
}

// ProcessingStats represents processing time statistics for a contract version
type ProcessingStats struct {
	Count int64 `json:"count"`
	AvgMs int64 `json:"avg_ms"`
	MinMs int64 `json:"min_ms"`
	MaxMs int64 `json:"max_ms"`
	P50Ms int64 `json:"p50_ms"`
	P95Ms int64 `json:"p95_ms"`
	P99Ms int64 `json:"p99_ms"`
}

// Versions returns the contract versions seen so far, sorted
func (s Snapshot) Versions() []string {
	versions := make([]string, 0, len(s.MessageCounts))
	for v := range s.MessageCounts {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions
}

// TotalErrors sums the error counts of a contract version
func (s Snapshot) TotalErrors(version string) int64 {
	var total int64
	for _, count := range s.ErrorCounts[version] {
		total += count
	}
	return total
}

// TopErrorKinds returns the error kinds of a version ordered by count, then name
func (s Snapshot) TopErrorKinds(version string) []ErrorKindStats {
	kinds := s.ErrorCounts[version]
	out := make([]ErrorKindStats, 0, len(kinds))
	for kind, count := range kinds {
		out = append(out, ErrorKindStats{Kind: kind, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// ErrorKindStats is the count of one error kind
type ErrorKindStats struct {
	Kind  string `json:"kind"`
	Count int64  `json:"count"`
}
