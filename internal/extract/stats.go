package extract

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	at       time.Time
	duration time.Duration
	failed   bool
}

// StatsSnapshot is a point-in-time aggregate of extraction call latencies.
type StatsSnapshot struct {
	Provider string  `json:"provider"`
	Count    int     `json:"count"`
	Failures int     `json:"failures"`
	MinMs    int64   `json:"min_ms"`
	MaxMs    int64   `json:"max_ms"`
	AvgMs    float64 `json:"avg_ms"`
	P50Ms    float64 `json:"p50_ms"`
	P95Ms    float64 `json:"p95_ms"`
}

// Stats tracks extraction call latencies within a rolling window. One
// instance is shared by the pipeline workers and the stats endpoint.
type Stats struct {
	mu       sync.Mutex
	provider string
	samples  []sample
	maxAge   time.Duration
}

func NewStats(provider string, maxAge time.Duration) *Stats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Stats{
		provider: provider,
		samples:  make([]sample, 0, 64),
		maxAge:   maxAge,
	}
}

// Record adds one call's outcome to the window.
func (s *Stats) Record(d time.Duration, failed bool) {
	if d < 0 {
		d = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	s.samples = append(s.samples, sample{at: now, duration: d, failed: failed})
}

// Snapshot aggregates the current window.
func (s *Stats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	snap := StatsSnapshot{Provider: s.provider}
	if len(s.samples) == 0 {
		return snap
	}

	values := make([]int64, 0, len(s.samples))
	var sum int64
	for _, sm := range s.samples {
		ms := sm.duration.Milliseconds()
		values = append(values, ms)
		sum += ms
		if sm.failed {
			snap.Failures++
		}
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	snap.Count = len(values)
	snap.MinMs = values[0]
	snap.MaxMs = values[len(values)-1]
	snap.AvgMs = float64(sum) / float64(len(values))
	snap.P50Ms = percentile(values, 50)
	snap.P95Ms = percentile(values, 95)
	return snap
}

func (s *Stats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	writeIdx := 0
	for _, sm := range s.samples {
		if !sm.at.Before(cutoff) {
			s.samples[writeIdx] = sm
			writeIdx++
		}
	}
	s.samples = s.samples[:writeIdx]
}

func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
