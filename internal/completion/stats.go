package completion

import (
	"slices"
	"sync"
	"time"
)

// Call describes one completion request as seen by the dispatcher.
type Call struct {
	Topic      string // output topic of the prompt
	DurationMs int64
	Tokens     int // estimated tokens in the fragment sent
	Failed     bool
}

type sample struct {
	at   time.Time
	call Call
}

// LatencySummary aggregates a set of calls.
type LatencySummary struct {
	Count    int     `json:"count"`
	Failures int     `json:"failures"`
	Tokens   int     `json:"fragment_tokens"`
	MinMs    int64   `json:"min_ms"`
	MaxMs    int64   `json:"max_ms"`
	AvgMs    float64 `json:"avg_ms"`
	P50Ms    float64 `json:"p50_ms"`
	P95Ms    float64 `json:"p95_ms"`
	P99Ms    float64 `json:"p99_ms"`
}

// StatsSnapshot is the window-wide summary plus one summary per topic.
type StatsSnapshot struct {
	LatencySummary
	Topics map[string]LatencySummary `json:"topics"`
}

// LLMStats keeps the completion calls of a rolling window.
type LLMStats struct {
	mu      sync.Mutex
	samples []sample
	window  time.Duration
}

func NewLLMStats(window time.Duration) *LLMStats {
	if window <= 0 {
		window = time.Hour
	}
	return &LLMStats{
		samples: make([]sample, 0, 256),
		window:  window,
	}
}

// Record adds c to the window. Negative durations count as zero.
func (s *LLMStats) Record(c Call) {
	c.DurationMs = max(c.DurationMs, 0)
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictLocked(now)
	s.samples = append(s.samples, sample{at: now, call: c})
}

func (s *LLMStats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	s.evictLocked(now)
	calls := make([]Call, len(s.samples))
	for i, sm := range s.samples {
		calls[i] = sm.call
	}
	s.mu.Unlock()

	byTopic := make(map[string][]Call)
	for _, c := range calls {
		byTopic[c.Topic] = append(byTopic[c.Topic], c)
	}
	topics := make(map[string]LatencySummary, len(byTopic))
	for topic, cs := range byTopic {
		topics[topic] = summarize(cs)
	}
	return StatsSnapshot{LatencySummary: summarize(calls), Topics: topics}
}

func (s *LLMStats) evictLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	s.samples = slices.DeleteFunc(s.samples, func(sm sample) bool {
		return sm.at.Before(cutoff)
	})
}

func summarize(calls []Call) LatencySummary {
	var out LatencySummary
	if len(calls) == 0 {
		return out
	}

	ms := make([]int64, len(calls))
	var total int64
	for i, c := range calls {
		ms[i] = c.DurationMs
		total += c.DurationMs
		out.Tokens += c.Tokens
		if c.Failed {
			out.Failures++
		}
	}
	slices.Sort(ms)

	out.Count = len(ms)
	out.MinMs = ms[0]
	out.MaxMs = ms[len(ms)-1]
	out.AvgMs = float64(total) / float64(len(ms))
	out.P50Ms = interpolate(ms, 0.50)
	out.P95Ms = interpolate(ms, 0.95)
	out.P99Ms = interpolate(ms, 0.99)
	return out
}

// interpolate returns the q-quantile of sorted by linear interpolation
// between closest ranks.
func interpolate(sorted []int64, q float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case q <= 0:
		return float64(sorted[0])
	case q >= 1:
		return float64(sorted[len(sorted)-1])
	}
	pos := q * float64(len(sorted)-1)
	i := int(pos)
	if i+1 >= len(sorted) {
		return float64(sorted[i])
	}
	frac := pos - float64(i)
	return float64(sorted[i]) + frac*float64(sorted[i+1]-sorted[i])
}
