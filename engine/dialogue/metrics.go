package dialogue

import (
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// MetricsCollector collects per-agent performance metrics for a single run.
type MetricsCollector struct {
	mu sync.RWMutex

	agentStats map[string]*agentMetrics
}

type agentMetrics struct {
	calls        int64
	errors       int64
	emptyReplies int64
	latencies    []time.Duration
	replyLengths []float64
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		agentStats: make(map[string]*agentMetrics),
	}
}

// RecordCall records one provider invocation for the named agent.
func (mc *MetricsCollector) RecordCall(agent string, duration time.Duration, err error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	stats := mc.statsFor(agent)
	stats.calls++
	stats.latencies = append(stats.latencies, duration)
	if err != nil {
		stats.errors++
	}
}

// RecordReply records the length of a usable reply from the named agent.
func (mc *MetricsCollector) RecordReply(agent string, length int) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	stats := mc.statsFor(agent)
	stats.replyLengths = append(stats.replyLengths, float64(length))
}

// RecordEmptyReply counts a reply discarded as unusable.
func (mc *MetricsCollector) RecordEmptyReply(agent string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.statsFor(agent).emptyReplies++
}

// statsFor returns the named agent's bucket, creating it on first use.
// Callers must hold mc.mu.
func (mc *MetricsCollector) statsFor(agent string) *agentMetrics {
	stats, ok := mc.agentStats[agent]
	if !ok {
		stats = &agentMetrics{
			latencies:    make([]time.Duration, 0, 64),
			replyLengths: make([]float64, 0, 64),
		}
		mc.agentStats[agent] = stats
	}
	return stats
}

// AgentSummary aggregates one agent's activity over a run.
type AgentSummary struct {
	Calls            int64              `json:"calls"`
	Errors           int64              `json:"errors"`
	EmptyReplies     int64              `json:"empty_replies"`
	Latency          LatencyPercentiles `json:"latency"`
	MeanReplyChars   float64            `json:"mean_reply_chars"`
	StdDevReplyChars float64            `json:"stddev_reply_chars"`
}

// LatencyPercentiles represents latency percentiles.
type LatencyPercentiles struct {
	P50 time.Duration `json:"p50"`
	P95 time.Duration `json:"p95"`
	P99 time.Duration `json:"p99"`
}

// Summary returns per-agent aggregates collected so far.
func (mc *MetricsCollector) Summary() map[string]AgentSummary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	out := make(map[string]AgentSummary, len(mc.agentStats))
	for name, stats := range mc.agentStats {
		var mean, stddev float64
		if len(stats.replyLengths) > 0 {
			mean = stat.Mean(stats.replyLengths, nil)
		}
		if len(stats.replyLengths) > 1 {
			stddev = stat.StdDev(stats.replyLengths, nil)
		}
		out[name] = AgentSummary{
			Calls:            stats.calls,
			Errors:           stats.errors,
			EmptyReplies:     stats.emptyReplies,
			Latency:          percentiles(stats.latencies),
			MeanReplyChars:   mean,
			StdDevReplyChars: stddev,
		}
	}
	return out
}

// percentiles calculates p50, p95, p99 latencies.
func percentiles(latencies []time.Duration) LatencyPercentiles {
	if len(latencies) == 0 {
		return LatencyPercentiles{}
	}

	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return LatencyPercentiles{
		P50: sorted[len(sorted)*50/100],
		P95: sorted[len(sorted)*95/100],
		P99: sorted[len(sorted)*99/100],
	}
}

// Reset clears all collected metrics.
func (mc *MetricsCollector) Reset() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.agentStats = make(map[string]*agentMetrics)
}
