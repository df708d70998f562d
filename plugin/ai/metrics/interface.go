// Package metrics aggregates engagement metrics in memory: persona reply
// latency per backend, degraded replies by reason, classifier verdicts and
// report deliveries.
package metrics

import (
	"context"
	"time"
)

// MetricsService defines the engagement metrics service interface.
type MetricsService interface {
	// RecordVerdict records one classified inbound message.
	RecordVerdict(ctx context.Context, scam bool)

	// RecordReply records one persona reply. reason is empty for a backend reply.
	RecordReply(ctx context.Context, provider string, latency time.Duration, degraded bool, reason string)

	// RecordDelivery records one report delivery attempt.
	RecordDelivery(ctx context.Context, latency time.Duration, success bool)

	// GetStats retrieves statistics for buckets overlapping timeRange.
	GetStats(ctx context.Context, timeRange TimeRange) (*EngagementMetrics, error)
}

// TimeRange represents a time range for querying metrics.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// EngagementMetrics represents aggregated metrics.
type EngagementMetrics struct {
	MessageCount     int64                    `json:"message_count"`
	ScamCount        int64                    `json:"scam_count"`
	ReplyCount       int64                    `json:"reply_count"`
	DegradedCount    int64                    `json:"degraded_count"`
	LatencyP50       time.Duration            `json:"latency_p50"`
	LatencyP95       time.Duration            `json:"latency_p95"`
	ProviderStats    map[string]*ProviderStat `json:"provider_stats"`
	DegradedByReason map[string]int64         `json:"degraded_by_reason"`
	Deliveries       DeliveryStat             `json:"deliveries"`
}

// ProviderStat represents statistics for a single backend.
type ProviderStat struct {
	Count       int64         `json:"count"`
	SuccessRate float32       `json:"success_rate"`
	AvgLatency  time.Duration `json:"avg_latency"`
}

// DeliveryStat summarizes report delivery attempts.
type DeliveryStat struct {
	Attempts   int64         `json:"attempts"`
	Successes  int64         `json:"successes"`
	AvgLatency time.Duration `json:"avg_latency"`
}
