package metrics

import (
	"context"
	"time"
)

// DefaultRetention is how long hourly buckets are kept.
const DefaultRetention = 24 * time.Hour

// Service implements MetricsService on top of an in-memory Aggregator.
type Service struct {
	aggregator *Aggregator
	retention  time.Duration
}

var _ MetricsService = (*Service)(nil)

// NewService creates a new metrics service. Buckets older than retention are
// dropped lazily when stats are read.
func NewService(retention time.Duration) *Service {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Service{
		aggregator: NewAggregator(),
		retention:  retention,
	}
}

// RecordVerdict records a classified message.
func (s *Service) RecordVerdict(_ context.Context, scam bool) {
	s.aggregator.RecordVerdict(scam)
}

// RecordReply records a persona reply.
func (s *Service) RecordReply(_ context.Context, provider string, latency time.Duration, degraded bool, reason string) {
	s.aggregator.RecordReply(provider, latency, degraded, reason)
}

// RecordDelivery records a report delivery attempt.
func (s *Service) RecordDelivery(_ context.Context, latency time.Duration, success bool) {
	s.aggregator.RecordDelivery(latency, success)
}

// GetStats retrieves aggregated statistics for the given time range.
func (s *Service) GetStats(ctx context.Context, timeRange TimeRange) (*EngagementMetrics, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.aggregator.Prune(truncateToHour(s.aggregator.now().Add(-s.retention)))
	return s.aggregator.Stats(timeRange.Start, timeRange.End), nil
}
