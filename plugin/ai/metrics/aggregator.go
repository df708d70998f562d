package metrics

import (
	"sort"
	"sync"
	"time"
)

// Aggregator aggregates metrics in memory, bucketed by hour.
type Aggregator struct {
	mu  sync.RWMutex
	now func() time.Time

	// key = "hourBucket|provider"
	replyMetrics map[string]*replyBucket

	// key = hourBucket
	hourMetrics map[time.Time]*hourBucket
}

type replyBucket struct {
	hourBucket    time.Time
	provider      string
	replyCount    int64
	successCount  int64
	latencies     []int64 // in milliseconds
	degradedCause map[string]int64
}

type hourBucket struct {
	messageCount       int64
	scamCount          int64
	deliveryCount      int64
	deliverySuccess    int64
	deliveryLatencySum int64 // in milliseconds
}

// NewAggregator creates a new metrics aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		now:          time.Now,
		replyMetrics: make(map[string]*replyBucket),
		hourMetrics:  make(map[time.Time]*hourBucket),
	}
}

func (a *Aggregator) hour() *hourBucket {
	key := truncateToHour(a.now())
	bucket, exists := a.hourMetrics[key]
	if !exists {
		bucket = &hourBucket{}
		a.hourMetrics[key] = bucket
	}
	return bucket
}

// RecordVerdict records a classified message.
func (a *Aggregator) RecordVerdict(scam bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	bucket := a.hour()
	bucket.messageCount++
	if scam {
		bucket.scamCount++
	}
}

// RecordReply records a single persona reply.
func (a *Aggregator) RecordReply(provider string, latency time.Duration, degraded bool, reason string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if provider == "" {
		provider = "none"
	}
	hourBucket := truncateToHour(a.now())
	key := makeReplyKey(hourBucket, provider)

	bucket, exists := a.replyMetrics[key]
	if !exists {
		bucket = &replyBucket{
			hourBucket:    hourBucket,
			provider:      provider,
			latencies:     make([]int64, 0, 100),
			degradedCause: make(map[string]int64),
		}
		a.replyMetrics[key] = bucket
	}

	bucket.replyCount++
	if degraded {
		bucket.degradedCause[reason]++
	} else {
		bucket.successCount++
	}
	bucket.latencies = append(bucket.latencies, latency.Milliseconds())
}

// RecordDelivery records a single report delivery attempt.
func (a *Aggregator) RecordDelivery(latency time.Duration, success bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	bucket := a.hour()
	bucket.deliveryCount++
	if success {
		bucket.deliverySuccess++
	}
	bucket.deliveryLatencySum += latency.Milliseconds()
}

// Stats returns aggregated stats for buckets whose hour lies in [start, end].
// A zero bound is open.
func (a *Aggregator) Stats(start, end time.Time) *EngagementMetrics {
	a.mu.RLock()
	defer a.mu.RUnlock()

	inRange := func(h time.Time) bool {
		if !start.IsZero() && h.Before(truncateToHour(start)) {
			return false
		}
		return end.IsZero() || !h.After(end)
	}

	stats := &EngagementMetrics{
		ProviderStats:    make(map[string]*ProviderStat),
		DegradedByReason: make(map[string]int64),
	}

	allLatencies := make([]int64, 0)
	providerLatencies := make(map[string][]int64)
	for _, bucket := range a.replyMetrics {
		if !inRange(bucket.hourBucket) {
			continue
		}
		stats.ReplyCount += bucket.replyCount
		stats.DegradedCount += bucket.replyCount - bucket.successCount
		for reason, n := range bucket.degradedCause {
			stats.DegradedByReason[reason] += n
		}
		allLatencies = append(allLatencies, bucket.latencies...)

		providerStat, exists := stats.ProviderStats[bucket.provider]
		if !exists {
			providerStat = &ProviderStat{}
			stats.ProviderStats[bucket.provider] = providerStat
		}
		// SuccessRate holds the success count until the final pass below.
		providerStat.Count += bucket.replyCount
		providerStat.SuccessRate += float32(bucket.successCount)
		providerLatencies[bucket.provider] = append(providerLatencies[bucket.provider], bucket.latencies...)
	}

	for provider, providerStat := range stats.ProviderStats {
		if providerStat.Count > 0 {
			providerStat.SuccessRate /= float32(providerStat.Count)
			avgMs := sumLatencies(providerLatencies[provider]) / providerStat.Count
			providerStat.AvgLatency = time.Duration(avgMs) * time.Millisecond
		}
	}

	var deliveryLatencySum int64
	for h, bucket := range a.hourMetrics {
		if !inRange(h) {
			continue
		}
		stats.MessageCount += bucket.messageCount
		stats.ScamCount += bucket.scamCount
		stats.Deliveries.Attempts += bucket.deliveryCount
		stats.Deliveries.Successes += bucket.deliverySuccess
		deliveryLatencySum += bucket.deliveryLatencySum
	}
	if stats.Deliveries.Attempts > 0 {
		stats.Deliveries.AvgLatency = time.Duration(deliveryLatencySum/stats.Deliveries.Attempts) * time.Millisecond
	}

	stats.LatencyP50 = time.Duration(percentile(allLatencies, 50)) * time.Millisecond
	stats.LatencyP95 = time.Duration(percentile(allLatencies, 95)) * time.Millisecond

	return stats
}

// Prune drops buckets for hours before beforeHour and returns how many were dropped.
func (a *Aggregator) Prune(beforeHour time.Time) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	pruned := 0
	for key, bucket := range a.replyMetrics {
		if bucket.hourBucket.Before(beforeHour) {
			delete(a.replyMetrics, key)
			pruned++
		}
	}
	for h := range a.hourMetrics {
		if h.Before(beforeHour) {
			delete(a.hourMetrics, h)
			pruned++
		}
	}
	return pruned
}

// Helper functions

func truncateToHour(t time.Time) time.Time {
	return t.Truncate(time.Hour)
}

func makeReplyKey(hourBucket time.Time, provider string) string {
	return hourBucket.Format(time.RFC3339) + "|" + provider
}

func sumLatencies(latencies []int64) int64 {
	var sum int64
	for _, l := range latencies {
		sum += l
	}
	return sum
}

func percentile(latencies []int64, p int) int64 {
	if len(latencies) == 0 {
		return 0
	}

	sorted := make([]int64, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := (len(sorted) - 1) * p / 100
	return sorted[idx]
}
