package v1

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/honeypot/plugin/ai/metrics"
	"github.com/hrygo/honeypot/plugin/ai/session"
	"github.com/hrygo/honeypot/server/internal/errors"
)

// MetricsOverviewResponse represents the overview response of engagement metrics.
type MetricsOverviewResponse struct {
	MessageCount     int64                            `json:"message_count"`
	ScamCount        int64                            `json:"scam_count"`
	ReplyCount       int64                            `json:"reply_count"`
	DegradedCount    int64                            `json:"degraded_count"`
	P50LatencyMs     int64                            `json:"p50_latency_ms"`
	P95LatencyMs     int64                            `json:"p95_latency_ms"`
	Providers        map[string]*metrics.ProviderStat `json:"providers"`
	DegradedByReason map[string]int64                 `json:"degraded_by_reason"`
	Deliveries       metrics.DeliveryStat             `json:"deliveries"`
	Sessions         map[session.State]int            `json:"sessions,omitempty"`
	TimeRange        string                           `json:"time_range"`
}

// stateCounter is implemented by session stores that can count by state.
type stateCounter interface {
	CountByState() map[session.State]int
}

// GetMetricsOverview returns the engagement metrics overview.
// GET /api/honey-pot/stats?range=1h|24h
func (s *APIV1Service) GetMetricsOverview(c echo.Context) error {
	timeRange := c.QueryParam("range")
	if timeRange == "" {
		timeRange = "24h"
	}
	start, err := parseTimeRange(timeRange)
	if err != nil {
		slog.Warn("Invalid time range parameter in metrics request", "range", timeRange, "error", err)
		return renderError(c, errors.InvalidArgument(err.Error()))
	}

	stats, err := s.Metrics.GetStats(c.Request().Context(), metrics.TimeRange{Start: start})
	if err != nil {
		return renderError(c, errors.FromContext(err))
	}

	resp := MetricsOverviewResponse{
		MessageCount:     stats.MessageCount,
		ScamCount:        stats.ScamCount,
		ReplyCount:       stats.ReplyCount,
		DegradedCount:    stats.DegradedCount,
		P50LatencyMs:     stats.LatencyP50.Milliseconds(),
		P95LatencyMs:     stats.LatencyP95.Milliseconds(),
		Providers:        stats.ProviderStats,
		DegradedByReason: stats.DegradedByReason,
		Deliveries:       stats.Deliveries,
		TimeRange:        timeRange,
	}
	if counter, ok := s.Sessions.(stateCounter); ok {
		resp.Sessions = counter.CountByState()
	}
	return c.JSON(http.StatusOK, resp)
}

// parseTimeRange parses time range string and returns the start time.
// Metrics are kept for a day, so longer ranges are not offered.
func parseTimeRange(timeRange string) (time.Time, error) {
	now := time.Now()
	switch timeRange {
	case "1h":
		return now.Add(-1 * time.Hour), nil
	case "6h":
		return now.Add(-6 * time.Hour), nil
	case "24h":
		return now.Add(-24 * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("invalid time range: %s (valid: 1h, 6h, 24h)", timeRange)
	}
}
