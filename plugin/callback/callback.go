// Package callback delivers final engagement reports to the upstream platform.
package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/honeypot/plugin/ai/intel"
	"github.com/hrygo/honeypot/plugin/ai/timeout"
)

// DefaultURL is the upstream endpoint that receives final results.
const DefaultURL = "https://hackathon.guvi.in/api/updateHoneyPotFinalResult"

// maxErrorBody bounds how much of a failed response is kept for logging.
const maxErrorBody = 512

// Payload is the wire form of a final report.
type Payload struct {
	SessionID              string         `json:"sessionId"`
	ScamDetected           bool           `json:"scamDetected"`
	TotalMessagesExchanged int            `json:"totalMessagesExchanged"`
	ExtractedIntelligence  intel.Snapshot `json:"extractedIntelligence"`
	AgentNotes             string         `json:"agentNotes"`
}

// Reporter delivers a report. A nil error means the upstream accepted it.
type Reporter interface {
	Deliver(ctx context.Context, payload Payload) error
}

// Config holds the delivery client configuration.
type Config struct {
	// URL is the endpoint reports are POSTed to.
	URL string
	// Timeout bounds one delivery attempt.
	Timeout time.Duration
}

// DefaultConfig returns the default delivery configuration.
func DefaultConfig() *Config {
	return &Config{
		URL:     DefaultURL,
		Timeout: timeout.ReportTimeout,
	}
}

// Client posts reports as JSON over HTTP.
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *slog.Logger
}

var _ Reporter = (*Client)(nil)

// NewClient creates a delivery client. Zero config fields take defaults.
func NewClient(config *Config, logger *slog.Logger) *Client {
	defaults := DefaultConfig()
	if config == nil {
		config = defaults
	}
	if config.URL == "" {
		config.URL = defaults.URL
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}
}

// Deliver POSTs the payload. Only HTTP 200 counts as success.
func (c *Client) Deliver(ctx context.Context, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to encode report")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to build report request")
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to deliver report for session %s", payload.SessionID)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return errors.Errorf("report endpoint returned status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	c.logger.Info("report delivered",
		"session_id", payload.SessionID,
		"turns", payload.TotalMessagesExchanged,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
