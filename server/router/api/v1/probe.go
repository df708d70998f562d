package v1

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/honeypot/plugin/ai/agent"
)

const serviceName = "Agentic Honeypot"

// Health reports liveness.
// GET /health
func (s *APIV1Service) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "running",
		"service": serviceName,
		"version": s.Profile.Version,
	})
}

// Ping answers any method without reading the request.
// ANY /api/honey-pot/ping
func (s *APIV1Service) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "success",
		"message":   "Honeypot API is alive",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// GetInfo describes how to call the API. No authentication.
// GET /api/honey-pot
func (s *APIV1Service) GetInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"service":     serviceName + " API",
		"status":      "ready",
		"endpoint":    "/api/honey-pot",
		"method":      http.MethodPost,
		"description": "Send scam messages to engage AI agent and extract intelligence",
		"usage": map[string]any{
			"headers": map[string]string{
				APIKeyHeader:   "required",
				"Content-Type": "application/json",
			},
			"body": map[string]any{
				"sessionId": "unique-session-id",
				"message": map[string]string{
					"sender":    "scammer",
					"text":      "message text",
					"timestamp": "ISO 8601 timestamp",
				},
				"conversationHistory": []any{},
			},
		},
		"features": []string{
			"Scam detection",
			"AI agent engagement",
			"Intelligence extraction (UPI, Bank, Phone, Links)",
			"Multi-turn conversation support",
			"Final report callback",
		},
	})
}

// ConnectivityTest always succeeds. When the body carries message text the
// persona answers it, so testers can see a live reply.
// GET|POST /api/honey-pot/test
func (s *APIV1Service) ConnectivityTest(c echo.Context) error {
	ok := map[string]any{
		"status":  "success",
		"message": "Honeypot API reachable and secured",
		"service": serviceName,
	}
	if c.Request().Method == http.MethodGet || s.Agent == nil {
		return c.JSON(http.StatusOK, ok)
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes))
	if err != nil {
		return c.JSON(http.StatusOK, ok)
	}
	text := testMessageText(body)
	if text == "" {
		return c.JSON(http.StatusOK, ok)
	}

	reply := s.Agent.GenerateReply(c.Request().Context(), []agent.Turn{{
		Sender:    agent.SenderCounterpart,
		Text:      text,
		Timestamp: time.Now().Format(time.RFC3339),
	}})
	return c.JSON(http.StatusOK, map[string]any{
		"status":       "success",
		"scamDetected": true,
		"agentReply":   reply.Text,
		"message":      reply.Text,
	})
}

// testMessageText digs the text out of {"message":{"text":..}},
// {"message":".."} or {"text":".."}. Anything else yields "".
func testMessageText(body []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if raw, ok := payload["message"]; ok {
		if turn, ok := parseTurn(raw); ok {
			return turn.Text
		}
		return strings.TrimSpace(string(raw))
	}
	if raw, ok := payload["text"]; ok {
		var text string
		if json.Unmarshal(raw, &text) == nil {
			return strings.TrimSpace(text)
		}
	}
	return ""
}
