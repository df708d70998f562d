package v1

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/honeypot/plugin/ai/agent"
	"github.com/hrygo/honeypot/server/internal/observability"
	"github.com/hrygo/honeypot/server/service/engagement"
)

// maxBodyBytes bounds the request body read from untrusted callers.
const maxBodyBytes = 1 << 20

// Message is one turn on the wire.
type Message struct {
	Sender    string          `json:"sender"`
	Text      string          `json:"text"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
}

// Metadata describes the channel a conversation arrived on.
type Metadata struct {
	Channel  string `json:"channel,omitempty"`
	Language string `json:"language,omitempty"`
	Locale   string `json:"locale,omitempty"`
}

// HoneypotRequest is the inbound body of POST /api/honey-pot.
// Message and history items are kept raw so one bad item does not reject the request.
type HoneypotRequest struct {
	SessionID           string            `json:"sessionId"`
	Message             json.RawMessage   `json:"message"`
	ConversationHistory []json.RawMessage `json:"conversationHistory"`
	Metadata            *Metadata         `json:"metadata,omitempty"`
}

// HoneypotResponse is the outbound body of POST /api/honey-pot.
type HoneypotResponse struct {
	Status string `json:"status"`
	*engagement.Response
}

// HandleHoneypot processes one scammer message.
// POST /api/honey-pot
//
// Malformed bodies are answered with a neutral "not flagged" response, never an error.
func (s *APIV1Service) HandleHoneypot(c echo.Context) error {
	reqCtx, ok := observability.FromContext(c.Request().Context())
	if !ok {
		reqCtx = observability.NewRequestContext(s.Logger, "")
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes))
	if err != nil {
		reqCtx.Warn("failed to read request body", slog.String("error", err.Error()))
	}

	req, meta, err := parseHoneypotRequest(body)
	if err != nil {
		reqCtx.Warn("malformed honeypot request", slog.String("error", err.Error()))
	}
	reqCtx.SessionID = req.SessionID

	attrs := []slog.Attr{slog.Int("history_len", len(req.History))}
	if req.Message != nil {
		attrs = append(attrs, slog.Int(observability.LogFieldMessageLen, len(req.Message.Text)))
	}
	if meta != nil {
		attrs = append(attrs, slog.String("channel", meta.Channel), slog.String("language", meta.Language))
	}
	reqCtx.Debug("honeypot request received", attrs...)

	ctx := observability.WithRequestContext(c.Request().Context(), reqCtx)
	resp := s.Engagement.Handle(ctx, req)

	reqCtx.Info("honeypot request handled",
		slog.Bool("scam_detected", resp.ScamDetected),
		slog.Bool("reported", resp.Reported),
		slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()),
	)
	return c.JSON(http.StatusOK, HoneypotResponse{Status: "success", Response: resp})
}

// parseHoneypotRequest decodes body as far as it can. The returned request is
// never nil; a nil Message means there was no usable current message.
func parseHoneypotRequest(body []byte) (*engagement.Request, *Metadata, error) {
	req := &engagement.Request{}
	if len(bytes.TrimSpace(body)) == 0 {
		return req, nil, errors.New("empty body")
	}

	var wire HoneypotRequest
	if err := json.Unmarshal(body, &wire); err != nil {
		return req, nil, errors.Wrap(err, "invalid JSON body")
	}

	req.SessionID = strings.TrimSpace(wire.SessionID)
	for _, raw := range wire.ConversationHistory {
		if turn, ok := parseTurn(raw); ok {
			req.History = append(req.History, *turn)
		}
	}

	turn, ok := parseTurn(wire.Message)
	if !ok {
		return req, wire.Metadata, errors.New("missing or malformed message")
	}
	req.Message = turn
	return req, wire.Metadata, nil
}

// parseTurn accepts a message object or a bare string, which is taken as
// counterpart text.
func parseTurn(raw json.RawMessage) (*agent.Turn, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, false
	}

	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil || strings.TrimSpace(text) == "" {
			return nil, false
		}
		return &agent.Turn{Sender: agent.SenderCounterpart, Text: text}, true
	}

	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil || strings.TrimSpace(msg.Text) == "" {
		return nil, false
	}
	return &agent.Turn{
		Sender:    agent.ParseSender(msg.Sender),
		Text:      msg.Text,
		Timestamp: parseTimestamp(msg.Timestamp),
	}, true
}

// parseTimestamp keeps ISO strings as-is and epoch numbers as their digits.
func parseTimestamp(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
