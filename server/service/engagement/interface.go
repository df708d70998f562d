package engagement

import (
	"context"
	"time"

	"github.com/hrygo/honeypot/plugin/ai/agent"
	"github.com/hrygo/honeypot/plugin/ai/intel"
)

// Service handles inbound honeypot messages.
type Service interface {
	// Handle processes one inbound message. It never fails: malformed input
	// and backend problems degrade to a neutral or fallback response.
	Handle(ctx context.Context, req *Request) *Response

	// Reports lists delivered reports, newest first.
	Reports(limit int) []*Report
}

// Classifier scores one message for scam likelihood in [0, 1].
type Classifier interface {
	Evaluate(text string) float64
}

// Agent produces the persona's next reply.
type Agent interface {
	GenerateReply(ctx context.Context, history []agent.Turn) agent.Reply
}

// Request is one inbound message with the caller's view of prior turns.
type Request struct {
	SessionID string
	// Message is nil when the caller sent no usable current message.
	Message *agent.Turn
	History []agent.Turn
}

// Metrics are derived engagement metrics.
type Metrics struct {
	TotalMessagesExchanged    int `json:"totalMessagesExchanged"`
	EngagementDurationSeconds int `json:"engagementDurationSeconds"`
}

// Response is the result of handling one message.
type Response struct {
	ScamDetected          bool            `json:"scamDetected"`
	AgentReply            string          `json:"agentReply,omitempty"`
	AgentNotes            string          `json:"agentNotes,omitempty"`
	EngagementMetrics     *Metrics        `json:"engagementMetrics,omitempty"`
	ExtractedIntelligence *intel.Snapshot `json:"extractedIntelligence,omitempty"`

	// Reported is set on the turn whose report was accepted upstream.
	Reported bool `json:"-"`
}

// Report is built once per session when the trigger fires. It is never
// mutated after construction.
type Report struct {
	ID                     string         `json:"id"`
	SessionID              string         `json:"sessionId"`
	TotalMessagesExchanged int            `json:"totalMessagesExchanged"`
	Intelligence           intel.Snapshot `json:"extractedIntelligence"`
	AgentNotes             string         `json:"agentNotes"`
	CreatedAt              time.Time      `json:"createdAt"`
}
