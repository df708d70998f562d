// Package session keeps per-conversation engagement state in memory, keyed by
// the caller-supplied session id, with exclusive access per session.
package session

import (
	"context"
	"time"

	"github.com/hrygo/honeypot/plugin/ai/agent"
	"github.com/hrygo/honeypot/plugin/ai/intel"
)

// State is the engagement state of a conversation.
type State string

const (
	StateNew      State = "NEW"
	StateEngaging State = "ENGAGING"
	// StateReported is terminal. No transition leaves it.
	StateReported State = "REPORTED"
)

// SessionService defines the conversation store used by the orchestrator.
type SessionService interface {
	// Update runs fn with exclusive access to the conversation for sessionID,
	// creating it in StateNew if it does not exist yet. Concurrent calls for the
	// same id are serialized; calls for different ids do not block each other.
	Update(ctx context.Context, sessionID string, fn func(c *Conversation) error) error

	// Get returns a copy of the conversation state.
	Get(ctx context.Context, sessionID string) (Summary, bool)

	// ListSessions lists sessions, most recently updated first.
	ListSessions(ctx context.Context, limit int) ([]Summary, error)

	// CleanupExpired removes conversations idle longer than retention.
	// Reported conversations are kept for the process lifetime.
	CleanupExpired(ctx context.Context, retention time.Duration) (int64, error)
}

// Conversation is the mutable state of one session. It must only be touched
// inside SessionService.Update.
type Conversation struct {
	ID     string
	State  State
	Turns  []agent.Turn
	Ledger *intel.Ledger
	// TurnCount never decreases, even if a caller later sends a shorter history.
	TurnCount int

	DeliveryAttempts int
	ReportID         string

	CreatedAt  time.Time
	UpdatedAt  time.Time
	ReportedAt time.Time
}

// Summary is a read-only view of a conversation.
type Summary struct {
	SessionID        string         `json:"sessionId"`
	State            State          `json:"state"`
	TurnCount        int            `json:"turnCount"`
	DeliveryAttempts int            `json:"deliveryAttempts"`
	ReportID         string         `json:"reportId,omitempty"`
	Intelligence     intel.Snapshot `json:"extractedIntelligence"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}
