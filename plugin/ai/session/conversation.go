package session

import (
	"time"

	"github.com/hrygo/honeypot/plugin/ai/agent"
	"github.com/hrygo/honeypot/plugin/ai/intel"
)

// MaxTurnsPerSession caps the turns kept in memory for one conversation.
// Older turns are dropped from the front; TurnCount is unaffected.
const MaxTurnsPerSession = 64

func newConversation(id string, now time.Time) *Conversation {
	return &Conversation{
		ID:        id,
		State:     StateNew,
		Ledger:    intel.NewLedger(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Reported reports whether the final report has been delivered.
func (c *Conversation) Reported() bool {
	return c.State == StateReported
}

// Engage moves a NEW conversation to ENGAGING. Other states are unchanged.
func (c *Conversation) Engage() {
	if c.State == StateNew {
		c.State = StateEngaging
	}
}

// ObserveTurns raises TurnCount to total if it is higher.
func (c *Conversation) ObserveTurns(total int) int {
	if total > c.TurnCount {
		c.TurnCount = total
	}
	return c.TurnCount
}

// MergeIntel folds newly extracted intelligence into the ledger.
func (c *Conversation) MergeIntel(found *intel.Ledger) {
	c.Ledger = intel.Merge(c.Ledger, found)
}

// Record replaces the kept transcript with the caller's view of the
// conversation when it is at least as long as ours, then appends the new turns.
func (c *Conversation) Record(history []agent.Turn, turns ...agent.Turn) {
	if len(history) >= len(c.Turns) {
		c.Turns = append(c.Turns[:0:0], history...)
	}
	c.Turns = append(c.Turns, turns...)
	if overflow := len(c.Turns) - MaxTurnsPerSession; overflow > 0 {
		c.Turns = append(c.Turns[:0:0], c.Turns[overflow:]...)
	}
}

// MarkReported performs the terminal transition. It is a no-op once reported.
func (c *Conversation) MarkReported(reportID string, at time.Time) bool {
	if c.State == StateReported {
		return false
	}
	c.State = StateReported
	c.ReportID = reportID
	c.ReportedAt = at
	return true
}

// Summary returns a read-only copy of the conversation.
func (c *Conversation) Summary() Summary {
	return Summary{
		SessionID:        c.ID,
		State:            c.State,
		TurnCount:        c.TurnCount,
		DeliveryAttempts: c.DeliveryAttempts,
		ReportID:         c.ReportID,
		Intelligence:     c.Ledger.Snapshot(),
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}
