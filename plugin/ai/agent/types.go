package agent

import (
	"strings"
	"time"
)

// Sender identifies which side of the conversation produced a turn.
type Sender string

const (
	// SenderCounterpart is the suspected scammer.
	SenderCounterpart Sender = "counterpart"
	// SenderPersona is the honeypot's own persona.
	SenderPersona Sender = "persona"
)

// ParseSender maps a wire sender label to a Sender.
// Unknown labels are treated as the counterpart, the untrusted side.
func ParseSender(label string) Sender {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "user", "agent", "assistant", "persona", "honeypot":
		return SenderPersona
	default:
		return SenderCounterpart
	}
}

// Turn is one message exchanged within a session. Turns are immutable once recorded.
// Turn 是会话中的一条消息，记录后不可变。
type Turn struct {
	Sender    Sender
	Text      string
	Timestamp string // optional, ISO-8601 as supplied by the caller
}

// Reason explains why a reply was degraded.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonNotConnected     Reason = "not_connected"
	ReasonBackendError     Reason = "backend_error"
	ReasonDeadlineExceeded Reason = "deadline_exceeded"
	ReasonCanceled         Reason = "canceled"
	ReasonEmptyHistory     Reason = "empty_history"
)

// Reply is the persona's next message.
// Reply 是人设代理生成的下一条回复。
type Reply struct {
	Text     string
	Provider string
	// Degraded is set when Text is a fixed fallback rather than a backend reply.
	Degraded bool
	Reason   Reason
	Latency  time.Duration
}
