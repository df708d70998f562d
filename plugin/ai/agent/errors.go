package agent

import "errors"

// Fixed replies used when the backend cannot produce one.
const (
	NotConnectedReply = "System Error: Agent AI is not connected."
	BackendErrorReply = "I am having trouble with my network, please wait..."
	DeadlineReply     = "What is this? Why is my account having issues? Please explain."
	ConfusedReply     = "I don't understand. Can you explain what this is about?"
)

var (
	// ErrNotConnected indicates no generative backend is configured.
	ErrNotConnected = errors.New("agent backend not connected")

	// ErrEmptyHistory indicates there is no counterpart text to answer.
	ErrEmptyHistory = errors.New("no counterpart message to answer")
)

// fallbackFor returns the fixed reply for a degradation reason.
func fallbackFor(reason Reason) string {
	switch reason {
	case ReasonNotConnected:
		return NotConnectedReply
	case ReasonDeadlineExceeded, ReasonCanceled:
		return DeadlineReply
	case ReasonEmptyHistory:
		return ConfusedReply
	default:
		return BackendErrorReply
	}
}
