package agent

import (
	"context"
	"errors"
	"net"
	"strings"
)

// classifyError maps a backend failure to a degradation reason.
// Deadline and cancellation are checked first so a backend that wraps the
// context error is still reported as a timeout rather than a generic failure.
func classifyError(err error) Reason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ErrNotConnected):
		return ReasonNotConnected
	case errors.Is(err, ErrEmptyHistory):
		return ReasonEmptyHistory
	case errors.Is(err, context.DeadlineExceeded), isTimeoutError(err):
		return ReasonDeadlineExceeded
	case errors.Is(err, context.Canceled):
		return ReasonCanceled
	default:
		return ReasonBackendError
	}
}

// isTimeoutError checks for network-level timeouts that do not wrap the context error.
func isTimeoutError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"deadline exceeded", "i/o timeout", "operation timed out"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
