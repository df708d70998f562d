// Package agent drives the honeypot persona: given the conversation so far it
// produces the next in-character reply under a hard deadline, substituting a
// fixed fallback whenever the generative backend fails or is too slow.
package agent

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/hrygo/honeypot/plugin/ai"
	"github.com/hrygo/honeypot/plugin/ai/timeout"
)

// DefaultMaxConcurrent bounds in-flight backend calls across all sessions.
const DefaultMaxConcurrent = 16

// Options configures a PersonaAgent.
type Options struct {
	// Deadline is the wall-clock budget for one reply, including the wait for a
	// concurrency slot. Zero means timeout.ReplyDeadline.
	Deadline time.Duration
	// MaxConcurrent bounds in-flight backend calls. Zero means DefaultMaxConcurrent.
	MaxConcurrent int64
	Logger        *slog.Logger
}

// PersonaAgent generates persona replies through one LLMService.
// PersonaAgent 通过单个 LLMService 生成人设回复。
//
// It is safe for concurrent use. The backend handle is fixed at construction.
type PersonaAgent struct {
	llm      ai.LLMService
	sem      *semaphore.Weighted
	deadline time.Duration
	logger   *slog.Logger
}

// NewPersonaAgent creates an agent. A nil llm yields an agent that reports the
// unconnected state on every call instead of failing.
func NewPersonaAgent(llm ai.LLMService, opts Options) *PersonaAgent {
	if opts.Deadline <= 0 {
		opts.Deadline = timeout.ReplyDeadline
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &PersonaAgent{
		llm:      llm,
		sem:      semaphore.NewWeighted(opts.MaxConcurrent),
		deadline: opts.Deadline,
		logger:   opts.Logger,
	}
}

// Connected reports whether a backend is configured.
func (a *PersonaAgent) Connected() bool {
	return a.llm != nil
}

// Provider returns the backend name, or "" when not connected.
func (a *PersonaAgent) Provider() string {
	if a.llm == nil {
		return ""
	}
	return a.llm.Provider()
}

type chatResult struct {
	text string
	err  error
}

// GenerateReply returns the persona's next message for history, which must end
// with (or at least contain) the counterpart's latest turn.
//
// It never returns an error and never blocks longer than the configured
// deadline: on expiry the in-flight backend call is abandoned, its context is
// canceled, and any late response is discarded.
func (a *PersonaAgent) GenerateReply(ctx context.Context, history []Turn) Reply {
	start := time.Now()

	if a.llm == nil {
		return a.degrade(ErrNotConnected, start, len(history))
	}
	if !hasCounterpartText(history) {
		return a.degrade(ErrEmptyHistory, start, len(history))
	}

	ctx, cancel := context.WithTimeout(ctx, a.deadline)
	defer cancel()

	messages := BuildMessages(history)
	done := make(chan chatResult, 1)
	go func() {
		if err := a.sem.Acquire(ctx, 1); err != nil {
			done <- chatResult{err: err}
			return
		}
		defer a.sem.Release(1)

		text, err := a.llm.Chat(ctx, messages)
		done <- chatResult{text: text, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return a.degrade(res.err, start, len(history))
		}
		reply := Reply{
			Text:     res.text,
			Provider: a.llm.Provider(),
			Latency:  time.Since(start),
		}
		a.logger.Debug("persona reply generated",
			"provider", reply.Provider,
			"history_len", len(history),
			"duration_ms", reply.Latency.Milliseconds(),
		)
		return reply
	case <-ctx.Done():
		return a.degrade(ctx.Err(), start, len(history))
	}
}

func (a *PersonaAgent) degrade(err error, start time.Time, historyLen int) Reply {
	reason := classifyError(err)
	reply := Reply{
		Text:     fallbackFor(reason),
		Provider: a.Provider(),
		Degraded: true,
		Reason:   reason,
		Latency:  time.Since(start),
	}
	a.logger.Warn("persona reply degraded",
		"provider", reply.Provider,
		"reason", string(reason),
		"history_len", historyLen,
		"duration_ms", reply.Latency.Milliseconds(),
		"error", err,
	)
	return reply
}
