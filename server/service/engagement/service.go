// Package engagement is the session orchestrator of the honeypot. For every
// inbound message it decides whether the conversation is a scam, asks the
// persona for a reply, folds newly found intelligence into the session
// ledger and dispatches the final report at most once per session.
//
// Per-session state machine:
//
//	NEW -> ENGAGING -> REPORTED (terminal)
//
// The decision is sticky: once a session has prior turns or has engaged, every
// later message is treated as a scam regardless of its score.
package engagement

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/honeypot/plugin/ai/agent"
	"github.com/hrygo/honeypot/plugin/ai/detector"
	"github.com/hrygo/honeypot/plugin/ai/intel"
	"github.com/hrygo/honeypot/plugin/ai/metrics"
	"github.com/hrygo/honeypot/plugin/ai/session"
	"github.com/hrygo/honeypot/plugin/callback"
	apierrors "github.com/hrygo/honeypot/server/internal/errors"
)

const (
	// DefaultThreshold is the minimum score for a fresh session to be engaged.
	DefaultThreshold = 0.7
	// DefaultMaxTurns is the turn ceiling after which a report is always due.
	DefaultMaxTurns = 15
)

// Config holds orchestrator policy.
type Config struct {
	// Threshold gates fresh sessions; a score equal to it counts as a scam.
	// Zero means DefaultThreshold; values outside [0, 1] are rejected.
	Threshold float64
	// MaxTurns is the report ceiling used by the trigger.
	MaxTurns int
	// TriggerExpr overrides DefaultTriggerExpr when set.
	TriggerExpr string
	// JournalSize bounds the delivered-report journal.
	JournalSize int
}

// Deps are the collaborators of the orchestrator.
type Deps struct {
	Classifier Classifier
	Agent      Agent
	Sessions   session.SessionService
	Reporter   callback.Reporter
	Metrics    metrics.MetricsService
	Logger     *slog.Logger
}

type service struct {
	config     Config
	classifier Classifier
	agent      Agent
	sessions   session.SessionService
	reporter   callback.Reporter
	metrics    metrics.MetricsService
	trigger    *Trigger
	journal    *journal
	logger     *slog.Logger
	now        func() time.Time
}

var _ Service = (*service)(nil)

// NewService creates the orchestrator. It fails only when the trigger
// expression does not compile.
func NewService(config Config, deps Deps) (Service, error) {
	return newService(config, deps)
}

func newService(config Config, deps Deps) (*service, error) {
	if config.Threshold < 0 || config.Threshold > 1 {
		return nil, errors.Errorf("threshold must be within (0, 1], got %v", config.Threshold)
	}
	if config.Threshold == 0 {
		config.Threshold = DefaultThreshold
	}
	if config.MaxTurns <= 0 {
		config.MaxTurns = DefaultMaxTurns
	}
	trigger, err := NewTrigger(config.TriggerExpr, config.MaxTurns)
	if err != nil {
		return nil, err
	}
	if deps.Classifier == nil {
		deps.Classifier = detector.New()
	}
	if deps.Agent == nil {
		deps.Agent = agent.NewPersonaAgent(nil, agent.Options{Logger: deps.Logger})
	}
	if deps.Sessions == nil {
		deps.Sessions = session.NewMemoryStore()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewService(0)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	return &service{
		config:     config,
		classifier: deps.Classifier,
		agent:      deps.Agent,
		sessions:   deps.Sessions,
		reporter:   deps.Reporter,
		metrics:    deps.Metrics,
		trigger:    trigger,
		journal:    newJournal(config.JournalSize),
		logger:     deps.Logger,
		now:        time.Now,
	}, nil
}

// Handle implements Service.
func (s *service) Handle(ctx context.Context, req *Request) *Response {
	if req == nil || req.SessionID == "" || req.Message == nil || strings.TrimSpace(req.Message.Text) == "" {
		return &Response{ScamDetected: false, AgentNotes: SafeNotes}
	}
	logger := s.logger.With("session_id", req.SessionID)
	current := *req.Message

	// Step 1: create or look up the session; note whether it already engaged.
	var engaged bool
	if err := s.sessions.Update(ctx, req.SessionID, func(c *session.Conversation) error {
		engaged = c.State != session.StateNew
		return nil
	}); err != nil {
		logger.Warn("session lookup failed", "error", err)
	}

	// Step 2: score, then apply stickiness.
	score := s.classifier.Evaluate(current.Text)
	isScam := engaged || len(req.History) > 0 || score >= s.config.Threshold
	s.metrics.RecordVerdict(ctx, isScam)
	logger.Debug("message scored",
		"scam_score", score,
		"sticky", engaged || len(req.History) > 0,
		"scam", isScam,
	)

	// Step 3: non-scam traffic never reaches the agent or the extractor.
	if !isScam {
		return &Response{ScamDetected: false, AgentNotes: SafeNotes}
	}

	// Step 4: persona reply, without holding the session lock.
	dialogue := make([]agent.Turn, 0, len(req.History)+1)
	dialogue = append(dialogue, req.History...)
	dialogue = append(dialogue, current)
	reply := s.agent.GenerateReply(ctx, dialogue)
	s.metrics.RecordReply(ctx, reply.Provider, reply.Latency, reply.Degraded, string(reply.Reason))

	// Step 5: re-extract over everything seen so far.
	texts := make([]string, 0, len(dialogue))
	for _, t := range dialogue {
		texts = append(texts, t.Text)
	}
	found := intel.ExtractAll(texts)

	// Step 6: total turns for this request.
	turns := len(req.History) + 1
	resp := &Response{
		ScamDetected:      true,
		AgentReply:        reply.Text,
		EngagementMetrics: deriveMetrics(turns),
	}

	// Steps 7-8 run under the session lock so the REPORTED check-and-set is atomic.
	ledger := found
	err := s.sessions.Update(ctx, req.SessionID, func(c *session.Conversation) error {
		c.Engage()
		c.Record(req.History, current, agent.Turn{Sender: agent.SenderPersona, Text: reply.Text})
		c.MergeIntel(found)
		c.ObserveTurns(turns)
		ledger = c.Ledger.Clone()

		if c.Reported() {
			return nil
		}
		fire, err := s.trigger.ShouldReport(turns, c.Ledger.HasCriticalIntel())
		if err != nil {
			logger.Error("report trigger failed", "error", err)
			return nil
		}
		if fire {
			resp.Reported = s.dispatch(ctx, logger, c, turns)
		}
		return nil
	})
	if err != nil {
		logger.Warn("session update failed", "error", err)
	}

	resp.AgentNotes = buildNotes(ledger, turns)
	snapshot := ledger.Snapshot()
	resp.ExtractedIntelligence = &snapshot
	return resp
}

// dispatch builds the report and hands it to the reporter. It must run under
// the session lock. The session becomes REPORTED only on success; on failure
// it stays ENGAGING and the trigger is evaluated again on the next message.
func (s *service) dispatch(ctx context.Context, logger *slog.Logger, c *session.Conversation, turns int) bool {
	report := &Report{
		ID:                     shortuuid.New(),
		SessionID:              c.ID,
		TotalMessagesExchanged: turns,
		Intelligence:           c.Ledger.Snapshot(),
		AgentNotes:             buildNotes(c.Ledger, turns),
		CreatedAt:              s.now(),
	}
	c.DeliveryAttempts++

	if s.reporter == nil {
		logger.Warn("report due but no reporter configured", "turns", turns)
		return false
	}

	logger.Info("report triggered",
		"turns", turns,
		"critical_intel", c.Ledger.HasCriticalIntel(),
		"attempt", c.DeliveryAttempts,
	)

	start := time.Now()
	err := s.reporter.Deliver(ctx, callback.Payload{
		SessionID:              report.SessionID,
		ScamDetected:           true,
		TotalMessagesExchanged: report.TotalMessagesExchanged,
		ExtractedIntelligence:  report.Intelligence,
		AgentNotes:             report.AgentNotes,
	})
	s.metrics.RecordDelivery(ctx, time.Since(start), err == nil)
	if err != nil {
		logger.Warn("report delivery failed, will retry on next message",
			"error", apierrors.ReportDeliveryFailed(c.ID, err),
			"attempt", c.DeliveryAttempts,
		)
		return false
	}

	c.MarkReported(report.ID, report.CreatedAt)
	s.journal.add(report)
	return true
}

// Reports implements Service.
func (s *service) Reports(limit int) []*Report {
	return s.journal.list(limit)
}
