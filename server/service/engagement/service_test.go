package engagement

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/honeypot/plugin/ai"
	"github.com/hrygo/honeypot/plugin/ai/agent"
	"github.com/hrygo/honeypot/plugin/ai/session"
	"github.com/hrygo/honeypot/plugin/callback"
)

// MockReporter is a mock implementation of callback.Reporter.
type MockReporter struct {
	mock.Mock
}

func (m *MockReporter) Deliver(ctx context.Context, payload callback.Payload) error {
	return m.Called(ctx, payload).Error(0)
}

type stubAgent struct {
	calls atomic.Int32
	text  string
}

func (a *stubAgent) GenerateReply(_ context.Context, _ []agent.Turn) agent.Reply {
	a.calls.Add(1)
	return agent.Reply{Text: a.text, Provider: "stub", Latency: time.Millisecond}
}

type fixedScore float64

func (f fixedScore) Evaluate(string) float64 { return float64(f) }

type fixture struct {
	svc      *service
	agent    *stubAgent
	reporter *MockReporter
	sessions *session.MemoryStore
}

func newFixture(t *testing.T, config Config, classifier Classifier) *fixture {
	t.Helper()
	f := &fixture{
		agent:    &stubAgent{text: "Which bank sir? I have two."},
		reporter: new(MockReporter),
		sessions: session.NewMemoryStore(),
	}
	svc, err := newService(config, Deps{
		Classifier: classifier,
		Agent:      f.agent,
		Sessions:   f.sessions,
		Reporter:   f.reporter,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func scammer(text string) *agent.Turn {
	return &agent.Turn{Sender: agent.SenderCounterpart, Text: text}
}

// neutralHistory returns n alternating turns with no intelligence in them.
func neutralHistory(n int) []agent.Turn {
	history := make([]agent.Turn, 0, n)
	for i := 0; i < n; i++ {
		sender := agent.SenderCounterpart
		if i%2 == 1 {
			sender = agent.SenderPersona
		}
		history = append(history, agent.Turn{Sender: sender, Text: fmt.Sprintf("hello there %c", 'a'+i%26)})
	}
	return history
}

func (f *fixture) state(t *testing.T, id string) session.State {
	t.Helper()
	summary, ok := f.sessions.Get(context.Background(), id)
	require.True(t, ok)
	return summary.State
}

func TestHandle_MalformedInputIsNotFlagged(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	ctx := context.Background()

	for name, req := range map[string]*Request{
		"nil request":   nil,
		"nil message":   {SessionID: "s"},
		"blank text":    {SessionID: "s", Message: scammer("   ")},
		"no session id": {Message: scammer("Your account is blocked, verify OTP now")},
	} {
		resp := f.svc.Handle(ctx, req)
		assert.False(t, resp.ScamDetected, name)
		assert.Equal(t, SafeNotes, resp.AgentNotes, name)
		assert.Empty(t, resp.AgentReply, name)
	}
	assert.Zero(t, f.agent.calls.Load())
}

func TestHandle_BenignMessageIsNotEngaged(t *testing.T) {
	f := newFixture(t, Config{}, nil)

	resp := f.svc.Handle(context.Background(), &Request{
		SessionID: "benign",
		Message:   scammer("Hi, are we still meeting for lunch?"),
	})

	assert.False(t, resp.ScamDetected)
	assert.Equal(t, SafeNotes, resp.AgentNotes)
	assert.Nil(t, resp.ExtractedIntelligence)
	assert.Nil(t, resp.EngagementMetrics)
	assert.Zero(t, f.agent.calls.Load())
	assert.Equal(t, session.StateNew, f.state(t, "benign"))
}

func TestHandle_FirstScamMessage(t *testing.T) {
	f := newFixture(t, Config{}, nil)

	resp := f.svc.Handle(context.Background(), &Request{
		SessionID: "s1",
		Message:   scammer("Your bank account ending 1234 is blocked. Verify immediately by sharing OTP."),
	})

	require.True(t, resp.ScamDetected)
	assert.Equal(t, "Which bank sir? I have two.", resp.AgentReply)
	require.NotNil(t, resp.ExtractedIntelligence)
	assert.Subset(t, resp.ExtractedIntelligence.SuspiciousKeywords, []string{"block", "verify", "otp"})
	assert.Equal(t, &Metrics{TotalMessagesExchanged: 1, EngagementDurationSeconds: 30}, resp.EngagementMetrics)
	assert.Contains(t, resp.AgentNotes, "Intelligence Value: Medium")
	assert.False(t, resp.Reported)
	assert.Equal(t, session.StateEngaging, f.state(t, "s1"))
	f.reporter.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything)
}

func TestHandle_ThresholdIsInclusive(t *testing.T) {
	at := newFixture(t, Config{Threshold: 0.7}, fixedScore(0.7))
	assert.True(t, at.svc.Handle(context.Background(), &Request{SessionID: "s", Message: scammer("x")}).ScamDetected)

	below := newFixture(t, Config{Threshold: 0.7}, fixedScore(0.69))
	assert.False(t, below.svc.Handle(context.Background(), &Request{SessionID: "s", Message: scammer("x")}).ScamDetected)
}

func TestHandle_StickyDecision(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	ctx := context.Background()

	// Prior history makes any message a scam, however neutral.
	resp := f.svc.Handle(ctx, &Request{
		SessionID: "sticky",
		Message:   scammer("ok thanks"),
		History:   neutralHistory(2),
	})
	assert.True(t, resp.ScamDetected)

	// An engaged session stays flagged even if the caller drops the history.
	resp = f.svc.Handle(ctx, &Request{SessionID: "sticky", Message: scammer("ok thanks")})
	assert.True(t, resp.ScamDetected)
	assert.Equal(t, int32(2), f.agent.calls.Load())
}

func TestHandle_CriticalIntelOnThirdTurnReports(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	f.reporter.On("Deliver", mock.Anything, mock.MatchedBy(func(p callback.Payload) bool {
		return p.SessionID == "s3" && p.ScamDetected && p.TotalMessagesExchanged == 3
	})).Return(nil).Once()

	resp := f.svc.Handle(context.Background(), &Request{
		SessionID: "s3",
		Message:   scammer("Send Rs. 10 to fraudster@upi or transfer to Account 987654321012 immediately."),
		History: []agent.Turn{
			{Sender: agent.SenderCounterpart, Text: "Your account is blocked."},
			{Sender: agent.SenderPersona, Text: "Oh no, what should I do?"},
		},
	})

	require.True(t, resp.ScamDetected)
	assert.Contains(t, resp.ExtractedIntelligence.UPIIDs, "fraudster@upi")
	assert.Contains(t, resp.ExtractedIntelligence.BankAccounts, "987654321012")
	assert.Contains(t, resp.AgentNotes, "Intelligence Value: High - Payment infrastructure exposed")
	assert.True(t, resp.Reported)
	assert.Equal(t, session.StateReported, f.state(t, "s3"))
	f.reporter.AssertExpectations(t)

	reports := f.svc.Reports(0)
	require.Len(t, reports, 1)
	assert.Equal(t, "s3", reports[0].SessionID)
	assert.NotEmpty(t, reports[0].ID)
	assert.Contains(t, reports[0].Intelligence.UPIIDs, "fraudster@upi")
}

func TestHandle_CriticalIntelBeforeFloorWaits(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	f.reporter.On("Deliver", mock.Anything, mock.Anything).Return(nil).Once()
	ctx := context.Background()

	first := scammer("Pay the fine to fraudster@upi now")
	resp := f.svc.Handle(ctx, &Request{SessionID: "floor", Message: first, History: neutralHistory(1)})
	assert.False(t, resp.Reported, "turn 2 is below the engagement floor")
	f.reporter.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything)

	resp = f.svc.Handle(ctx, &Request{SessionID: "floor", Message: scammer("Did you pay?"), History: neutralHistory(2)})
	assert.True(t, resp.Reported, "ledger keeps the UPI id from the earlier turn")
	f.reporter.AssertNumberOfCalls(t, "Deliver", 1)
}

func TestHandle_TurnCeilingReportsWithoutIntel(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	f.reporter.On("Deliver", mock.Anything, mock.Anything).Return(nil).Once()
	ctx := context.Background()

	resp := f.svc.Handle(ctx, &Request{SessionID: "long", Message: scammer("hello there"), History: neutralHistory(13)})
	assert.False(t, resp.Reported)
	assert.Equal(t, 14, resp.EngagementMetrics.TotalMessagesExchanged)

	resp = f.svc.Handle(ctx, &Request{SessionID: "long", Message: scammer("hello there"), History: neutralHistory(14)})
	assert.True(t, resp.Reported)
	assert.Equal(t, 15, resp.EngagementMetrics.TotalMessagesExchanged)
	assert.Equal(t, 450, resp.EngagementMetrics.EngagementDurationSeconds)
	assert.Contains(t, resp.AgentNotes, "Intelligence Value: Medium")
	f.reporter.AssertExpectations(t)
}

func TestHandle_ReportedSessionNeverReportsAgain(t *testing.T) {
	f := newFixture(t, Config{MaxTurns: 2}, nil)
	f.reporter.On("Deliver", mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		f.svc.Handle(ctx, &Request{SessionID: "done", Message: scammer("hello there"), History: neutralHistory(i)})
	}

	f.reporter.AssertNumberOfCalls(t, "Deliver", 1)
	assert.Equal(t, session.StateReported, f.state(t, "done"))
	assert.Len(t, f.svc.Reports(0), 1)
}

func TestHandle_DeliveryFailureRetriesOnNextTurn(t *testing.T) {
	f := newFixture(t, Config{MaxTurns: 2}, nil)
	f.reporter.On("Deliver", mock.Anything, mock.Anything).Return(errors.New("status 502")).Once()
	f.reporter.On("Deliver", mock.Anything, mock.Anything).Return(nil).Once()
	ctx := context.Background()

	resp := f.svc.Handle(ctx, &Request{SessionID: "retry", Message: scammer("hello there"), History: neutralHistory(1)})
	assert.True(t, resp.ScamDetected)
	assert.False(t, resp.Reported)
	assert.Equal(t, session.StateEngaging, f.state(t, "retry"))
	assert.Empty(t, f.svc.Reports(0))

	resp = f.svc.Handle(ctx, &Request{SessionID: "retry", Message: scammer("hello there"), History: neutralHistory(2)})
	assert.True(t, resp.Reported)
	assert.Equal(t, session.StateReported, f.state(t, "retry"))

	summary, ok := f.sessions.Get(ctx, "retry")
	require.True(t, ok)
	assert.Equal(t, 2, summary.DeliveryAttempts)
	f.reporter.AssertExpectations(t)
}

func TestHandle_ConcurrentDuplicatesDeliverOnce(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	f.reporter.On("Deliver", mock.Anything, mock.Anything).After(5 * time.Millisecond).Return(nil)

	req := &Request{
		SessionID: "dup",
		Message:   scammer("Send Rs. 10 to fraudster@upi immediately."),
		History:   neutralHistory(2),
	}

	var wg sync.WaitGroup
	var reported atomic.Int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if f.svc.Handle(context.Background(), req).Reported {
				reported.Add(1)
			}
		}()
	}
	wg.Wait()

	f.reporter.AssertNumberOfCalls(t, "Deliver", 1)
	assert.Equal(t, int32(1), reported.Load())
	assert.Equal(t, session.StateReported, f.state(t, "dup"))
}

func TestHandle_NoReporterConfigured(t *testing.T) {
	svc, err := newService(Config{MaxTurns: 1}, Deps{Agent: &stubAgent{text: "hm?"}})
	require.NoError(t, err)

	resp := svc.Handle(context.Background(), &Request{SessionID: "x", Message: scammer("hello"), History: neutralHistory(1)})
	assert.True(t, resp.ScamDetected)
	assert.False(t, resp.Reported)
}

// slowLLM never answers before its context ends.
type slowLLM struct{}

func (slowLLM) Chat(ctx context.Context, _ []ai.Message) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (slowLLM) Provider() string { return "slow" }

func TestHandle_BackendPastDeadlineStillReplies(t *testing.T) {
	persona := agent.NewPersonaAgent(slowLLM{}, agent.Options{Deadline: 50 * time.Millisecond})
	svc, err := newService(Config{}, Deps{Agent: persona, Reporter: new(MockReporter)})
	require.NoError(t, err)

	start := time.Now()
	resp := svc.Handle(context.Background(), &Request{
		SessionID: "slow",
		Message:   scammer("Your bank account ending 1234 is blocked. Verify immediately by sharing OTP."),
	})

	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, resp.ScamDetected)
	assert.Equal(t, agent.DeadlineReply, resp.AgentReply)
}

func TestHandle_RecordsMetrics(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	ctx := context.Background()

	f.svc.Handle(ctx, &Request{SessionID: "m1", Message: scammer("lunch?")})
	f.svc.Handle(ctx, &Request{SessionID: "m2", Message: scammer("urgent: verify KYC now or account blocked")})

	stats, err := f.svc.metrics.GetStats(ctx, metricsRangeAll)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.MessageCount)
	assert.Equal(t, int64(1), stats.ScamCount)
	assert.Equal(t, int64(1), stats.ReplyCount)
}

func TestNewService_InvalidTrigger(t *testing.T) {
	_, err := NewService(Config{TriggerExpr: "turns >="}, Deps{})
	assert.Error(t, err)

	_, err = NewService(Config{TriggerExpr: "turns + 1"}, Deps{})
	assert.ErrorContains(t, err, "must evaluate to bool")
}

func TestNewService_ThresholdRange(t *testing.T) {
	for _, threshold := range []float64{-0.1, 1.5} {
		_, err := NewService(Config{Threshold: threshold}, Deps{})
		assert.ErrorContains(t, err, "threshold must be within", threshold)
	}

	svc, err := newService(Config{}, Deps{})
	require.NoError(t, err)
	assert.Equal(t, DefaultThreshold, svc.config.Threshold)

	svc, err = newService(Config{Threshold: 1}, Deps{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, svc.config.Threshold)
}
