package engagement

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/honeypot/plugin/ai/intel"
	"github.com/hrygo/honeypot/plugin/ai/metrics"
)

var metricsRangeAll = metrics.TimeRange{}

func TestTrigger_Default(t *testing.T) {
	trigger, err := NewTrigger("", 15)
	require.NoError(t, err)
	assert.Equal(t, DefaultTriggerExpr, trigger.Expr())

	tests := []struct {
		turns    int
		critical bool
		expected bool
	}{
		{1, false, false},
		{1, true, false},
		{2, true, false},
		{3, true, true},
		{3, false, false},
		{14, false, false},
		{15, false, true},
		{20, false, true},
	}

	for _, tt := range tests {
		fire, err := trigger.ShouldReport(tt.turns, tt.critical)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, fire, "turns=%d critical=%v", tt.turns, tt.critical)
	}
}

func TestTrigger_Custom(t *testing.T) {
	trigger, err := NewTrigger("critical_intel || turns >= max_turns", 5)
	require.NoError(t, err)

	fire, err := trigger.ShouldReport(1, true)
	require.NoError(t, err)
	assert.True(t, fire)

	fire, err = trigger.ShouldReport(5, false)
	require.NoError(t, err)
	assert.True(t, fire)
}

func TestTrigger_Invalid(t *testing.T) {
	for _, expr := range []string{"turns >=", "unknown_var > 1", "turns", `"yes"`} {
		_, err := NewTrigger(expr, 15)
		assert.Error(t, err, expr)
	}

	_, err := NewTrigger("", 0)
	assert.Error(t, err)
}

func TestBuildNotes(t *testing.T) {
	medium := buildNotes(intel.Extract("urgent verify your kyc"), 4)
	assert.True(t, strings.HasPrefix(medium, "Threat Actor Profile: Employed 3 urgency/authority keywords."))
	assert.Contains(t, medium, "Intelligence Value: Medium - Behavioral patterns captured.")
	assert.Contains(t, medium, "Sustained 4 message exchanges")

	high := buildNotes(intel.Extract("pay to fraudster@upi"), 3)
	assert.Contains(t, high, "Intelligence Value: High - Payment infrastructure exposed.")
}

func TestDeriveMetrics(t *testing.T) {
	assert.Equal(t, &Metrics{TotalMessagesExchanged: 7, EngagementDurationSeconds: 210}, deriveMetrics(7))
}

func TestJournal(t *testing.T) {
	j := newJournal(3)
	for _, id := range []string{"a", "b", "c", "d"} {
		j.add(&Report{ID: id})
	}

	ids := func(rs []*Report) []string {
		out := make([]string, 0, len(rs))
		for _, r := range rs {
			out = append(out, r.ID)
		}
		return out
	}
	assert.Equal(t, []string{"d", "c", "b"}, ids(j.list(0)))
	assert.Equal(t, []string{"d", "c"}, ids(j.list(2)))
	assert.Len(t, newJournal(0).list(10), 0)
}
