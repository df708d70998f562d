package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetector_Evaluate(t *testing.T) {
	d := New()

	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{
			name:     "neutral greeting",
			input:    "Hello, how was the cricket match yesterday?",
			expected: 0.0,
		},
		{
			name:     "single keyword",
			input:    "You are a lottery participant",
			expected: 0.5,
		},
		{
			name:     "urgency only",
			input:    "See you today",
			expected: 0.2,
		},
		{
			name:     "financial only",
			input:    "My bank opens late",
			expected: 0.2,
		},
		{
			name:     "five keywords",
			input:    "urgent kyc otp lottery winner",
			expected: 0.9,
		},
		{
			name:     "keyword count is capped at five",
			input:    "urgent kyc otp lottery winner prize suspend",
			expected: 0.9,
		},
		{
			// "refund" contains "fund", so it also fires the financial pattern.
			name:     "refund counts as keyword and financial context",
			input:    "refund",
			expected: 0.7,
		},
		{
			name:     "three keywords alone reach the default threshold",
			input:    "kyc otp lottery",
			expected: 0.7,
		},
		{
			name:     "score is clamped to one",
			input:    "URGENT: verify KYC now or your bank account will be blocked, share OTP",
			expected: 1.0,
		},
		{
			name:     "rupee symbol counts as financial context",
			input:    "pay ₹500",
			expected: 0.2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, d.Evaluate(tt.input), 1e-9)
		})
	}
}

func TestDetector_ScoreBounds(t *testing.T) {
	d := New()
	inputs := []string{
		"",
		"   ",
		"click link to claim prize immediately, transfer rs. 10 to fund account",
		"इस संदेश में कुछ नहीं है",
	}
	for _, in := range inputs {
		score := d.Evaluate(in)
		assert.GreaterOrEqual(t, score, 0.0, in)
		assert.LessOrEqual(t, score, 1.0, in)
	}
}

func TestDetector_StrongSignalsScoreHigh(t *testing.T) {
	d := New()

	// Three risk keywords plus urgency plus financial context.
	score := d.Evaluate("Verify your KYC and share the OTP today or the bank will suspend you")
	assert.GreaterOrEqual(t, score, 0.9)
	assert.LessOrEqual(t, score, 1.0)
}

func TestDetector_Deterministic(t *testing.T) {
	d := New()
	msg := "Your electricity bill is unpaid, disconnect tonight"
	assert.Equal(t, d.Evaluate(msg), d.Evaluate(msg))
}

func TestDetector_Explain(t *testing.T) {
	d := New()

	v := d.Explain("Your bank account ending 1234 is blocked. Verify immediately by sharing OTP.")
	assert.GreaterOrEqual(t, v.Score, 0.7)
	assert.True(t, v.UrgencyMatched)
	assert.True(t, v.FinancialMatched)
	assert.Subset(t, v.MatchedKeywords, []string{"block", "verify", "otp", "immediately"})

	v = d.Explain("lunch at noon?")
	assert.Empty(t, v.MatchedKeywords)
	assert.False(t, v.UrgencyMatched)
	assert.False(t, v.FinancialMatched)
	assert.Zero(t, v.Score)
}
