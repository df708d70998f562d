// Package detector scores inbound messages for scam likelihood.
// Scoring is rule-based: keyword hits plus urgency and financial context
// patterns. It is a cheap first-pass filter, not a trained model.
package detector

import (
	"math"
	"regexp"
	"strings"
)

const (
	keywordBase     = 0.4
	keywordStep     = 0.1
	keywordCap      = 5
	urgencyWeight   = 0.2
	financialWeight = 0.2
	maxScore        = 1.0
)

// scamKeywords are urgency, authority and financial-instrument terms.
var scamKeywords = []string{
	"urgent", "immediately", "block", "suspend", "kyc", "verify", "pan card",
	"adhaar", "aadhar", "otp", "credit card", "debit card", "upi", "lottery",
	"winner", "prize", "refund", "electricity", "bill", "disconnect",
	"account blocked", "click link", "verify now",
}

var (
	urgencyPattern   = regexp.MustCompile(`today|now|24 hours|immediate|soon`)
	financialPattern = regexp.MustCompile(`bank|account|rs\.|rupees|fund|transfer|payment|₹`)
)

// Verdict explains how a score was reached.
type Verdict struct {
	Score            float64  `json:"score"`
	MatchedKeywords  []string `json:"matched_keywords"`
	UrgencyMatched   bool     `json:"urgency_matched"`
	FinancialMatched bool     `json:"financial_matched"`
}

// Detector scores messages. It is stateless and safe for concurrent use.
type Detector struct {
	keywords []string
}

// New creates a detector with the built-in keyword list.
func New() *Detector {
	return &Detector{keywords: scamKeywords}
}

// Evaluate returns a scam score in [0, 1]. It never fails.
func (d *Detector) Evaluate(text string) float64 {
	return d.Explain(text).Score
}

// Explain scores text and reports which signal families fired.
func (d *Detector) Explain(text string) Verdict {
	lower := strings.ToLower(text)
	v := Verdict{}

	for _, kw := range d.keywords {
		if strings.Contains(lower, kw) {
			v.MatchedKeywords = append(v.MatchedKeywords, kw)
		}
	}
	if n := len(v.MatchedKeywords); n > 0 {
		v.Score += keywordBase + float64(min(n, keywordCap))*keywordStep
	}

	if urgencyPattern.MatchString(lower) {
		v.UrgencyMatched = true
		v.Score += urgencyWeight
	}

	if financialPattern.MatchString(lower) {
		v.FinancialMatched = true
		v.Score += financialWeight
	}

	// Round away float drift so 0.4+0.3 compares equal to a 0.7 threshold.
	v.Score = math.Min(math.Round(v.Score*100)/100, maxScore)
	return v
}
