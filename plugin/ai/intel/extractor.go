package intel

import (
	"regexp"
	"strings"
)

// Pre-compiled extraction patterns.
var (
	// local-part@provider, e.g. fraudster@upi or 98xxxx@paytm.
	upiPattern = regexp.MustCompile(`[a-zA-Z0-9.\-_]{2,256}@[a-zA-Z]{2,64}`)

	// Indian mobile numbers with an optional +91 prefix.
	phonePattern = regexp.MustCompile(`(?:\+91[\-\s]?)?[6-9]\d{9}\b`)

	urlPattern = regexp.MustCompile(`https?://(?:[-\w.]|%[\da-fA-F]{2})+[^\s]*|www\.[-\w]+\.[-\w]+[^\s]*`)

	// 9-18 digits right after an account-context word.
	accountContextPattern = regexp.MustCompile(`(?i)(?:account|ac|a/c|no|number)[\s.:-]*([0-9]{9,18})`)

	// Bare 11-18 digit runs. Longer than a 10-digit phone number, so this
	// trades precision for recall: order and tracking ids match too.
	longDigitsPattern = regexp.MustCompile(`\b\d{11,18}\b`)

	phoneSeparators = strings.NewReplacer(" ", "", "-", "")
)

// riskKeywords is the vocabulary reported as suspicious keywords.
var riskKeywords = []string{
	"urgent", "verify", "block", "kyc", "otp", "refund", "password", "pin", "cvv", "expire",
}

// Extract scans text and returns a fresh ledger of everything found.
// It is a pure function; running it twice on the same text yields equal ledgers.
func Extract(text string) *Ledger {
	l := NewLedger()

	for _, m := range upiPattern.FindAllString(text, -1) {
		l.UPIIDs.Add(m)
	}

	for _, m := range phonePattern.FindAllString(text, -1) {
		l.PhoneNumbers.Add(phoneSeparators.Replace(m))
	}

	for _, m := range urlPattern.FindAllString(text, -1) {
		l.PhishingLinks.Add(m)
	}

	for _, m := range accountContextPattern.FindAllStringSubmatch(text, -1) {
		l.BankAccounts.Add(m[1])
	}
	for _, m := range longDigitsPattern.FindAllString(text, -1) {
		l.BankAccounts.Add(m)
	}

	lower := strings.ToLower(text)
	for _, kw := range riskKeywords {
		if strings.Contains(lower, kw) {
			l.SuspiciousKeywords.Add(kw)
		}
	}

	return l
}

// ExtractAll extracts over the space-joined concatenation of texts.
func ExtractAll(texts []string) *Ledger {
	return Extract(strings.Join(texts, " "))
}
