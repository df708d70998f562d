// Package intel extracts fraud intelligence (payment handles, bank accounts,
// links, phone numbers, risk keywords) from free text and merges it into a
// running, deduplicated ledger.
package intel

import (
	"encoding/json"
	"sort"
)

// Set is an unordered collection of distinct strings.
type Set map[string]struct{}

// NewSet creates a set from values, dropping duplicates.
func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts a value.
func (s Set) Add(v string) {
	s[v] = struct{}{}
}

// Has reports whether v is in the set.
func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Sorted returns the values in lexical order. Never nil.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// union returns a new set holding both inputs.
func union(a, b Set) Set {
	out := make(Set, len(a)+len(b))
	for v := range a {
		out[v] = struct{}{}
	}
	for v := range b {
		out[v] = struct{}{}
	}
	return out
}

// Ledger is the accumulated intelligence for one conversation.
// Values are only ever added; merging is set union per field.
type Ledger struct {
	UPIIDs             Set
	BankAccounts       Set
	PhishingLinks      Set
	PhoneNumbers       Set
	SuspiciousKeywords Set
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		UPIIDs:             Set{},
		BankAccounts:       Set{},
		PhishingLinks:      Set{},
		PhoneNumbers:       Set{},
		SuspiciousKeywords: Set{},
	}
}

// Merge returns the field-wise union of a and b. Neither input is modified.
// Merge is commutative, associative and idempotent; nil is the empty ledger.
func Merge(a, b *Ledger) *Ledger {
	if a == nil {
		a = NewLedger()
	}
	if b == nil {
		b = NewLedger()
	}
	return &Ledger{
		UPIIDs:             union(a.UPIIDs, b.UPIIDs),
		BankAccounts:       union(a.BankAccounts, b.BankAccounts),
		PhishingLinks:      union(a.PhishingLinks, b.PhishingLinks),
		PhoneNumbers:       union(a.PhoneNumbers, b.PhoneNumbers),
		SuspiciousKeywords: union(a.SuspiciousKeywords, b.SuspiciousKeywords),
	}
}

// Clone returns a deep copy.
func (l *Ledger) Clone() *Ledger {
	return Merge(l, nil)
}

// HasCriticalIntel reports whether a payment handle or bank account is known.
func (l *Ledger) HasCriticalIntel() bool {
	return l != nil && (len(l.UPIIDs) > 0 || len(l.BankAccounts) > 0)
}

// Snapshot is the wire form of a ledger, with sorted arrays.
type Snapshot struct {
	BankAccounts       []string `json:"bankAccounts"`
	UPIIDs             []string `json:"upiIds"`
	PhishingLinks      []string `json:"phishingLinks"`
	PhoneNumbers       []string `json:"phoneNumbers"`
	SuspiciousKeywords []string `json:"suspiciousKeywords"`
}

// Snapshot freezes the ledger into its wire form.
func (l *Ledger) Snapshot() Snapshot {
	if l == nil {
		l = NewLedger()
	}
	return Snapshot{
		BankAccounts:       l.BankAccounts.Sorted(),
		UPIIDs:             l.UPIIDs.Sorted(),
		PhishingLinks:      l.PhishingLinks.Sorted(),
		PhoneNumbers:       l.PhoneNumbers.Sorted(),
		SuspiciousKeywords: l.SuspiciousKeywords.Sorted(),
	}
}

// MarshalJSON encodes the ledger as its snapshot.
func (l *Ledger) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Snapshot())
}
