package intel

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ledgerOf(upi, bank, links, phones, keywords []string) *Ledger {
	return &Ledger{
		UPIIDs:             NewSet(upi...),
		BankAccounts:       NewSet(bank...),
		PhishingLinks:      NewSet(links...),
		PhoneNumbers:       NewSet(phones...),
		SuspiciousKeywords: NewSet(keywords...),
	}
}

func sampleLedgers() []*Ledger {
	return []*Ledger{
		NewLedger(),
		ledgerOf([]string{"a@upi"}, nil, nil, []string{"9876543210"}, []string{"otp"}),
		ledgerOf([]string{"a@upi", "b@paytm"}, []string{"123456789012"}, []string{"http://x"}, nil, []string{"kyc", "otp"}),
		ledgerOf(nil, []string{"98765432109"}, []string{"www.y.in"}, []string{"+919876543210"}, nil),
	}
}

func isSuperset(t *testing.T, super, sub Set) {
	t.Helper()
	for v := range sub {
		assert.True(t, super.Has(v), "missing %q", v)
	}
}

func TestMerge_Commutative(t *testing.T) {
	for _, a := range sampleLedgers() {
		for _, b := range sampleLedgers() {
			if diff := cmp.Diff(Merge(a, b).Snapshot(), Merge(b, a).Snapshot()); diff != "" {
				t.Errorf("merge not commutative:\n%s", diff)
			}
		}
	}
}

func TestMerge_Associative(t *testing.T) {
	ls := sampleLedgers()
	left := Merge(Merge(ls[1], ls[2]), ls[3])
	right := Merge(ls[1], Merge(ls[2], ls[3]))
	assert.Empty(t, cmp.Diff(left.Snapshot(), right.Snapshot()))
}

func TestMerge_IdempotentAndMonotonic(t *testing.T) {
	for _, a := range sampleLedgers() {
		assert.Empty(t, cmp.Diff(a.Snapshot(), Merge(a, a).Snapshot()))

		for _, b := range sampleLedgers() {
			m := Merge(a, b)
			for _, src := range []*Ledger{a, b} {
				isSuperset(t, m.UPIIDs, src.UPIIDs)
				isSuperset(t, m.BankAccounts, src.BankAccounts)
				isSuperset(t, m.PhishingLinks, src.PhishingLinks)
				isSuperset(t, m.PhoneNumbers, src.PhoneNumbers)
				isSuperset(t, m.SuspiciousKeywords, src.SuspiciousKeywords)
			}
		}
	}
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	a := ledgerOf([]string{"a@upi"}, nil, nil, nil, nil)
	b := ledgerOf([]string{"b@upi"}, nil, nil, nil, nil)
	_ = Merge(a, b)
	assert.Equal(t, []string{"a@upi"}, a.UPIIDs.Sorted())
	assert.Equal(t, []string{"b@upi"}, b.UPIIDs.Sorted())
}

func TestMerge_NilIsEmpty(t *testing.T) {
	a := ledgerOf([]string{"a@upi"}, nil, nil, nil, nil)
	assert.Empty(t, cmp.Diff(a.Snapshot(), Merge(nil, a).Snapshot()))
	assert.Empty(t, cmp.Diff(NewLedger().Snapshot(), Merge(nil, nil).Snapshot()))
}

func TestLedger_HasCriticalIntel(t *testing.T) {
	var nilLedger *Ledger
	assert.False(t, nilLedger.HasCriticalIntel())
	assert.False(t, ledgerOf(nil, nil, []string{"http://x"}, []string{"9876543210"}, []string{"otp"}).HasCriticalIntel())
	assert.True(t, ledgerOf([]string{"a@upi"}, nil, nil, nil, nil).HasCriticalIntel())
	assert.True(t, ledgerOf(nil, []string{"123456789012"}, nil, nil, nil).HasCriticalIntel())
}

func TestLedger_MarshalJSON(t *testing.T) {
	l := ledgerOf([]string{"b@upi", "a@upi"}, nil, nil, nil, []string{"otp"})
	data, err := json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"bankAccounts": [],
		"upiIds": ["a@upi", "b@upi"],
		"phishingLinks": [],
		"phoneNumbers": [],
		"suspiciousKeywords": ["otp"]
	}`, string(data))
}
