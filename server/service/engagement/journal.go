package engagement

import "sync"

// DefaultJournalSize bounds how many delivered reports are kept.
const DefaultJournalSize = 256

// journal is a bounded, newest-first record of delivered reports.
type journal struct {
	mu      sync.Mutex
	size    int
	reports []*Report // oldest first
}

func newJournal(size int) *journal {
	if size <= 0 {
		size = DefaultJournalSize
	}
	return &journal{size: size}
}

func (j *journal) add(r *Report) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.reports = append(j.reports, r)
	if overflow := len(j.reports) - j.size; overflow > 0 {
		j.reports = append(j.reports[:0:0], j.reports[overflow:]...)
	}
}

// list returns up to limit reports, newest first. limit <= 0 means all.
func (j *journal) list(limit int) []*Report {
	j.mu.Lock()
	defer j.mu.Unlock()

	n := len(j.reports)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*Report, 0, n)
	for i := len(j.reports) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, j.reports[i])
	}
	return out
}
