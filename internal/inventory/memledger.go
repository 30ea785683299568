package inventory

import (
	"context"
	"sort"
	"sync"
)

// MemLedger backs the movements endpoint when the API runs without Postgres.
type MemLedger struct {
	mu   sync.Mutex
	seen map[string]bool
	all  []Movement // arrival order
}

var _ Ledger = (*MemLedger)(nil)

func NewMemLedger() *MemLedger { return &MemLedger{seen: map[string]bool{}} }

func (l *MemLedger) Append(_ context.Context, m Movement) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.seen[m.EventID] {
		l.seen[m.EventID] = true
		l.all = append(l.all, m)
	}
	return nil
}

// ListByProduct orders by OccurredAt, then by arrival.
func (l *MemLedger) ListByProduct(_ context.Context, productID int64) ([]Movement, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []Movement{}
	for _, m := range l.all {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}
