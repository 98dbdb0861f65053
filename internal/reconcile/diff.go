package reconcile

import (
	"github.com/conciliar-dev/conciliar/internal/model"
)

// Multiset indexes transactions by MatchKey. Each key holds a FIFO queue of
// remaining instances, so duplicates are consumed in input order.
type Multiset struct {
	queues map[model.MatchKey][]model.Transaction
}

// NewMultiset indexes records.
func NewMultiset(records []model.Transaction) *Multiset {
	m := &Multiset{queues: make(map[model.MatchKey][]model.Transaction, len(records))}
	for _, r := range records {
		k := r.Key()
		m.queues[k] = append(m.queues[k], r)
	}
	return m
}

// Take removes and returns the oldest remaining instance of key.
func (m *Multiset) Take(key model.MatchKey) (model.Transaction, bool) {
	q := m.queues[key]
	if len(q) == 0 {
		return model.Transaction{}, false
	}
	head := q[0]
	if len(q) == 1 {
		delete(m.queues, key)
	} else {
		m.queues[key] = q[1:]
	}
	return head, true
}

// DiffRecords returns the records of source with no same-key counterpart left
// in target. Each target instance pairs with at most one source record.
// The result keeps source order.
func DiffRecords(source, target []model.Transaction) []model.Transaction {
	index := NewMultiset(target)
	var unmatched []model.Transaction
	for _, r := range source {
		if _, ok := index.Take(r.Key()); ok {
			continue
		}
		unmatched = append(unmatched, r)
	}
	return unmatched
}
