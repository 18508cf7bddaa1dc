package schedule

import (
	"slices"
	"time"
)

// Item is anything with an optional next-due time.
type Item interface {
	NextDue() (time.Time, bool)
}

// SelectDue orders items with due or overdue ones first, then by due time
// ascending. Items without a due time count as due now. Ties keep their
// input order. The result holds at most limit items; limit <= 0 keeps all.
func SelectDue[T Item](items []T, now time.Time, limit int) []T {
	type keyed struct {
		item T
		due  bool
		at   time.Time
	}
	ks := make([]keyed, len(items))
	for i, it := range items {
		at, ok := it.NextDue()
		if !ok {
			at = now
		}
		ks[i] = keyed{item: it, due: !at.After(now), at: at}
	}

	slices.SortStableFunc(ks, func(a, b keyed) int {
		if a.due != b.due {
			if a.due {
				return -1
			}
			return 1
		}
		return a.at.Compare(b.at)
	})

	if limit > 0 && len(ks) > limit {
		ks = ks[:limit]
	}
	out := make([]T, len(ks))
	for i, k := range ks {
		out[i] = k.item
	}
	return out
}
