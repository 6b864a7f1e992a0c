// Package ranking provides the deterministic ordering of record result sets.
package ranking

import (
	"sort"

	"github.com/hyperjump/medfinder/internal/models"
)

// Ranker orders records by rating descending, then price ascending. A record
// missing a key sorts after every record that has it. Remaining ties keep
// their input (store) order.
type Ranker struct{}

// NewRanker creates a new Ranker.
func NewRanker() *Ranker {
	return &Ranker{}
}

// Rank returns a ranked copy of records. The input slice is not modified.
func (r *Ranker) Rank(records []*models.Record) []*models.Record {
	ranked := append([]*models.Record(nil), records...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return Less(ranked[i], ranked[j])
	})
	return ranked
}

// Less reports whether a ranks strictly before b.
func Less(a, b *models.Record) bool {
	if c := compareOptional(a.Rating, b.Rating, true); c != 0 {
		return c < 0
	}
	return compareOptional(a.Price, b.Price, false) < 0
}

// compareOptional orders two optional values; absent values go last
// regardless of direction.
func compareOptional(a, b *float64, descending bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a == *b:
		return 0
	}
	less := *a < *b
	if descending {
		less = !less
	}
	if less {
		return -1
	}
	return 1
}
