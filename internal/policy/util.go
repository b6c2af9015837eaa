package policy

import (
	"math"
	"sort"

	"github.com/clabrugere/go-bandits/internal/domain"
)

// sortedByTimestamp returns a copy of updates sorted ascending by
// timestamp. Comparison is NaN-safe: a NaN timestamp sorts as greater than
// any non-NaN value, matching Rust's total_cmp used by the original
// implementation's update_batch.
func sortedByTimestamp(updates []domain.BatchUpdateElement) []domain.BatchUpdateElement {
	sorted := make([]domain.BatchUpdateElement, len(updates))
	copy(sorted, updates)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Timestamp, sorted[j].Timestamp
		if math.IsNaN(a) {
			return false
		}
		if math.IsNaN(b) {
			return true
		}
		return a < b
	})
	return sorted
}

func sortArmIDs(ids []domain.ArmID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
