package fetch

import (
	"slices"
	"time"
)

// SortByStaleness orders ids from least to most recently fetched. A nil or
// missing timestamp means "never fetched" and sorts first. Ties keep input
// order.
func SortByStaleness(ids []string, lastFetch map[string]*time.Time) []string {
	out := slices.Clone(ids)
	slices.SortStableFunc(out, func(a, b string) int {
		return compareFetchTimes(lastFetch[a], lastFetch[b])
	})
	return out
}

func compareFetchTimes(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.Compare(*b)
	}
}
