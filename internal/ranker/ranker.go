// Package ranker orders (key, score) pairs from highest to lowest score.
// One sort implementation serves document top-term lists, corpus-wide
// top-word reporting and query result ranking.
package ranker

import (
	"cmp"
	"slices"
)

// Pair associates a key (a term or a document ID) with a score.
type Pair[K any] struct {
	Key   K       `json:"key"`
	Score float64 `json:"score"`
}

// SortDescending sorts pairs in place by Score, highest first. It is a
// Hoare-partition quicksort with the middle element of each sub-range as
// pivot; elements equal to the pivot stop both scans and get swapped, so
// the order among equal scores is not preserved.
func SortDescending[K any](pairs []Pair[K]) {
	if len(pairs) < 2 {
		return
	}
	quickSort(pairs, 0, len(pairs)-1)
}

func quickSort[K any](pairs []Pair[K], low, high int) {
	i, j := low, high
	pivot := pairs[low+(high-low)/2].Score
	for i <= j {
		for pairs[i].Score > pivot {
			i++
		}
		for pairs[j].Score < pivot {
			j--
		}
		if i <= j {
			pairs[i], pairs[j] = pairs[j], pairs[i]
			i++
			j--
		}
	}
	if low < j {
		quickSort(pairs, low, j)
	}
	if i < high {
		quickSort(pairs, i, high)
	}
}

// Top returns the first n pairs, or all of them when fewer are available.
// A non-positive n yields an empty slice.
func Top[K any](pairs []Pair[K], n int) []Pair[K] {
	if n <= 0 {
		return []Pair[K]{}
	}
	if n > len(pairs) {
		n = len(pairs)
	}
	return pairs[:n]
}

// FromCounts converts a frequency table into pairs sorted by count. Keys
// are laid out in ascending order before sorting, so equal counts always
// come out in the same order for the same table.
func FromCounts[K cmp.Ordered](counts map[K]int) []Pair[K] {
	keys := make([]K, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	pairs := make([]Pair[K], len(keys))
	for i, key := range keys {
		pairs[i] = Pair[K]{Key: key, Score: float64(counts[key])}
	}
	SortDescending(pairs)
	return pairs
}
