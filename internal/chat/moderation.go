package chat

import (
	"sort"

	"github.com/ziadkadry99/diamond-desk/internal/llm"
)

// ScoreSet is one moderation check's category scores, in the moderation
// vocabulary's enumeration order.
type ScoreSet []llm.CategoryScore

// Max returns the highest score, or 0 for an empty set.
func (s ScoreSet) Max() float64 {
	var m float64
	for _, c := range s {
		if c.Score > m {
			m = c.Score
		}
	}
	return m
}

// Exceeds reports whether any category scores above Threshold.
func (s ScoreSet) Exceeds() bool {
	return s.Max() > Threshold
}

// Top returns the n highest-scoring categories, highest first. Equal scores
// keep their enumeration order.
func (s ScoreSet) Top(n int) ScoreSet {
	sorted := make(ScoreSet, len(s))
	copy(sorted, s)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// Categories returns the category names in set order.
func (s ScoreSet) Categories() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Category
	}
	return names
}
