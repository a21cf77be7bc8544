package analytics

import (
	"math"
	"sort"

	"github.com/helixir/author-analytics-service/internal/corpus"
	"github.com/helixir/author-analytics-service/internal/domain"
)

// CitationConcentrationIndex returns the largest n such that the n-th
// largest count is at least n, an h-index-style statistic over the citation
// counts of citing papers. Empty input yields 0. The input is not modified.
func CitationConcentrationIndex(counts []int) int {
	sorted := make([]int, len(counts))
	copy(sorted, counts)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	index := 0
	for i, count := range sorted {
		if count < i+1 {
			break
		}
		index = i + 1
	}
	return index
}

// SelfCitationCounts classifies the flattened citing list against the seed
// corpus and returns the self and total citation counts.
func SelfCitationCounts(citing []domain.Work, idx *corpus.Index) (self, total int) {
	for _, work := range citing {
		total++
		if idx.ContainsID(work.ID) {
			self++
		}
	}
	return self, total
}

// SelfCitationRate returns self citations over total citations as a
// percentage rounded to two decimals. A zero total yields 0 rather than a
// division fault.
func SelfCitationRate(self, total int) float64 {
	if total == 0 {
		return 0
	}
	rate := float64(self) / float64(total) * 100
	return math.Round(rate*100) / 100
}

// CHSquaredIndex returns total citations divided by the squared h-index.
// A non-positive h-index is treated as 1, preserving the dashboard's
// long-standing guard against a zero denominator.
func CHSquaredIndex(totalCitations, hIndex int) float64 {
	if hIndex <= 0 {
		hIndex = 1
	}
	return float64(totalCitations) / float64(hIndex*hIndex)
}
