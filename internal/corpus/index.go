// Package corpus indexes an author's publication set for the aggregations
// and graph expansion built on top of it. An Index is immutable after
// construction; builds for different authors never share state.
package corpus

import (
	"sort"

	"github.com/helixir/author-analytics-service/internal/domain"
)

// Index is an immutable view over one author's works: the work-ID set for
// O(1) self/other classification, the publication-year histogram, and the
// works in both fetch order and ascending-year order.
type Index struct {
	works  []domain.Work
	sorted []domain.Work
	ids    map[string]struct{}
	years  map[int]int
}

// NewIndex builds an Index over works. The input slice is copied, so later
// mutation by the caller does not reach the index.
func NewIndex(works []domain.Work) *Index {
	owned := make([]domain.Work, len(works))
	copy(owned, works)

	ids := make(map[string]struct{}, len(owned))
	years := make(map[int]int)
	for _, work := range owned {
		if work.ID != "" {
			ids[work.ID] = struct{}{}
		}
		if work.HasYear() {
			years[work.PublicationYear]++
		}
	}

	// Unyeared works carry year 0 and therefore sort first.
	sorted := make([]domain.Work, len(owned))
	copy(sorted, owned)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PublicationYear < sorted[j].PublicationYear
	})

	return &Index{
		works:  owned,
		sorted: sorted,
		ids:    ids,
		years:  years,
	}
}

// ContainsID reports whether a work with the given identifier is part of
// the indexed corpus. Used to classify incoming citations as self or
// external.
func (idx *Index) ContainsID(id string) bool {
	_, ok := idx.ids[id]
	return ok
}

// Works returns the indexed works in fetch order. Callers must not modify
// the returned slice.
func (idx *Index) Works() []domain.Work {
	return idx.works
}

// SortedByYear returns the indexed works in ascending publication-year
// order, unyeared works first, fetch order preserved within a year. Callers
// must not modify the returned slice.
func (idx *Index) SortedByYear() []domain.Work {
	return idx.sorted
}

// YearHistogram returns publications per year. Works without a year are not
// counted. The returned map is a copy.
func (idx *Index) YearHistogram() map[int]int {
	histogram := make(map[int]int, len(idx.years))
	for year, count := range idx.years {
		histogram[year] = count
	}
	return histogram
}

// WorkIDs returns the non-empty work identifiers in fetch order.
func (idx *Index) WorkIDs() []string {
	ids := make([]string, 0, len(idx.works))
	for _, work := range idx.works {
		if work.ID != "" {
			ids = append(ids, work.ID)
		}
	}
	return ids
}

// Len returns the number of indexed works.
func (idx *Index) Len() int {
	return len(idx.works)
}
