// Package analytics computes the dashboard's derived metrics and table
// aggregations. Every function is a pure pass over an immutable corpus index
// or work slice; no state is carried between calls, so repeated invocations
// over the same input yield identical aggregates.
//
// Malformed records degrade instead of faulting: works without a publication
// year and authorships without an author identifier are skipped by the
// aggregations that need those fields.
package analytics

import (
	"sort"

	"github.com/helixir/author-analytics-service/internal/corpus"
	"github.com/helixir/author-analytics-service/internal/domain"
)

// PublicationsByPositionByYear counts the author's works per year and author
// position. Works without a year and works where the position resolves to
// unknown are dropped.
func PublicationsByPositionByYear(idx *corpus.Index, authorID string) map[int]map[domain.AuthorPosition]int {
	result := make(map[int]map[domain.AuthorPosition]int)
	for _, work := range idx.Works() {
		if !work.HasYear() {
			continue
		}
		position := work.AuthorPosition(authorID)
		if position == domain.PositionUnknown {
			continue
		}

		byPosition, ok := result[work.PublicationYear]
		if !ok {
			byPosition = make(map[domain.AuthorPosition]int)
			result[work.PublicationYear] = byPosition
		}
		byPosition[position]++
	}
	return result
}

// CitationsByYearByType counts incoming citations per year, split into self
// and external. A citing work is a self citation when its identifier is part
// of the seed corpus. Citing works without a year are dropped. The citing
// slice is the flattened result of the per-work citation fetches, so a work
// citing several corpus papers counts once per citation.
func CitationsByYearByType(citing []domain.Work, idx *corpus.Index) map[int]map[domain.CitationType]int {
	result := make(map[int]map[domain.CitationType]int)
	for _, work := range citing {
		if !work.HasYear() {
			continue
		}

		citationType := domain.CitationExternal
		if idx.ContainsID(work.ID) {
			citationType = domain.CitationSelf
		}

		byType, ok := result[work.PublicationYear]
		if !ok {
			byType = make(map[domain.CitationType]int)
			result[work.PublicationYear] = byType
		}
		byType[citationType]++
	}
	return result
}

// UniqueCollaboratorsPerYear reports, per year, how many distinct co-author
// identifiers appear on works published that year. Each year's set is
// independent; a collaborator active in two years counts in both. Unyeared
// works and authorships without identifiers contribute nothing, and years
// whose works carry no identifiable collaborators are absent from the result.
func UniqueCollaboratorsPerYear(works []domain.Work, authorID string) map[int]int {
	perYear := make(map[int]map[string]struct{})
	for _, work := range works {
		if !work.HasYear() {
			continue
		}
		for _, collab := range work.Collaborators(authorID) {
			set, ok := perYear[work.PublicationYear]
			if !ok {
				set = make(map[string]struct{})
				perYear[work.PublicationYear] = set
			}
			set[collab.AuthorID] = struct{}{}
		}
	}

	counts := make(map[int]int, len(perYear))
	for year, set := range perYear {
		counts[year] = len(set)
	}
	return counts
}

// NewCollaboratorsPerPaperPerYear reports, per year, the mean number of
// never-before-seen collaborators per paper. Works are processed in ascending
// year order against one cumulative set of known collaborator identifiers.
// Unyeared works contribute nothing, not even as a source of known
// collaborators. Solo papers count toward the per-year paper total.
func NewCollaboratorsPerPaperPerYear(works []domain.Work, authorID string) map[int]float64 {
	sorted := make([]domain.Work, len(works))
	copy(sorted, works)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PublicationYear < sorted[j].PublicationYear
	})

	known := make(map[string]struct{})
	newPerYear := make(map[int]int)
	papersPerYear := make(map[int]int)

	for _, work := range sorted {
		if !work.HasYear() {
			continue
		}

		fresh := 0
		for _, collab := range work.Collaborators(authorID) {
			if _, ok := known[collab.AuthorID]; ok {
				continue
			}
			known[collab.AuthorID] = struct{}{}
			fresh++
		}

		newPerYear[work.PublicationYear] += fresh
		papersPerYear[work.PublicationYear]++
	}

	result := make(map[int]float64, len(papersPerYear))
	for year, papers := range papersPerYear {
		result[year] = float64(newPerYear[year]) / float64(papers)
	}
	return result
}

// MeanTeamSizePerYear reports the mean authorship count per work, per year,
// seed author included. Unyeared works are skipped; works with an empty
// author list count as team size zero.
func MeanTeamSizePerYear(works []domain.Work) map[int]float64 {
	sizeSum := make(map[int]int)
	papers := make(map[int]int)
	for _, work := range works {
		if !work.HasYear() {
			continue
		}
		sizeSum[work.PublicationYear] += work.TeamSize()
		papers[work.PublicationYear]++
	}

	result := make(map[int]float64, len(papers))
	for year, count := range papers {
		result[year] = float64(sizeSum[year]) / float64(count)
	}
	return result
}

// CollaborationFrequency tallies, per collaborator identifier, how many
// times that collaborator appears on the author's works. Each authorship
// occurrence counts once.
func CollaborationFrequency(works []domain.Work, authorID string) map[string]int {
	counts := make(map[string]int)
	for _, work := range works {
		for _, collab := range work.Collaborators(authorID) {
			counts[collab.AuthorID]++
		}
	}
	return counts
}

// FrequencyHistogram inverts per-collaborator counts into "how many
// collaborators have exactly K collaborations" per K.
func FrequencyHistogram(counts map[string]int) map[int]int {
	histogram := make(map[int]int)
	for _, count := range counts {
		histogram[count]++
	}
	return histogram
}
