package analytics

import (
	"sort"

	"github.com/helixir/author-analytics-service/internal/corpus"
	"github.com/helixir/author-analytics-service/internal/domain"
)

// PublicationRow is one row of the publication table.
type PublicationRow struct {
	Title     string
	Year      int // 0 when the source record carries no year
	Venue     string
	Citations int
}

// CollaboratorCount is one row of the top-collaborators table.
type CollaboratorCount struct {
	Name           string
	Collaborations int
}

// VenueCount is one row of the top-venues table.
type VenueCount struct {
	Venue        string
	Publications int
}

// CitingRow is one row of the citing-papers table. Citations counts how
// many of the seed's works this paper cites, not the paper's own citation
// count.
type CitingRow struct {
	Title     string
	Venue     string
	Citations int
	Self      bool
}

// InstitutionCount is one row of the institution-collaborations table.
type InstitutionCount struct {
	Institution    string
	Collaborations int
}

// PublicationRows renders the corpus as table rows sorted by citation count
// descending, title ascending on ties.
func PublicationRows(idx *corpus.Index) []PublicationRow {
	works := idx.Works()
	rows := make([]PublicationRow, 0, len(works))
	for _, work := range works {
		rows = append(rows, PublicationRow{
			Title:     work.Title,
			Year:      work.PublicationYear,
			Venue:     work.Venue(),
			Citations: work.CitedByCount,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Citations != rows[j].Citations {
			return rows[i].Citations > rows[j].Citations
		}
		return rows[i].Title < rows[j].Title
	})
	return rows
}

// TopCollaborators tallies collaborator appearances by display name across
// the corpus, sorted by count descending, name ascending on ties.
// Authorships without a display name are skipped.
func TopCollaborators(works []domain.Work, authorID string) []CollaboratorCount {
	counts := make(map[string]int)
	for _, work := range works {
		for _, collab := range work.Collaborators(authorID) {
			if collab.AuthorName == "" {
				continue
			}
			counts[collab.AuthorName]++
		}
	}

	rows := make([]CollaboratorCount, 0, len(counts))
	for name, count := range counts {
		rows = append(rows, CollaboratorCount{Name: name, Collaborations: count})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Collaborations != rows[j].Collaborations {
			return rows[i].Collaborations > rows[j].Collaborations
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}

// TopVenues counts publications per venue, sorted by count descending, venue
// ascending on ties. Works whose venue falls back to the unknown sentinel are
// excluded.
func TopVenues(idx *corpus.Index) []VenueCount {
	counts := make(map[string]int)
	for _, work := range idx.Works() {
		venue := work.Venue()
		if venue == domain.VenueUnknown {
			continue
		}
		counts[venue]++
	}

	rows := make([]VenueCount, 0, len(counts))
	for venue, count := range counts {
		rows = append(rows, VenueCount{Venue: venue, Publications: count})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Publications != rows[j].Publications {
			return rows[i].Publications > rows[j].Publications
		}
		return rows[i].Venue < rows[j].Venue
	})
	return rows
}

// CitingFrequency renders one row per distinct citing work. The flattened
// citing list carries one entry per citation event, so a paper appearing k
// times cites k of the corpus works; that tally is the row's citation
// count and the sort key (descending, title ascending on ties). Citing
// works without an identifier are skipped; without one they can be neither
// tallied nor classified. The concentration index is computed from this
// table's citation column.
func CitingFrequency(citing []domain.Work, idx *corpus.Index) []CitingRow {
	counts := make(map[string]int, len(citing))
	order := make([]string, 0, len(citing))
	details := make(map[string]domain.Work, len(citing))
	for _, work := range citing {
		if work.ID == "" {
			continue
		}
		if _, ok := counts[work.ID]; !ok {
			order = append(order, work.ID)
			details[work.ID] = work
		}
		counts[work.ID]++
	}

	rows := make([]CitingRow, 0, len(order))
	for _, id := range order {
		work := details[id]
		rows = append(rows, CitingRow{
			Title:     work.Title,
			Venue:     work.Venue(),
			Citations: counts[id],
			Self:      idx.ContainsID(id),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Citations != rows[j].Citations {
			return rows[i].Citations > rows[j].Citations
		}
		return rows[i].Title < rows[j].Title
	})
	return rows
}

// InstitutionCollaborations tallies the institutional affiliations of the
// author's collaborators across the corpus, sorted by count descending,
// institution ascending on ties. The seed's own authorships and institutions
// without a display name are skipped.
func InstitutionCollaborations(works []domain.Work, authorID string) []InstitutionCount {
	counts := make(map[string]int)
	for _, work := range works {
		for _, collab := range work.Collaborators(authorID) {
			for _, institution := range collab.Institutions {
				if institution.Name == "" {
					continue
				}
				counts[institution.Name]++
			}
		}
	}

	rows := make([]InstitutionCount, 0, len(counts))
	for institution, count := range counts {
		rows = append(rows, InstitutionCount{Institution: institution, Collaborations: count})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Collaborations != rows[j].Collaborations {
			return rows[i].Collaborations > rows[j].Collaborations
		}
		return rows[i].Institution < rows[j].Institution
	})
	return rows
}
