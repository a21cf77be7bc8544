// Package dashboard assembles author analytics reports: it drives the fetch,
// index, metrics, and network stages and tracks asynchronous report builds.
package dashboard

import (
	"time"

	"github.com/helixir/author-analytics-service/internal/analytics"
	"github.com/helixir/author-analytics-service/internal/collabnet"
	"github.com/helixir/author-analytics-service/internal/domain"
)

// Report is the complete analytics bundle for one author: the profile, the
// dashboard tables, the per-year chart aggregates, the citation summary
// indices, and optionally the collaboration network.
type Report struct {
	Author      *domain.Author
	GeneratedAt time.Time

	Publications              []analytics.PublicationRow
	TopCollaborators          []analytics.CollaboratorCount
	TopVenues                 []analytics.VenueCount
	CitingPapers              []analytics.CitingRow
	InstitutionCollaborations []analytics.InstitutionCount

	PublicationsByYear         map[int]map[domain.AuthorPosition]int
	CitationsByYear            map[int]map[domain.CitationType]int
	UniqueCollaboratorsPerYear map[int]int
	NewCollaboratorsPerPaper   map[int]float64
	MeanTeamSizePerYear        map[int]float64
	CollaborationHistogram     map[int]int

	Citations CitationSummary

	// Network is nil when the build skipped network expansion.
	Network *collabnet.Graph
}

// CitationSummary bundles the corpus-level citation indices.
type CitationSummary struct {
	// TotalWorks is the number of works in the indexed corpus.
	TotalWorks int
	// TotalCitations counts the fetched incoming citation events; a paper
	// citing k corpus works contributes k.
	TotalCitations int
	// SelfCitations counts the incoming citation events originating from
	// the author's own works.
	SelfCitations int
	// SelfCitationRate is SelfCitations over TotalCitations as a
	// percentage, rounded to two decimals. Zero when nothing cites the
	// corpus.
	SelfCitationRate float64
	// ConcentrationIndex is the largest n such that n distinct citing
	// papers each cite the corpus at least n times.
	ConcentrationIndex int
	// CHSquaredIndex is the author's total citation count over the square
	// of the h-index.
	CHSquaredIndex float64
}
