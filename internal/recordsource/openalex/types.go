// Package openalex provides the OpenAlex-backed record source.
//
// OpenAlex is a free, open catalog of scholarly works, authors, venues,
// institutions, and topics. This package implements the recordsource.Source
// interface over its REST API: author lookup by ORCID, paginated works and
// citing-works listings, and author-name autocomplete.
//
// API Documentation: https://docs.openalex.org/
package openalex

// ListResponse represents the top-level response of the works listing endpoint.
type ListResponse struct {
	Meta    Meta   `json:"meta"`
	Results []Work `json:"results"`
}

// Meta contains metadata about a result set including pagination info.
type Meta struct {
	Count   int `json:"count"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// Work represents a scholarly work record.
type Work struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	DisplayName     string       `json:"display_name"`
	PublicationYear int          `json:"publication_year"`
	PublicationDate string       `json:"publication_date"`
	Type            string       `json:"type"`
	CitedByCount    int          `json:"cited_by_count"`
	Authorships     []Authorship `json:"authorships"`
	Locations       []Location   `json:"locations"`
}

// Authorship represents an author's contribution to a work.
type Authorship struct {
	AuthorPosition string        `json:"author_position"`
	Author         AuthorRef     `json:"author"`
	Institutions   []Institution `json:"institutions"`
}

// AuthorRef is the author stub embedded in an authorship.
type AuthorRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Orcid       string `json:"orcid"`
}

// Institution represents an academic institution.
type Institution struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Location represents one place a work is available.
type Location struct {
	Source *Source `json:"source"`
}

// Source represents a publication venue (journal, repository, conference).
type Source struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
}

// Author represents a full author profile record.
type Author struct {
	ID           string        `json:"id"`
	DisplayName  string        `json:"display_name"`
	Orcid        string        `json:"orcid"`
	WorksCount   int           `json:"works_count"`
	CitedByCount int           `json:"cited_by_count"`
	SummaryStats SummaryStats  `json:"summary_stats"`
	Affiliations []Affiliation `json:"affiliations"`
	Topics       []Topic       `json:"topics"`
}

// SummaryStats is the citation summary block of an author profile.
type SummaryStats struct {
	HIndex        int     `json:"h_index"`
	I10Index      int     `json:"i10_index"`
	MeanCitedness float64 `json:"2yr_mean_citedness"`
}

// Affiliation ties an author profile to an institution.
type Affiliation struct {
	Institution Institution `json:"institution"`
	Years       []int       `json:"years"`
}

// Topic is a research topic attached to an author profile.
type Topic struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Count       int      `json:"count"`
	Subfield    Subfield `json:"subfield"`
}

// Subfield is the parent subfield of a topic.
type Subfield struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// AutocompleteResponse represents the top-level response of the author
// autocomplete endpoint.
type AutocompleteResponse struct {
	Meta    Meta                 `json:"meta"`
	Results []AutocompleteResult `json:"results"`
}

// AutocompleteResult is one author suggestion. Hint carries the author's
// last known institution when OpenAlex has one.
type AutocompleteResult struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Hint        string `json:"hint"`
	WorksCount  int    `json:"works_count"`
	EntityType  string `json:"entity_type"`
}
