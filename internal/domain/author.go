package domain

// Author is the profile record for the seed author of a report.
type Author struct {
	ID            string
	DisplayName   string
	ORCID         string
	WorksCount    int
	CitedByCount  int
	HIndex        int
	I10Index      int
	MeanCitedness float64
	Affiliations  []string
	ResearchAreas []string
}

// AuthorSuggestion is one result of an author name search. Label is the
// source's institutional hint and may be empty.
type AuthorSuggestion struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Label       string `json:"label"`
}
