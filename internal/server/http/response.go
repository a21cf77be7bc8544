package httpserver

import (
	"time"

	"github.com/helixir/author-analytics-service/internal/analytics"
	"github.com/helixir/author-analytics-service/internal/collabnet"
	"github.com/helixir/author-analytics-service/internal/dashboard"
	"github.com/helixir/author-analytics-service/internal/domain"
)

// Report response types for JSON serialization.

type authorResponse struct {
	ID            string   `json:"id"`
	DisplayName   string   `json:"display_name"`
	ORCID         string   `json:"orcid,omitempty"`
	WorksCount    int      `json:"works_count"`
	CitedByCount  int      `json:"cited_by_count"`
	HIndex        int      `json:"h_index"`
	I10Index      int      `json:"i10_index"`
	MeanCitedness float64  `json:"mean_citedness"`
	Affiliations  []string `json:"affiliations,omitempty"`
	ResearchAreas []string `json:"research_areas,omitempty"`
}

type publicationResponse struct {
	Title     string `json:"title"`
	Year      int    `json:"year,omitempty"`
	Venue     string `json:"venue"`
	Citations int    `json:"citations"`
}

type collaboratorResponse struct {
	Name           string `json:"name"`
	Collaborations int    `json:"collaborations"`
}

type venueResponse struct {
	Venue        string `json:"venue"`
	Publications int    `json:"publications"`
}

type citingPaperResponse struct {
	Title     string `json:"title"`
	Venue     string `json:"venue"`
	Citations int    `json:"citations"`
	Self      bool   `json:"self"`
}

type institutionResponse struct {
	Institution    string `json:"institution"`
	Collaborations int    `json:"collaborations"`
}

type citationSummaryResponse struct {
	TotalWorks         int     `json:"total_works"`
	TotalCitations     int     `json:"total_citations"`
	SelfCitations      int     `json:"self_citations"`
	SelfCitationRate   float64 `json:"self_citation_rate"`
	ConcentrationIndex int     `json:"concentration_index"`
	CHSquaredIndex     float64 `json:"ch_squared_index"`
}

type networkResponse struct {
	SeedID    string           `json:"seed_id"`
	Nodes     []collabnet.Node `json:"nodes"`
	Edges     []collabnet.Edge `json:"edges"`
	Distances map[string]int   `json:"distances"`
}

type reportResponse struct {
	Author      authorResponse `json:"author"`
	GeneratedAt time.Time      `json:"generated_at"`

	Publications              []publicationResponse  `json:"publications"`
	TopCollaborators          []collaboratorResponse `json:"top_collaborators"`
	TopVenues                 []venueResponse        `json:"top_venues"`
	CitingPapers              []citingPaperResponse  `json:"citing_papers"`
	InstitutionCollaborations []institutionResponse  `json:"institution_collaborations"`

	PublicationsByYear         map[int]map[domain.AuthorPosition]int `json:"publications_by_year"`
	CitationsByYear            map[int]map[domain.CitationType]int   `json:"citations_by_year"`
	UniqueCollaboratorsPerYear map[int]int                           `json:"unique_collaborators_per_year"`
	NewCollaboratorsPerPaper   map[int]float64                       `json:"new_collaborators_per_paper"`
	MeanTeamSizePerYear        map[int]float64                       `json:"mean_team_size_per_year"`
	CollaborationHistogram     map[int]int                           `json:"collaboration_histogram"`

	Citations citationSummaryResponse `json:"citations"`
	Network   *networkResponse        `json:"network,omitempty"`
}

type searchResponse struct {
	Query   string                    `json:"query"`
	Results []domain.AuthorSuggestion `json:"results"`
}

type startReportResponse struct {
	JobID     string    `json:"job_id"`
	ORCID     string    `json:"orcid"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	Message   string    `json:"message"`
}

type jobResponse struct {
	JobID     string             `json:"job_id"`
	ORCID     string             `json:"orcid"`
	Status    string             `json:"status"`
	Progress  dashboard.Progress `json:"progress"`
	Report    *reportResponse    `json:"report,omitempty"`
	Error     string             `json:"error,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type cacheInvalidationResponse struct {
	ORCID   string `json:"orcid"`
	Removed int    `json:"removed"`
}

// Converter functions

func domainAuthorToResponse(a *domain.Author) authorResponse {
	return authorResponse{
		ID:            a.ID,
		DisplayName:   a.DisplayName,
		ORCID:         a.ORCID,
		WorksCount:    a.WorksCount,
		CitedByCount:  a.CitedByCount,
		HIndex:        a.HIndex,
		I10Index:      a.I10Index,
		MeanCitedness: a.MeanCitedness,
		Affiliations:  a.Affiliations,
		ResearchAreas: a.ResearchAreas,
	}
}

func publicationRowsToResponse(rows []analytics.PublicationRow) []publicationResponse {
	out := make([]publicationResponse, len(rows))
	for i, row := range rows {
		out[i] = publicationResponse{
			Title:     row.Title,
			Year:      row.Year,
			Venue:     row.Venue,
			Citations: row.Citations,
		}
	}
	return out
}

func collaboratorCountsToResponse(rows []analytics.CollaboratorCount) []collaboratorResponse {
	out := make([]collaboratorResponse, len(rows))
	for i, row := range rows {
		out[i] = collaboratorResponse{Name: row.Name, Collaborations: row.Collaborations}
	}
	return out
}

func venueCountsToResponse(rows []analytics.VenueCount) []venueResponse {
	out := make([]venueResponse, len(rows))
	for i, row := range rows {
		out[i] = venueResponse{Venue: row.Venue, Publications: row.Publications}
	}
	return out
}

func citingRowsToResponse(rows []analytics.CitingRow) []citingPaperResponse {
	out := make([]citingPaperResponse, len(rows))
	for i, row := range rows {
		out[i] = citingPaperResponse{
			Title:     row.Title,
			Venue:     row.Venue,
			Citations: row.Citations,
			Self:      row.Self,
		}
	}
	return out
}

func institutionCountsToResponse(rows []analytics.InstitutionCount) []institutionResponse {
	out := make([]institutionResponse, len(rows))
	for i, row := range rows {
		out[i] = institutionResponse{Institution: row.Institution, Collaborations: row.Collaborations}
	}
	return out
}

func graphToResponse(g *collabnet.Graph) *networkResponse {
	if g == nil {
		return nil
	}
	return &networkResponse{
		SeedID:    g.SeedID(),
		Nodes:     g.Nodes(),
		Edges:     g.Edges(),
		Distances: g.Distances(),
	}
}

func reportToResponse(r *dashboard.Report) reportResponse {
	return reportResponse{
		Author:      domainAuthorToResponse(r.Author),
		GeneratedAt: r.GeneratedAt,

		Publications:              publicationRowsToResponse(r.Publications),
		TopCollaborators:          collaboratorCountsToResponse(r.TopCollaborators),
		TopVenues:                 venueCountsToResponse(r.TopVenues),
		CitingPapers:              citingRowsToResponse(r.CitingPapers),
		InstitutionCollaborations: institutionCountsToResponse(r.InstitutionCollaborations),

		PublicationsByYear:         r.PublicationsByYear,
		CitationsByYear:            r.CitationsByYear,
		UniqueCollaboratorsPerYear: r.UniqueCollaboratorsPerYear,
		NewCollaboratorsPerPaper:   r.NewCollaboratorsPerPaper,
		MeanTeamSizePerYear:        r.MeanTeamSizePerYear,
		CollaborationHistogram:     r.CollaborationHistogram,

		Citations: citationSummaryResponse{
			TotalWorks:         r.Citations.TotalWorks,
			TotalCitations:     r.Citations.TotalCitations,
			SelfCitations:      r.Citations.SelfCitations,
			SelfCitationRate:   r.Citations.SelfCitationRate,
			ConcentrationIndex: r.Citations.ConcentrationIndex,
			CHSquaredIndex:     r.Citations.CHSquaredIndex,
		},
		Network: graphToResponse(r.Network),
	}
}

func jobToResponse(job *dashboard.Job) jobResponse {
	resp := jobResponse{
		JobID:     job.ID,
		ORCID:     job.ORCID,
		Status:    string(job.Status),
		Progress:  job.Progress,
		Error:     job.Error,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
	if job.Report != nil {
		report := reportToResponse(job.Report)
		resp.Report = &report
	}
	return resp
}
