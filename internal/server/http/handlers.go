package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/helixir/author-analytics-service/internal/dashboard"
	"github.com/helixir/author-analytics-service/internal/domain"
)

// Request limits.
const (
	maxRequestBodySize = 1 << 20 // 1 MB limit for request bodies
)

// validate checks request bodies; field names in messages come from the
// json tags.
var validate = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// startReportRequest is the JSON request body for starting a report build.
type startReportRequest struct {
	ORCID          string `json:"orcid" validate:"required"`
	MaxDepth       int    `json:"max_depth,omitempty" validate:"omitempty,min=1,max=5"`
	IncludeNetwork *bool  `json:"include_network,omitempty"`
}

// searchAuthors handles GET /api/v1/authors/search.
// Queries below the minimum length yield an empty result list, not an error.
func (s *Server) searchAuthors(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	suggestions, err := s.service.SearchAuthors(r.Context(), query)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Query:   query,
		Results: suggestions,
	})
}

// getAuthorReport handles GET /api/v1/authors/{orcid}/report.
// It builds the report synchronously on the request context; long builds
// are better served by POST /api/v1/reports.
func (s *Server) getAuthorReport(w http.ResponseWriter, r *http.Request) {
	orcid := chi.URLParam(r, "orcid")

	maxDepth, ok := parseDepthParam(w, r)
	if !ok {
		return
	}
	opts := dashboard.BuildOptions{MaxDepth: maxDepth}

	if networkParam := r.URL.Query().Get("network"); networkParam != "" {
		include, parseErr := strconv.ParseBool(networkParam)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, "network must be a boolean")
			return
		}
		opts.SkipNetwork = !include
	}

	report, err := s.service.BuildReport(r.Context(), orcid, opts, nil)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reportToResponse(report))
}

// startReport handles POST /api/v1/reports.
// It registers a background build and returns 202 with the job ID.
func (s *Server) startReport(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var req startReportRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, requestErrorMessage(err))
		return
	}

	opts := dashboard.BuildOptions{MaxDepth: req.MaxDepth}
	if req.IncludeNetwork != nil {
		opts.SkipNetwork = !*req.IncludeNetwork
	}

	job, err := s.service.StartJob(req.ORCID, opts)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, startReportResponse{
		JobID:     job.ID,
		ORCID:     job.ORCID,
		Status:    string(job.Status),
		CreatedAt: job.CreatedAt,
		Message:   "report build started",
	})
}

// getReportJob handles GET /api/v1/reports/{reportID}.
// It returns the job status, and the report once the build completed.
func (s *Server) getReportJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := parseUUID(w, chi.URLParam(r, "reportID"), "report_id")
	if !ok {
		return
	}

	job, err := s.store.Get(jobID.String())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jobToResponse(&job))
}

// getAuthorNetwork handles GET /api/v1/authors/{orcid}/network.
// It builds only the collaboration network, skipping the citation fan-out.
func (s *Server) getAuthorNetwork(w http.ResponseWriter, r *http.Request) {
	orcid := chi.URLParam(r, "orcid")

	maxDepth, ok := parseDepthParam(w, r)
	if !ok {
		return
	}

	graph, err := s.service.BuildNetwork(r.Context(), orcid, maxDepth)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, graphToResponse(graph))
}

// invalidateAuthorCache handles DELETE /api/v1/authors/{orcid}/cache.
// It drops the author's cached fetches so the next build reads fresh data.
// Without a cache in front of the source the call is a no-op.
func (s *Server) invalidateAuthorCache(w http.ResponseWriter, r *http.Request) {
	orcid := strings.TrimSpace(chi.URLParam(r, "orcid"))
	if orcid == "" {
		writeError(w, http.StatusBadRequest, "orcid is required")
		return
	}

	removed := 0
	if s.invalidator != nil {
		removed = s.invalidator.InvalidateAuthor(orcid)
	}

	writeJSON(w, http.StatusOK, cacheInvalidationResponse{
		ORCID:   orcid,
		Removed: removed,
	})
}

// writeDomainError maps domain errors to appropriate HTTP status codes and
// writes a JSON error response. Internal error details are not leaked to
// clients.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrJobNotFound):
		writeError(w, http.StatusNotFound, "report job not found")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrInvalidInput):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
		} else {
			writeError(w, http.StatusBadRequest, "invalid input")
		}
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "request timed out")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// requestErrorMessage renders the first field error of a request body
// validation failure.
func requestErrorMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "invalid request body"
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min", "max":
		return fmt.Sprintf("%s must be between %d and %d", fe.Field(), dashboard.MinNetworkDepth, dashboard.MaxNetworkDepth)
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// parseUUID parses a UUID from a string, writing a 400 error response if
// invalid. The parse error details are not included to avoid echoing
// potentially malicious input.
func parseUUID(w http.ResponseWriter, s, fieldName string) (uuid.UUID, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be a valid UUID", fieldName))
		return uuid.Nil, false
	}
	return id, true
}

// parseDepthParam reads the optional maxDepth query parameter. Zero means
// the configured default; range checks happen in the service.
func parseDepthParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("maxDepth")
	if raw == "" {
		return 0, true
	}
	depth, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "maxDepth must be an integer")
		return 0, false
	}
	return depth, true
}
