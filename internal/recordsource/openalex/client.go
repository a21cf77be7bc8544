package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/helixir/author-analytics-service/internal/domain"
	"github.com/helixir/author-analytics-service/internal/observability"
	"github.com/helixir/author-analytics-service/internal/recordsource"
)

const (
	// DefaultBaseURL is the default OpenAlex API base URL.
	DefaultBaseURL = "https://api.openalex.org"

	// DefaultRateLimit is the default rate limit for requests per second.
	// OpenAlex polite pool (with mailto) allows higher rates.
	DefaultRateLimit = 10.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 10

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultPageSize is the default listing page size.
	// OpenAlex caps per-page at 200.
	DefaultPageSize = 100

	// DefaultSearchLimit is the default maximum number of author
	// suggestions returned by SearchAuthors.
	DefaultSearchLimit = 10

	// orcidPrefix is the URL prefix that OpenAlex uses for ORCID iDs.
	orcidPrefix = "https://orcid.org/"

	// maxResponseBytes limits response body reads to prevent resource
	// exhaustion on oversized payloads.
	maxResponseBytes = 10 << 20
)

// Endpoint labels used on source request metrics.
const (
	endpointAuthor      = "author"
	endpointWorks       = "works"
	endpointCitingWorks = "citing_works"
	endpointSearch      = "search_authors"
)

// Config holds configuration for the OpenAlex client.
type Config struct {
	// BaseURL is the OpenAlex API base URL.
	// Defaults to https://api.openalex.org
	BaseURL string

	// Mailto is the contact address for the polite pool.
	// Providing one grants access to higher rate limits.
	// See: https://docs.openalex.org/how-to-use-the-api/rate-limits-and-authentication
	Mailto string

	// Timeout is the request timeout.
	// Defaults to 30 seconds.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	// Defaults to 10 req/sec.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	// Defaults to 10.
	BurstSize int

	// PageSize is the listing page size. Defaults to 100, maximum 200.
	PageSize int

	// MaxPages caps the number of pages fetched per listing call.
	// Zero means pagination runs until the first short page.
	MaxPages int

	// SearchLimit is the maximum number of author suggestions returned.
	// Defaults to 10.
	SearchLimit int
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
	if c.PageSize == 0 {
		c.PageSize = DefaultPageSize
	}
	if c.PageSize > 200 {
		c.PageSize = 200
	}
	if c.SearchLimit == 0 {
		c.SearchLimit = DefaultSearchLimit
	}
}

// Client implements the recordsource.Source interface for OpenAlex.
//
// Listing calls never retry a failed page: pagination silently ends there
// and the accumulated prefix is returned. Truncations are logged and counted
// on the truncation metric since callers cannot observe them.
type Client struct {
	config     Config
	httpClient *recordsource.HTTPClient
	logger     zerolog.Logger
	metrics    *observability.Metrics
}

// Ensure Client implements the Source interface.
var _ recordsource.Source = (*Client)(nil)

// New creates a new OpenAlex client with the given configuration.
func New(cfg Config, logger zerolog.Logger, metrics *observability.Metrics) *Client {
	cfg.applyDefaults()

	userAgent := "AuthorAnalyticsService/1.0"
	if cfg.Mailto != "" {
		userAgent = fmt.Sprintf("AuthorAnalyticsService/1.0 (mailto:%s)", cfg.Mailto)
	}

	httpClient := recordsource.NewHTTPClient(recordsource.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
		UserAgent: userAgent,
	})

	return newClient(cfg, httpClient, logger, metrics)
}

// NewWithHTTPClient creates a new OpenAlex client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *recordsource.HTTPClient, logger zerolog.Logger, metrics *observability.Metrics) *Client {
	cfg.applyDefaults()
	return newClient(cfg, httpClient, logger, metrics)
}

func newClient(cfg Config, httpClient *recordsource.HTTPClient, logger zerolog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		config:     cfg,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "openalex").Logger(),
		metrics:    metrics,
	}
}

// Author retrieves an author profile by ORCID.
// Any non-success response maps to a not-found error; OpenAlex does not let
// this endpoint distinguish a missing author from a failing lookup.
func (c *Client) Author(ctx context.Context, orcid string) (*domain.Author, error) {
	fetchURL, err := c.buildAuthorURL(orcid)
	if err != nil {
		return nil, fmt.Errorf("building author URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.RecordSourceRequest(endpointAuthor, time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.metrics.RecordSourceRequestFailed(endpointAuthor, "transport")
		return nil, domain.NewExternalAPIError("OpenAlex", 0, "author lookup failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.metrics.RecordSourceRequestFailed(endpointAuthor, strconv.Itoa(resp.StatusCode))
		return nil, domain.NewNotFoundError("author", orcid)
	}

	var author Author
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&author); err != nil {
		c.metrics.RecordSourceRequestFailed(endpointAuthor, "decode")
		return nil, fmt.Errorf("decoding author response: %w", err)
	}

	return authorToDomain(&author), nil
}

// Works retrieves the author's complete corpus, paginating until the first
// short page, failed page, or the configured page cap.
func (c *Client) Works(ctx context.Context, authorID string) ([]domain.Work, error) {
	return c.listWorks(ctx, endpointWorks, "author.id:"+authorID)
}

// CitingWorks retrieves the works citing the given work, under the same
// pagination contract as Works.
func (c *Client) CitingWorks(ctx context.Context, workID string) ([]domain.Work, error) {
	return c.listWorks(ctx, endpointCitingWorks, "cites:"+workID)
}

// SearchAuthors returns author suggestions for a display-name query.
// Queries shorter than recordsource.MinSearchQueryLength runes yield an
// empty result without touching the network.
func (c *Client) SearchAuthors(ctx context.Context, query string) ([]domain.AuthorSuggestion, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < recordsource.MinSearchQueryLength {
		return []domain.AuthorSuggestion{}, nil
	}

	searchURL, err := c.buildSearchURL(query)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.RecordSourceRequest(endpointSearch, time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.metrics.RecordSourceRequestFailed(endpointSearch, "transport")
		return nil, domain.NewExternalAPIError("OpenAlex", 0, "author search failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		c.metrics.RecordSourceRequestFailed(endpointSearch, strconv.Itoa(resp.StatusCode))
		return nil, domain.NewExternalAPIError("OpenAlex", resp.StatusCode, string(body), nil)
	}

	var searchResp AutocompleteResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&searchResp); err != nil {
		c.metrics.RecordSourceRequestFailed(endpointSearch, "decode")
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	results := searchResp.Results
	if len(results) > c.config.SearchLimit {
		results = results[:c.config.SearchLimit]
	}

	suggestions := make([]domain.AuthorSuggestion, 0, len(results))
	for _, result := range results {
		suggestions = append(suggestions, domain.AuthorSuggestion{
			ID:          result.ID,
			DisplayName: result.DisplayName,
			Label:       suggestionLabel(result),
		})
	}
	return suggestions, nil
}

// listWorks pages through the works listing for filter, converting records
// as they arrive. A transport failure, non-success page, or malformed page
// ends pagination: the accumulated prefix is returned with a nil error. The
// returned error is non-nil only when ctx is done.
func (c *Client) listWorks(ctx context.Context, endpoint, filter string) ([]domain.Work, error) {
	var all []domain.Work

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		listURL, err := c.buildWorksURL(filter, page)
		if err != nil {
			return all, fmt.Errorf("building works URL: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
		if err != nil {
			return all, fmt.Errorf("creating request: %w", err)
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		c.metrics.RecordSourceRequest(endpoint, time.Since(start).Seconds())
		if err != nil {
			if ctx.Err() != nil {
				return all, ctx.Err()
			}
			c.metrics.RecordSourceRequestFailed(endpoint, "transport")
			c.recordTruncation(endpoint, filter, page, err.Error())
			return all, nil
		}

		if resp.StatusCode != http.StatusOK {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			c.metrics.RecordSourceRequestFailed(endpoint, strconv.Itoa(resp.StatusCode))
			c.recordTruncation(endpoint, filter, page, "status "+strconv.Itoa(resp.StatusCode))
			return all, nil
		}

		var list ListResponse
		err = json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&list)
		resp.Body.Close()
		if err != nil {
			c.metrics.RecordSourceRequestFailed(endpoint, "decode")
			c.recordTruncation(endpoint, filter, page, "malformed page")
			return all, nil
		}

		for i := range list.Results {
			all = append(all, workToDomain(&list.Results[i]))
		}
		c.metrics.RecordWorksFetched(endpoint, len(list.Results))

		if len(list.Results) < c.config.PageSize {
			return all, nil
		}
		if c.config.MaxPages > 0 && page >= c.config.MaxPages {
			c.logger.Debug().Str("filter", filter).Int("pages", page).Msg("listing stopped at page cap")
			return all, nil
		}
	}
}

// recordTruncation logs and counts a silently truncated listing.
func (c *Client) recordTruncation(endpoint, filter string, page int, reason string) {
	c.metrics.RecordFetchTruncation(endpoint)
	c.logger.Warn().
		Str("endpoint", endpoint).
		Str("filter", filter).
		Int("page", page).
		Str("reason", reason).
		Msg("pagination truncated")
}

// buildAuthorURL constructs the author lookup URL. OpenAlex resolves ORCID
// iDs given as full URLs in the path and handles decoding on their side.
func (c *Client) buildAuthorURL(orcid string) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	id := strings.TrimSpace(orcid)
	if !strings.HasPrefix(id, orcidPrefix) {
		id = orcidPrefix + id
	}
	baseURL.Path = "/authors/" + id

	if c.config.Mailto != "" {
		query := url.Values{}
		query.Set("mailto", c.config.Mailto)
		baseURL.RawQuery = query.Encode()
	}

	return baseURL.String(), nil
}

// buildWorksURL constructs a works listing URL for one page.
func (c *Client) buildWorksURL(filter string, page int) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	baseURL.Path = "/works"

	query := url.Values{}
	query.Set("filter", filter)
	query.Set("per-page", strconv.Itoa(c.config.PageSize))
	query.Set("page", strconv.Itoa(page))
	if c.config.Mailto != "" {
		query.Set("mailto", c.config.Mailto)
	}

	baseURL.RawQuery = query.Encode()
	return baseURL.String(), nil
}

// buildSearchURL constructs the author autocomplete URL.
func (c *Client) buildSearchURL(searchQuery string) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	baseURL.Path = "/autocomplete/authors"

	query := url.Values{}
	query.Set("q", searchQuery)
	if c.config.Mailto != "" {
		query.Set("mailto", c.config.Mailto)
	}

	baseURL.RawQuery = query.Encode()
	return baseURL.String(), nil
}

// workToDomain converts an OpenAlex work record to the domain model.
func workToDomain(work *Work) domain.Work {
	// Prefer display_name, it is usually cleaner than title.
	title := work.DisplayName
	if title == "" {
		title = work.Title
	}

	authorships := make([]domain.Authorship, 0, len(work.Authorships))
	for _, authorship := range work.Authorships {
		institutions := make([]domain.Institution, 0, len(authorship.Institutions))
		for _, institution := range authorship.Institutions {
			institutions = append(institutions, domain.Institution{
				ID:   institution.ID,
				Name: institution.DisplayName,
			})
		}
		authorships = append(authorships, domain.Authorship{
			AuthorID:     authorship.Author.ID,
			AuthorName:   authorship.Author.DisplayName,
			ORCID:        normalizeORCID(authorship.Author.Orcid),
			Institutions: institutions,
		})
	}

	locations := make([]domain.Location, 0, len(work.Locations))
	for _, location := range work.Locations {
		var loc domain.Location
		if location.Source != nil {
			loc.SourceID = location.Source.ID
			loc.SourceName = location.Source.DisplayName
		}
		locations = append(locations, loc)
	}

	return domain.Work{
		ID:              work.ID,
		Title:           title,
		PublicationYear: work.PublicationYear,
		PublicationDate: work.PublicationDate,
		Type:            work.Type,
		CitedByCount:    work.CitedByCount,
		Authorships:     authorships,
		Locations:       locations,
	}
}

// authorToDomain converts an OpenAlex author profile to the domain model.
func authorToDomain(author *Author) *domain.Author {
	return &domain.Author{
		ID:            author.ID,
		DisplayName:   author.DisplayName,
		ORCID:         normalizeORCID(author.Orcid),
		WorksCount:    author.WorksCount,
		CitedByCount:  author.CitedByCount,
		HIndex:        author.SummaryStats.HIndex,
		I10Index:      author.SummaryStats.I10Index,
		MeanCitedness: author.SummaryStats.MeanCitedness,
		Affiliations:  affiliationNames(author.Affiliations),
		ResearchAreas: researchAreas(author.Topics),
	}
}

// affiliationNames returns the distinct institution names in first-seen order.
func affiliationNames(affiliations []Affiliation) []string {
	names := make([]string, 0, len(affiliations))
	seen := make(map[string]struct{}, len(affiliations))
	for _, affiliation := range affiliations {
		name := affiliation.Institution.DisplayName
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// researchAreas derives research areas from the author's leading topics:
// the first five subfield names, deduplicated, missing subfields skipped.
func researchAreas(topics []Topic) []string {
	names := make([]string, 0, len(topics))
	for _, topic := range topics {
		if topic.Subfield.DisplayName != "" {
			names = append(names, topic.Subfield.DisplayName)
		}
	}
	if len(names) > 5 {
		names = names[:5]
	}

	areas := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		areas = append(areas, name)
	}
	return areas
}

// suggestionLabel renders a display label for one author suggestion.
func suggestionLabel(result AutocompleteResult) string {
	if result.Hint == "" {
		return result.DisplayName
	}
	return fmt.Sprintf("%s (%s)", result.DisplayName, result.Hint)
}

// normalizeORCID strips any URL prefix from ORCID identifiers.
func normalizeORCID(orcid string) string {
	orcid = strings.TrimSpace(orcid)
	if orcid == "" {
		return ""
	}
	return strings.TrimPrefix(orcid, orcidPrefix)
}
