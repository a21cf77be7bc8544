package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/author-analytics-service/internal/analytics"
	"github.com/helixir/author-analytics-service/internal/collabnet"
	"github.com/helixir/author-analytics-service/internal/corpus"
	"github.com/helixir/author-analytics-service/internal/domain"
	"github.com/helixir/author-analytics-service/internal/observability"
	"github.com/helixir/author-analytics-service/internal/recordsource"
)

// Network depth bounds accepted from callers.
const (
	MinNetworkDepth = 1
	MaxNetworkDepth = 5
)

// ErrJobsDisabled is returned by StartJob when the service was built
// without a job store.
var ErrJobsDisabled = errors.New("dashboard: background jobs are disabled without a job store")

const (
	// DefaultMaxConcurrentBuilds bounds simultaneous background builds.
	DefaultMaxConcurrentBuilds = 4
	// DefaultBuildTimeout bounds a single background report build.
	DefaultBuildTimeout = 30 * time.Minute
)

// NetworkBuilder expands a seed author's collaboration network.
type NetworkBuilder interface {
	Build(ctx context.Context, seed *domain.Author, works []domain.Work, opts collabnet.BuildOptions) (*collabnet.Graph, error)
}

// Config holds the settings for a Service.
type Config struct {
	// CitingParallelism is the number of concurrent citing-works fetches.
	CitingParallelism int

	// MaxConcurrentBuilds bounds background report builds; further jobs
	// stay pending until a slot frees.
	MaxConcurrentBuilds int

	// BuildTimeout bounds a single background report build.
	BuildTimeout time.Duration
}

// applyDefaults fills in zero values with defaults.
func (c *Config) applyDefaults() {
	if c.CitingParallelism <= 0 {
		c.CitingParallelism = 1
	}
	if c.MaxConcurrentBuilds <= 0 {
		c.MaxConcurrentBuilds = DefaultMaxConcurrentBuilds
	}
	if c.BuildTimeout <= 0 {
		c.BuildTimeout = DefaultBuildTimeout
	}
}

// BuildOptions control a single report build.
type BuildOptions struct {
	// SkipNetwork omits the collaboration network stage.
	SkipNetwork bool

	// MaxDepth overrides the configured network expansion depth when > 0.
	// Values outside [MinNetworkDepth, MaxNetworkDepth] are rejected.
	MaxDepth int
}

// Service builds author analytics reports. All fetching goes through the
// record source; aggregation is pure and happens in-process.
type Service struct {
	source     recordsource.Source
	network    NetworkBuilder
	store      *Store
	cfg        Config
	buildSlots chan struct{}
	logger     zerolog.Logger
	metrics    *observability.Metrics
}

// NewService creates a Service. The store may be nil when background jobs
// are not used; StartJob then fails instead of registering anything.
func NewService(source recordsource.Source, network NetworkBuilder, store *Store, cfg Config, logger zerolog.Logger, metrics *observability.Metrics) *Service {
	cfg.applyDefaults()
	return &Service{
		source:     source,
		network:    network,
		store:      store,
		cfg:        cfg,
		buildSlots: make(chan struct{}, cfg.MaxConcurrentBuilds),
		logger:     logger.With().Str("component", "dashboard").Logger(),
		metrics:    metrics,
	}
}

// BuildReport runs the full pipeline for one author: profile, corpus,
// works-derived metrics, citation metrics, and (unless skipped) the
// collaboration network. onProgress may be nil for a silent build.
//
// A missing author surfaces as domain.ErrNotFound. Truncated listings
// degrade to a report over the fetched prefix; the only fetch errors that
// abort a build are context cancellation and an unreachable backend on the
// profile lookup.
func (s *Service) BuildReport(ctx context.Context, orcid string, opts BuildOptions, onProgress ProgressFunc) (*Report, error) {
	orcid = strings.TrimSpace(orcid)
	if orcid == "" {
		return nil, domain.NewValidationError("orcid", "an ORCID is required")
	}
	if err := validateDepth(opts.MaxDepth); err != nil {
		return nil, err
	}

	emit := func(p Progress) {
		if onProgress != nil {
			onProgress(p)
		}
	}

	start := time.Now()
	s.metrics.RecordReportStarted()

	report, err := s.assemble(ctx, orcid, opts, emit)
	if err != nil {
		s.metrics.RecordReportFailed(time.Since(start).Seconds())
		s.logger.Error().Err(err).Str("orcid", orcid).Msg("report build failed")
		emit(Progress{Stage: StageFailed, Message: err.Error()})
		return nil, err
	}

	elapsed := time.Since(start)
	s.metrics.RecordReportCompleted(elapsed.Seconds())
	s.logger.Info().
		Str("orcid", orcid).
		Int("works", report.Citations.TotalWorks).
		Int("citations", report.Citations.TotalCitations).
		Bool("network", report.Network != nil).
		Dur("duration", elapsed).
		Msg("report built")
	emit(Progress{Stage: StageCompleted})

	return report, nil
}

func (s *Service) assemble(ctx context.Context, orcid string, opts BuildOptions, emit ProgressFunc) (*Report, error) {
	emit(Progress{Stage: StageAuthor})
	author, err := s.source.Author(ctx, orcid)
	if err != nil {
		return nil, err
	}

	emit(Progress{Stage: StageWorks})
	works, err := s.source.Works(ctx, author.ID)
	if err != nil {
		return nil, err
	}
	index := corpus.NewIndex(works)

	emit(Progress{Stage: StageMetrics})
	report := &Report{
		Author:      author,
		GeneratedAt: time.Now().UTC(),

		Publications:              analytics.PublicationRows(index),
		TopCollaborators:          analytics.TopCollaborators(works, author.ID),
		TopVenues:                 analytics.TopVenues(index),
		InstitutionCollaborations: analytics.InstitutionCollaborations(works, author.ID),

		PublicationsByYear:         analytics.PublicationsByPositionByYear(index, author.ID),
		UniqueCollaboratorsPerYear: analytics.UniqueCollaboratorsPerYear(works, author.ID),
		NewCollaboratorsPerPaper:   analytics.NewCollaboratorsPerPaperPerYear(works, author.ID),
		MeanTeamSizePerYear:        analytics.MeanTeamSizePerYear(works),
		CollaborationHistogram:     analytics.FrequencyHistogram(analytics.CollaborationFrequency(works, author.ID)),
	}

	workIDs := index.WorkIDs()
	emit(Progress{Stage: StageCitations, Total: len(workIDs)})
	citingByWork, err := recordsource.FetchCitingWorks(ctx, s.source, workIDs, s.cfg.CitingParallelism, func(done, total int) {
		emit(Progress{Stage: StageCitations, Done: done, Total: total})
	})
	if err != nil {
		return nil, err
	}
	citing := flattenCiting(workIDs, citingByWork)

	report.CitingPapers = analytics.CitingFrequency(citing, index)
	report.CitationsByYear = analytics.CitationsByYearByType(citing, index)

	self, total := analytics.SelfCitationCounts(citing, index)
	counts := make([]int, 0, len(report.CitingPapers))
	for _, row := range report.CitingPapers {
		counts = append(counts, row.Citations)
	}
	report.Citations = CitationSummary{
		TotalWorks:         index.Len(),
		TotalCitations:     total,
		SelfCitations:      self,
		SelfCitationRate:   analytics.SelfCitationRate(self, total),
		ConcentrationIndex: analytics.CitationConcentrationIndex(counts),
		CHSquaredIndex:     analytics.CHSquaredIndex(author.CitedByCount, author.HIndex),
	}

	if !opts.SkipNetwork {
		graph, err := s.network.Build(ctx, author, works, collabnet.BuildOptions{
			MaxDepth: opts.MaxDepth,
			OnLevel: func(level, frontierSize int) {
				emit(Progress{Stage: StageNetwork, Level: level})
			},
		})
		if err != nil {
			return nil, err
		}
		report.Network = graph
	}

	emit(Progress{Stage: StageAssembling})
	return report, nil
}

// BuildNetwork fetches the author and corpus, then expands only the
// collaboration network. maxDepth may be zero for the configured default.
func (s *Service) BuildNetwork(ctx context.Context, orcid string, maxDepth int) (*collabnet.Graph, error) {
	orcid = strings.TrimSpace(orcid)
	if orcid == "" {
		return nil, domain.NewValidationError("orcid", "an ORCID is required")
	}
	if err := validateDepth(maxDepth); err != nil {
		return nil, err
	}

	author, err := s.source.Author(ctx, orcid)
	if err != nil {
		return nil, err
	}
	works, err := s.source.Works(ctx, author.ID)
	if err != nil {
		return nil, err
	}
	return s.network.Build(ctx, author, works, collabnet.BuildOptions{MaxDepth: maxDepth})
}

// SearchAuthors forwards an author name query to the record source.
func (s *Service) SearchAuthors(ctx context.Context, query string) ([]domain.AuthorSuggestion, error) {
	return s.source.SearchAuthors(ctx, query)
}

// StartJob registers a report job and builds it in the background. The job
// stays pending until a build slot frees, then runs to a terminal state
// recorded in the store. Without a store it returns ErrJobsDisabled.
func (s *Service) StartJob(orcid string, opts BuildOptions) (*Job, error) {
	if s.store == nil {
		return nil, ErrJobsDisabled
	}
	orcid = strings.TrimSpace(orcid)
	if orcid == "" {
		return nil, domain.NewValidationError("orcid", "an ORCID is required")
	}
	if err := validateDepth(opts.MaxDepth); err != nil {
		return nil, err
	}

	job := s.store.Create(orcid)
	go s.runJob(job.ID, orcid, opts)
	return job, nil
}

func (s *Service) runJob(jobID, orcid string, opts BuildOptions) {
	s.buildSlots <- struct{}{}
	defer func() { <-s.buildSlots }()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.BuildTimeout)
	defer cancel()

	s.store.SetRunning(jobID)
	report, err := s.BuildReport(ctx, orcid, opts, func(p Progress) {
		// The store emits the terminal event when the job is finalized.
		if p.Stage == StageCompleted || p.Stage == StageFailed {
			return
		}
		s.store.SetProgress(jobID, p)
	})
	if err != nil {
		s.store.Fail(jobID, err)
		return
	}
	s.store.Complete(jobID, report)
}

// flattenCiting concatenates per-work citing lists in corpus order. A paper
// citing k corpus works appears k times: rate and per-year aggregations
// count citation events, while the citing-papers table deduplicates.
func flattenCiting(workIDs []string, citingByWork map[string][]domain.Work) []domain.Work {
	var citing []domain.Work
	for _, id := range workIDs {
		citing = append(citing, citingByWork[id]...)
	}
	return citing
}

func validateDepth(maxDepth int) error {
	if maxDepth == 0 {
		return nil
	}
	if maxDepth < MinNetworkDepth || maxDepth > MaxNetworkDepth {
		return domain.NewValidationError("max_depth", fmt.Sprintf("must be between %d and %d", MinNetworkDepth, MaxNetworkDepth))
	}
	return nil
}
