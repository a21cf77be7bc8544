package dashboard

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/author-analytics-service/internal/analytics"
	"github.com/helixir/author-analytics-service/internal/collabnet"
	"github.com/helixir/author-analytics-service/internal/domain"
	"github.com/helixir/author-analytics-service/internal/observability"
	"github.com/helixir/author-analytics-service/internal/recordsource"
)

var testMetrics = observability.NewMetrics("dashboard_test")

func sampleAuthor() *domain.Author {
	return &domain.Author{
		ID:           "A1",
		DisplayName:  "John Smith",
		ORCID:        "0000-0001-2345-6789",
		WorksCount:   2,
		CitedByCount: 100,
		HIndex:       5,
	}
}

func sampleCorpus() []domain.Work {
	return []domain.Work{
		{
			ID:              "W1",
			Title:           "Alpha",
			PublicationYear: 2020,
			CitedByCount:    10,
			Authorships: []domain.Authorship{
				{AuthorID: "A1", AuthorName: "John Smith"},
				{AuthorID: "X1", AuthorName: "Xenia Park", Institutions: []domain.Institution{{ID: "I1", Name: "MIT"}}},
			},
			Locations: []domain.Location{{SourceID: "S1", SourceName: "Nature"}},
		},
		{
			ID:              "W2",
			Title:           "Beta",
			PublicationYear: 2021,
			CitedByCount:    5,
			Authorships: []domain.Authorship{
				{AuthorID: "A1", AuthorName: "John Smith"},
			},
		},
	}
}

// sampleCiting cites W1 twice (once by the author's own Beta, once by an
// external survey) and W2 once by the same survey.
func sampleCiting(workID string) []domain.Work {
	survey := domain.Work{
		ID:              "C1",
		Title:           "Gamma Survey",
		PublicationYear: 2022,
		CitedByCount:    7,
		Authorships:     []domain.Authorship{{AuthorID: "Z1", AuthorName: "Zoe Lin"}},
		Locations:       []domain.Location{{SourceID: "S2", SourceName: "Science"}},
	}
	if workID == "W1" {
		self := domain.Work{
			ID:              "W2",
			Title:           "Beta",
			PublicationYear: 2021,
			CitedByCount:    5,
			Authorships:     []domain.Authorship{{AuthorID: "A1", AuthorName: "John Smith"}},
		}
		return []domain.Work{self, survey}
	}
	return []domain.Work{survey}
}

type mockSource struct {
	authorFunc  func(ctx context.Context, orcid string) (*domain.Author, error)
	worksFunc   func(ctx context.Context, authorID string) ([]domain.Work, error)
	citingFunc  func(ctx context.Context, workID string) ([]domain.Work, error)
	searchFunc  func(ctx context.Context, query string) ([]domain.AuthorSuggestion, error)
	authorCalls atomic.Int32
	worksCalls  atomic.Int32
	citingCalls atomic.Int32
}

var _ recordsource.Source = (*mockSource)(nil)

func (m *mockSource) Author(ctx context.Context, orcid string) (*domain.Author, error) {
	m.authorCalls.Add(1)
	if m.authorFunc != nil {
		return m.authorFunc(ctx, orcid)
	}
	return sampleAuthor(), nil
}

func (m *mockSource) Works(ctx context.Context, authorID string) ([]domain.Work, error) {
	m.worksCalls.Add(1)
	if m.worksFunc != nil {
		return m.worksFunc(ctx, authorID)
	}
	return sampleCorpus(), nil
}

func (m *mockSource) CitingWorks(ctx context.Context, workID string) ([]domain.Work, error) {
	m.citingCalls.Add(1)
	if m.citingFunc != nil {
		return m.citingFunc(ctx, workID)
	}
	return sampleCiting(workID), nil
}

func (m *mockSource) SearchAuthors(ctx context.Context, query string) ([]domain.AuthorSuggestion, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, query)
	}
	return []domain.AuthorSuggestion{}, nil
}

type mockNetworkBuilder struct {
	buildFunc  func(ctx context.Context, seed *domain.Author, works []domain.Work, opts collabnet.BuildOptions) (*collabnet.Graph, error)
	buildCalls atomic.Int32
}

var _ NetworkBuilder = (*mockNetworkBuilder)(nil)

func (m *mockNetworkBuilder) Build(ctx context.Context, seed *domain.Author, works []domain.Work, opts collabnet.BuildOptions) (*collabnet.Graph, error) {
	m.buildCalls.Add(1)
	if m.buildFunc != nil {
		return m.buildFunc(ctx, seed, works, opts)
	}
	return nil, nil
}

func newTestService(source recordsource.Source, network NetworkBuilder, store *Store, cfg Config) *Service {
	return NewService(source, network, store, cfg, zerolog.Nop(), testMetrics)
}

// realNetworkBuilder expands the collaboration network against the same
// mocked source the pipeline reads from.
func realNetworkBuilder(source recordsource.Source) NetworkBuilder {
	return collabnet.NewBuilder(source, collabnet.Config{}, zerolog.Nop(), testMetrics)
}

func TestService_BuildReport(t *testing.T) {
	t.Run("assembles the full report", func(t *testing.T) {
		source := &mockSource{}
		svc := newTestService(source, realNetworkBuilder(source), nil, Config{})

		report, err := svc.BuildReport(context.Background(), "0000-0001-2345-6789", BuildOptions{}, nil)
		require.NoError(t, err)
		require.NotNil(t, report)

		assert.Equal(t, "John Smith", report.Author.DisplayName)
		assert.False(t, report.GeneratedAt.IsZero())

		assert.Equal(t, []analytics.PublicationRow{
			{Title: "Alpha", Year: 2020, Venue: "Nature", Citations: 10},
			{Title: "Beta", Year: 2021, Venue: "N/A", Citations: 5},
		}, report.Publications)
		assert.Equal(t, []analytics.CollaboratorCount{{Name: "Xenia Park", Collaborations: 1}}, report.TopCollaborators)
		assert.Equal(t, []analytics.VenueCount{{Venue: "Nature", Publications: 1}}, report.TopVenues)
		assert.Equal(t, []analytics.InstitutionCount{{Institution: "MIT", Collaborations: 1}}, report.InstitutionCollaborations)

		assert.Equal(t, map[int]map[domain.AuthorPosition]int{
			2020: {domain.PositionFirst: 1},
			2021: {domain.PositionFirst: 1},
		}, report.PublicationsByYear)
		assert.Equal(t, map[int]int{2020: 1}, report.UniqueCollaboratorsPerYear)
		assert.Equal(t, map[int]float64{2020: 1, 2021: 0}, report.NewCollaboratorsPerPaper)
		assert.Equal(t, map[int]float64{2020: 2, 2021: 1}, report.MeanTeamSizePerYear)
		assert.Equal(t, map[int]int{1: 1}, report.CollaborationHistogram)

		assert.Equal(t, []analytics.CitingRow{
			{Title: "Gamma Survey", Venue: "Science", Citations: 2, Self: false},
			{Title: "Beta", Venue: "N/A", Citations: 1, Self: true},
		}, report.CitingPapers)
		assert.Equal(t, map[int]map[domain.CitationType]int{
			2021: {domain.CitationSelf: 1},
			2022: {domain.CitationExternal: 2},
		}, report.CitationsByYear)

		assert.Equal(t, 2, report.Citations.TotalWorks)
		assert.Equal(t, 3, report.Citations.TotalCitations)
		assert.Equal(t, 1, report.Citations.SelfCitations)
		assert.InDelta(t, 33.33, report.Citations.SelfCitationRate, 0.001)
		assert.Equal(t, 1, report.Citations.ConcentrationIndex)
		assert.InDelta(t, 4.0, report.Citations.CHSquaredIndex, 0.001)

		// Xenia shares only one paper with the seed, so the graph stays
		// seed-only.
		require.NotNil(t, report.Network)
		assert.Equal(t, "A1", report.Network.SeedID())
		assert.Equal(t, 1, report.Network.NodeCount())

		assert.EqualValues(t, 1, source.authorCalls.Load())
		assert.EqualValues(t, 1, source.worksCalls.Load())
		assert.EqualValues(t, 2, source.citingCalls.Load())
	})

	t.Run("emits progress events in pipeline order", func(t *testing.T) {
		source := &mockSource{}
		svc := newTestService(source, realNetworkBuilder(source), nil, Config{})

		var events []Progress
		_, err := svc.BuildReport(context.Background(), "0000-0001-2345-6789", BuildOptions{}, func(p Progress) {
			events = append(events, p)
		})
		require.NoError(t, err)

		assert.Equal(t, []Progress{
			{Stage: StageAuthor},
			{Stage: StageWorks},
			{Stage: StageMetrics},
			{Stage: StageCitations, Total: 2},
			{Stage: StageCitations, Done: 1, Total: 2},
			{Stage: StageCitations, Done: 2, Total: 2},
			{Stage: StageNetwork, Level: 1},
			{Stage: StageAssembling},
			{Stage: StageCompleted},
		}, events)
	})

	t.Run("skips the network stage on request", func(t *testing.T) {
		source := &mockSource{}
		builder := &mockNetworkBuilder{}
		svc := newTestService(source, builder, nil, Config{})

		var events []Progress
		report, err := svc.BuildReport(context.Background(), "0000-0001-2345-6789", BuildOptions{SkipNetwork: true}, func(p Progress) {
			events = append(events, p)
		})
		require.NoError(t, err)

		assert.Nil(t, report.Network)
		assert.EqualValues(t, 0, builder.buildCalls.Load())
		for _, event := range events {
			assert.NotEqual(t, StageNetwork, event.Stage)
		}
	})

	t.Run("passes the depth override to the network builder", func(t *testing.T) {
		source := &mockSource{}
		builder := &mockNetworkBuilder{}
		var gotDepth int
		builder.buildFunc = func(ctx context.Context, seed *domain.Author, works []domain.Work, opts collabnet.BuildOptions) (*collabnet.Graph, error) {
			gotDepth = opts.MaxDepth
			return nil, nil
		}
		svc := newTestService(source, builder, nil, Config{})

		_, err := svc.BuildReport(context.Background(), "0000-0001-2345-6789", BuildOptions{MaxDepth: 3}, nil)
		require.NoError(t, err)
		assert.Equal(t, 3, gotDepth)
	})

	t.Run("rejects an out-of-range depth before fetching anything", func(t *testing.T) {
		source := &mockSource{}
		svc := newTestService(source, &mockNetworkBuilder{}, nil, Config{})

		for _, depth := range []int{-1, 6, 100} {
			_, err := svc.BuildReport(context.Background(), "0000-0001-2345-6789", BuildOptions{MaxDepth: depth}, nil)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		}
		assert.EqualValues(t, 0, source.authorCalls.Load())
	})

	t.Run("rejects a blank orcid", func(t *testing.T) {
		svc := newTestService(&mockSource{}, &mockNetworkBuilder{}, nil, Config{})

		for _, orcid := range []string{"", "   "} {
			_, err := svc.BuildReport(context.Background(), orcid, BuildOptions{}, nil)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		}
	})

	t.Run("propagates a missing author and reports the failure", func(t *testing.T) {
		source := &mockSource{}
		source.authorFunc = func(ctx context.Context, orcid string) (*domain.Author, error) {
			return nil, domain.NewNotFoundError("author", orcid)
		}
		svc := newTestService(source, &mockNetworkBuilder{}, nil, Config{})

		var events []Progress
		report, err := svc.BuildReport(context.Background(), "0000-0001-2345-6789", BuildOptions{}, func(p Progress) {
			events = append(events, p)
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Nil(t, report)
		assert.EqualValues(t, 0, source.worksCalls.Load())

		require.NotEmpty(t, events)
		last := events[len(events)-1]
		assert.Equal(t, StageFailed, last.Stage)
		assert.NotEmpty(t, last.Message)
	})

	t.Run("propagates network build errors", func(t *testing.T) {
		source := &mockSource{}
		builder := &mockNetworkBuilder{}
		builder.buildFunc = func(ctx context.Context, seed *domain.Author, works []domain.Work, opts collabnet.BuildOptions) (*collabnet.Graph, error) {
			return nil, domain.NewExternalAPIError("openalex", 502, "bad gateway", nil)
		}
		svc := newTestService(source, builder, nil, Config{})

		report, err := svc.BuildReport(context.Background(), "0000-0001-2345-6789", BuildOptions{}, nil)
		require.Error(t, err)
		assert.Nil(t, report)
	})
}

func TestService_BuildNetwork(t *testing.T) {
	t.Run("fetches the corpus and expands the network", func(t *testing.T) {
		source := &mockSource{}
		svc := newTestService(source, realNetworkBuilder(source), nil, Config{})

		graph, err := svc.BuildNetwork(context.Background(), "0000-0001-2345-6789", 2)
		require.NoError(t, err)
		require.NotNil(t, graph)
		assert.Equal(t, "A1", graph.SeedID())
		assert.Equal(t, 1, graph.NodeCount())
		assert.EqualValues(t, 1, source.authorCalls.Load())
		assert.EqualValues(t, 1, source.worksCalls.Load())
		assert.EqualValues(t, 0, source.citingCalls.Load())
	})

	t.Run("validates input before fetching", func(t *testing.T) {
		source := &mockSource{}
		svc := newTestService(source, &mockNetworkBuilder{}, nil, Config{})

		_, err := svc.BuildNetwork(context.Background(), "", 2)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		_, err = svc.BuildNetwork(context.Background(), "0000-0001-2345-6789", 9)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.EqualValues(t, 0, source.authorCalls.Load())
	})

	t.Run("propagates a missing author", func(t *testing.T) {
		source := &mockSource{}
		source.authorFunc = func(ctx context.Context, orcid string) (*domain.Author, error) {
			return nil, domain.NewNotFoundError("author", orcid)
		}
		svc := newTestService(source, &mockNetworkBuilder{}, nil, Config{})

		_, err := svc.BuildNetwork(context.Background(), "0000-0001-2345-6789", 0)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestService_SearchAuthors(t *testing.T) {
	source := &mockSource{}
	source.searchFunc = func(ctx context.Context, query string) ([]domain.AuthorSuggestion, error) {
		assert.Equal(t, "smith", query)
		return []domain.AuthorSuggestion{{ID: "A1", DisplayName: "John Smith"}}, nil
	}
	svc := newTestService(source, &mockNetworkBuilder{}, nil, Config{})

	suggestions, err := svc.SearchAuthors(context.Background(), "smith")
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "John Smith", suggestions[0].DisplayName)
}

func TestService_StartJob(t *testing.T) {
	t.Run("runs a job through to completion", func(t *testing.T) {
		source := &mockSource{}
		store := newTestStore(time.Hour)
		svc := newTestService(source, realNetworkBuilder(source), store, Config{})

		job, err := svc.StartJob("0000-0001-2345-6789", BuildOptions{})
		require.NoError(t, err)
		assert.Equal(t, JobPending, job.Status)
		assert.Equal(t, "0000-0001-2345-6789", job.ORCID)

		require.Eventually(t, func() bool {
			got, getErr := store.Get(job.ID)
			return getErr == nil && got.Status == JobCompleted
		}, 2*time.Second, 10*time.Millisecond)

		got, err := store.Get(job.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Report)
		assert.Equal(t, "John Smith", got.Report.Author.DisplayName)
		assert.Equal(t, StageCompleted, got.Progress.Stage)
		assert.Empty(t, got.Error)
	})

	t.Run("streams the full stage sequence to subscribers", func(t *testing.T) {
		gate := make(chan struct{})
		source := &mockSource{}
		source.authorFunc = func(ctx context.Context, orcid string) (*domain.Author, error) {
			<-gate
			return sampleAuthor(), nil
		}
		store := newTestStore(time.Hour)
		svc := newTestService(source, realNetworkBuilder(source), store, Config{})

		job, err := svc.StartJob("0000-0001-2345-6789", BuildOptions{})
		require.NoError(t, err)

		ch, cancel, err := store.Subscribe(job.ID)
		require.NoError(t, err)
		defer cancel()
		close(gate)

		// The author stage may fire before the subscription lands; every
		// stage after the gate is guaranteed to arrive.
		events := drainEvents(ch)
		require.NotEmpty(t, events)
		stages := make([]Stage, 0, len(events))
		for _, event := range events {
			stages = append(stages, event.Stage)
		}
		assert.Contains(t, stages, StageWorks)
		assert.Contains(t, stages, StageMetrics)
		assert.Contains(t, stages, StageCitations)
		assert.Contains(t, stages, StageAssembling)
		assert.Equal(t, StageCompleted, stages[len(stages)-1])
	})

	t.Run("records a failed build", func(t *testing.T) {
		source := &mockSource{}
		source.authorFunc = func(ctx context.Context, orcid string) (*domain.Author, error) {
			return nil, domain.NewExternalAPIError("openalex", 503, "service unavailable", nil)
		}
		store := newTestStore(time.Hour)
		svc := newTestService(source, &mockNetworkBuilder{}, store, Config{})

		job, err := svc.StartJob("0000-0001-2345-6789", BuildOptions{})
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			got, getErr := store.Get(job.ID)
			return getErr == nil && got.Status == JobFailed
		}, 2*time.Second, 10*time.Millisecond)

		got, err := store.Get(job.ID)
		require.NoError(t, err)
		assert.Nil(t, got.Report)
		assert.Contains(t, got.Error, "service unavailable")
		assert.Equal(t, StageFailed, got.Progress.Stage)
	})

	t.Run("bounds the number of concurrent builds", func(t *testing.T) {
		gate := make(chan struct{})
		source := &mockSource{}
		source.authorFunc = func(ctx context.Context, orcid string) (*domain.Author, error) {
			<-gate
			return sampleAuthor(), nil
		}
		store := newTestStore(time.Hour)
		svc := newTestService(source, &mockNetworkBuilder{}, store, Config{MaxConcurrentBuilds: 2})

		var jobs []*Job
		for i := 0; i < 3; i++ {
			job, err := svc.StartJob("0000-0001-2345-6789", BuildOptions{SkipNetwork: true})
			require.NoError(t, err)
			jobs = append(jobs, job)
		}

		statusCounts := func() map[JobStatus]int {
			counts := make(map[JobStatus]int)
			for _, job := range jobs {
				got, err := store.Get(job.ID)
				if err != nil {
					continue
				}
				counts[got.Status]++
			}
			return counts
		}

		// Two builds hold the slots; the third stays pending.
		require.Eventually(t, func() bool {
			counts := statusCounts()
			return counts[JobRunning] == 2 && counts[JobPending] == 1
		}, 2*time.Second, 10*time.Millisecond)

		close(gate)
		require.Eventually(t, func() bool {
			return statusCounts()[JobCompleted] == 3
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("validates input before registering a job", func(t *testing.T) {
		store := newTestStore(time.Hour)
		svc := newTestService(&mockSource{}, &mockNetworkBuilder{}, store, Config{})

		_, err := svc.StartJob("", BuildOptions{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		_, err = svc.StartJob("0000-0001-2345-6789", BuildOptions{MaxDepth: 7})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		store.mu.RLock()
		defer store.mu.RUnlock()
		assert.Empty(t, store.jobs)
	})

	t.Run("fails cleanly when no job store is wired", func(t *testing.T) {
		svc := newTestService(&mockSource{}, &mockNetworkBuilder{}, nil, Config{})

		job, err := svc.StartJob("0000-0001-2345-6789", BuildOptions{})
		assert.ErrorIs(t, err, ErrJobsDisabled)
		assert.Nil(t, job)
	})
}

func TestServiceConfig_applyDefaults(t *testing.T) {
	t.Run("fills zero values", func(t *testing.T) {
		cfg := Config{}
		cfg.applyDefaults()
		assert.Equal(t, 1, cfg.CitingParallelism)
		assert.Equal(t, DefaultMaxConcurrentBuilds, cfg.MaxConcurrentBuilds)
		assert.Equal(t, DefaultBuildTimeout, cfg.BuildTimeout)
	})

	t.Run("keeps explicit settings", func(t *testing.T) {
		cfg := Config{CitingParallelism: 8, MaxConcurrentBuilds: 2, BuildTimeout: time.Minute}
		cfg.applyDefaults()
		assert.Equal(t, 8, cfg.CitingParallelism)
		assert.Equal(t, 2, cfg.MaxConcurrentBuilds)
		assert.Equal(t, time.Minute, cfg.BuildTimeout)
	})
}
