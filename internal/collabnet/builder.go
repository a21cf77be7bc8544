package collabnet

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/author-analytics-service/internal/domain"
	"github.com/helixir/author-analytics-service/internal/observability"
	"github.com/helixir/author-analytics-service/internal/recordsource"
)

const (
	// DefaultMaxDepth is the expansion depth used when none is configured.
	DefaultMaxDepth = 2
	// DefaultThreshold is the shared-paper count a co-author must exceed
	// to be admitted to the network.
	DefaultThreshold = 2
	// DefaultParallelism is the number of concurrent frontier fetches.
	DefaultParallelism = 4
)

// Config holds the settings for a Builder.
type Config struct {
	// MaxDepth is the number of expansion levels beyond the seed.
	MaxDepth int

	// Threshold is the shared-paper count a co-author must exceed
	// (strictly) within one member's works batch to be admitted.
	Threshold int

	// Parallelism is the maximum number of frontier members whose works
	// are fetched concurrently during one expansion level.
	Parallelism int
}

// applyDefaults fills in zero values with defaults.
func (c *Config) applyDefaults() {
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.Threshold <= 0 {
		c.Threshold = DefaultThreshold
	}
	if c.Parallelism <= 0 {
		c.Parallelism = DefaultParallelism
	}
}

// BuildOptions adjusts a single Build call.
type BuildOptions struct {
	// MaxDepth overrides the configured expansion depth when > 0.
	MaxDepth int

	// OnLevel, when non-nil, is invoked at the start of each expansion
	// pass with the 1-based level being populated and the number of
	// frontier members whose works are being fetched.
	OnLevel func(level, frontierSize int)
}

// Builder expands a seed author's co-authorship neighborhood into a Graph,
// one level at a time, admitting only collaborators whose shared-paper tally
// within a member's fetched works exceeds the configured threshold.
//
// Admission tallies are computed from whatever each works fetch returns; a
// truncated fetch (see recordsource.Source) undercounts shared papers and can
// exclude a borderline collaborator on one run that an untruncated run would
// admit. That variance is inherent to building from a paginated remote source
// and is not compensated here.
type Builder struct {
	source  recordsource.Source
	cfg     Config
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewBuilder creates a Builder reading works through the given source.
func NewBuilder(source recordsource.Source, cfg Config, logger zerolog.Logger, metrics *observability.Metrics) *Builder {
	cfg.applyDefaults()
	return &Builder{
		source:  source,
		cfg:     cfg,
		logger:  logger.With().Str("component", "collabnet").Logger(),
		metrics: metrics,
	}
}

// Build expands the collaboration network around the seed author.
//
// The seed's own works are taken from corpus rather than refetched; every
// other frontier member's works are fetched through the source. The loop:
//
//  1. Start with the seed as the sole node (level 0) and sole frontier
//     member, already marked visited.
//  2. For each frontier member, tally shared papers per distinct co-author
//     ID in a single pass over that member's works. Co-authors whose tally
//     exceeds the threshold gain a node at the next level (first write wins;
//     an existing node keeps its original level) and an undirected edge to
//     the member, deduplicated on the unordered pair.
//  3. Newly admitted co-authors not yet visited are marked visited
//     immediately and become the next frontier.
//  4. Stop when the frontier empties or the next level would exceed the
//     maximum depth.
//
// The returned error is non-nil only when ctx is done; everything else
// degrades to a smaller graph.
func (b *Builder) Build(ctx context.Context, seed *domain.Author, corpus []domain.Work, opts BuildOptions) (*Graph, error) {
	if seed == nil || seed.ID == "" {
		return nil, domain.NewValidationError("seed", "an author with an identifier is required")
	}

	maxDepth := b.cfg.MaxDepth
	if opts.MaxDepth > 0 {
		maxDepth = opts.MaxDepth
	}

	start := time.Now()
	graph := newGraph()
	graph.addNode(seed.ID, seed.DisplayName, 0)
	visited := map[string]bool{seed.ID: true}
	frontier := []string{seed.ID}

	for level := 0; level < maxDepth && len(frontier) > 0; level++ {
		if opts.OnLevel != nil {
			opts.OnLevel(level+1, len(frontier))
		}
		b.logger.Debug().
			Int("level", level+1).
			Int("frontier_size", len(frontier)).
			Msg("expanding frontier")

		worksByMember, err := b.frontierWorks(ctx, frontier, seed.ID, corpus)
		if err != nil {
			return nil, err
		}

		var next []string
		for _, memberID := range frontier {
			for _, coauthorID := range b.admit(graph, memberID, worksByMember[memberID], level+1) {
				if visited[coauthorID] {
					continue
				}
				visited[coauthorID] = true
				next = append(next, coauthorID)
			}
		}
		frontier = next
	}

	graph.finalize(seed.ID)

	elapsed := time.Since(start)
	b.metrics.RecordNetworkBuild(graph.NodeCount(), graph.EdgeCount(), elapsed.Seconds())
	b.logger.Info().
		Str("seed_id", seed.ID).
		Int("max_depth", maxDepth).
		Int("nodes", graph.NodeCount()).
		Int("edges", graph.EdgeCount()).
		Dur("duration", elapsed).
		Msg("collaboration network built")

	return graph, nil
}

// admit tallies the member's co-authors in a single pass over its works,
// adds a node and edge for every co-author whose tally exceeds the
// threshold, and returns the admitted IDs in deterministic order.
func (b *Builder) admit(graph *Graph, memberID string, works []domain.Work, level int) []string {
	tally := make(map[string]int)
	names := make(map[string]string)
	for _, work := range works {
		for _, coauthor := range work.Collaborators(memberID) {
			tally[coauthor.AuthorID]++
			if _, ok := names[coauthor.AuthorID]; !ok {
				names[coauthor.AuthorID] = coauthor.AuthorName
			}
		}
	}

	ids := make([]string, 0, len(tally))
	for id := range tally {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	admitted := make([]string, 0, len(ids))
	for _, id := range ids {
		if tally[id] <= b.cfg.Threshold {
			continue
		}
		graph.addNode(id, names[id], level)
		graph.addEdge(memberID, id, tally[id])
		admitted = append(admitted, id)
	}
	return admitted
}

// frontierWorks fetches the works of every frontier member, reusing the
// provided corpus for the seed and querying the source for everyone else,
// up to Parallelism fetches at a time. It fails only when ctx is done.
func (b *Builder) frontierWorks(ctx context.Context, frontier []string, seedID string, corpus []domain.Work) (map[string][]domain.Work, error) {
	works := make(map[string][]domain.Work, len(frontier))
	remote := make([]string, 0, len(frontier))
	for _, id := range frontier {
		if id == seedID {
			works[seedID] = corpus
			continue
		}
		remote = append(remote, id)
	}
	if len(remote) == 0 {
		return works, nil
	}

	parallelism := b.cfg.Parallelism
	if parallelism > len(remote) {
		parallelism = len(remote)
	}

	type result struct {
		authorID string
		works    []domain.Work
		err      error
	}

	jobs := make(chan string)
	results := make(chan result, len(remote))

	var wg sync.WaitGroup
	for i := 0; i < parallelism; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for authorID := range jobs {
				fetched, err := b.source.Works(ctx, authorID)
				results <- result{authorID: authorID, works: fetched, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, authorID := range remote {
			select {
			case jobs <- authorID:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var firstErr error
	for res := range results {
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		works[res.authorID] = res.works
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return works, nil
}
