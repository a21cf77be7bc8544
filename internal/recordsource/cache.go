package recordsource

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"

	"github.com/helixir/author-analytics-service/internal/domain"
	"github.com/helixir/author-analytics-service/internal/observability"
)

// Operation names used in cache keys and metrics labels.
const (
	opAuthor        = "author"
	opWorks         = "works"
	opCitingWorks   = "citing_works"
	opSearchAuthors = "search_authors"
)

// keySep separates the operation name from its argument inside cache keys.
// NUL cannot occur in identifiers or queries.
const keySep = "\x00"

// CacheOptions configures the caching decorator.
type CacheOptions struct {
	// TTL is how long a cached fetch stays fresh.
	TTL time.Duration

	// MaxEntries bounds the cache; the least recently used entries are
	// evicted past it.
	MaxEntries int
}

// CachedSource decorates a Source with an expiring LRU cache keyed by
// operation and argument. Only successful fetches are stored; errors always
// pass through to the caller uncached. It is safe for concurrent use.
type CachedSource struct {
	next    Source
	entries *expirable.LRU[string, any]
	logger  zerolog.Logger
	metrics *observability.Metrics
}

var _ Source = (*CachedSource)(nil)

// NewCachedSource wraps next with a cache holding up to opts.MaxEntries
// results for opts.TTL each.
func NewCachedSource(next Source, opts CacheOptions, logger zerolog.Logger, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		next:    next,
		entries: expirable.NewLRU[string, any](opts.MaxEntries, nil, opts.TTL),
		logger:  logger.With().Str("component", "source_cache").Logger(),
		metrics: metrics,
	}
}

func cacheKey(operation, argument string) string {
	return operation + keySep + argument
}

// Author returns the cached profile when fresh, fetching otherwise.
func (c *CachedSource) Author(ctx context.Context, orcid string) (*domain.Author, error) {
	key := cacheKey(opAuthor, orcid)
	if v, ok := c.entries.Get(key); ok {
		c.metrics.RecordCacheHit(opAuthor)
		return v.(*domain.Author), nil
	}
	c.metrics.RecordCacheMiss(opAuthor)

	author, err := c.next.Author(ctx, orcid)
	if err != nil {
		return nil, err
	}
	c.entries.Add(key, author)
	return author, nil
}

// Works returns the cached corpus when fresh, fetching otherwise.
// Truncated listings are successes and are cached like complete ones.
func (c *CachedSource) Works(ctx context.Context, authorID string) ([]domain.Work, error) {
	key := cacheKey(opWorks, authorID)
	if v, ok := c.entries.Get(key); ok {
		c.metrics.RecordCacheHit(opWorks)
		return v.([]domain.Work), nil
	}
	c.metrics.RecordCacheMiss(opWorks)

	works, err := c.next.Works(ctx, authorID)
	if err != nil {
		return works, err
	}
	c.entries.Add(key, works)
	return works, nil
}

// CitingWorks returns the cached citing listing when fresh, fetching otherwise.
func (c *CachedSource) CitingWorks(ctx context.Context, workID string) ([]domain.Work, error) {
	key := cacheKey(opCitingWorks, workID)
	if v, ok := c.entries.Get(key); ok {
		c.metrics.RecordCacheHit(opCitingWorks)
		return v.([]domain.Work), nil
	}
	c.metrics.RecordCacheMiss(opCitingWorks)

	works, err := c.next.CitingWorks(ctx, workID)
	if err != nil {
		return works, err
	}
	c.entries.Add(key, works)
	return works, nil
}

// SearchAuthors returns cached suggestions when fresh, fetching otherwise.
func (c *CachedSource) SearchAuthors(ctx context.Context, query string) ([]domain.AuthorSuggestion, error) {
	key := cacheKey(opSearchAuthors, query)
	if v, ok := c.entries.Get(key); ok {
		c.metrics.RecordCacheHit(opSearchAuthors)
		return v.([]domain.AuthorSuggestion), nil
	}
	c.metrics.RecordCacheMiss(opSearchAuthors)

	suggestions, err := c.next.SearchAuthors(ctx, query)
	if err != nil {
		return nil, err
	}
	c.entries.Add(key, suggestions)
	return suggestions, nil
}

// InvalidateAuthor removes every cached fetch reachable from the author's
// ORCID: the profile, the works listing, and the citing-works entry of each
// work in the cached listing. It returns the number of entries removed.
func (c *CachedSource) InvalidateAuthor(orcid string) int {
	removed := 0

	authorKey := cacheKey(opAuthor, orcid)
	if v, ok := c.entries.Peek(authorKey); ok {
		author := v.(*domain.Author)
		worksKey := cacheKey(opWorks, author.ID)
		if wv, ok := c.entries.Peek(worksKey); ok {
			for _, work := range wv.([]domain.Work) {
				if c.entries.Remove(cacheKey(opCitingWorks, work.ID)) {
					removed++
				}
			}
			if c.entries.Remove(worksKey) {
				removed++
			}
		}
		if c.entries.Remove(authorKey) {
			removed++
		}
	}

	if removed > 0 {
		c.metrics.RecordCacheInvalidation(removed)
		c.logger.Info().Str("orcid", orcid).Int("entries", removed).Msg("cache invalidated")
	}
	return removed
}

// InvalidateWork removes the cached citing-works listing for one work.
func (c *CachedSource) InvalidateWork(workID string) bool {
	if !c.entries.Remove(cacheKey(opCitingWorks, workID)) {
		return false
	}
	c.metrics.RecordCacheInvalidation(1)
	return true
}

// Len returns the number of live cache entries.
func (c *CachedSource) Len() int {
	return c.entries.Len()
}
