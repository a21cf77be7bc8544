// Package recordsource provides the interface and plumbing for fetching
// scholarly records from a remote source.
//
// The Source interface is the single seam between the analytics pipeline and
// the remote API. The openalex subpackage implements it over the OpenAlex
// REST API; CachedSource decorates any implementation with an expiring cache
// so repeated dashboard builds for the same author do not refetch.
//
// Example usage:
//
//	client := openalex.New(cfg, logger, metrics)
//	source := recordsource.NewCachedSource(client, cacheOpts, logger, metrics)
//	author, err := source.Author(ctx, "0000-0002-1825-0097")
package recordsource

import (
	"context"

	"github.com/helixir/author-analytics-service/internal/domain"
)

// MinSearchQueryLength is the shortest author search query that triggers a
// remote call. Shorter queries yield an empty result without any request.
const MinSearchQueryLength = 3

// Source defines the operations the analytics pipeline needs from a
// scholarly record backend.
type Source interface {
	// Author retrieves an author profile by ORCID.
	// Returns domain.ErrNotFound (wrapped) for any non-success response;
	// the distinction between a missing author and a failing backend is
	// not observable on this endpoint.
	Author(ctx context.Context, orcid string) (*domain.Author, error)

	// Works retrieves the author's complete corpus, paginating
	// transparently. A failed or malformed page silently ends pagination:
	// the accumulated prefix is returned with a nil error. The error is
	// non-nil only when ctx is done.
	Works(ctx context.Context, authorID string) ([]domain.Work, error)

	// CitingWorks retrieves the works citing the given work, under the
	// same pagination and truncation contract as Works. Callers invoke it
	// once per work in a corpus; it dominates fetch latency.
	CitingWorks(ctx context.Context, workID string) ([]domain.Work, error)

	// SearchAuthors returns author suggestions for a display-name query.
	// Queries shorter than MinSearchQueryLength runes return an empty
	// sequence without calling the remote source.
	SearchAuthors(ctx context.Context, query string) ([]domain.AuthorSuggestion, error)
}
