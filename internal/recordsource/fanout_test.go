package recordsource

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/author-analytics-service/internal/domain"
)

func TestFetchCitingWorks(t *testing.T) {
	t.Run("collects citing works per work ID", func(t *testing.T) {
		source := &mockSource{
			citingFunc: func(ctx context.Context, workID string) ([]domain.Work, error) {
				return []domain.Work{{ID: "citing-" + workID}}, nil
			},
		}

		citing, err := FetchCitingWorks(context.Background(), source, []string{"W1", "W2", "W3"}, 2, nil)
		require.NoError(t, err)
		require.Len(t, citing, 3)

		assert.Equal(t, "citing-W1", citing["W1"][0].ID)
		assert.Equal(t, "citing-W2", citing["W2"][0].ID)
		assert.Equal(t, "citing-W3", citing["W3"][0].ID)
		assert.Equal(t, int32(3), source.citingCalls.Load())
	})

	t.Run("empty input returns an empty map without calls", func(t *testing.T) {
		source := &mockSource{}

		citing, err := FetchCitingWorks(context.Background(), source, nil, 4, nil)
		require.NoError(t, err)
		assert.Empty(t, citing)
		assert.Equal(t, int32(0), source.citingCalls.Load())
	})

	t.Run("never exceeds the configured parallelism", func(t *testing.T) {
		var mu sync.Mutex
		current, peak := 0, 0

		source := &mockSource{
			citingFunc: func(ctx context.Context, workID string) ([]domain.Work, error) {
				mu.Lock()
				current++
				if current > peak {
					peak = current
				}
				mu.Unlock()

				time.Sleep(20 * time.Millisecond)

				mu.Lock()
				current--
				mu.Unlock()
				return nil, nil
			},
		}

		workIDs := []string{"W1", "W2", "W3", "W4", "W5", "W6"}
		_, err := FetchCitingWorks(context.Background(), source, workIDs, 2, nil)
		require.NoError(t, err)

		mu.Lock()
		defer mu.Unlock()
		assert.LessOrEqual(t, peak, 2)
		assert.Positive(t, peak)
	})

	t.Run("clamps non-positive parallelism to one", func(t *testing.T) {
		source := &mockSource{}

		citing, err := FetchCitingWorks(context.Background(), source, []string{"W1", "W2"}, 0, nil)
		require.NoError(t, err)
		assert.Len(t, citing, 2)
	})

	t.Run("skips failed lookups and keeps the rest", func(t *testing.T) {
		source := &mockSource{
			citingFunc: func(ctx context.Context, workID string) ([]domain.Work, error) {
				if workID == "W2" {
					return nil, errors.New("boom")
				}
				return []domain.Work{{ID: "citing-" + workID}}, nil
			},
		}

		citing, err := FetchCitingWorks(context.Background(), source, []string{"W1", "W2", "W3"}, 2, nil)
		require.NoError(t, err)

		assert.Len(t, citing, 2)
		assert.Contains(t, citing, "W1")
		assert.Contains(t, citing, "W3")
		assert.NotContains(t, citing, "W2")
	})

	t.Run("reports progress for every completed lookup", func(t *testing.T) {
		source := &mockSource{
			citingFunc: func(ctx context.Context, workID string) ([]domain.Work, error) {
				if workID == "W3" {
					return nil, errors.New("boom")
				}
				return nil, nil
			},
		}

		// onProgress runs on the collecting goroutine, so plain appends are safe.
		var dones []int
		var totals []int
		onProgress := func(done, total int) {
			dones = append(dones, done)
			totals = append(totals, total)
		}

		_, err := FetchCitingWorks(context.Background(), source, []string{"W1", "W2", "W3", "W4"}, 2, onProgress)
		require.NoError(t, err)

		// Failures still count as completed lookups.
		assert.Equal(t, []int{1, 2, 3, 4}, dones)
		assert.Equal(t, []int{4, 4, 4, 4}, totals)
	})

	t.Run("context cancellation stops the fan-out", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		source := &mockSource{
			citingFunc: func(ctx context.Context, workID string) ([]domain.Work, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
		}

		go func() {
			time.Sleep(30 * time.Millisecond)
			cancel()
		}()

		workIDs := []string{"W1", "W2", "W3", "W4", "W5", "W6", "W7", "W8"}
		citing, err := FetchCitingWorks(ctx, source, workIDs, 2, nil)

		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, citing)
	})
}
