package recordsource

import (
	"context"
	"sync"

	"github.com/helixir/author-analytics-service/internal/domain"
)

// ProgressFunc receives completion ticks while a batch fetch runs. done
// counts finished fetches, total is the batch size. Calls are serialized.
type ProgressFunc func(done, total int)

// citingResult holds the outcome of one citing-works fetch.
type citingResult struct {
	workID string
	works  []domain.Work
	err    error
}

// FetchCitingWorks retrieves the citing works for every ID in workIDs using
// at most parallelism concurrent fetches, and returns them keyed by cited
// work ID. A fetch that errored contributes no entry; per the Source
// contract that only happens on context cancellation, and the error returned
// here is non-nil only when ctx ended the batch early.
func FetchCitingWorks(ctx context.Context, src Source, workIDs []string, parallelism int, onProgress ProgressFunc) (map[string][]domain.Work, error) {
	total := len(workIDs)
	citing := make(map[string][]domain.Work, total)
	if total == 0 {
		return citing, nil
	}
	if parallelism < 1 {
		parallelism = 1
	}
	if parallelism > total {
		parallelism = total
	}

	jobs := make(chan string)
	results := make(chan citingResult, total)

	var wg sync.WaitGroup
	for i := 0; i < parallelism; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for workID := range jobs {
				works, err := src.CitingWorks(ctx, workID)
				results <- citingResult{workID: workID, works: works, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, id := range workIDs {
			select {
			case jobs <- id:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	done := 0
	for result := range results {
		done++
		if result.err == nil {
			citing[result.workID] = result.works
		}
		if onProgress != nil {
			onProgress(done, total)
		}
	}

	if err := ctx.Err(); err != nil {
		return citing, err
	}
	return citing, nil
}
