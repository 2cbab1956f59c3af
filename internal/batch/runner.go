// Package batch evaluates a sequence of transaction records in parallel.
//
// Every evaluation is independent given the shared read-only configuration,
// so records are fanned out to a bounded worker pool with zero coordination
// beyond the index channel. Output order always matches input order —
// workers write results into their record's slot, never append.
//
// Cancellation is batch-level only: a cancelled context stops remaining
// rows from being dispatched, it never interrupts an evaluation in flight
// (a single evaluation is bounded, finite computation).
package batch

import (
	"context"
	"fmt"
	"sync"

	"meridia/risk-engine/internal/domain"
	"meridia/risk-engine/internal/engine"
)

// Summary aggregates one batch run.
type Summary struct {
	Total    int `json:"total"`
	Accepted int `json:"accepted"`
	InReview int `json:"in_review"`
	Rejected int `json:"rejected"`
}

// Runner evaluates record batches using a fixed number of workers.
type Runner struct {
	engine  *engine.Engine
	workers int
}

// NewRunner creates a batch runner. Worker counts below 1 are raised to 1.
func NewRunner(e *engine.Engine, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{engine: e, workers: workers}
}

// Run evaluates every record and returns the results in input order.
//
// When ctx is cancelled mid-batch, Run stops dispatching remaining records
// and returns the context error; partial results are discarded.
func (r *Runner) Run(ctx context.Context, records []domain.Record) ([]domain.DecisionResult, Summary, error) {
	results := make([]domain.DecisionResult, len(records))

	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = r.engine.Evaluate(domain.ParseRecord(records[i]))
			}
		}()
	}

dispatch:
	for i := range records {
		select {
		case <-ctx.Done():
			break dispatch
		case indexes <- i:
		}
	}
	close(indexes)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, Summary{}, fmt.Errorf("batch cancelled: %w", err)
	}

	return results, summarize(results), nil
}

func summarize(results []domain.DecisionResult) Summary {
	s := Summary{Total: len(results)}
	for _, res := range results {
		switch res.Decision {
		case domain.DecisionAccepted:
			s.Accepted++
		case domain.DecisionInReview:
			s.InReview++
		case domain.DecisionRejected:
			s.Rejected++
		}
	}
	return s
}
