package engine

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// BatchScheduler validates many independent templates concurrently. Each
// input gets its own pipeline run over its own snapshot; there is no
// shared accumulator, so one task's failure never suppresses another's
// result.
type BatchScheduler struct {
	maxParallel int
	pipeline    *Pipeline
	logger      zerolog.Logger
}

// NewBatchScheduler creates a scheduler with the given worker bound.
func NewBatchScheduler(pipeline *Pipeline, maxParallel int, logger zerolog.Logger) *BatchScheduler {
	if maxParallel <= 0 {
		maxParallel = 4
	}
	return &BatchScheduler{
		maxParallel: maxParallel,
		pipeline:    pipeline,
		logger:      logger.With().Str("component", "batch").Logger(),
	}
}

// Run executes every input and returns results in input order. Context
// cancellation marks the not-yet-started tasks failed with ctx.Err() but
// still waits for in-flight runs to finish.
func (s *BatchScheduler) Run(ctx context.Context, inputs []Input) []*Result {
	results := make([]*Result, len(inputs))
	sem := make(chan struct{}, s.maxParallel)
	var wg sync.WaitGroup

	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			results[i] = &Result{Source: in.sourceName(), Err: err}
			continue
		}
		select {
		case <-ctx.Done():
			results[i] = &Result{Source: in.sourceName(), Err: ctx.Err()}
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, in Input) {
			defer wg.Done()
			defer func() { <-sem }()
			// Run returns the result even on failure; the error is
			// already recorded on it.
			result, _ := s.pipeline.Run(ctx, in)
			results[i] = result
		}(i, in)
	}

	wg.Wait()
	s.logger.Debug().Int("tasks", len(inputs)).Msg("batch finished")
	return results
}
