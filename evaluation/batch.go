package evaluation

import (
	"context"
	"time"

	"github.com/hupe1980/runeval/core"
	"golang.org/x/sync/errgroup"
)

// Item is one (run, example) pair of a batch.
type Item struct {
	Run     *core.Run
	Example *core.Example
}

// BatchResult is the outcome of evaluating one Item. Exactly one of Feedback
// and Err is set.
type BatchResult struct {
	Index    int
	RunID    string
	Feedback *core.FeedbackResult
	Err      error
	Duration time.Duration
}

// BatchOptions configures Batch.
type BatchOptions struct {
	// Concurrency bounds the number of evaluations in flight. Values < 1 mean 1.
	Concurrency int
}

// Batch evaluates items with e, at most Concurrency at a time. Per-item
// failures are recorded in the corresponding BatchResult and never stop the
// batch. The returned error is non-nil only if ctx is done before all items
// were evaluated; results are returned in input order either way.
func Batch(ctx context.Context, e *RunEvaluator, items []Item, optFns ...func(o *BatchOptions)) ([]BatchResult, error) {
	opts := BatchOptions{Concurrency: 4}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	results := make([]BatchResult, len(items))

	var g errgroup.Group
	g.SetLimit(opts.Concurrency)

	for i, item := range items {
		results[i] = BatchResult{Index: i, RunID: runID(item.Run)}
		if ctx.Err() != nil {
			results[i].Err = ctx.Err()
			continue
		}

		i, item := i, item // per-iteration copies (pre-Go 1.22 loop semantics)
		g.Go(func() error {
			start := time.Now()
			fb, err := e.EvaluateRun(ctx, item.Run, item.Example)
			results[i].Duration = time.Since(start)
			results[i].Feedback = fb
			results[i].Err = err
			return nil
		})
	}

	_ = g.Wait()

	return results, ctx.Err()
}

// Summary aggregates a batch.
type Summary struct {
	Total     int
	Failed    int
	Scored    int
	MeanScore float64
}

// Summarize computes counts and the mean score over successful results that
// carry a score.
func Summarize(results []BatchResult) Summary {
	var (
		s   Summary
		sum float64
	)
	for _, r := range results {
		s.Total++
		if r.Err != nil {
			s.Failed++
			continue
		}
		if r.Feedback != nil && r.Feedback.Score != nil {
			s.Scored++
			sum += *r.Feedback.Score
		}
	}
	if s.Scored > 0 {
		s.MeanScore = sum / float64(s.Scored)
	}
	return s
}
