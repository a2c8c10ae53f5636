package pipeline

import (
	"context"
	"errors"

	"github.com/hupe1980/runeval/core"
)

// ErrNoResult is returned by Await when a pipeline closes its channels without
// delivering a result or an error.
var ErrNoResult = errors.New("pipeline completed without a result")

// Async runs fn on its own goroutine and exposes the outcome through the
// pipeline channel protocol. A result produced after ctx is done is dropped
// and ctx.Err() is delivered instead.
func Async(ctx context.Context, fn func(ctx context.Context) (*core.PipelineResult, error)) (<-chan *core.PipelineResult, <-chan error) {
	resCh := make(chan *core.PipelineResult, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(resCh)
		defer close(errCh)

		res, err := fn(ctx)
		if err != nil {
			errCh <- err
			return
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			errCh <- ctxErr
			return
		}
		resCh <- res
	}()

	return resCh, errCh
}

// Await suspends until the pipeline delivers its outcome or ctx is done.
// Once ctx is done no result is returned, even if one raced in.
func Await(ctx context.Context, resCh <-chan *core.PipelineResult, errCh <-chan error) (*core.PipelineResult, error) {
	var result *core.PipelineResult
	for resCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res, ok := <-resCh:
			if !ok {
				resCh = nil
				continue
			}
			result = res
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return nil, err
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, ErrNoResult
	}
	return result, nil
}
