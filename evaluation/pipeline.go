package evaluation

import (
	"context"
	"fmt"

	"github.com/hupe1980/runeval/core"
	"github.com/hupe1980/runeval/pipeline"
)

// Invoke evaluates the run found under RunKey (and the optional example under
// ExampleKey) and returns {FeedbackKey: *core.FeedbackResult}. handle becomes
// the parent of the evaluation call.
func (r *RunEvaluator) Invoke(ctx context.Context, inputs core.Inputs, handle *core.Handle) (*core.PipelineResult, error) {
	run, example, err := callInputs(inputs)
	if err != nil {
		return nil, err
	}
	fb, err := r.evaluate(ctx, handle, run, example, r.invokeBlocking)
	if err != nil {
		return nil, err
	}
	return &core.PipelineResult{Outputs: core.Outputs{FeedbackKey: fb}}, nil
}

// InvokeAsync is the channel based form of Invoke.
func (r *RunEvaluator) InvokeAsync(ctx context.Context, inputs core.Inputs, handle *core.Handle) (<-chan *core.PipelineResult, <-chan error) {
	return pipeline.Async(ctx, func(ctx context.Context) (*core.PipelineResult, error) {
		run, example, err := callInputs(inputs)
		if err != nil {
			return nil, err
		}
		fb, err := r.evaluate(ctx, handle, run, example, r.invokeSuspending)
		if err != nil {
			return nil, err
		}
		return &core.PipelineResult{Outputs: core.Outputs{FeedbackKey: fb}}, nil
	})
}

func callInputs(inputs core.Inputs) (*core.Run, *core.Example, error) {
	var run *core.Run
	switch v := inputs[RunKey].(type) {
	case *core.Run:
		run = v
	case core.Run:
		run = &v
	default:
		return nil, nil, &core.MappingError{
			Field:  RunKey,
			Reason: fmt.Sprintf("expected *core.Run, got %T", inputs[RunKey]),
		}
	}
	if run == nil {
		return nil, nil, &core.MappingError{Field: RunKey, Reason: "run is required"}
	}

	var example *core.Example
	switch v := inputs[ExampleKey].(type) {
	case nil:
	case *core.Example:
		example = v
	case core.Example:
		example = &v
	default:
		return nil, nil, &core.MappingError{
			Field:  ExampleKey,
			Reason: fmt.Sprintf("expected *core.Example, got %T", v),
		}
	}
	return run, example, nil
}
