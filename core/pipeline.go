package core

import "context"

// Inputs maps pipeline input field names to values.
type Inputs map[string]any

// Outputs maps raw pipeline output field names to values.
type Outputs map[string]any

// PipelineResult pairs raw pipeline outputs with the provenance of the
// invocation that produced them. Provenance may be nil, in which case the
// caller falls back to the handle it passed in.
type PipelineResult struct {
	Outputs    Outputs
	Provenance *Provenance
}

// InputMapper turns a Run and optional Example into pipeline inputs.
//
// OutputKeys declares the unique field names Map emits. Map must be
// deterministic and side-effect free; when a required field is missing it
// returns a *MappingError.
type InputMapper interface {
	OutputKeys() []string
	Map(run *Run, example *Example) (Inputs, error)
}

// Pipeline is the external evaluation delegate that performs the grading.
//
// Implementations must honour these semantics:
//   - InputKeys is fixed for the lifetime of the pipeline
//   - Invoke blocks until the invocation completes or ctx is done
//   - InvokeAsync returns immediately; at most one result or one error is
//     delivered and both channels are closed afterwards
//   - cancelling ctx aborts the in-flight invocation
//   - handle identifies the calling evaluation; nested work should use
//     handle.Child so it stays attributable
type Pipeline interface {
	Name() string
	InputKeys() []string
	Invoke(ctx context.Context, inputs Inputs, handle *Handle) (*PipelineResult, error)
	InvokeAsync(ctx context.Context, inputs Inputs, handle *Handle) (<-chan *PipelineResult, <-chan error)
}

// OutputParser converts raw pipeline outputs into a FeedbackResult. It never
// inspects provenance; that is attached by the orchestrator.
type OutputParser interface {
	ParseChainOutput(outputs Outputs) (*FeedbackResult, error)
}

// TextResultParser converts a single text completion into a FeedbackResult.
type TextResultParser interface {
	Parse(text string) (*FeedbackResult, error)
}
