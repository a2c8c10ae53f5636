package evaluation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hupe1980/runeval/core"
	"github.com/hupe1980/runeval/logging"
	"github.com/hupe1980/runeval/pipeline"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Call-level keys of a RunEvaluator used as a pipeline.
const (
	RunKey      = "run"
	ExampleKey  = "example"
	FeedbackKey = "feedback"
)

const instrumentationName = "github.com/hupe1980/runeval/evaluation"

// Options configures a RunEvaluator.
type Options struct {
	// Name identifies the evaluator in logs, spans and provenance.
	Name string
	// Tags are copied onto every provenance handle the evaluator creates.
	Tags           []string
	Logger         logging.Logger
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// RunEvaluator evaluates runs using an input mapper, a pipeline and an output
// parser. It is safe for concurrent use; calls share no mutable state.
//
// A RunEvaluator must be created with New. The zero value refuses every call
// with core.ErrNotConstructed.
type RunEvaluator struct {
	mapper   core.InputMapper
	pipeline core.Pipeline
	parser   core.OutputParser

	name   string
	tags   []string
	logger logging.Logger
	tracer trace.Tracer
	meter  metric.Meter

	metricsOnce sync.Once
	evaluations metric.Int64Counter
	duration    metric.Float64Histogram
}

var _ core.Pipeline = (*RunEvaluator)(nil)

// New builds a RunEvaluator after checking that the mapper emits exactly the
// fields the pipeline accepts. Any failure is a *core.ConstructionError and
// no evaluator is returned.
func New(mapper core.InputMapper, p core.Pipeline, parser core.OutputParser, optFns ...func(o *Options)) (*RunEvaluator, error) {
	switch {
	case mapper == nil:
		return nil, &core.ConstructionError{Reason: "input mapper is required"}
	case p == nil:
		return nil, &core.ConstructionError{Reason: "pipeline is required"}
	case parser == nil:
		return nil, &core.ConstructionError{Reason: "output parser is required"}
	}

	if err := core.ValidateKeys(mapper.OutputKeys(), p.InputKeys()); err != nil {
		return nil, err
	}

	opts := Options{
		Name:           "RunEvaluator",
		Logger:         logging.NoOpLogger{},
		TracerProvider: otel.GetTracerProvider(),
		MeterProvider:  otel.GetMeterProvider(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &RunEvaluator{
		mapper:   mapper,
		pipeline: p,
		parser:   parser,
		name:     opts.Name,
		tags:     append([]string(nil), opts.Tags...),
		logger:   opts.Logger,
		tracer:   opts.TracerProvider.Tracer(instrumentationName),
		meter:    opts.MeterProvider.Meter(instrumentationName),
	}, nil
}

// EvaluateRun evaluates run (and the optional reference example) by blocking
// on the pipeline's Invoke.
//
// Mapping and parse errors are returned as produced. A pipeline failure is
// wrapped in a *core.InvocationError carrying the pipeline name and run id;
// the delegate error stays reachable through errors.Unwrap, errors.Is and
// errors.As.
func (r *RunEvaluator) EvaluateRun(ctx context.Context, run *core.Run, example *core.Example) (*core.FeedbackResult, error) {
	return r.evaluate(ctx, nil, run, example, r.invokeBlocking)
}

// EvaluateRunAsync evaluates run through the pipeline's InvokeAsync. Exactly
// one value is delivered on one of the returned channels, after which both
// are closed. When ctx is cancelled the in-flight invocation is cancelled too
// and the error channel receives ctx.Err(); no feedback is delivered.
func (r *RunEvaluator) EvaluateRunAsync(ctx context.Context, run *core.Run, example *core.Example) (<-chan *core.FeedbackResult, <-chan error) {
	resCh := make(chan *core.FeedbackResult, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(resCh)
		defer close(errCh)

		fb, err := r.evaluate(ctx, nil, run, example, r.invokeSuspending)
		if err == nil {
			err = ctx.Err()
		}
		if err != nil {
			errCh <- err
			return
		}
		resCh <- fb
	}()

	return resCh, errCh
}

// invokeFunc is the strategy used to run the pipeline for one evaluation.
type invokeFunc func(ctx context.Context, inputs core.Inputs, handle *core.Handle) (*core.PipelineResult, error)

func (r *RunEvaluator) invokeBlocking(ctx context.Context, inputs core.Inputs, handle *core.Handle) (*core.PipelineResult, error) {
	return r.pipeline.Invoke(ctx, inputs, handle)
}

func (r *RunEvaluator) invokeSuspending(ctx context.Context, inputs core.Inputs, handle *core.Handle) (*core.PipelineResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	resCh, errCh := r.pipeline.InvokeAsync(ctx, inputs, handle)
	return pipeline.Await(ctx, resCh, errCh)
}

// evaluate is the single implementation behind both entry points:
// map, invoke, parse, then attach provenance under core.RunInfoKey.
func (r *RunEvaluator) evaluate(
	ctx context.Context,
	parent *core.Handle,
	run *core.Run,
	example *core.Example,
	invoke invokeFunc,
) (fb *core.FeedbackResult, err error) {
	if r == nil || r.mapper == nil {
		return nil, core.ErrNotConstructed
	}
	r.initMetrics()

	ctx, span := r.startSpan(ctx, run, example)
	defer span.End()

	call := parent.Child(ctx, r.name)
	call.Tags = append(call.Tags, r.tags...)

	start := time.Now()
	r.logger.Debug("Evaluating run", "evaluator", r.name, "run_id", runID(run), "call_id", call.RunID)
	defer func() {
		r.finish(ctx, span, run, fb, err, time.Since(start))
	}()

	inputs, err := r.mapper.Map(run, example)
	if err != nil {
		return nil, err
	}

	handle := call.Child(ctx, r.pipeline.Name())
	result, err := invoke(ctx, inputs, handle)
	if err != nil {
		return nil, r.invocationError(ctx, handle, err)
	}
	if result == nil {
		return nil, r.invocationError(ctx, handle, pipeline.ErrNoResult)
	}

	prov := handle.Provenance()
	if result.Provenance != nil {
		prov = *result.Provenance
	}

	fb, err = r.parser.ParseChainOutput(result.Outputs)
	if err != nil {
		return nil, err
	}
	if fb == nil {
		return nil, &core.ParseError{Reason: "output parser returned no result"}
	}
	fb.SetEvaluatorInfo(core.RunInfoKey, prov)

	return fb, nil
}

// invocationError classifies a pipeline failure. Cancellation of ctx is
// reported as ctx.Err(); typed invocation errors pass through unchanged.
func (r *RunEvaluator) invocationError(ctx context.Context, handle *core.Handle, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return ctxErr
	}
	var invErr *core.InvocationError
	if errors.As(err, &invErr) {
		return err
	}
	return &core.InvocationError{Pipeline: r.pipeline.Name(), RunID: handle.RunID, Err: err}
}

// Name implements core.Pipeline.
func (r *RunEvaluator) Name() string {
	if r == nil {
		return ""
	}
	return r.name
}

// InputKeys returns the call-level input keys: run and example.
func (r *RunEvaluator) InputKeys() []string { return []string{RunKey, ExampleKey} }

// OutputKeys returns the call-level output keys: feedback.
func (r *RunEvaluator) OutputKeys() []string { return []string{FeedbackKey} }

func runID(run *core.Run) string {
	if run == nil {
		return ""
	}
	return run.ID
}
