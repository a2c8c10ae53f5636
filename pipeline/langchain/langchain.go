// Package langchain exposes langchaingo chains as runeval pipelines and
// runeval judge models as langchaingo LLMs, so either ecosystem can supply
// the grading step of a RunEvaluator.
package langchain

import (
	"context"
	"errors"

	"github.com/hupe1980/runeval/core"
	"github.com/hupe1980/runeval/logging"
	"github.com/hupe1980/runeval/pipeline"
	"github.com/tmc/langchaingo/chains"
)

// Options configures a chain Pipeline.
type Options struct {
	Name        string
	CallOptions []chains.ChainCallOption
	Logger      logging.Logger
}

// Pipeline adapts a chains.Chain to core.Pipeline.
type Pipeline struct {
	chain       chains.Chain
	name        string
	callOptions []chains.ChainCallOption
	logger      logging.Logger
}

var _ core.Pipeline = (*Pipeline)(nil)

// New wraps chain. The chain's input keys become the pipeline's input keys.
func New(chain chains.Chain, optFns ...func(o *Options)) (*Pipeline, error) {
	if chain == nil {
		return nil, errors.New("langchain: chain is required")
	}

	opts := Options{
		Name:   "langchain",
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Pipeline{
		chain:       chain,
		name:        opts.Name,
		callOptions: opts.CallOptions,
		logger:      opts.Logger,
	}, nil
}

// Name implements core.Pipeline.
func (p *Pipeline) Name() string { return p.name }

// InputKeys implements core.Pipeline.
func (p *Pipeline) InputKeys() []string { return p.chain.GetInputKeys() }

// Invoke runs the chain through chains.Call so memory and callbacks apply.
func (p *Pipeline) Invoke(ctx context.Context, inputs core.Inputs, handle *core.Handle) (*core.PipelineResult, error) {
	values := make(map[string]any, len(inputs))
	for k, v := range inputs {
		values[k] = v
	}

	p.logger.Debug("Calling chain", "pipeline", p.name, "run_id", runID(handle))
	out, err := chains.Call(ctx, p.chain, values, p.callOptions...)
	if err != nil {
		return nil, err
	}

	outputs := make(core.Outputs, len(out))
	for k, v := range out {
		outputs[k] = v
	}

	prov := handle.Provenance()
	if prov.Pipeline == "" {
		prov.Pipeline = p.name
	}
	return &core.PipelineResult{Outputs: outputs, Provenance: &prov}, nil
}

// InvokeAsync runs Invoke on its own goroutine.
func (p *Pipeline) InvokeAsync(ctx context.Context, inputs core.Inputs, handle *core.Handle) (<-chan *core.PipelineResult, <-chan error) {
	return pipeline.Async(ctx, func(ctx context.Context) (*core.PipelineResult, error) {
		return p.Invoke(ctx, inputs, handle)
	})
}

func runID(h *core.Handle) string {
	if h == nil {
		return ""
	}
	return h.RunID
}
