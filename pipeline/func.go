package pipeline

import (
	"context"

	"github.com/hupe1980/runeval/core"
)

// Fn computes raw outputs for a set of inputs.
type Fn func(ctx context.Context, inputs core.Inputs, handle *core.Handle) (core.Outputs, error)

// Func adapts a blocking function into a core.Pipeline. The asynchronous path
// runs the same function on a goroutine.
type Func struct {
	name string
	keys []string
	fn   Fn
}

// NewFunc creates a Func pipeline accepting keys.
func NewFunc(name string, keys []string, fn Fn) *Func {
	return &Func{name: name, keys: append([]string(nil), keys...), fn: fn}
}

// Name implements core.Pipeline.
func (p *Func) Name() string { return p.name }

// InputKeys implements core.Pipeline.
func (p *Func) InputKeys() []string { return p.keys }

// Invoke implements core.Pipeline.
func (p *Func) Invoke(ctx context.Context, inputs core.Inputs, handle *core.Handle) (*core.PipelineResult, error) {
	outputs, err := p.fn(ctx, inputs, handle)
	if err != nil {
		return nil, err
	}
	prov := handle.Provenance()
	if prov.Pipeline == "" {
		prov.Pipeline = p.name
	}
	return &core.PipelineResult{Outputs: outputs, Provenance: &prov}, nil
}

// InvokeAsync implements core.Pipeline.
func (p *Func) InvokeAsync(ctx context.Context, inputs core.Inputs, handle *core.Handle) (<-chan *core.PipelineResult, <-chan error) {
	return Async(ctx, func(ctx context.Context) (*core.PipelineResult, error) {
		return p.Invoke(ctx, inputs, handle)
	})
}
