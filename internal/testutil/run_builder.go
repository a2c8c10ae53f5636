package testutil

import (
	"time"

	"github.com/hupe1980/runeval/core"
)

// RunBuilder helps construct runs with fluent chaining for tests.
// Example:
//
//	run := NewRunBuilder().ID("run-1").Input("question", "2+2?").Output("text", "4").Build()
type RunBuilder struct {
	run core.Run
}

// NewRunBuilder creates a builder for a chain run with id "run-1".
func NewRunBuilder() *RunBuilder {
	return &RunBuilder{run: core.Run{
		ID:        "run-1",
		Name:      "test-chain",
		RunType:   "chain",
		Inputs:    map[string]any{},
		Outputs:   map[string]any{},
		StartTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}}
}

// ID sets the run id (chainable).
func (b *RunBuilder) ID(id string) *RunBuilder { b.run.ID = id; return b }

// Input sets a run input (chainable).
func (b *RunBuilder) Input(key string, v any) *RunBuilder { b.run.Inputs[key] = v; return b }

// Output sets a run output (chainable).
func (b *RunBuilder) Output(key string, v any) *RunBuilder { b.run.Outputs[key] = v; return b }

// Child appends a nested child run (chainable).
func (b *RunBuilder) Child(c *core.Run) *RunBuilder {
	b.run.ChildRuns = append(b.run.ChildRuns, c)
	return b
}

// Build returns a copy of the configured run.
func (b *RunBuilder) Build() *core.Run {
	r := b.run
	r.Inputs = copyMap(b.run.Inputs)
	r.Outputs = copyMap(b.run.Outputs)
	r.ChildRuns = append([]*core.Run(nil), b.run.ChildRuns...)
	return &r
}

// ExampleBuilder helps construct reference examples for tests.
type ExampleBuilder struct {
	ex core.Example
}

// NewExampleBuilder creates a builder for an example with id "example-1".
func NewExampleBuilder() *ExampleBuilder {
	return &ExampleBuilder{ex: core.Example{ID: "example-1", Inputs: map[string]any{}, Outputs: map[string]any{}}}
}

// ID sets the example id (chainable).
func (b *ExampleBuilder) ID(id string) *ExampleBuilder { b.ex.ID = id; return b }

// Input sets an example input (chainable).
func (b *ExampleBuilder) Input(key string, v any) *ExampleBuilder { b.ex.Inputs[key] = v; return b }

// Output sets an expected output (chainable).
func (b *ExampleBuilder) Output(key string, v any) *ExampleBuilder { b.ex.Outputs[key] = v; return b }

// Build returns a copy of the configured example.
func (b *ExampleBuilder) Build() *core.Example {
	e := b.ex
	e.Inputs = copyMap(b.ex.Inputs)
	e.Outputs = copyMap(b.ex.Outputs)
	return &e
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
