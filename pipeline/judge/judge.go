// Package judge provides an LLM-as-judge pipeline: a prompt template rendered
// with the mapped inputs is sent to a model.Model and the completion is
// emitted under a single text output key.
package judge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/runeval/core"
	"github.com/hupe1980/runeval/internal/util"
	"github.com/hupe1980/runeval/logging"
	"github.com/hupe1980/runeval/model"
	"github.com/hupe1980/runeval/parser"
	"github.com/hupe1980/runeval/pipeline"
)

// Options configures a judge Pipeline.
type Options struct {
	// Name identifies the pipeline in provenance records. Defaults to "judge".
	Name string
	// InputKeys is the fixed set of inputs the prompt consumes.
	InputKeys []string
	// System holds optional system instructions for the model.
	System string
	// OutputKey is the key the completion is emitted under. Defaults to "text".
	OutputKey string
	// Stream requests a streamed completion from the model.
	Stream bool
	Logger logging.Logger
}

// Pipeline grades inputs by prompting a judge model.
type Pipeline struct {
	model     model.Model
	prompt    *util.Template
	name      string
	inputKeys []string
	system    string
	outputKey string
	stream    bool
	logger    logging.Logger
}

var _ core.Pipeline = (*Pipeline)(nil)

// New creates a judge pipeline. prompt is a text/template rendered with the
// pipeline inputs; referencing a key that is not supplied fails the invocation.
func New(m model.Model, prompt string, optFns ...func(o *Options)) (*Pipeline, error) {
	opts := Options{
		Name:      "judge",
		OutputKey: parser.DefaultOutputKey,
		Logger:    logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if m == nil {
		return nil, errors.New("judge: model is required")
	}
	if len(opts.InputKeys) == 0 {
		return nil, errors.New("judge: at least one input key is required")
	}

	tmpl, err := util.ParseTemplate(opts.Name, prompt)
	if err != nil {
		return nil, fmt.Errorf("judge: parse prompt: %w", err)
	}

	return &Pipeline{
		model:     m,
		prompt:    tmpl,
		name:      opts.Name,
		inputKeys: append([]string(nil), opts.InputKeys...),
		system:    opts.System,
		outputKey: opts.OutputKey,
		stream:    opts.Stream,
		logger:    opts.Logger,
	}, nil
}

// Name implements core.Pipeline.
func (p *Pipeline) Name() string { return p.name }

// InputKeys implements core.Pipeline.
func (p *Pipeline) InputKeys() []string { return p.inputKeys }

// Invoke renders the prompt, drains the model and returns {OutputKey: completion}.
func (p *Pipeline) Invoke(ctx context.Context, inputs core.Inputs, handle *core.Handle) (*core.PipelineResult, error) {
	prompt, err := p.prompt.Render(inputs)
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	info := p.model.Info()
	p.logger.Debug("Invoking judge model", "pipeline", p.name, "model", info.Name, "run_id", runID(handle))

	start := time.Now()
	resp, err := model.Collect(ctx, p.model, model.Request{
		System:   p.system,
		Messages: []model.Message{{Role: model.RoleUser, Content: prompt}},
		Stream:   p.stream,
	})
	p.logModelCall(info.Name, resp.Usage, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	prov := handle.Provenance()
	if prov.Pipeline == "" {
		prov.Pipeline = p.name
	}
	if prov.Extra == nil {
		prov.Extra = make(map[string]any, 4)
	}
	prov.Extra["model"] = info.Name
	prov.Extra["provider"] = info.Provider
	if resp.FinishReason != "" {
		prov.Extra["finish_reason"] = resp.FinishReason
	}
	if resp.Usage != nil {
		prov.Extra["token_usage"] = *resp.Usage
	}

	return &core.PipelineResult{
		Outputs:    core.Outputs{p.outputKey: resp.Text},
		Provenance: &prov,
	}, nil
}

// InvokeAsync runs Invoke on its own goroutine.
func (p *Pipeline) InvokeAsync(ctx context.Context, inputs core.Inputs, handle *core.Handle) (<-chan *core.PipelineResult, <-chan error) {
	return pipeline.Async(ctx, func(ctx context.Context) (*core.PipelineResult, error) {
		return p.Invoke(ctx, inputs, handle)
	})
}

func (p *Pipeline) logModelCall(name string, usage *model.TokenUsage, dur time.Duration, err error) {
	tokens := 0
	if usage != nil {
		tokens = usage.TotalTokens
	}
	if l, ok := p.logger.(logging.ModelCallLogger); ok {
		l.LogModelCall(name, tokens, dur, err == nil, err)
		return
	}
	if err != nil {
		p.logger.Warn("Judge model call failed", "model", name, "duration", dur, "error", err)
	}
}

func runID(h *core.Handle) string {
	if h == nil {
		return ""
	}
	return h.RunID
}
