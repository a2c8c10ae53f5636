package parser

import (
	"errors"
	"fmt"

	"github.com/hupe1980/runeval/core"
)

// DefaultOutputKey is the pipeline output field read when none is configured.
const DefaultOutputKey = "text"

// Options configures an OutputParser.
type Options struct {
	// OutputKey names the raw output field holding the judge's text.
	OutputKey string
}

// OutputParser extracts the designated output field and delegates to a TextResultParser.
type OutputParser struct {
	text core.TextResultParser
	opts Options
}

// New creates an OutputParser reading DefaultOutputKey unless overridden.
func New(text core.TextResultParser, optFns ...func(o *Options)) *OutputParser {
	opts := Options{OutputKey: DefaultOutputKey}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &OutputParser{text: text, opts: opts}
}

// OutputKey returns the output field this parser reads.
func (p *OutputParser) OutputKey() string { return p.opts.OutputKey }

// ParseChainOutput implements core.OutputParser.
func (p *OutputParser) ParseChainOutput(outputs core.Outputs) (*core.FeedbackResult, error) {
	raw, ok := outputs[p.opts.OutputKey]
	if !ok || raw == nil {
		return nil, &core.ParseError{Key: p.opts.OutputKey, Reason: "output field is missing"}
	}

	var text string
	switch v := raw.(type) {
	case string:
		text = v
	case fmt.Stringer:
		text = v.String()
	default:
		return nil, &core.ParseError{Key: p.opts.OutputKey, Reason: fmt.Sprintf("expected text output, got %T", raw)}
	}

	fb, err := p.text.Parse(text)
	if err != nil {
		var pe *core.ParseError
		if errors.As(err, &pe) {
			if pe.Key == "" {
				cp := *pe
				cp.Key = p.opts.OutputKey
				return nil, &cp
			}
			return nil, pe
		}
		return nil, &core.ParseError{Key: p.opts.OutputKey, Text: text, Reason: "text parser failed", Err: err}
	}
	if fb == nil {
		return nil, &core.ParseError{Key: p.opts.OutputKey, Text: text, Reason: "text parser returned no result"}
	}
	return fb, nil
}

// Func adapts a parse function into a core.TextResultParser.
type Func func(text string) (*core.FeedbackResult, error)

// Parse implements core.TextResultParser.
func (f Func) Parse(text string) (*core.FeedbackResult, error) { return f(text) }
