package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotConstructed is reported by evaluators that were not built through
// their validating constructor.
var ErrNotConstructed = &ConstructionError{Reason: "evaluator was not constructed with New"}

// ConstructionError reports an evaluator that failed validation at build
// time. An evaluator rejected with a ConstructionError is never usable.
type ConstructionError struct {
	Reason       string   `json:"reason"`
	MapperKeys   []string `json:"mapper_keys,omitempty"`
	PipelineKeys []string `json:"pipeline_keys,omitempty"`
	Missing      []string `json:"missing,omitempty"` // required by the pipeline, not produced by the mapper
	Extra        []string `json:"extra,omitempty"`   // produced by the mapper, not accepted by the pipeline
}

func (e *ConstructionError) Error() string {
	if len(e.Missing) == 0 && len(e.Extra) == 0 {
		return "construction error: " + e.Reason
	}
	return fmt.Sprintf(
		"construction error: %s: input mapper output keys %v must match pipeline input keys %v (missing %v, extra %v)",
		e.Reason, e.MapperKeys, e.PipelineKeys, e.Missing, e.Extra,
	)
}

// MappingError reports a field an InputMapper could not derive.
type MappingError struct {
	Field  string `json:"field"`            // Pipeline input being produced
	Source string `json:"source,omitempty"` // e.g. "run.outputs", "example.outputs"
	Key    string `json:"key,omitempty"`    // Key looked up in Source
	Reason string `json:"reason"`
}

func (e *MappingError) Error() string {
	var b strings.Builder
	b.WriteString("mapping error for field '")
	b.WriteString(e.Field)
	b.WriteString("'")
	if e.Source != "" {
		fmt.Fprintf(&b, " (%s[%q])", e.Source, e.Key)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}

// InvocationError reports a failure of the evaluation pipeline itself.
type InvocationError struct {
	Pipeline string
	RunID    string
	Err      error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("pipeline %s invocation %s failed: %v", e.Pipeline, e.RunID, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// ParseError reports raw pipeline output that could not be turned into a
// FeedbackResult.
type ParseError struct {
	Key    string `json:"key,omitempty"`  // Output field that was read
	Text   string `json:"text,omitempty"` // Offending text, if any
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

func (e *ParseError) Error() string {
	msg := "parse error"
	if e.Key != "" {
		msg += " for output '" + e.Key + "'"
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsConstructionError reports whether err is or wraps a *ConstructionError.
func IsConstructionError(err error) bool {
	var target *ConstructionError
	return errors.As(err, &target)
}

// IsMappingError reports whether err is or wraps a *MappingError.
func IsMappingError(err error) bool {
	var target *MappingError
	return errors.As(err, &target)
}

// IsInvocationError reports whether err is or wraps an *InvocationError.
func IsInvocationError(err error) bool {
	var target *InvocationError
	return errors.As(err, &target)
}

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var target *ParseError
	return errors.As(err, &target)
}
