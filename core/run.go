package core

import (
	"fmt"
	"time"
)

// Run is an immutable record of a previously executed computation. Child runs
// are carried opaquely; evaluators only read named fields through the
// accessors below.
type Run struct {
	ID        string         `json:"id"`
	Name      string         `json:"name,omitempty"`
	RunType   string         `json:"run_type,omitempty"` // "chain", "llm", "tool", ...
	Inputs    map[string]any `json:"inputs"`
	Outputs   map[string]any `json:"outputs,omitempty"`
	ChildRuns []*Run         `json:"child_runs,omitempty"`
	Error     string         `json:"error,omitempty"`
	StartTime time.Time      `json:"start_time"`
	EndTime   *time.Time     `json:"end_time,omitempty"`
}

// Input returns the named input value.
func (r *Run) Input(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	return lookup(r.Inputs, key)
}

// Output returns the named output value.
func (r *Run) Output(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	return lookup(r.Outputs, key)
}

// InputString returns the named input rendered as text.
func (r *Run) InputString(key string) (string, bool) {
	v, ok := r.Input(key)
	if !ok {
		return "", false
	}
	return stringify(v), true
}

// OutputString returns the named output rendered as text.
func (r *Run) OutputString(key string) (string, bool) {
	v, ok := r.Output(key)
	if !ok {
		return "", false
	}
	return stringify(v), true
}

// Example is an optional reference record holding the expected outputs for a
// run. A nil *Example means "no reference"; all accessors are nil safe.
type Example struct {
	ID        string         `json:"id"`
	DatasetID string         `json:"dataset_id,omitempty"`
	Inputs    map[string]any `json:"inputs,omitempty"`
	Outputs   map[string]any `json:"outputs,omitempty"`
}

// Input returns the named example input value.
func (e *Example) Input(key string) (any, bool) {
	if e == nil {
		return nil, false
	}
	return lookup(e.Inputs, key)
}

// Output returns the named expected output value.
func (e *Example) Output(key string) (any, bool) {
	if e == nil {
		return nil, false
	}
	return lookup(e.Outputs, key)
}

// OutputString returns the named expected output rendered as text.
func (e *Example) OutputString(key string) (string, bool) {
	v, ok := e.Output(key)
	if !ok {
		return "", false
	}
	return stringify(v), true
}

// lookup treats a present-but-nil value as absent.
func lookup(m map[string]any, key string) (any, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
