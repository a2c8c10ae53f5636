package mapper

import (
	"fmt"

	"github.com/hupe1980/runeval/core"
)

// Sources a Field can read from.
const (
	SourceRunInputs      = "run.inputs"
	SourceRunOutputs     = "run.outputs"
	SourceExampleInputs  = "example.inputs"
	SourceExampleOutputs = "example.outputs"
)

// Field declares one emitted pipeline input.
type Field struct {
	Name     string // Emitted field name
	Source   string // One of the Source* constants
	Key      string // Key looked up in Source
	Optional bool   // Missing values fall back to Default instead of failing
	Default  any
}

// FieldMapper maps declared fields verbatim (values keep their types).
type FieldMapper struct {
	fields []Field
}

// NewFieldMapper validates the field declarations and returns a FieldMapper.
func NewFieldMapper(fields ...Field) (*FieldMapper, error) {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("field name must not be empty")
		}
		if _, dup := seen[f.Name]; dup {
			return nil, fmt.Errorf("duplicate field %q", f.Name)
		}
		seen[f.Name] = struct{}{}
		switch f.Source {
		case SourceRunInputs, SourceRunOutputs, SourceExampleInputs, SourceExampleOutputs:
		default:
			return nil, fmt.Errorf("field %q: unknown source %q", f.Name, f.Source)
		}
		if f.Key == "" {
			return nil, fmt.Errorf("field %q: key must not be empty", f.Name)
		}
	}
	return &FieldMapper{fields: append([]Field(nil), fields...)}, nil
}

// OutputKeys implements core.InputMapper.
func (m *FieldMapper) OutputKeys() []string {
	keys := make([]string, len(m.fields))
	for i, f := range m.fields {
		keys[i] = f.Name
	}
	return keys
}

// Map implements core.InputMapper.
func (m *FieldMapper) Map(run *core.Run, example *core.Example) (core.Inputs, error) {
	inputs := make(core.Inputs, len(m.fields))
	for _, f := range m.fields {
		v, ok := resolve(f, run, example)
		if !ok {
			if !f.Optional {
				return nil, &core.MappingError{Field: f.Name, Source: f.Source, Key: f.Key, Reason: "required field is missing"}
			}
			v = f.Default
		}
		inputs[f.Name] = v
	}
	return inputs, nil
}

func resolve(f Field, run *core.Run, example *core.Example) (any, bool) {
	switch f.Source {
	case SourceRunInputs:
		return run.Input(f.Key)
	case SourceRunOutputs:
		return run.Output(f.Key)
	case SourceExampleInputs:
		return example.Input(f.Key)
	case SourceExampleOutputs:
		return example.Output(f.Key)
	}
	return nil, false
}

// Func adapts a mapping function with declared output keys into a core.InputMapper.
type Func struct {
	Keys []string
	Fn   func(run *core.Run, example *core.Example) (core.Inputs, error)
}

// OutputKeys implements core.InputMapper.
func (f Func) OutputKeys() []string { return f.Keys }

// Map implements core.InputMapper.
func (f Func) Map(run *core.Run, example *core.Example) (core.Inputs, error) {
	return f.Fn(run, example)
}
