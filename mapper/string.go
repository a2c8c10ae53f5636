package mapper

import (
	"fmt"
	"sort"

	"github.com/hupe1980/runeval/core"
)

// Default field names emitted by StringMapper.
const (
	InputField      = "input"
	PredictionField = "prediction"
	ReferenceField  = "reference"
)

// StringMapperOptions configures which run/example keys feed which pipeline field.
type StringMapperOptions struct {
	// InputKey is read from run.inputs. Empty disables the input field.
	InputKey string
	// PredictionKey is read from run.outputs. Empty means "the only output".
	PredictionKey string
	// ReferenceKey is read from example.outputs. Empty disables the reference
	// field, in which case no example is required.
	ReferenceKey string

	// Emitted field names; default to input, prediction and reference.
	InputField      string
	PredictionField string
	ReferenceField  string
}

// StringMapper projects a run (and optional example) to text fields.
type StringMapper struct {
	opts StringMapperOptions
}

// NewStringMapper creates a StringMapper. Without options it emits only the
// prediction, taken from the run's single output.
func NewStringMapper(optFns ...func(o *StringMapperOptions)) *StringMapper {
	opts := StringMapperOptions{
		InputField:      InputField,
		PredictionField: PredictionField,
		ReferenceField:  ReferenceField,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &StringMapper{opts: opts}
}

// OutputKeys implements core.InputMapper.
func (m *StringMapper) OutputKeys() []string {
	keys := make([]string, 0, 3)
	if m.opts.InputKey != "" {
		keys = append(keys, m.opts.InputField)
	}
	keys = append(keys, m.opts.PredictionField)
	if m.opts.ReferenceKey != "" {
		keys = append(keys, m.opts.ReferenceField)
	}
	return keys
}

// Map implements core.InputMapper.
func (m *StringMapper) Map(run *core.Run, example *core.Example) (core.Inputs, error) {
	if run == nil {
		return nil, &core.MappingError{Field: m.opts.PredictionField, Source: SourceRunOutputs, Reason: "run is nil"}
	}
	inputs := core.Inputs{}

	if m.opts.InputKey != "" {
		v, ok := run.InputString(m.opts.InputKey)
		if !ok {
			return nil, &core.MappingError{Field: m.opts.InputField, Source: SourceRunInputs, Key: m.opts.InputKey, Reason: "required field is missing"}
		}
		inputs[m.opts.InputField] = v
	}

	prediction, err := m.prediction(run)
	if err != nil {
		return nil, err
	}
	inputs[m.opts.PredictionField] = prediction

	if m.opts.ReferenceKey != "" {
		if example == nil {
			return nil, &core.MappingError{Field: m.opts.ReferenceField, Source: SourceExampleOutputs, Key: m.opts.ReferenceKey, Reason: "example is required"}
		}
		v, ok := example.OutputString(m.opts.ReferenceKey)
		if !ok {
			return nil, &core.MappingError{Field: m.opts.ReferenceField, Source: SourceExampleOutputs, Key: m.opts.ReferenceKey, Reason: "required field is missing"}
		}
		inputs[m.opts.ReferenceField] = v
	}

	return inputs, nil
}

func (m *StringMapper) prediction(run *core.Run) (string, error) {
	if m.opts.PredictionKey != "" {
		v, ok := run.OutputString(m.opts.PredictionKey)
		if !ok {
			return "", &core.MappingError{Field: m.opts.PredictionField, Source: SourceRunOutputs, Key: m.opts.PredictionKey, Reason: "required field is missing"}
		}
		return v, nil
	}

	if len(run.Outputs) != 1 {
		keys := make([]string, 0, len(run.Outputs))
		for k := range run.Outputs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "", &core.MappingError{
			Field:  m.opts.PredictionField,
			Source: SourceRunOutputs,
			Reason: fmt.Sprintf("prediction key must be set when the run has %d outputs %v", len(keys), keys),
		}
	}
	for k := range run.Outputs {
		if v, ok := run.OutputString(k); ok {
			return v, nil
		}
		return "", &core.MappingError{Field: m.opts.PredictionField, Source: SourceRunOutputs, Key: k, Reason: "output is empty"}
	}
	return "", nil
}
