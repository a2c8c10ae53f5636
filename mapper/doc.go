// Package mapper provides core.InputMapper implementations that turn a Run and
// an optional Example into the input fields an evaluation pipeline expects.
//
//   - StringMapper: the common question / prediction / reference projection
//   - FieldMapper: declarative per-field selectors over run and example records
//   - Func: adapts a plain function with declared output keys
//
// Every mapper is deterministic and side-effect free and reports a missing
// required field as a *core.MappingError.
package mapper
