// Package core provides the foundational domain records, collaborator
// interfaces and error types used by runeval. It defines:
//
//   - Run and Example (the traced execution under evaluation and its optional reference)
//   - FeedbackResult (the structured grading output) and Provenance
//   - Handle (the call-scoped provenance handle passed into a pipeline)
//   - InputMapper, Pipeline, OutputParser and TextResultParser contracts
//   - Typed errors distinguishing construction, mapping, invocation and parse failures
//
// The package keeps orchestration (evaluation), concrete mappers, parsers and
// pipelines out of scope, exposing small interfaces so each collaborator can
// be swapped independently.
package core
