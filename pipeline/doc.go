// Package pipeline provides building blocks for core.Pipeline implementations.
//
// Func adapts a blocking function into a pipeline. Async and Await implement
// the asynchronous channel protocol shared by all pipelines: at most one
// result or one error, both channels closed on completion, and context
// cancellation observed on both sides.
//
// Concrete judges live in subpackages:
//
//   - judge: LLM-as-judge over a model.Model and a prompt template
//   - langchain: adapter for langchaingo chains
package pipeline
