// Package evaluation provides RunEvaluator, the orchestrator that scores a
// recorded run by mapping it into pipeline inputs, invoking an evaluation
// pipeline and parsing the pipeline output into a core.FeedbackResult
// annotated with the provenance of the grading invocation.
//
// Both a blocking (EvaluateRun) and a channel based (EvaluateRunAsync) entry
// point are offered. They share one implementation and differ only in how
// the pipeline is invoked, so for the same inputs they yield equivalent
// feedback.
//
// A RunEvaluator is itself a core.Pipeline with input keys "run" and
// "example" and the output key "feedback", which lets evaluators nest inside
// larger pipelines.
package evaluation
