package evaluation

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/runeval/core"
	"github.com/hupe1980/runeval/logging"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// SpanName is the name of the span recorded for every evaluation.
const SpanName = "RunEvaluator.EvaluateRun"

// Outcomes reported on the runeval_evaluations_total counter.
const (
	OutcomeSuccess         = "success"
	OutcomeMappingError    = "mapping_error"
	OutcomeInvocationError = "invocation_error"
	OutcomeParseError      = "parse_error"
	OutcomeCanceled        = "canceled"
	OutcomeError           = "error"
)

// initMetrics lazily initializes metrics.
// Logs errors if metric creation fails but continues execution (graceful degradation).
func (r *RunEvaluator) initMetrics() {
	r.metricsOnce.Do(func() {
		var initErrors []string

		var err error
		r.evaluations, err = r.meter.Int64Counter("runeval_evaluations_total",
			metric.WithDescription("Number of run evaluations by outcome"),
		)
		if err != nil {
			initErrors = append(initErrors, "evaluations: "+err.Error())
		}

		r.duration, err = r.meter.Float64Histogram("runeval_evaluation_duration_seconds",
			metric.WithDescription("Time spent evaluating a run"),
			metric.WithUnit("s"),
		)
		if err != nil {
			initErrors = append(initErrors, "duration: "+err.Error())
		}

		if len(initErrors) > 0 {
			r.logger.Error("failed to initialize some evaluation metrics (observability degraded)",
				"failed_count", len(initErrors),
				"errors", initErrors,
			)
		}
	})
}

func (r *RunEvaluator) startSpan(ctx context.Context, run *core.Run, example *core.Example) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("runeval.evaluator", r.name),
		attribute.String("runeval.pipeline", r.pipeline.Name()),
	}
	if run != nil {
		attrs = append(attrs, attribute.String("runeval.run_id", run.ID))
	}
	if example != nil {
		attrs = append(attrs, attribute.String("runeval.example_id", example.ID))
	}
	return r.tracer.Start(ctx, SpanName, trace.WithAttributes(attrs...))
}

// finish records the span status, metrics and log line for one evaluation.
func (r *RunEvaluator) finish(ctx context.Context, span trace.Span, run *core.Run, fb *core.FeedbackResult, err error, dur time.Duration) {
	outcome := outcomeOf(err)

	// Cancelled evaluations are still counted.
	mctx := context.WithoutCancel(ctx)
	attrs := metric.WithAttributes(
		attribute.String("evaluator", r.name),
		attribute.String("outcome", outcome),
	)
	if r.evaluations != nil {
		r.evaluations.Add(mctx, 1, attrs)
	}
	if r.duration != nil {
		r.duration.Record(mctx, dur.Seconds(), attrs)
	}

	key := ""
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		key = fb.Key
		span.SetAttributes(attribute.String("runeval.feedback_key", key))
		if fb.Score != nil {
			span.SetAttributes(attribute.Float64("runeval.score", *fb.Score))
		}
		span.SetStatus(codes.Ok, "")
	}
	span.SetAttributes(attribute.String("runeval.outcome", outcome))

	if l, ok := r.logger.(logging.EvaluationLogger); ok {
		l.LogEvaluation(r.name, runID(run), key, dur, err)
		return
	}
	if err != nil {
		r.logger.Error("Evaluation failed", "evaluator", r.name, "run_id", runID(run), "duration", dur, "error", err)
		return
	}
	r.logger.Info("Evaluation completed", "evaluator", r.name, "run_id", runID(run), "feedback_key", key, "duration", dur)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	case core.IsMappingError(err):
		return OutcomeMappingError
	case core.IsParseError(err):
		return OutcomeParseError
	case core.IsInvocationError(err):
		return OutcomeInvocationError
	default:
		return OutcomeError
	}
}
