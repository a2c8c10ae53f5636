// Package runeval provides ready-made run evaluators that grade recorded runs
// with a judge model. Most applications:
//  1. Create a judge model (model/openai, model/anthropic or model.MockModel)
//  2. Build an evaluator via NewQAEvaluator or NewCriteriaEvaluator
//  3. Score runs with EvaluateRun / EvaluateRunAsync or evaluation.Batch
//
// Custom evaluators are assembled from the building blocks directly with
// evaluation.New, combining a mapper, a pipeline and a parser.
package runeval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/runeval/evaluation"
	"github.com/hupe1980/runeval/logging"
	"github.com/hupe1980/runeval/mapper"
	"github.com/hupe1980/runeval/model"
	"github.com/hupe1980/runeval/parser"
	"github.com/hupe1980/runeval/pipeline/judge"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// QAPrompt grades a prediction against a reference answer.
const QAPrompt = `You are an examiner grading a quiz.
You are given a question, the student's answer, and the true answer, and are asked to score the student answer as either CORRECT or INCORRECT.

Example Format:
QUESTION: question here
STUDENT ANSWER: student's answer here
TRUE ANSWER: true answer here
GRADE: CORRECT or INCORRECT here

Grade the student answers based ONLY on their factual accuracy. Ignore differences in punctuation and phrasing between the student answer and true answer. It is OK if the student answer contains more information than the true answer, as long as it does not contain any conflicting statements. Begin!

QUESTION: {{.input}}
STUDENT ANSWER: {{.prediction}}
TRUE ANSWER: {{.reference}}
GRADE:`

// CriteriaPrompt assesses a prediction against a set of criteria.
const CriteriaPrompt = `You are assessing a submitted answer on a given task or input based on a set of criteria. Here is the data:
[BEGIN DATA]
***
[Task]: {{.input}}
***
[Submission]: {{.prediction}}
***
[Criteria]: {{.criteria}}
***
[END DATA]
Does the submission meet the Criteria? First, write out in a step by step manner your reasoning about each criterion to be sure that your conclusion is correct. Avoid simply stating the correct answers at the outset. Then print only the single character "Y" or "N" (without quotes or punctuation) on its own line corresponding to the correct answer of whether the submission meets all criteria. At the end, repeat just the letter again by itself on a new line.`

// Options configures the preset evaluators.
type Options struct {
	// Name of the evaluator. Defaults to the feedback key.
	Name string
	// InputKey, PredictionKey and ReferenceKey select the run/example fields.
	// An empty PredictionKey uses the run's only output.
	InputKey      string
	PredictionKey string
	ReferenceKey  string
	// Prompt overrides the preset prompt template.
	Prompt string
	// System holds optional system instructions for the judge.
	System string
	// EvaluationName overrides the feedback key.
	EvaluationName string

	Logger         logging.Logger
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

func defaultOptions() Options {
	return Options{
		InputKey:     "input",
		ReferenceKey: "output",
		Logger:       logging.NoOpLogger{},
	}
}

// NewQAEvaluator builds an evaluator that grades a run's answer against the
// example's reference answer. Feedback key "correctness"; score 1 for
// CORRECT and 0 for INCORRECT.
func NewQAEvaluator(m model.Model, optFns ...func(o *Options)) (*evaluation.RunEvaluator, error) {
	opts := defaultOptions()
	opts.Prompt = QAPrompt
	opts.EvaluationName = "correctness"
	for _, fn := range optFns {
		fn(&opts)
	}

	sm := mapper.NewStringMapper(func(o *mapper.StringMapperOptions) {
		o.InputKey = opts.InputKey
		o.PredictionKey = opts.PredictionKey
		o.ReferenceKey = opts.ReferenceKey
	})

	p, err := judge.New(m, opts.Prompt, func(o *judge.Options) {
		o.Name = opts.EvaluationName + "-judge"
		o.InputKeys = sm.OutputKeys()
		o.System = opts.System
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}

	out := parser.New(parser.NewChoices(opts.EvaluationName, map[string]float64{
		"CORRECT":   1,
		"INCORRECT": 0,
	}))

	return evaluation.New(sm, p, out, opts.evaluationOptions())
}

// NewCriteriaEvaluator builds an evaluator that checks a run's answer against
// named criteria (name -> description). The feedback key is the sorted,
// comma-joined list of criteria names unless EvaluationName is set.
func NewCriteriaEvaluator(m model.Model, criteria map[string]string, optFns ...func(o *Options)) (*evaluation.RunEvaluator, error) {
	if len(criteria) == 0 {
		return nil, fmt.Errorf("runeval: at least one criterion is required")
	}

	names := make([]string, 0, len(criteria))
	for name := range criteria {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("%s: %s", name, criteria[name]))
	}
	criteriaText := strings.Join(lines, "\n")

	opts := defaultOptions()
	opts.ReferenceKey = ""
	opts.Prompt = CriteriaPrompt
	opts.EvaluationName = strings.Join(names, ",")
	for _, fn := range optFns {
		fn(&opts)
	}

	sm := mapper.NewStringMapper(func(o *mapper.StringMapperOptions) {
		o.InputKey = opts.InputKey
		o.PredictionKey = opts.PredictionKey
		o.ReferenceKey = opts.ReferenceKey
	})

	// The criteria text is fixed per evaluator, so it is bound into the
	// prompt instead of travelling as a mapped input.
	prompt := strings.ReplaceAll(opts.Prompt, "{{.criteria}}", escapeTemplate(criteriaText))

	p, err := judge.New(m, prompt, func(o *judge.Options) {
		o.Name = "criteria-judge"
		o.InputKeys = sm.OutputKeys()
		o.System = opts.System
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}

	return evaluation.New(sm, p, parser.New(parser.NewCriteria(opts.EvaluationName)), opts.evaluationOptions())
}

func (o Options) evaluationOptions() func(*evaluation.Options) {
	return func(eo *evaluation.Options) {
		eo.Name = o.Name
		if eo.Name == "" {
			eo.Name = o.EvaluationName
		}
		eo.Logger = o.Logger
		if o.TracerProvider != nil {
			eo.TracerProvider = o.TracerProvider
		}
		if o.MeterProvider != nil {
			eo.MeterProvider = o.MeterProvider
		}
	}
}

// escapeTemplate quotes template delimiters in literal text.
func escapeTemplate(s string) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	return strings.ReplaceAll(s, "{{", `{{"{{"}}`)
}
