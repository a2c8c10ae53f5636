package parser

import (
	"strings"

	"github.com/hupe1980/runeval/core"
	"github.com/tidwall/gjson"
)

// JSON parses a JSON object emitted by a judge, optionally wrapped in prose
// or a fenced code block. Fields are addressed with gjson paths.
type JSON struct {
	EvaluationName string
	ScorePath      string // default "score"
	ValuePath      string // default "value"
	CommentPath    string // default "reasoning"
}

// NewJSON creates a JSON parser with default paths.
func NewJSON(evaluationName string, optFns ...func(p *JSON)) *JSON {
	p := &JSON{
		EvaluationName: evaluationName,
		ScorePath:      "score",
		ValuePath:      "value",
		CommentPath:    "reasoning",
	}
	for _, fn := range optFns {
		fn(p)
	}
	return p
}

// Parse implements core.TextResultParser.
func (p *JSON) Parse(text string) (*core.FeedbackResult, error) {
	doc, ok := extractObject(text)
	if !ok {
		return nil, &core.ParseError{Text: text, Reason: "no JSON object found"}
	}

	fb := &core.FeedbackResult{Key: p.EvaluationName}

	score := gjson.Get(doc, p.ScorePath)
	switch score.Type {
	case gjson.Number:
		fb.Score = core.Float(score.Float())
	case gjson.True:
		fb.Score = core.Float(1)
	case gjson.False:
		fb.Score = core.Float(0)
	case gjson.Null:
	default:
		return nil, &core.ParseError{Text: text, Reason: "score at '" + p.ScorePath + "' is not numeric"}
	}

	if value := gjson.Get(doc, p.ValuePath); value.Exists() {
		fb.Value = value.Value()
	}
	if comment := gjson.Get(doc, p.CommentPath); comment.Exists() {
		fb.Comment = comment.String()
	}

	if fb.Score == nil && fb.Value == nil {
		return nil, &core.ParseError{Text: text, Reason: "neither '" + p.ScorePath + "' nor '" + p.ValuePath + "' present"}
	}
	return fb, nil
}

// extractObject returns the outermost {...} span of text if it is valid JSON.
func extractObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	doc := text[start : end+1]
	if !gjson.Valid(doc) {
		return "", false
	}
	return doc, true
}
