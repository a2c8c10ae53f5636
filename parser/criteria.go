package parser

import (
	"strings"

	"github.com/hupe1980/runeval/core"
)

// Criteria parses step-by-step reasoning followed by a final "Y" or "N" line.
type Criteria struct {
	EvaluationName string
}

// NewCriteria creates a Criteria parser.
func NewCriteria(evaluationName string) *Criteria {
	return &Criteria{EvaluationName: evaluationName}
}

// Parse implements core.TextResultParser.
func (c *Criteria) Parse(text string) (*core.FeedbackResult, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, &core.ParseError{Text: text, Reason: "empty output"}
	}

	reasoning, verdict := "", trimmed
	if i := strings.LastIndex(trimmed, "\n"); i >= 0 {
		reasoning, verdict = strings.TrimSpace(trimmed[:i]), trimmed[i+1:]
	}
	verdict = strings.ToUpper(strings.Trim(strings.TrimSpace(verdict), ".:;,!*\"'`"))

	var score float64
	switch verdict {
	case "Y", "YES":
		score = 1
		verdict = "Y"
	case "N", "NO":
		verdict = "N"
	default:
		return nil, &core.ParseError{Text: text, Reason: "final line must be Y or N, got " + verdict}
	}

	return &core.FeedbackResult{
		Key:     c.EvaluationName,
		Score:   core.Float(score),
		Value:   verdict,
		Comment: reasoning,
	}, nil
}
