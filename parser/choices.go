package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/runeval/core"
)

// Choices grades text whose final token is one of a fixed set of verdicts,
// e.g. "GRADE: CORRECT". Matching ignores trailing punctuation and falls back
// to a case-insensitive comparison when no label matches exactly.
type Choices struct {
	EvaluationName string
	Scores         map[string]float64
}

// NewChoices creates a Choices parser.
func NewChoices(evaluationName string, scores map[string]float64) *Choices {
	return &Choices{EvaluationName: evaluationName, Scores: scores}
}

// Parse implements core.TextResultParser.
func (c *Choices) Parse(text string) (*core.FeedbackResult, error) {
	trimmed := strings.TrimSpace(text)
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return nil, &core.ParseError{Text: text, Reason: "empty output"}
	}
	verdict := strings.Trim(fields[len(fields)-1], ".:;,!*\"'`")

	if label, ok := c.match(verdict); ok {
		return &core.FeedbackResult{
			Key:     c.EvaluationName,
			Score:   core.Float(c.Scores[label]),
			Value:   label,
			Comment: trimmed,
		}, nil
	}

	return nil, &core.ParseError{Text: text, Reason: fmt.Sprintf("unknown verdict %q, expected one of %s", verdict, strings.Join(c.labels(), "|"))}
}

// match prefers an exact label; otherwise the first label in sorted order that
// equals verdict ignoring case.
func (c *Choices) match(verdict string) (string, bool) {
	if _, ok := c.Scores[verdict]; ok {
		return verdict, true
	}
	for _, label := range c.labels() {
		if strings.EqualFold(label, verdict) {
			return label, true
		}
	}
	return "", false
}

func (c *Choices) labels() []string {
	labels := make([]string, 0, len(c.Scores))
	for l := range c.Scores {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}
