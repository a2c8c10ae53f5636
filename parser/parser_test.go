package parser

import (
	"errors"
	"testing"

	"github.com/hupe1980/runeval/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertions)
var (
	_ core.OutputParser     = (*OutputParser)(nil)
	_ core.TextResultParser = (*Choices)(nil)
	_ core.TextResultParser = (*Criteria)(nil)
	_ core.TextResultParser = (*JSON)(nil)
	_ core.TextResultParser = Func(nil)
)

func correctness() *Choices {
	return NewChoices("correctness", map[string]float64{"CORRECT": 1, "INCORRECT": 0})
}

func TestOutputParser_Correct(t *testing.T) {
	p := New(correctness())
	fb, err := p.ParseChainOutput(core.Outputs{"text": "CORRECT"})
	require.NoError(t, err)
	assert.Equal(t, "correctness", fb.Key)
	require.NotNil(t, fb.Score)
	assert.Equal(t, 1.0, *fb.Score)
	assert.Equal(t, "CORRECT", fb.Value)
	assert.Equal(t, "CORRECT", fb.Comment)
	assert.Empty(t, fb.EvaluatorInfo, "parser must not attach provenance")
}

func TestOutputParser_CustomKey(t *testing.T) {
	p := New(correctness(), func(o *Options) { o.OutputKey = "grade" })
	assert.Equal(t, "grade", p.OutputKey())
	fb, err := p.ParseChainOutput(core.Outputs{"grade": "GRADE: incorrect."})
	require.NoError(t, err)
	assert.Equal(t, 0.0, *fb.Score)
	assert.Equal(t, "INCORRECT", fb.Value)
}

func TestOutputParser_Errors(t *testing.T) {
	p := New(correctness())

	_, err := p.ParseChainOutput(core.Outputs{"other": "CORRECT"})
	var pe *core.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "text", pe.Key)
	assert.Equal(t, "output field is missing", pe.Reason)

	_, err = p.ParseChainOutput(core.Outputs{"text": 42})
	require.ErrorAs(t, err, &pe)

	_, err = p.ParseChainOutput(core.Outputs{"text": "MAYBE"})
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "text", pe.Key, "key is filled in for text parser errors")
	assert.Contains(t, pe.Reason, `"MAYBE"`)
}

func TestOutputParser_WrapsForeignErrors(t *testing.T) {
	boom := errors.New("boom")
	p := New(Func(func(string) (*core.FeedbackResult, error) { return nil, boom }))
	_, err := p.ParseChainOutput(core.Outputs{"text": "x"})
	assert.True(t, core.IsParseError(err))
	assert.ErrorIs(t, err, boom)

	p = New(Func(func(string) (*core.FeedbackResult, error) { return nil, nil }))
	_, err = p.ParseChainOutput(core.Outputs{"text": "x"})
	assert.True(t, core.IsParseError(err))
}

func TestChoices_Empty(t *testing.T) {
	_, err := correctness().Parse("   ")
	assert.True(t, core.IsParseError(err))
}

func TestChoices_CaseCollisionsAreDeterministic(t *testing.T) {
	c := NewChoices("agree", map[string]float64{"Yes": 1, "YES": 0})

	for i := 0; i < 100; i++ {
		fb, err := c.Parse("answer: yes")
		require.NoError(t, err)
		assert.Equal(t, "YES", fb.Value)
		assert.Equal(t, 0.0, *fb.Score)
	}

	fb, err := c.Parse("answer: Yes")
	require.NoError(t, err)
	assert.Equal(t, "Yes", fb.Value)
	assert.Equal(t, 1.0, *fb.Score)
}

func TestChoices_CaseInsensitiveFallback(t *testing.T) {
	fb, err := correctness().Parse("GRADE: incorrect.")
	require.NoError(t, err)
	assert.Equal(t, "INCORRECT", fb.Value)
	assert.Equal(t, 0.0, *fb.Score)
}

func TestCriteria(t *testing.T) {
	c := NewCriteria("conciseness")

	fb, err := c.Parse("The answer is short.\nIt sticks to the point.\nY")
	require.NoError(t, err)
	assert.Equal(t, "conciseness", fb.Key)
	assert.Equal(t, 1.0, *fb.Score)
	assert.Equal(t, "Y", fb.Value)
	assert.Equal(t, "The answer is short.\nIt sticks to the point.", fb.Comment)

	fb, err = c.Parse("n.")
	require.NoError(t, err)
	assert.Equal(t, 0.0, *fb.Score)
	assert.Equal(t, "N", fb.Value)
	assert.Empty(t, fb.Comment)

	_, err = c.Parse("Reasoning only\nperhaps")
	assert.True(t, core.IsParseError(err))
}

func TestJSON(t *testing.T) {
	p := NewJSON("helpfulness")

	fb, err := p.Parse("Here you go:\n```json\n{\"score\": 0.75, \"value\": \"mostly\", \"reasoning\": \"covers most points\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "helpfulness", fb.Key)
	assert.InDelta(t, 0.75, *fb.Score, 1e-9)
	assert.Equal(t, "mostly", fb.Value)
	assert.Equal(t, "covers most points", fb.Comment)

	fb, err = p.Parse(`{"score": true}`)
	require.NoError(t, err)
	assert.Equal(t, 1.0, *fb.Score)

	_, err = p.Parse("no json here")
	assert.True(t, core.IsParseError(err))

	_, err = p.Parse(`{"score": "high"}`)
	assert.True(t, core.IsParseError(err))

	_, err = p.Parse(`{"reasoning": "nothing else"}`)
	assert.True(t, core.IsParseError(err))
}

func TestJSON_CustomPaths(t *testing.T) {
	p := NewJSON("accuracy", func(j *JSON) {
		j.ScorePath = "result.score"
		j.CommentPath = "result.why"
	})
	fb, err := p.Parse(`{"result": {"score": 3, "why": "ok"}}`)
	require.NoError(t, err)
	assert.Equal(t, 3.0, *fb.Score)
	assert.Equal(t, "ok", fb.Comment)
	assert.Nil(t, fb.Value)
}
