package langchain

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/runeval/core"
	"github.com/hupe1980/runeval/logging"
	"github.com/hupe1980/runeval/model"
	"github.com/hupe1980/runeval/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/memory"
	"github.com/tmc/langchaingo/schema"
)

// gradeChain echoes a fixed verdict for every call.
type gradeChain struct {
	verdict string
	err     error
	seen    map[string]any
}

var _ chains.Chain = (*gradeChain)(nil)

func (c *gradeChain) Call(_ context.Context, inputs map[string]any, _ ...chains.ChainCallOption) (map[string]any, error) {
	c.seen = inputs
	if c.err != nil {
		return nil, c.err
	}
	return map[string]any{"text": c.verdict}, nil
}

func (c *gradeChain) GetMemory() schema.Memory { return memory.NewSimple() }
func (c *gradeChain) GetInputKeys() []string  { return []string{"input", "prediction"} }
func (c *gradeChain) GetOutputKeys() []string { return []string{"text"} }

func TestNew_NilChain(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestPipeline_Invoke(t *testing.T) {
	chain := &gradeChain{verdict: "CORRECT"}
	p, err := New(chain, func(o *Options) { o.Name = "qa-chain" })
	require.NoError(t, err)

	assert.Equal(t, "qa-chain", p.Name())
	assert.Equal(t, []string{"input", "prediction"}, p.InputKeys())

	h := core.NewHandle(context.Background(), "")
	res, err := p.Invoke(context.Background(), core.Inputs{"input": "2+2?", "prediction": "4"}, h)
	require.NoError(t, err)
	assert.Equal(t, core.Outputs{"text": "CORRECT"}, res.Outputs)
	assert.Equal(t, "4", chain.seen["prediction"])
	require.NotNil(t, res.Provenance)
	assert.Equal(t, h.RunID, res.Provenance.RunID)
	assert.Equal(t, "qa-chain", res.Provenance.Pipeline)
}

func TestPipeline_InvokeMissingInput(t *testing.T) {
	p, err := New(&gradeChain{verdict: "CORRECT"})
	require.NoError(t, err)

	_, err = p.Invoke(context.Background(), core.Inputs{"input": "2+2?"}, nil)
	assert.ErrorIs(t, err, chains.ErrInvalidInputValues)
}

func TestPipeline_InvokeError(t *testing.T) {
	boom := errors.New("boom")
	p, err := New(&gradeChain{err: boom})
	require.NoError(t, err)

	resCh, errCh := p.InvokeAsync(context.Background(), core.Inputs{"input": "q", "prediction": "a"}, nil)
	_, err = pipeline.Await(context.Background(), resCh, errCh)
	assert.ErrorIs(t, err, boom)
}

func TestLLM_GenerateContent(t *testing.T) {
	m := model.NewMockModel("gpt-test", "mock")
	m.AddResponse("grade", "Y")

	resp, err := NewLLM(m).GenerateContent(context.Background(), []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, "be strict"),
		llms.TextParts(schema.ChatMessageTypeHuman, "grade"),
	})
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "Y", resp.Choices[0].Content)
	assert.Equal(t, "stop", resp.Choices[0].StopReason)
	assert.Contains(t, resp.Choices[0].GenerationInfo, "TotalTokens")

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "be strict", reqs[0].System)
}

func TestLLM_Call(t *testing.T) {
	m := model.NewMockModel("gpt-test", "mock")
	m.AddResponse("hello", "world")

	out, err := NewLLM(m).Call(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "world", out)
}

func TestNewLLMPipeline(t *testing.T) {
	m := model.NewMockModel("gpt-test", "mock")
	m.AddResponse("Q: 2+2? A: 4", "CORRECT")

	p, err := NewLLMPipeline(m, "Q: {{.input}} A: {{.prediction}}", []string{"input", "prediction"}, func(o *Options) {
		o.Logger = logging.NoOpLogger{}
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"input", "prediction"}, p.InputKeys())

	res, err := p.Invoke(context.Background(), core.Inputs{"input": "2+2?", "prediction": "4"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "CORRECT", res.Outputs["text"])
}
