package evaluation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/runeval/core"
	"github.com/hupe1980/runeval/internal/testutil"
	"github.com/hupe1980/runeval/mapper"
	"github.com/hupe1980/runeval/parser"
	"github.com/hupe1980/runeval/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func correctnessParser() *parser.OutputParser {
	return parser.New(parser.NewChoices("correctness", map[string]float64{"CORRECT": 1, "INCORRECT": 0}))
}

func predictionReferenceMapper() *mapper.StringMapper {
	return mapper.NewStringMapper(func(o *mapper.StringMapperOptions) {
		o.PredictionKey = "text"
		o.ReferenceKey = "text"
	})
}

func qaRun() *core.Run {
	return testutil.NewRunBuilder().Output("text", "Paris").Build()
}

func qaExample() *core.Example {
	return testutil.NewExampleBuilder().Output("text", "Paris").Build()
}

func newEvaluator(t *testing.T, p core.Pipeline) *RunEvaluator {
	t.Helper()
	e, err := New(predictionReferenceMapper(), p, correctnessParser(), func(o *Options) { o.Name = "qa" })
	require.NoError(t, err)
	return e
}

func TestNew_KeyMismatch(t *testing.T) {
	m := mapper.Func{Keys: []string{"a"}, Fn: func(*core.Run, *core.Example) (core.Inputs, error) {
		return core.Inputs{"a": 1}, nil
	}}
	p := testutil.NewMockPipeline("b")

	e, err := New(m, p, correctnessParser())
	assert.Nil(t, e)

	var ce *core.ConstructionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"b"}, ce.Missing)
	assert.Equal(t, []string{"a"}, ce.Extra)
	p.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything, mock.Anything)
}

func TestNew_NilCollaborators(t *testing.T) {
	p := testutil.NewMockPipeline("prediction")
	m := mapper.NewStringMapper()

	_, err := New(nil, p, correctnessParser())
	assert.True(t, core.IsConstructionError(err))
	_, err = New(m, nil, correctnessParser())
	assert.True(t, core.IsConstructionError(err))
	_, err = New(m, p, nil)
	assert.True(t, core.IsConstructionError(err))
}

func TestNew_KeyOrderIsIrrelevant(t *testing.T) {
	_, err := New(predictionReferenceMapper(), testutil.NewMockPipeline("reference", "prediction"), correctnessParser())
	assert.NoError(t, err)
}

func TestRunEvaluator_ZeroValue(t *testing.T) {
	var e RunEvaluator
	_, err := e.EvaluateRun(context.Background(), qaRun(), qaExample())
	assert.ErrorIs(t, err, core.ErrNotConstructed)

	resCh, errCh := e.EvaluateRunAsync(context.Background(), qaRun(), qaExample())
	assert.ErrorIs(t, <-errCh, core.ErrNotConstructed)
	_, ok := <-resCh
	assert.False(t, ok)
}

func TestRunEvaluator_EvaluateRun(t *testing.T) {
	p := testutil.NewMockPipeline("prediction", "reference")
	p.On("Invoke", mock.Anything, core.Inputs{"prediction": "Paris", "reference": "Paris"}, mock.AnythingOfType("*core.Handle")).
		Return(testutil.TextResult("CORRECT", "r1"), nil)

	e := newEvaluator(t, p)
	fb, err := e.EvaluateRun(context.Background(), qaRun(), qaExample())
	require.NoError(t, err)

	assert.Equal(t, "correctness", fb.Key)
	assert.Equal(t, "CORRECT", fb.Value)
	assert.Equal(t, "CORRECT", fb.Comment)
	require.NotNil(t, fb.Score)
	assert.Equal(t, 1.0, *fb.Score)

	info, ok := fb.RunInfo()
	require.True(t, ok)
	assert.Equal(t, "r1", info.RunID)
	p.AssertExpectations(t)
}

func TestRunEvaluator_FallbackProvenance(t *testing.T) {
	var seen *core.Handle
	p := testutil.NewMockPipeline("prediction", "reference")
	p.On("Invoke", mock.Anything, mock.Anything, mock.AnythingOfType("*core.Handle")).
		Run(func(args mock.Arguments) { seen = args.Get(2).(*core.Handle) }).
		Return(&core.PipelineResult{Outputs: core.Outputs{"text": "INCORRECT"}}, nil)

	e := newEvaluator(t, p)
	fb, err := e.EvaluateRun(context.Background(), qaRun(), qaExample())
	require.NoError(t, err)

	info, ok := fb.RunInfo()
	require.True(t, ok)
	require.NotNil(t, seen)
	assert.Equal(t, seen.RunID, info.RunID)
	assert.NotEmpty(t, info.ParentRunID)
	assert.Equal(t, "mock", info.Pipeline)
	assert.Equal(t, 0.0, *fb.Score)
}

func TestRunEvaluator_FreshHandlePerCall(t *testing.T) {
	var handles []*core.Handle
	p := testutil.NewMockPipeline("prediction", "reference")
	p.On("Invoke", mock.Anything, mock.Anything, mock.AnythingOfType("*core.Handle")).
		Run(func(args mock.Arguments) { handles = append(handles, args.Get(2).(*core.Handle)) }).
		Return(&core.PipelineResult{Outputs: core.Outputs{"text": "CORRECT"}}, nil)

	e := newEvaluator(t, p)
	for i := 0; i < 2; i++ {
		_, err := e.EvaluateRun(context.Background(), qaRun(), qaExample())
		require.NoError(t, err)
	}
	require.Len(t, handles, 2)
	assert.NotEqual(t, handles[0].RunID, handles[1].RunID)
	assert.NotEqual(t, handles[0].ParentRunID, handles[1].ParentRunID)
}

func TestRunEvaluator_MappingErrorSkipsPipeline(t *testing.T) {
	p := testutil.NewMockPipeline("prediction", "reference")
	e := newEvaluator(t, p)

	run := testutil.NewRunBuilder().Output("answer", "Paris").Build()
	_, err := e.EvaluateRun(context.Background(), run, qaExample())

	var me *core.MappingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "prediction", me.Field)
	assert.Equal(t, "text", me.Key)

	resCh, errCh := e.EvaluateRunAsync(context.Background(), run, qaExample())
	assert.True(t, core.IsMappingError(<-errCh))
	assert.Nil(t, <-resCh)

	p.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunEvaluator_InvocationError(t *testing.T) {
	boom := errors.New("upstream unavailable")
	p := testutil.NewMockPipeline("prediction", "reference")
	p.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return(nil, boom)

	e := newEvaluator(t, p)
	_, err := e.EvaluateRun(context.Background(), qaRun(), qaExample())

	var ie *core.InvocationError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "mock", ie.Pipeline)
	assert.NotEmpty(t, ie.RunID)
	assert.ErrorIs(t, err, boom)
	assert.Same(t, boom, errors.Unwrap(err))
}

func TestRunEvaluator_TypedInvocationErrorPassesThrough(t *testing.T) {
	orig := &core.InvocationError{Pipeline: "inner", RunID: "x", Err: errors.New("nope")}
	p := testutil.NewMockPipeline("prediction", "reference")
	p.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return(nil, orig)

	e := newEvaluator(t, p)
	_, err := e.EvaluateRun(context.Background(), qaRun(), qaExample())
	assert.Same(t, orig, err)
}

func TestRunEvaluator_NilResult(t *testing.T) {
	p := testutil.NewMockPipeline("prediction", "reference")
	p.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	e := newEvaluator(t, p)
	_, err := e.EvaluateRun(context.Background(), qaRun(), qaExample())
	assert.True(t, core.IsInvocationError(err))
	assert.ErrorIs(t, err, pipeline.ErrNoResult)
}

func TestRunEvaluator_ParseError(t *testing.T) {
	p := testutil.NewMockPipeline("prediction", "reference")
	p.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return(testutil.TextResult("MAYBE", "r1"), nil)

	e := newEvaluator(t, p)
	_, err := e.EvaluateRun(context.Background(), qaRun(), qaExample())
	assert.True(t, core.IsParseError(err))

	p2 := testutil.NewMockPipeline("prediction", "reference")
	p2.On("Invoke", mock.Anything, mock.Anything, mock.Anything).
		Return(&core.PipelineResult{Outputs: core.Outputs{"answer": "CORRECT"}}, nil)

	e2 := newEvaluator(t, p2)
	_, err = e2.EvaluateRun(context.Background(), qaRun(), qaExample())
	var pe *core.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "text", pe.Key)
}

type nilOutputParser struct{}

func (nilOutputParser) ParseChainOutput(core.Outputs) (*core.FeedbackResult, error) { return nil, nil }

func TestRunEvaluator_NilFeedback(t *testing.T) {
	p := testutil.NewMockPipeline("prediction", "reference")
	p.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return(testutil.TextResult("CORRECT", "r1"), nil)

	e, err := New(predictionReferenceMapper(), p, nilOutputParser{})
	require.NoError(t, err)

	fb, err := e.EvaluateRun(context.Background(), qaRun(), qaExample())
	assert.Nil(t, fb)
	assert.True(t, core.IsParseError(err))

	resCh, errCh := e.EvaluateRunAsync(context.Background(), qaRun(), qaExample())
	_, ok := <-resCh
	assert.False(t, ok)
	assert.True(t, core.IsParseError(<-errCh))
}

func TestRunEvaluator_AsyncMatchesSync(t *testing.T) {
	p := testutil.NewMockPipeline("prediction", "reference")
	p.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return(testutil.TextResult("CORRECT", "r1"), nil)

	e := newEvaluator(t, p)
	syncFB, err := e.EvaluateRun(context.Background(), qaRun(), qaExample())
	require.NoError(t, err)

	resCh, errCh := e.EvaluateRunAsync(context.Background(), qaRun(), qaExample())
	asyncFB, ok := <-resCh
	require.True(t, ok)
	require.NoError(t, <-errCh)

	assert.Equal(t, syncFB, asyncFB)
}

func TestRunEvaluator_DoesNotMutatePipelineOutput(t *testing.T) {
	shared := map[string]any{"existing": true}
	parse := parser.New(parser.Func(func(text string) (*core.FeedbackResult, error) {
		return &core.FeedbackResult{Key: "k", Value: text, EvaluatorInfo: shared}, nil
	}))
	p := testutil.NewMockPipeline("prediction", "reference")
	p.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return(testutil.TextResult("ok", "r1"), nil)

	e, err := New(predictionReferenceMapper(), p, parse)
	require.NoError(t, err)

	fb, err := e.EvaluateRun(context.Background(), qaRun(), qaExample())
	require.NoError(t, err)
	assert.Contains(t, fb.EvaluatorInfo, core.RunInfoKey)
	assert.Equal(t, true, fb.EvaluatorInfo["existing"])
	assert.NotContains(t, shared, core.RunInfoKey)
}

// blockingPipeline waits for ctx before failing, recording whether it saw
// the cancellation.
type blockingPipeline struct {
	started   chan struct{}
	cancelled chan struct{}
}

func newBlockingPipeline() *blockingPipeline {
	return &blockingPipeline{started: make(chan struct{}), cancelled: make(chan struct{})}
}

func (p *blockingPipeline) Name() string        { return "blocking" }
func (p *blockingPipeline) InputKeys() []string { return []string{"prediction", "reference"} }
func (p *blockingPipeline) Invoke(ctx context.Context, _ core.Inputs, _ *core.Handle) (*core.PipelineResult, error) {
	close(p.started)
	<-ctx.Done()
	close(p.cancelled)
	return nil, ctx.Err()
}
func (p *blockingPipeline) InvokeAsync(ctx context.Context, inputs core.Inputs, h *core.Handle) (<-chan *core.PipelineResult, <-chan error) {
	return pipeline.Async(ctx, func(ctx context.Context) (*core.PipelineResult, error) {
		return p.Invoke(ctx, inputs, h)
	})
}

func TestRunEvaluator_AsyncCancellation(t *testing.T) {
	p := newBlockingPipeline()
	e := newEvaluator(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	resCh, errCh := e.EvaluateRunAsync(ctx, qaRun(), qaExample())

	select {
	case <-p.started:
	case <-time.After(time.Second):
		t.Fatal("pipeline was not invoked")
	}
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancellation was not surfaced")
	}
	select {
	case <-p.cancelled:
	case <-time.After(time.Second):
		t.Fatal("pipeline invocation was not cancelled")
	}

	fb, ok := <-resCh
	assert.False(t, ok)
	assert.Nil(t, fb)
}

func TestRunEvaluator_BlockingCancellation(t *testing.T) {
	p := newBlockingPipeline()
	e := newEvaluator(t, p)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	fb, err := e.EvaluateRun(ctx, qaRun(), qaExample())
	assert.Nil(t, fb)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, core.IsInvocationError(err))
}

func TestRunEvaluator_CallContract(t *testing.T) {
	p := testutil.NewMockPipeline("prediction", "reference")
	e := newEvaluator(t, p)
	assert.Equal(t, []string{"run", "example"}, e.InputKeys())
	assert.Equal(t, []string{"feedback"}, e.OutputKeys())
	assert.Equal(t, "qa", e.Name())
}

func TestRunEvaluator_AsPipeline(t *testing.T) {
	p := testutil.NewMockPipeline("prediction", "reference")
	p.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return(&core.PipelineResult{Outputs: core.Outputs{"text": "CORRECT"}}, nil)
	e := newEvaluator(t, p)

	parent := core.NewHandle(context.Background(), "suite")
	res, err := e.Invoke(context.Background(), core.Inputs{"run": qaRun(), "example": qaExample()}, parent)
	require.NoError(t, err)

	fb, ok := res.Outputs["feedback"].(*core.FeedbackResult)
	require.True(t, ok)
	assert.Equal(t, "correctness", fb.Key)

	resCh, errCh := e.InvokeAsync(context.Background(), core.Inputs{"run": *qaRun(), "example": qaExample()}, parent)
	res, err = pipeline.Await(context.Background(), resCh, errCh)
	require.NoError(t, err)
	assert.Contains(t, res.Outputs, "feedback")

	_, err = e.Invoke(context.Background(), core.Inputs{"run": "not a run"}, parent)
	var me *core.MappingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "run", me.Field)

	_, err = e.Invoke(context.Background(), core.Inputs{"run": qaRun(), "example": 42}, parent)
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "example", me.Field)
}
