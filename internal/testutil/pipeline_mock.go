package testutil

import (
	"context"

	"github.com/hupe1980/runeval/core"
	"github.com/stretchr/testify/mock"
)

// MockPipeline is a testify mock implementing core.Pipeline. Expectations are
// registered on "Invoke"; InvokeAsync delivers the same expectation through
// channels so both execution paths share one setup.
type MockPipeline struct {
	mock.Mock
	Keys []string
}

// NewMockPipeline creates a MockPipeline accepting keys.
func NewMockPipeline(keys ...string) *MockPipeline {
	return &MockPipeline{Keys: keys}
}

// Name implements core.Pipeline.
func (m *MockPipeline) Name() string { return "mock" }

// InputKeys implements core.Pipeline.
func (m *MockPipeline) InputKeys() []string { return m.Keys }

// Invoke implements core.Pipeline.
func (m *MockPipeline) Invoke(ctx context.Context, inputs core.Inputs, handle *core.Handle) (*core.PipelineResult, error) {
	args := m.Called(ctx, inputs, handle)
	res, _ := args.Get(0).(*core.PipelineResult)
	return res, args.Error(1)
}

// InvokeAsync implements core.Pipeline.
func (m *MockPipeline) InvokeAsync(ctx context.Context, inputs core.Inputs, handle *core.Handle) (<-chan *core.PipelineResult, <-chan error) {
	resCh := make(chan *core.PipelineResult, 1)
	errCh := make(chan error, 1)
	res, err := m.Invoke(ctx, inputs, handle)
	if err != nil {
		errCh <- err
	} else {
		resCh <- res
	}
	close(resCh)
	close(errCh)
	return resCh, errCh
}

// TextResult builds a pipeline result with a single "text" output and a
// provenance record carrying runID.
func TextResult(text, runID string) *core.PipelineResult {
	return &core.PipelineResult{
		Outputs:    core.Outputs{"text": text},
		Provenance: &core.Provenance{RunID: runID},
	}
}
