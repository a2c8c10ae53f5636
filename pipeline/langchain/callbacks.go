package langchain

import (
	"context"

	"github.com/hupe1980/runeval/logging"
	"github.com/tmc/langchaingo/callbacks"
)

// logHandler forwards chain lifecycle callbacks to a runeval logger.
type logHandler struct {
	callbacks.SimpleHandler
	logger logging.Logger
}

var _ callbacks.Handler = (*logHandler)(nil)

func newLogHandler(logger logging.Logger) *logHandler {
	return &logHandler{logger: logger}
}

func (h *logHandler) HandleChainStart(_ context.Context, inputs map[string]any) {
	h.logger.Debug("Chain started", "input_count", len(inputs))
}

func (h *logHandler) HandleChainEnd(_ context.Context, outputs map[string]any) {
	h.logger.Debug("Chain finished", "output_count", len(outputs))
}

func (h *logHandler) HandleChainError(_ context.Context, err error) {
	h.logger.Warn("Chain failed", "error", err)
}

func (h *logHandler) HandleLLMError(_ context.Context, err error) {
	h.logger.Warn("Chain model call failed", "error", err)
}
