package langchain

import (
	"context"
	"strings"

	"github.com/hupe1980/runeval/model"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
	"github.com/tmc/langchaingo/schema"
)

// LLM adapts a model.Model to llms.Model. Call options are not forwarded;
// temperature and token limits belong to the wrapped model.
type LLM struct {
	model model.Model
}

var _ llms.Model = (*LLM)(nil)

// NewLLM wraps m.
func NewLLM(m model.Model) *LLM {
	return &LLM{model: m}
}

// GenerateContent implements llms.Model.
func (l *LLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	req := model.Request{}
	var system []string
	for _, mc := range messages {
		text := textOf(mc)
		switch mc.Role {
		case schema.ChatMessageTypeSystem:
			system = append(system, text)
		case schema.ChatMessageTypeAI:
			req.Messages = append(req.Messages, model.Message{Role: model.RoleAssistant, Content: text})
		default:
			req.Messages = append(req.Messages, model.Message{Role: model.RoleUser, Content: text})
		}
	}
	req.System = strings.Join(system, "\n")

	resp, err := model.Collect(ctx, l.model, req)
	if err != nil {
		return nil, err
	}

	choice := &llms.ContentChoice{
		Content:    resp.Text,
		StopReason: resp.FinishReason,
	}
	if resp.Usage != nil {
		choice.GenerationInfo = map[string]any{
			"PromptTokens":     resp.Usage.PromptTokens,
			"CompletionTokens": resp.Usage.CompletionTokens,
			"TotalTokens":      resp.Usage.TotalTokens,
		}
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{choice}}, nil
}

// Call implements llms.Model.
func (l *LLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, l, prompt, options...)
}

func textOf(mc llms.MessageContent) string {
	var b strings.Builder
	for _, part := range mc.Parts {
		if tc, ok := part.(llms.TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

// NewLLMPipeline builds an LLMChain over m with a Go-template prompt and
// wraps it as a Pipeline. inputVars become the pipeline's input keys and the
// completion is emitted under "text".
func NewLLMPipeline(m model.Model, template string, inputVars []string, optFns ...func(o *Options)) (*Pipeline, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	var chainOpts []chains.ChainCallOption
	if opts.Logger != nil {
		chainOpts = append(chainOpts, chains.WithCallback(newLogHandler(opts.Logger)))
	}

	chain := chains.NewLLMChain(NewLLM(m), prompts.NewPromptTemplate(template, inputVars), chainOpts...)
	return New(chain, optFns...)
}
