package config

import (
	"fmt"
	"os"

	sdkanthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/hupe1980/runeval"
	"github.com/hupe1980/runeval/core"
	"github.com/hupe1980/runeval/evaluation"
	"github.com/hupe1980/runeval/logging"
	"github.com/hupe1980/runeval/mapper"
	"github.com/hupe1980/runeval/model"
	"github.com/hupe1980/runeval/model/anthropic"
	"github.com/hupe1980/runeval/model/openai"
	"github.com/hupe1980/runeval/parser"
	"github.com/hupe1980/runeval/pipeline/judge"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// BuildOptions injects runtime dependencies into Build.
type BuildOptions struct {
	// Model replaces the configured judge model.
	Model model.Model
	// Logger replaces the logger derived from the logging section.
	Logger         logging.Logger
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Build creates the RunEvaluator described by cfg.
func Build(cfg *Config, optFns ...func(o *BuildOptions)) (*evaluation.RunEvaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts BuildOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = NewLogger(cfg.Logging)
	}

	m := opts.Model
	if m == nil {
		var err error
		if m, err = NewModel(cfg.Model); err != nil {
			return nil, err
		}
	}

	switch cfg.Kind {
	case KindQA:
		return runeval.NewQAEvaluator(m, presetOptions(cfg, opts))
	case KindCriteria:
		return runeval.NewCriteriaEvaluator(m, cfg.Criteria, presetOptions(cfg, opts))
	default:
		return buildCustom(cfg, m, opts)
	}
}

// NewModel creates the judge model for mc. API keys are read from the
// environment variable named by APIKeyEnv, falling back to the SDK default.
func NewModel(mc ModelConfig) (model.Model, error) {
	apiKey := ""
	if mc.APIKeyEnv != "" {
		apiKey = os.Getenv(mc.APIKeyEnv)
	}

	switch mc.Provider {
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if mc.Name != "" {
				o.Model = mc.Name
			}
			o.Temperature = mc.Temperature
			if mc.MaxTokens > 0 {
				o.MaxCompletionTokens = mc.MaxTokens
			}
			o.APIKey = apiKey
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if mc.Name != "" {
				o.Model = sdkanthropic.Model(mc.Name)
			}
			o.Temperature = mc.Temperature
			if mc.MaxTokens > 0 {
				o.MaxTokens = mc.MaxTokens
			}
			o.APIKey = apiKey
		}), nil
	case "mock":
		name := mc.Name
		if name == "" {
			name = "mock"
		}
		mm := model.NewMockModel(name, "mock")
		mm.SetDefaultResponse(mc.Response)
		return mm, nil
	default:
		return nil, fmt.Errorf("unsupported model provider %q", mc.Provider)
	}
}

// NewLogger creates the structured logger described by lc, or a no-op logger
// when no level is configured.
func NewLogger(lc LoggingConfig) logging.Logger {
	if lc.Level == "" {
		return logging.NoOpLogger{}
	}
	return logging.NewSlogLogger(logging.ParseLevel(lc.Level), lc.Format, false).WithComponent("runeval")
}

func presetOptions(cfg *Config, bo BuildOptions) func(o *runeval.Options) {
	return func(o *runeval.Options) {
		o.Name = cfg.Name
		if cfg.Mapper.InputKey != "" {
			o.InputKey = cfg.Mapper.InputKey
		}
		if cfg.Mapper.PredictionKey != "" {
			o.PredictionKey = cfg.Mapper.PredictionKey
		}
		if cfg.Mapper.ReferenceKey != "" {
			o.ReferenceKey = cfg.Mapper.ReferenceKey
		}
		if cfg.Prompt != "" {
			o.Prompt = cfg.Prompt
		}
		if cfg.Parser.EvaluationName != "" {
			o.EvaluationName = cfg.Parser.EvaluationName
		}
		o.System = cfg.System
		o.Logger = bo.Logger
		o.TracerProvider = bo.TracerProvider
		o.MeterProvider = bo.MeterProvider
	}
}

func buildCustom(cfg *Config, m model.Model, bo BuildOptions) (*evaluation.RunEvaluator, error) {
	sm := mapper.NewStringMapper(func(o *mapper.StringMapperOptions) {
		o.InputKey = cfg.Mapper.InputKey
		o.PredictionKey = cfg.Mapper.PredictionKey
		o.ReferenceKey = cfg.Mapper.ReferenceKey
	})

	outputKey := cfg.Parser.OutputKey
	if outputKey == "" {
		outputKey = parser.DefaultOutputKey
	}

	inputKeys := cfg.InputKeys
	if len(inputKeys) == 0 {
		inputKeys = sm.OutputKeys()
	}

	p, err := judge.New(m, cfg.Prompt, func(o *judge.Options) {
		o.Name = cfg.Name + "-judge"
		o.InputKeys = inputKeys
		o.System = cfg.System
		o.OutputKey = outputKey
		o.Logger = bo.Logger
	})
	if err != nil {
		return nil, err
	}

	text, err := textParser(cfg)
	if err != nil {
		return nil, err
	}
	out := parser.New(text, func(o *parser.Options) { o.OutputKey = outputKey })

	return evaluation.New(sm, p, out, func(o *evaluation.Options) {
		o.Name = cfg.Name
		o.Logger = bo.Logger
		if bo.TracerProvider != nil {
			o.TracerProvider = bo.TracerProvider
		}
		if bo.MeterProvider != nil {
			o.MeterProvider = bo.MeterProvider
		}
	})
}

func textParser(cfg *Config) (core.TextResultParser, error) {
	name := cfg.Parser.EvaluationName
	if name == "" {
		name = cfg.Name
	}

	switch cfg.Parser.Type {
	case ParserChoices:
		return parser.NewChoices(name, cfg.Parser.Choices), nil
	case ParserCriteria:
		return parser.NewCriteria(name), nil
	case ParserJSON:
		return parser.NewJSON(name, func(p *parser.JSON) {
			if cfg.Parser.ScorePath != "" {
				p.ScorePath = cfg.Parser.ScorePath
			}
			if cfg.Parser.ValuePath != "" {
				p.ValuePath = cfg.Parser.ValuePath
			}
			if cfg.Parser.CommentPath != "" {
				p.CommentPath = cfg.Parser.CommentPath
			}
		}), nil
	default:
		return nil, fmt.Errorf("unsupported parser type %q", cfg.Parser.Type)
	}
}
