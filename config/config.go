// Package config loads evaluator definitions from YAML and builds ready to
// use RunEvaluators from them.
//
// A definition names the evaluator kind (qa, criteria or custom), the judge
// model and how run/example fields are mapped and how the judge's answer is
// parsed:
//
//	name: qa
//	kind: qa
//	model:
//	  provider: openai
//	  name: gpt-4o-mini
//	  api_key_env: OPENAI_API_KEY
//	mapper:
//	  prediction_key: output
//	  reference_key: output
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Evaluator kinds.
const (
	KindQA       = "qa"
	KindCriteria = "criteria"
	KindCustom   = "custom"
)

// Parser types for custom evaluators.
const (
	ParserChoices  = "choices"
	ParserCriteria = "criteria"
	ParserJSON     = "json"
)

// Config is a single evaluator definition.
type Config struct {
	Name     string            `yaml:"name" validate:"required"`
	Kind     string            `yaml:"kind" validate:"required,oneof=qa criteria custom"`
	Model    ModelConfig       `yaml:"model"`
	Mapper   MapperConfig      `yaml:"mapper"`
	Parser   ParserConfig      `yaml:"parser"`
	Criteria map[string]string `yaml:"criteria" validate:"required_if=Kind criteria"`
	// Prompt is a text/template. Required for custom evaluators; overrides the
	// preset prompt otherwise.
	Prompt string `yaml:"prompt" validate:"required_if=Kind custom"`
	System string `yaml:"system"`
	// InputKeys overrides the judge's declared inputs. Defaults to the mapper's output keys.
	InputKeys []string      `yaml:"input_keys"`
	Logging   LoggingConfig `yaml:"logging"`
}

// ModelConfig selects and tunes the judge model.
type ModelConfig struct {
	Provider    string  `yaml:"provider" validate:"required,oneof=openai anthropic mock"`
	Name        string  `yaml:"name"`
	Temperature float64 `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int64   `yaml:"max_tokens" validate:"gte=0"`
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `yaml:"api_key_env"`
	// Response is the canned completion of the mock provider.
	Response string `yaml:"response"`
}

// MapperConfig selects the run and example fields.
type MapperConfig struct {
	InputKey      string `yaml:"input_key"`
	PredictionKey string `yaml:"prediction_key"`
	ReferenceKey  string `yaml:"reference_key"`
}

// ParserConfig configures output parsing.
type ParserConfig struct {
	Type           string             `yaml:"type" validate:"omitempty,oneof=choices criteria json"`
	OutputKey      string             `yaml:"output_key"`
	EvaluationName string             `yaml:"evaluation_name"`
	Choices        map[string]float64 `yaml:"choices" validate:"required_if=Type choices"`
	ScorePath      string             `yaml:"score_path"`
	ValuePath      string             `yaml:"value_path"`
	CommentPath    string             `yaml:"comment_path"`
}

// LoggingConfig configures the structured logger used when none is injected.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"omitempty,oneof=json text"`
}

var validate = validator.New()

// Load reads and validates a definition from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read the config file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML definition.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the definition.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Kind == KindCustom && c.Parser.Type == "" {
		return fmt.Errorf("invalid config: parser.type is required for custom evaluators")
	}
	return nil
}
