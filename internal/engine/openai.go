package engine

import (
	"context"
	"errors"
	"sync/atomic"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultSeparator is the end-of-sequence token of the GPT-2 tokenizer
// family, which the fine-tuned conversational models use as turn separator.
const DefaultSeparator = "<|endoftext|>"

// OpenAIConfig configures the client for an OpenAI-compatible completion
// endpoint (the inference server in front of the fine-tuned model).
type OpenAIConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	Separator string
	ModelType string // reported on /model/info, e.g. "fine_tuned" or "base"
}

// OpenAIEngine generates completions through an OpenAI-compatible API.
type OpenAIEngine struct {
	client    *openai.Client
	model     string
	separator string
	modelType string
	loaded    atomic.Bool
}

// NewOpenAIEngine creates a generation engine client.
func NewOpenAIEngine(cfg OpenAIConfig) *OpenAIEngine {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	separator := cfg.Separator
	if separator == "" {
		separator = DefaultSeparator
	}

	modelType := cfg.ModelType
	if modelType == "" {
		modelType = "base"
	}

	return &OpenAIEngine{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		separator: separator,
		modelType: modelType,
	}
}

func (e *OpenAIEngine) Generate(ctx context.Context, prompt string, params Params) (string, error) {
	resp, err := e.client.CreateCompletion(ctx, openai.CompletionRequest{
		Model:       e.model,
		Prompt:      prompt,
		MaxTokens:   params.MaxNewTokens,
		Temperature: params.Temperature,
		TopP:        params.TopP,
		Stop:        []string{e.separator},
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("engine returned no choices")
	}

	e.loaded.Store(true)

	return resp.Choices[0].Text, nil
}

func (e *OpenAIEngine) Ready(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return err
	}

	e.loaded.Store(true)

	return nil
}

func (e *OpenAIEngine) Loaded() bool {
	return e.loaded.Load()
}

func (e *OpenAIEngine) Separator() string {
	return e.separator
}

func (e *OpenAIEngine) Info() Info {
	return Info{
		ModelType: e.modelType,
		BaseModel: e.model,
	}
}

// Compile-time check.
var _ Generator = (*OpenAIEngine)(nil)
