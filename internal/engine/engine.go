// Package engine defines the boundary to the external text generation
// engine. The service only builds prompts and consumes raw completions; how
// text is generated is the engine's business.
package engine

import "context"

// Params are the sampling parameters passed to a generation call.
type Params struct {
	MaxNewTokens int
	Temperature  float32
	TopP         float32
}

// DefaultParams returns the sampling parameters used for chat replies.
func DefaultParams() Params {
	return Params{
		MaxNewTokens: 100,
		Temperature:  0.7,
		TopP:         0.85,
	}
}

// Info describes the loaded model for the /model/info surface.
type Info struct {
	ModelType string `json:"type"`
	BaseModel string `json:"base_model"`
}

// Generator is the external generation engine.
type Generator interface {
	// Generate produces a raw completion for the prompt. The call is
	// unbounded in latency; callers must not hold locks across it.
	Generate(ctx context.Context, prompt string, params Params) (string, error)

	// Ready probes the engine and reports an error while it is unreachable.
	Ready(ctx context.Context) error

	// Loaded reports whether the engine has ever been reachable. It is a
	// cheap read of a latched flag, safe on the request path.
	Loaded() bool

	// Separator returns the engine tokenizer's turn separator token.
	Separator() string

	Info() Info
}
