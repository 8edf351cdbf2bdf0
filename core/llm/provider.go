// Package llm is the narrow external-LLM port the orchestrator calls in
// Guided/Delegated mode (§4.G step 6, §5 suspension point (iii)). It is
// intentionally thin: one blocking Generate call per request, no
// streaming or multi-turn surface, since the spec never needs either.
package llm

import "context"

// GenerateOptions bounds a single Generate call.
type GenerateOptions struct {
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
	TopP         float64
}

// Provider is implemented by every external LLM backend the orchestrator
// can call. Name and Available let the selector pick the first
// configured provider without the caller needing to know which one.
type Provider interface {
	Name() string
	Available() bool
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}
