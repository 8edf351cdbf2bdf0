package llm

import "context"

// FallbackProvider is always Available and never fails; it is the last
// entry in the Selector's chain so Guided/Delegated mode always has a
// candidate to hand the validator even with no external LLM configured.
type FallbackProvider struct{}

func (FallbackProvider) Name() string    { return "fallback" }
func (FallbackProvider) Available() bool { return true }

// Generate returns a fixed, non-committal acknowledgement. It never
// reflects prompt content back verbatim, which keeps it safe to use even
// when the orchestrator reaches Guided/Delegated mode for a request the
// manipulation screen did not block outright.
func (FallbackProvider) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	return "I don't have an external model configured right now, but I've noted your request and will do my best with what I have available.", nil
}
