package orchestrator

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/EchoCog/echollama/core/llm"
)

// retryBaseDelay and retryAttempts bound the hand-rolled exponential
// backoff wrapping every external-LLM call (§5: external calls are a
// suspension point; §9 OQ: no backoff library in the teacher's go.mod
// closure is confidently reconstructable, see DESIGN.md).
const (
	retryAttempts  = 3
	retryBaseDelay = 200 * time.Millisecond
)

// callExternalLLM bounds a Guided/Delegated candidate generation call by
// deadline (default 30s, §6 LLMTimeout) using an errgroup to run the
// retrying call alongside that deadline. A client disconnect cancels only
// this call (§5 Cancellation); the caller decides how to proceed when it
// returns context.DeadlineExceeded.
func (o *Orchestrator) callExternalLLM(parent context.Context, prompt string) (string, string, error) {
	ctx, cancel := context.WithTimeout(parent, o.cfg.LLMTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	var text, provider string
	g.Go(func() error {
		var err error
		text, provider, err = retryGenerate(gctx, o.llmSelector, prompt)
		return err
	})
	if err := g.Wait(); err != nil {
		return "", "", err
	}
	return text, provider, nil
}

// retryGenerate retries Selector.Generate with exponential backoff, making
// at most retryAttempts attempts; the delay doubles after each failure with
// no upper cap. It stops early if ctx is cancelled (including by the
// deadline set in callExternalLLM).
func retryGenerate(ctx context.Context, sel *llm.Selector, prompt string) (string, string, error) {
	delay := retryBaseDelay
	var lastErr error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		text, provider, err := sel.Generate(ctx, prompt, llm.GenerateOptions{MaxTokens: 1024, Temperature: 0.7})
		if err == nil {
			return text, provider, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return "", "", ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return "", "", lastErr
}
