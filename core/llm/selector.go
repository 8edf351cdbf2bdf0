package llm

import (
	"context"
	"sync"
	"time"
)

// Stats tracks a provider's call outcomes, the trimmed shape of the
// teacher's per-provider ProviderStats (core/llm/multi_provider.go),
// keeping only what a "status" report needs.
type Stats struct {
	TotalCalls   int64
	SuccessCalls int64
	FailedCalls  int64
	LastUsed     time.Time
}

// Selector tries each configured provider in order and falls back to the
// next on error, recording per-provider stats along the way. Providers are
// tried in the order passed to New; put FallbackProvider last.
type Selector struct {
	mu        sync.Mutex
	providers []Provider
	stats     map[string]*Stats
}

// New builds a Selector over providers, in priority order.
func New(providers ...Provider) *Selector {
	s := &Selector{providers: providers, stats: make(map[string]*Stats, len(providers))}
	for _, p := range providers {
		s.stats[p.Name()] = &Stats{}
	}
	return s
}

// Generate tries each available provider in order, returning the first
// successful result. It only returns an error when every provider errors
// or none is available.
func (s *Selector) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, string, error) {
	var lastErr error
	for _, p := range s.providers {
		if !p.Available() {
			continue
		}
		s.record(p.Name(), func(st *Stats) { st.TotalCalls++; st.LastUsed = time.Now().UTC() })
		text, err := p.Generate(ctx, prompt, opts)
		if err != nil {
			lastErr = err
			s.record(p.Name(), func(st *Stats) { st.FailedCalls++ })
			continue
		}
		s.record(p.Name(), func(st *Stats) { st.SuccessCalls++ })
		return text, p.Name(), nil
	}
	if lastErr == nil {
		lastErr = errNoProviderAvailable
	}
	return "", "", lastErr
}

func (s *Selector) record(name string, fn func(*Stats)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.stats[name])
}

// Stats returns a snapshot of every provider's call stats, keyed by name.
func (s *Selector) Stats() map[string]Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Stats, len(s.stats))
	for k, v := range s.stats {
		out[k] = *v
	}
	return out
}

var errNoProviderAvailable = &NoProviderError{}

// NoProviderError is returned when no configured provider is Available.
type NoProviderError struct{}

func (*NoProviderError) Error() string { return "llm: no provider available" }
