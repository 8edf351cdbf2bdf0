package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name      string
	available bool
	result    string
	err       error
}

func (p *stubProvider) Name() string    { return p.name }
func (p *stubProvider) Available() bool { return p.available }
func (p *stubProvider) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	return p.result, p.err
}

func TestSelector_UsesFirstAvailableProvider(t *testing.T) {
	primary := &stubProvider{name: "primary", available: true, result: "hi from primary"}
	secondary := &stubProvider{name: "secondary", available: true, result: "hi from secondary"}

	sel := New(primary, secondary)
	text, name, err := sel.Generate(context.Background(), "hello", GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "hi from primary", text)
	assert.Equal(t, "primary", name)
}

func TestSelector_SkipsUnavailableProviders(t *testing.T) {
	unavailable := &stubProvider{name: "anthropic", available: false}
	fallback := FallbackProvider{}

	sel := New(unavailable, fallback)
	text, name, err := sel.Generate(context.Background(), "hello", GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "fallback", name)
	assert.NotEmpty(t, text)
}

func TestSelector_FallsThroughOnProviderError(t *testing.T) {
	failing := &stubProvider{name: "primary", available: true, err: errors.New("rate limited")}
	fallback := FallbackProvider{}

	sel := New(failing, fallback)
	_, name, err := sel.Generate(context.Background(), "hello", GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "fallback", name)
}

func TestSelector_ReturnsErrorWhenNoProviderAvailable(t *testing.T) {
	sel := New(&stubProvider{name: "primary", available: false})
	_, _, err := sel.Generate(context.Background(), "hello", GenerateOptions{})
	require.Error(t, err)
	var npe *NoProviderError
	assert.ErrorAs(t, err, &npe)
}

func TestSelector_TracksPerProviderStats(t *testing.T) {
	failing := &stubProvider{name: "primary", available: true, err: errors.New("boom")}
	fallback := FallbackProvider{}
	sel := New(failing, fallback)

	_, _, err := sel.Generate(context.Background(), "hello", GenerateOptions{})
	require.NoError(t, err)

	stats := sel.Stats()
	require.Contains(t, stats, "primary")
	require.Contains(t, stats, "fallback")
	assert.Equal(t, int64(1), stats["primary"].FailedCalls)
	assert.Equal(t, int64(1), stats["fallback"].SuccessCalls)
}

func TestFallbackProvider_AlwaysAvailableAndNeverErrors(t *testing.T) {
	fp := FallbackProvider{}
	assert.True(t, fp.Available())
	assert.Equal(t, "fallback", fp.Name())

	text, err := fp.Generate(context.Background(), "anything", GenerateOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, text)
}

func TestAnthropicProvider_UnavailableWithoutAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	p := NewAnthropicProvider("")
	assert.False(t, p.Available())

	_, err := p.Generate(context.Background(), "hello", GenerateOptions{})
	assert.Error(t, err)
}

func TestAnthropicProvider_AvailableWhenKeySet(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test-key")
	p := NewAnthropicProvider("")
	assert.True(t, p.Available())
	assert.Equal(t, "anthropic", p.Name())
}
