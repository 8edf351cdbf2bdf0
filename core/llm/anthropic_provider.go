package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

// AnthropicProvider calls the Anthropic Messages API as an external LLM
// backend for Guided/Delegated mode.
type AnthropicProvider struct {
	apiKey     string
	model      string
	apiURL     string
	httpClient *http.Client
}

// NewAnthropicProvider builds a provider reading ANTHROPIC_API_KEY from
// the environment; Available() reports false when it is unset.
func NewAnthropicProvider(model string) *AnthropicProvider {
	if model == "" {
		model = "claude-3-5-sonnet-20241022"
	}
	return &AnthropicProvider{
		apiKey:     os.Getenv("ANTHROPIC_API_KEY"),
		model:      model,
		apiURL:     "https://api.anthropic.com/v1/messages",
		httpClient: &http.Client{},
	}
}

func (ap *AnthropicProvider) Name() string    { return "anthropic" }
func (ap *AnthropicProvider) Available() bool { return ap.apiKey != "" }
func (ap *AnthropicProvider) maxTokens() int  { return 8192 }

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Temperature float64            `json:"temperature,omitempty"`
	TopP        float64            `json:"top_p,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Generate sends prompt as a single user turn and returns the concatenated
// text content of the reply.
func (ap *AnthropicProvider) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	if !ap.Available() {
		return "", fmt.Errorf("anthropic provider not configured (missing ANTHROPIC_API_KEY)")
	}

	req := anthropicRequest{
		Model:       ap.model,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
	}
	if opts.SystemPrompt != "" {
		req.System = opts.SystemPrompt
	}
	if req.MaxTokens <= 0 || req.MaxTokens > ap.maxTokens() {
		req.MaxTokens = 1024
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, ap.apiURL, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", ap.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := ap.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(apiResp.Content) == 0 {
		return "", fmt.Errorf("no content in response")
	}
	return apiResp.Content[0].Text, nil
}
