// Package openai implements generation.Provider for OpenAI-compatible chat completion
// endpoints (OpenAI itself, Ollama, vLLM, LM Studio and similar servers).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/phrazzld/scry-tutor/internal/config"
	"github.com/phrazzld/scry-tutor/internal/generation"
)

const (
	defaultBaseURL  = "https://api.openai.com/v1"
	maxErrorBodyLen = 512
)

// Option configures a Provider.
type Option func(*Provider)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(p *Provider) {
		if httpClient != nil {
			p.httpClient = httpClient
		}
	}
}

// Provider sends completions to an OpenAI-compatible /chat/completions endpoint.
type Provider struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewProvider creates a Provider from the LLM configuration.
func NewProvider(logger *slog.Logger, cfg config.LLMConfig, opts ...Option) (*Provider, error) {
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", generation.ErrInvalidConfig)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	p := &Provider{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		model:   cfg.Model,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger.With("component", "openai_provider"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name implements generation.Provider.
func (p *Provider) Name() string { return "openai" }

// Endpoint implements generation.Provider.
func (p *Provider) Endpoint() string { return "openai:" + p.baseURL }

// Complete implements generation.Provider.
func (p *Provider) Complete(ctx context.Context, req generation.Request) (string, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	body := chatCompletionRequest{
		Model:     model,
		Messages:  make([]chatMessage, 0, len(req.Messages)),
		MaxTokens: req.Params.MaxTokens,
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	if req.Params.Temperature > 0 {
		t := req.Params.Temperature
		body.Temperature = &t
	}
	if req.Params.TopP > 0 {
		topP := req.Params.TopP
		body.TopP = &topP
	}
	if req.Params.JSONMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", fmt.Errorf("%w: request failed: %w", generation.ErrTransientFailure, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", fmt.Errorf("%w: failed to read response: %w", generation.ErrTransientFailure, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp.StatusCode, respBody)
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("%w: failed to unmarshal response: %w", generation.ErrTransientFailure, err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%w: %w", generation.ErrTransientFailure, generation.ErrEmptyResponse)
	}

	p.logger.DebugContext(ctx, "chat completion received",
		"model", result.Model,
		"finish_reason", result.Choices[0].FinishReason,
		"prompt_tokens", result.Usage.PromptTokens,
		"completion_tokens", result.Usage.CompletionTokens)

	return result.Choices[0].Message.Content, nil
}

// statusError classifies a non-200 response. 408, 429 and 5xx are transient.
func statusError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		msg = apiErr.Error.Message
	}
	if len(msg) > maxErrorBodyLen {
		msg = msg[:maxErrorBodyLen]
	}

	switch {
	case status == http.StatusRequestTimeout,
		status == http.StatusTooManyRequests,
		status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: status %d: %s", generation.ErrTransientFailure, status, msg)
	default:
		return fmt.Errorf("openai status %d: %s", status, msg)
	}
}

var _ generation.Provider = (*Provider)(nil)
