package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/phrazzld/scry-tutor/internal/config"
	"github.com/phrazzld/scry-tutor/internal/generation"
)

const defaultEndpoint = "https://generativelanguage.googleapis.com/"

// Provider sends completions to the Gemini API.
type Provider struct {
	client   *genai.Client
	model    string
	endpoint string
	logger   *slog.Logger
}

// NewProvider creates a Provider from the LLM configuration.
// cfg.BaseURL, when set, replaces the public Gemini endpoint.
func NewProvider(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Provider, error) {
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", generation.ErrInvalidConfig)
	}
	if err := validateConfig(ctx, logger, cfg); err != nil {
		return nil, err
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}
	endpoint := defaultEndpoint
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
		endpoint = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %w", generation.ErrInvalidConfig, err)
	}

	return &Provider{
		client:   client,
		model:    cfg.Model,
		endpoint: endpoint,
		logger:   logger.With("component", "gemini_provider"),
	}, nil
}

// Name implements generation.Provider.
func (p *Provider) Name() string { return "gemini" }

// Endpoint implements generation.Provider.
func (p *Provider) Endpoint() string { return "gemini:" + p.endpoint }

// Complete implements generation.Provider.
func (p *Provider) Complete(ctx context.Context, req generation.Request) (string, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	contents, system := toContents(req.Messages)
	if len(contents) == 0 {
		return "", fmt.Errorf("%w: request has no user content", generation.ErrInvalidInput)
	}

	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: system,
	}
	if req.Params.Temperature > 0 {
		genConfig.Temperature = genai.Ptr(req.Params.Temperature)
	}
	if req.Params.TopP > 0 {
		genConfig.TopP = genai.Ptr(req.Params.TopP)
	}
	if req.Params.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(req.Params.MaxTokens)
	}
	if req.Params.JSONMode {
		genConfig.ResponseMIMEType = "application/json"
	}

	p.logger.DebugContext(ctx, "sending Gemini request",
		"model", model,
		"contents", len(contents),
		"json_mode", req.Params.JSONMode)

	resp, err := p.client.Models.GenerateContent(ctx, model, contents, genConfig)
	if err != nil {
		return "", classifyError(err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("%w: prompt blocked: %s", ErrContentBlocked, resp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("%w: %w", generation.ErrTransientFailure, generation.ErrEmptyResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", ErrContentBlocked
	}
	if candidate.FinishReason == genai.FinishReasonMaxTokens {
		p.logger.WarnContext(ctx, "Gemini response truncated at max tokens", "model", model)
	}

	var sb strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}

// toContents splits messages into Gemini contents and a combined system instruction.
func toContents(messages []generation.Message) ([]*genai.Content, *genai.Content) {
	var systemParts []string
	contents := make([]*genai.Content, 0, len(messages))

	for _, m := range messages {
		switch m.Role {
		case generation.RoleSystem:
			systemParts = append(systemParts, m.Content)
		case generation.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	var system *genai.Content
	if len(systemParts) > 0 {
		system = genai.NewContentFromText(strings.Join(systemParts, "\n\n"), genai.RoleUser)
	}
	return contents, system
}

var _ generation.Provider = (*Provider)(nil)
