package ai

import (
	"context"
	"strings"

	"github.com/Tomas-vilte/MateReview/internal/config"
	domainErrors "github.com/Tomas-vilte/MateReview/internal/errors"
	"github.com/Tomas-vilte/MateReview/internal/logger"
	"github.com/Tomas-vilte/MateReview/internal/ports"
	"google.golang.org/genai"
)

var _ ports.AIProvider = (*GeminiProvider)(nil)

// GeminiProvider implements AIProvider on the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	cfg    config.AIConfig
}

func NewGeminiProvider(ctx context.Context, cfg config.AIConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, domainErrors.ErrAPIKeyMissing
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, classifyGeminiError(err)
	}

	return &GeminiProvider{client: client, cfg: cfg}, nil
}

func (p *GeminiProvider) ProviderName() string { return "gemini" }

func (p *GeminiProvider) ModelName() string { return p.cfg.Model }

func (p *GeminiProvider) GenerateReview(ctx context.Context, prompt string) (string, error) {
	genConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr(float32(p.cfg.Temperature)),
		MaxOutputTokens:  int32(p.cfg.MaxTokens),
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.cfg.Model, genai.Text(prompt), genConfig)
	if err != nil {
		logger.Error(ctx, "gemini API call failed", err, "model", p.cfg.Model)
		return "", classifyGeminiError(err)
	}

	text := extractText(resp)
	if text == "" {
		return "", domainErrors.NewAppError(domainErrors.TypeAI, "empty response from AI", nil).
			WithSuggestion("Retry the analysis or try a different model")
	}

	return text, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			builder.WriteString(part.Text)
		}
	}
	return builder.String()
}

func classifyGeminiError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota"),
		strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "resource exhausted"):
		return domainErrors.NewAppError(domainErrors.TypeAI, "AI quota exceeded", err).
			WithSuggestion("Wait a few minutes or raise your API quota")
	case strings.Contains(msg, "invalid"),
		strings.Contains(msg, "unauthorized"),
		strings.Contains(msg, "api key"),
		strings.Contains(msg, "authentication"):
		return domainErrors.NewAppError(domainErrors.TypeAI, "AI API key rejected", err).
			WithSuggestion("Check the api_key in your AI configuration")
	default:
		return domainErrors.NewAppError(domainErrors.TypeAI, "AI request failed", err)
	}
}
