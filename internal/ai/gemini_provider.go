package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"resumegrade/internal/config"
	"resumegrade/internal/errors"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// Messages reported for Gemini failures
const (
	MsgInvalidGeminiKey = "Invalid API key. Please check your Gemini API key."
	MsgGeminiService    = "Gemini service error. Please try again later."
)

// GeminiProvider implements AIProvider for Google Gemini
type GeminiProvider struct {
	mu      sync.Mutex
	clients map[string]*genai.Client // keyed by API key; the key can change between calls
	config  *config.AIConfig
	logger  *errors.Logger
}

// Ensure GeminiProvider implements AIProvider
var _ AIProvider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance
func NewGeminiProvider(cfg *config.AIConfig, logger *errors.Logger) *GeminiProvider {
	return &GeminiProvider{
		clients: make(map[string]*genai.Client),
		config:  cfg,
		logger:  logger,
	}
}

// Name implements AIProvider
func (g *GeminiProvider) Name() string {
	return config.ProviderGemini
}

// clientFor returns a cached client for apiKey, creating it on first use
func (g *GeminiProvider) clientFor(ctx context.Context, apiKey string) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if client, ok := g.clients[apiKey]; ok {
		return client, nil
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if g.config.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: g.config.Timeout}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, errors.NewProviderError(errors.ErrCodeProviderFailed,
			"Failed to create Gemini client", err)
	}

	// only the current key is worth keeping
	g.clients = map[string]*genai.Client{apiKey: client}
	return client, nil
}

// buildGenerateConfig applies the rubric, JSON output and sampling settings
func (g *GeminiProvider) buildGenerateConfig(systemPrompt string) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		MaxOutputTokens:  int32(g.config.MaxTokens),
	}

	if systemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	// Apply temperature configuration if set
	if g.config.Temperature > 0 {
		temperature := g.config.Temperature
		cfg.Temperature = &temperature
	}

	return cfg
}

// Complete implements AIProvider
func (g *GeminiProvider) Complete(ctx context.Context, apiKey, systemPrompt, userPrompt string) (string, *TokenUsage, error) {
	client, err := g.clientFor(ctx, apiKey)
	if err != nil {
		return "", nil, err
	}

	if g.logger != nil {
		g.logger.Debug("Sending Gemini generate request",
			"model", g.config.Model,
			"prompt_length", len(userPrompt))
	}

	result, err := client.Models.GenerateContent(ctx, g.config.Model, genai.Text(userPrompt), g.buildGenerateConfig(systemPrompt))
	if err != nil {
		return "", nil, classifyGeminiError(err)
	}

	content := result.Text()
	if strings.TrimSpace(content) == "" {
		return "", nil, errors.NewResponseParseError(MsgMissingContent, nil)
	}

	return content, extractTokenUsage(result), nil
}

// classifyGeminiError maps Gemini API failures onto the error taxonomy
func classifyGeminiError(err error) error {
	code := 0
	message := ""

	var apiErr genai.APIError
	var googleErr *googleapi.Error
	switch {
	case stderrors.As(err, &apiErr):
		code, message = apiErr.Code, apiErr.Message
	case stderrors.As(err, &googleErr):
		code, message = googleErr.Code, googleErr.Message
	default:
		return errors.NewProviderError(errors.ErrCodeProviderFailed,
			"Failed to reach the AI service. Please check your connection and try again.", err)
	}

	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.NewAuthError(MsgInvalidGeminiKey, err)
	case http.StatusBadRequest:
		// Gemini reports unknown keys as 400 API_KEY_INVALID
		if strings.Contains(strings.ToUpper(message), "API KEY") || strings.Contains(message, "API_KEY_INVALID") {
			return errors.NewAuthError(MsgInvalidGeminiKey, err)
		}
	case http.StatusTooManyRequests:
		return errors.NewRateLimitedError(MsgRateLimited, err)
	case http.StatusInternalServerError:
		return errors.NewProviderError(errors.ErrCodeServiceError, MsgGeminiService, err)
	}

	if strings.TrimSpace(message) == "" {
		message = fmt.Sprintf("API request failed with status %d", code)
	}
	return errors.NewProviderError(errors.ErrCodeProviderFailed, message, err).
		WithContext("status", code)
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}

// Close implements AIProvider
func (g *GeminiProvider) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	// genai clients hold no resources that need releasing in single-shot usage
	g.clients = make(map[string]*genai.Client)
	return nil
}
