package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"resumegrade/internal/config"
	"resumegrade/internal/errors"

	"github.com/tidwall/gjson"
)

// Messages reported for provider HTTP failures
const (
	MsgInvalidAPIKey  = "Invalid API key. Please check your OpenAI API key."
	MsgRateLimited    = "Rate limit exceeded. Please try again in a moment."
	MsgOpenAIService  = "OpenAI service error. Please try again later."
	MsgMissingContent = "Invalid AI response: missing message content"
)

// OpenAIProvider implements AIProvider against an OpenAI-compatible chat completions endpoint
type OpenAIProvider struct {
	httpClient *http.Client
	config     *config.AIConfig
	logger     *errors.Logger
}

// Ensure OpenAIProvider implements AIProvider
var _ AIProvider = (*OpenAIProvider)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float32        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens"`
	ResponseFormat responseFormat `json:"response_format"`
}

// NewOpenAIProvider creates a provider. A zero timeout keeps the transport default.
func NewOpenAIProvider(cfg *config.AIConfig, logger *errors.Logger) *OpenAIProvider {
	return &OpenAIProvider{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
		logger:     logger,
	}
}

// Name implements AIProvider
func (p *OpenAIProvider) Name() string {
	return config.ProviderOpenAI
}

// Complete posts one chat completion and returns choices[0].message.content
func (p *OpenAIProvider) Complete(ctx context.Context, apiKey, systemPrompt, userPrompt string) (string, *TokenUsage, error) {
	body, err := json.Marshal(chatRequest{
		Model: p.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    p.config.Temperature,
		MaxTokens:      p.config.MaxTokens,
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", nil, errors.NewUnexpectedError(fmt.Errorf("encode chat request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", nil, errors.NewUnexpectedError(fmt.Errorf("build chat request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	if p.logger != nil {
		p.logger.Debug("Sending chat completion request",
			"endpoint", p.config.Endpoint,
			"model", p.config.Model,
			"prompt_length", len(userPrompt))
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", nil, errors.NewProviderError(errors.ErrCodeProviderFailed,
			"Failed to reach the AI service. Please check your connection and try again.", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil && p.logger != nil {
			p.logger.Warn("Failed to close response body", "error", err)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, errors.NewProviderError(errors.ErrCodeProviderFailed,
			"Failed to read the AI service response. Please try again.", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", nil, classifyStatus(resp.StatusCode, raw)
	}

	envelope := string(raw)
	content := gjson.Get(envelope, "choices.0.message.content")
	if !gjson.Valid(envelope) || content.Type != gjson.String {
		return "", nil, errors.NewResponseParseError(MsgMissingContent, nil).
			WithContext("status", resp.StatusCode)
	}

	return content.String(), usageFromEnvelope(envelope), nil
}

// classifyStatus maps a non-2xx response onto the error taxonomy
func classifyStatus(status int, body []byte) error {
	cause := fmt.Errorf("chat completion returned status %d", status)

	switch status {
	case http.StatusUnauthorized:
		return errors.NewAuthError(MsgInvalidAPIKey, cause)
	case http.StatusTooManyRequests:
		return errors.NewRateLimitedError(MsgRateLimited, cause)
	case http.StatusInternalServerError:
		return errors.NewProviderError(errors.ErrCodeServiceError, MsgOpenAIService, cause)
	}

	message := ""
	if gjson.ValidBytes(body) {
		message = strings.TrimSpace(gjson.GetBytes(body, "error.message").String())
	}
	if message == "" {
		message = fmt.Sprintf("API request failed with status %d", status)
	}
	return errors.NewProviderError(errors.ErrCodeProviderFailed, message, cause).
		WithContext("status", status)
}

func usageFromEnvelope(envelope string) *TokenUsage {
	usage := gjson.Get(envelope, "usage")
	if !usage.Exists() {
		return nil
	}
	return &TokenUsage{
		InputTokens:  usage.Get("prompt_tokens").Int(),
		OutputTokens: usage.Get("completion_tokens").Int(),
		TotalTokens:  usage.Get("total_tokens").Int(),
	}
}

// Close implements AIProvider
func (p *OpenAIProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}
