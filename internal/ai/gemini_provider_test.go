package ai

import (
	stderrors "errors"
	"fmt"
	"testing"

	"resumegrade/internal/config"
	"resumegrade/internal/errors"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

func TestClassifyGeminiError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		typ     errors.ErrorType
		message string
	}{
		{"forbidden", genai.APIError{Code: 403, Message: "permission denied"}, errors.ErrorTypeAuth, MsgInvalidGeminiKey},
		{"invalid key as bad request", genai.APIError{Code: 400, Message: "API key not valid. Please pass a valid API key."}, errors.ErrorTypeAuth, MsgInvalidGeminiKey},
		{"quota", fmt.Errorf("generate: %w", genai.APIError{Code: 429, Message: "quota"}), errors.ErrorTypeRateLimited, MsgRateLimited},
		{"internal", &googleapi.Error{Code: 500, Message: "internal"}, errors.ErrorTypeProvider, MsgGeminiService},
		{"other status", genai.APIError{Code: 404, Message: "model not found"}, errors.ErrorTypeProvider, "model not found"},
		{"other status without message", &googleapi.Error{Code: 503}, errors.ErrorTypeProvider, "API request failed with status 503"},
		{"transport", stderrors.New("dial tcp: connection refused"), errors.ErrorTypeProvider,
			"Failed to reach the AI service. Please check your connection and try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyGeminiError(tt.err)
			assert.True(t, errors.IsType(err, tt.typ), "unexpected error: %v", err)
			assert.Equal(t, tt.message, errors.UserMessage(err))
		})
	}
}

func TestGeminiGenerateConfig(t *testing.T) {
	provider := NewGeminiProvider(&config.AIConfig{
		Provider:    config.ProviderGemini,
		Model:       "gemini-2.0-flash",
		Temperature: 0.3,
		MaxTokens:   2000,
	}, nil)

	cfg := provider.buildGenerateConfig("rubric")
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
	assert.Equal(t, int32(2000), cfg.MaxOutputTokens)
	if assert.NotNil(t, cfg.Temperature) {
		assert.InDelta(t, 0.3, *cfg.Temperature, 0.0001)
	}
	if assert.NotNil(t, cfg.SystemInstruction) {
		assert.Equal(t, "rubric", cfg.SystemInstruction.Parts[0].Text)
	}
	assert.Equal(t, config.ProviderGemini, provider.Name())
	assert.NoError(t, provider.Close())
}

func TestExtractTokenUsage(t *testing.T) {
	assert.Nil(t, extractTokenUsage(nil))
	assert.Nil(t, extractTokenUsage(&genai.GenerateContentResponse{}))

	usage := extractTokenUsage(&genai.GenerateContentResponse{
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     10,
			CandidatesTokenCount: 5,
			TotalTokenCount:      15,
		},
	})
	assert.Equal(t, &TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}, usage)
}
