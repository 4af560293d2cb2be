package ai

import (
	"context"
	"fmt"
	"strings"

	"resumegrade/internal/config"
	"resumegrade/internal/errors"
	"resumegrade/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// MsgCredentialMissing is reported when no key has been configured
const MsgCredentialMissing = "API key not configured. Please add your OpenAI API key."

// Service runs the review: credential check, completion call, response validation
type Service struct {
	Provider AIProvider // Exported for access from server package
	breaker  *AICircuitBreaker
	creds    CredentialSource
	config   *config.AIConfig
	logger   *errors.Logger
}

// NewService creates the AI service for the configured provider
func NewService(cfg *config.AIConfig, creds CredentialSource, logger *errors.Logger) (*Service, error) {
	var provider AIProvider

	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"temperature", cfg.Temperature,
		"max_tokens", cfg.MaxTokens,
		"timeout", cfg.Timeout,
		"circuit_breaker", cfg.CircuitBreaker.Enabled)

	switch cfg.Provider {
	case config.ProviderOpenAI:
		provider = NewOpenAIProvider(cfg, logger)
	case config.ProviderGemini:
		provider = NewGeminiProvider(cfg, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}

	return NewServiceWithProvider(provider, cfg, creds, logger), nil
}

// NewServiceWithProvider wires an already constructed provider
func NewServiceWithProvider(provider AIProvider, cfg *config.AIConfig, creds CredentialSource, logger *errors.Logger) *Service {
	return &Service{
		Provider: provider,
		breaker:  NewAICircuitBreaker(provider.Name(), cfg.CircuitBreaker, logger),
		creds:    creds,
		config:   cfg,
		logger:   logger,
	}
}

// Analyze sends the resume text for review and validates the structured reply
func (s *Service) Analyze(ctx context.Context, text string) (*types.AnalysisResult, *TokenUsage, error) {
	apiKey, ok := s.creds.Get()
	if !ok || strings.TrimSpace(apiKey) == "" {
		return nil, nil, errors.NewCredentialMissingError(MsgCredentialMissing)
	}

	tracer := otel.Tracer("resumegrade.ai")
	ctx, span := tracer.Start(ctx, "ai.analyze")
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.provider", s.Provider.Name()),
		attribute.String("ai.model", s.config.Model),
		attribute.Float64("ai.temperature", float64(s.config.Temperature)),
		attribute.Int("resume.text_length", len(text)),
	)

	reply, err := s.breaker.Execute(func() (completion, error) {
		content, usage, err := s.Provider.Complete(ctx, apiKey, SystemPrompt, UserPrompt(text))
		if err != nil {
			return completion{}, err
		}
		return completion{content: content, usage: usage}, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.LogError(err, "AI completion failed", "provider", s.Provider.Name())
		return nil, nil, err
	}

	if reply.usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", reply.usage.InputTokens),
			attribute.Int64("ai.tokens.output", reply.usage.OutputTokens),
			attribute.Int64("ai.tokens.total", reply.usage.TotalTokens),
		)
	}

	result, err := ParseAnalysis(reply.content)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.LogError(err, "AI response rejected", "content_length", len(reply.content))
		return nil, reply.usage, err
	}

	s.logger.Debug("AI analysis completed",
		"score_overall", result.ScoreOverall,
		"interview_probability", result.InterviewProbability)
	return result, reply.usage, nil
}

// KeyFormat returns the key sanity check for the active provider
func (s *Service) KeyFormat() KeyFormat {
	return KeyFormatFor(s.Provider.Name())
}

// GetStats returns circuit breaker statistics for the stats endpoint
func (s *Service) GetStats() map[string]any {
	stats := s.breaker.GetStats()
	stats["provider"] = s.Provider.Name()
	stats["model"] = s.config.Model
	return stats
}

// IsHealthy reports whether provider calls are currently admitted
func (s *Service) IsHealthy() bool {
	return s.breaker.IsHealthy()
}

// Close releases provider resources
func (s *Service) Close() error {
	return s.Provider.Close()
}

// KeyFormatFor returns the expected key prefix for a provider
func KeyFormatFor(provider string) KeyFormat {
	switch provider {
	case config.ProviderGemini:
		return KeyFormat{Prefix: "AIza", Label: "Gemini"}
	default:
		return KeyFormat{Prefix: "sk-", Label: "OpenAI"}
	}
}
