package ai

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"testing"

	"resumegrade/internal/config"
	"resumegrade/internal/credential"
	"resumegrade/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	content string
	usage   *TokenUsage
	err     error

	calls      int
	lastKey    string
	lastSystem string
	lastUser   string
}

func (f *fakeProvider) Complete(_ context.Context, apiKey, systemPrompt, userPrompt string) (string, *TokenUsage, error) {
	f.calls++
	f.lastKey = apiKey
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt
	return f.content, f.usage, f.err
}

func (f *fakeProvider) Name() string { return "fake" }
func (f *fakeProvider) Close() error { return nil }

func testLogger() *errors.Logger {
	return errors.NewLoggerWithWriter(io.Discard, slog.LevelError)
}

func newFakeService(provider *fakeProvider, key string) *Service {
	cfg := &config.AIConfig{Provider: config.ProviderOpenAI, Model: "gpt-4", MaxTokens: 2000}
	return NewServiceWithProvider(provider, cfg, credential.NewMemoryStore(key), testLogger())
}

func TestServiceAnalyze(t *testing.T) {
	provider := &fakeProvider{content: validAnalysis, usage: &TokenUsage{TotalTokens: 42}}
	svc := newFakeService(provider, "sk-live")

	result, usage, err := svc.Analyze(context.Background(), "resume body")
	require.NoError(t, err)
	assert.Equal(t, 72, result.ScoreOverall)
	assert.Equal(t, int64(42), usage.TotalTokens)

	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, "sk-live", provider.lastKey)
	assert.Equal(t, SystemPrompt, provider.lastSystem)
	assert.Equal(t, "Analyze this resume:\n\nresume body", provider.lastUser)
}

func TestServiceAnalyzeWithoutCredential(t *testing.T) {
	provider := &fakeProvider{content: validAnalysis}
	svc := newFakeService(provider, "")

	_, _, err := svc.Analyze(context.Background(), "resume body")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCredentialMissing))
	assert.Equal(t, MsgCredentialMissing, errors.UserMessage(err))
	assert.Zero(t, provider.calls)
}

func TestServiceAnalyzePropagatesErrors(t *testing.T) {
	providerErr := errors.NewRateLimitedError(MsgRateLimited, nil)
	svc := newFakeService(&fakeProvider{err: providerErr}, "sk-live")

	_, _, err := svc.Analyze(context.Background(), "resume body")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, providerErr))

	svc = newFakeService(&fakeProvider{content: `{"scores":{}}`}, "sk-live")
	_, _, err = svc.Analyze(context.Background(), "resume body")
	require.Error(t, err)
	assert.Equal(t, "Invalid AI response: missing field 'score_overall'", errors.UserMessage(err))
}

func TestNewServiceProviders(t *testing.T) {
	creds := credential.NewMemoryStore("")

	svc, err := NewService(&config.AIConfig{Provider: config.ProviderOpenAI, Model: "gpt-4"}, creds, testLogger())
	require.NoError(t, err)
	assert.Equal(t, config.ProviderOpenAI, svc.Provider.Name())
	assert.Equal(t, KeyFormat{Prefix: "sk-", Label: "OpenAI"}, svc.KeyFormat())
	assert.True(t, svc.IsHealthy())
	assert.Equal(t, "gpt-4", svc.GetStats()["model"])

	svc, err = NewService(&config.AIConfig{Provider: config.ProviderGemini, Model: "gemini-2.0-flash"}, creds, testLogger())
	require.NoError(t, err)
	assert.Equal(t, "AIza", svc.KeyFormat().Prefix)

	_, err = NewService(&config.AIConfig{Provider: "watson"}, creds, testLogger())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}
