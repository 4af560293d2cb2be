package ai

import (
	"context"
)

// AIProvider sends one chat completion and returns the raw message content.
// Token usage may be nil when the provider does not report it.
type AIProvider interface {
	Complete(ctx context.Context, apiKey, systemPrompt, userPrompt string) (string, *TokenUsage, error)
	Name() string
	Close() error
}

// CredentialSource supplies the API key for each analysis
type CredentialSource interface {
	Get() (string, bool)
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// KeyFormat describes the sanity check applied to keys entered by the user
type KeyFormat struct {
	Prefix string // required key prefix
	Label  string // provider name shown in messages
}
