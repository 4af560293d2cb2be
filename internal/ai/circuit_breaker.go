package ai

import (
	stderrors "errors"
	"fmt"

	"resumegrade/internal/config"
	"resumegrade/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// MsgServiceUnavailable is reported while the breaker rejects calls
const MsgServiceUnavailable = "AI service temporarily unavailable. Please try again later."

// completion is the value passed through the breaker
type completion struct {
	content string
	usage   *TokenUsage
}

// AICircuitBreaker wraps provider calls with the circuit breaker pattern
type AICircuitBreaker struct {
	cb *gobreaker.CircuitBreaker[completion]
}

// NewAICircuitBreaker creates a breaker for provider calls, or nil when disabled
func NewAICircuitBreaker(provider string, cfg config.CircuitBreakerConfig, logger *errors.Logger) *AICircuitBreaker {
	// If circuit breaker is disabled, return nil to indicate no circuit breaker
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        fmt.Sprintf("AI-%s", provider),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests &&
				failureRatio >= cfg.FailureThreshold
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger == nil {
				return
			}
			logger.Info("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.MaxRequests,
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &AICircuitBreaker{
		cb: gobreaker.NewCircuitBreaker[completion](settings),
	}
}

// countsAsSuccess keeps caller mistakes (bad key, malformed model output) from tripping the breaker
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	return errors.IsType(err, errors.ErrorTypeAuth) ||
		errors.IsType(err, errors.ErrorTypeResponseParse) ||
		errors.IsType(err, errors.ErrorTypeResponseShape)
}

// Execute executes the provided function with circuit breaker protection
func (cb *AICircuitBreaker) Execute(fn func() (completion, error)) (completion, error) {
	if cb == nil || cb.cb == nil {
		// If breaker is disabled/nil, just execute the function directly
		return fn()
	}

	result, err := cb.cb.Execute(fn)
	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		return completion{}, errors.NewProviderError(errors.ErrCodeCircuitOpen, MsgServiceUnavailable, err)
	}
	return result, err
}

// GetStats returns circuit breaker statistics
func (cb *AICircuitBreaker) GetStats() map[string]any {
	if cb == nil || cb.cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	return map[string]any{
		"name":    cb.cb.Name(),
		"state":   cb.cb.State().String(),
		"counts":  cb.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true if the circuit breaker is in closed state
func (cb *AICircuitBreaker) IsHealthy() bool {
	if cb == nil || cb.cb == nil {
		return true // If no circuit breaker, consider it healthy
	}
	return cb.cb.State() == gobreaker.StateClosed
}
