package observability

import (
	"context"
	"fmt"
	"time"

	"resumegrade/internal/config"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Business metric types accepted by RecordBusinessMetric
const (
	MetricResumeAnalyzed = "resume_analyzed"
	MetricTextExtracted  = "text_extracted"
	MetricRateLimitHit   = "rate_limit_hit"
)

// Metrics holds the review instruments. The zero value records nothing.
type Metrics struct {
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Histogram

	ResumesAnalyzed metric.Int64Counter
	ReviewScores    metric.Int64Histogram
	TextExtractions metric.Int64Counter
	RateLimitHits   metric.Int64Counter

	settings config.MetricsConfig
	tracer   oteltrace.Tracer
}

// scoreBuckets follow the results page colour bands
var scoreBuckets = []float64{40, 60, 70, 80, 90, 100}

func newMetrics(meter metric.Meter, tracer oteltrace.Tracer, settings config.MetricsConfig) (*Metrics, error) {
	m := &Metrics{settings: settings, tracer: tracer}
	var err error

	if m.AIProcessingTime, err = meter.Float64Histogram("resumegrade_ai_processing_duration_seconds",
		metric.WithDescription("Time spent waiting on the completion provider"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create AI duration metric: %w", err)
	}
	if m.AIRequestCount, err = meter.Int64Counter("resumegrade_ai_requests_total",
		metric.WithDescription("Completion requests sent")); err != nil {
		return nil, fmt.Errorf("failed to create AI request metric: %w", err)
	}
	if m.AIErrorCount, err = meter.Int64Counter("resumegrade_ai_errors_total",
		metric.WithDescription("Completion requests that failed")); err != nil {
		return nil, fmt.Errorf("failed to create AI error metric: %w", err)
	}
	if m.AITokenUsage, err = meter.Int64Histogram("resumegrade_ai_token_usage",
		metric.WithDescription("Tokens per completion by token_type"),
		metric.WithUnit("{token}")); err != nil {
		return nil, fmt.Errorf("failed to create token usage metric: %w", err)
	}

	if m.ResumesAnalyzed, err = meter.Int64Counter("resumegrade_resumes_analyzed_total",
		metric.WithDescription("Reviews finished, by success and format")); err != nil {
		return nil, fmt.Errorf("failed to create review metric: %w", err)
	}
	if m.ReviewScores, err = meter.Int64Histogram("resumegrade_review_score",
		metric.WithDescription("Overall score of successful reviews"),
		metric.WithExplicitBucketBoundaries(scoreBuckets...)); err != nil {
		return nil, fmt.Errorf("failed to create score metric: %w", err)
	}
	if m.TextExtractions, err = meter.Int64Counter("resumegrade_text_extractions_total",
		metric.WithDescription("Document text extractions, by success and format")); err != nil {
		return nil, fmt.Errorf("failed to create extraction metric: %w", err)
	}
	if m.RateLimitHits, err = meter.Int64Counter("resumegrade_rate_limit_hits_total",
		metric.WithDescription("Uploads rejected by the rate limiter")); err != nil {
		return nil, fmt.Errorf("failed to create rate limit metric: %w", err)
	}

	return m, nil
}

// AIOperationResult is what a tracked AI call reports back
type AIOperationResult struct {
	Error      error
	TokenUsage *TokenUsage
}

// TokenUsage as reported by the provider
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// TrackAIOperationWithTokens runs fn inside an "ai.<operation>" span and
// records duration, outcome and token counts
func (m *Metrics) TrackAIOperationWithTokens(ctx context.Context, operation string, fn func(context.Context) *AIOperationResult) error {
	if m.AIRequestCount == nil {
		if result := fn(ctx); result != nil {
			return result.Error
		}
		return nil
	}

	ctx, span := m.spanTracer().Start(ctx, "ai."+operation)
	defer span.End()

	start := time.Now()
	result := fn(ctx)
	elapsed := time.Since(start).Seconds()

	var err error
	var usage *TokenUsage
	if result != nil {
		err = result.Error
		usage = result.TokenUsage
	}

	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	)
	m.AIRequestCount.Add(ctx, 1, attrs)
	if m.settings.AIDuration {
		m.AIProcessingTime.Record(ctx, elapsed, attrs)
	}
	if err != nil {
		m.AIErrorCount.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	if usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
		if m.settings.TokenUsage {
			for tokenType, n := range map[string]int64{
				"input":  usage.InputTokens,
				"output": usage.OutputTokens,
				"total":  usage.TotalTokens,
			} {
				m.AITokenUsage.Record(ctx, n, metric.WithAttributes(
					attribute.String("operation", operation),
					attribute.String("token_type", tokenType),
				))
			}
		}
	}

	return err
}

// RecordBusinessMetric counts one review, extraction or rate limit event
func (m *Metrics) RecordBusinessMetric(ctx context.Context, metricType string, success bool, attributes ...attribute.KeyValue) {
	var counter metric.Int64Counter
	switch metricType {
	case MetricResumeAnalyzed:
		if m.settings.Reviews {
			counter = m.ResumesAnalyzed
		}
	case MetricTextExtracted:
		if m.settings.Extractions {
			counter = m.TextExtractions
		}
	case MetricRateLimitHit:
		if m.settings.RateLimits {
			counter = m.RateLimitHits
		}
	}
	if counter == nil {
		return
	}

	attrs := make([]attribute.KeyValue, 0, len(attributes)+1)
	attrs = append(attrs, attribute.Bool("success", success))
	attrs = append(attrs, attributes...)
	counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordReviewScore records the overall score of a finished review
func (m *Metrics) RecordReviewScore(ctx context.Context, score int, attributes ...attribute.KeyValue) {
	if m.ReviewScores == nil || !m.settings.Scores {
		return
	}
	m.ReviewScores.Record(ctx, int64(score), metric.WithAttributes(attributes...))
}

func (m *Metrics) spanTracer() oteltrace.Tracer {
	if m.tracer == nil {
		return noop.NewTracerProvider().Tracer("resumegrade.review")
	}
	return m.tracer
}
