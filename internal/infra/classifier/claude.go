package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"tagfeed/internal/resilience/circuitbreaker"
	"tagfeed/internal/resilience/retry"
	"tagfeed/internal/usecase/enrich"
)

const (
	claudeModel     = anthropic.ModelClaudeSonnet4_5_20250929
	claudeMaxTokens = 1024
)

// Claude implements Classifier using Anthropic's Claude API.
// It includes circuit breaker and retry logic for improved reliability.
type Claude struct {
	client          anthropic.Client
	circuitBreaker  *circuitbreaker.CircuitBreaker
	retryConfig     retry.Config
	metricsRecorder ClassificationMetricsRecorder
}

// NewClaude creates a new Claude classifier with the given API key.
// It automatically configures circuit breaker, retry logic, and metrics recording.
func NewClaude(apiKey string) *Claude {
	slog.Info("Initialized Claude classifier",
		slog.String("model", string(claudeModel)))

	return &Claude{
		client:          anthropic.NewClient(option.WithAPIKey(apiKey)),
		circuitBreaker:  circuitbreaker.New(circuitbreaker.ClaudeAPIConfig()),
		retryConfig:     retry.ClassifierAPIConfig(),
		metricsRecorder: NewPrometheusClassificationMetrics(),
	}
}

// ClassifyBatch generates tags for the given articles using Claude AI.
// It uses circuit breaker and retry logic for improved reliability.
func (c *Claude) ClassifyBatch(ctx context.Context, items []enrich.BatchInput) ([]enrich.ItemTags, error) {
	if len(items) == 0 {
		return nil, nil
	}

	// Set individual timeout (60 seconds)
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	var results []enrich.ItemTags

	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doClassify(ctx, items)
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("claude api circuit breaker open, request rejected",
					slog.String("service", "claude-api"),
					slog.String("state", c.circuitBreaker.State().String()))
				return fmt.Errorf("claude api unavailable: circuit breaker open")
			}
			return err
		}

		results = cbResult.([]enrich.ItemTags)
		return nil
	})

	if retryErr != nil {
		return nil, fmt.Errorf("claude classify failed after retries: %w", retryErr)
	}

	return results, nil
}

// doClassify performs the actual API call without retry or circuit breaker.
func (c *Claude) doClassify(ctx context.Context, items []enrich.BatchInput) ([]enrich.ItemTags, error) {
	// Unique request ID for tracing
	requestID := uuid.New().String()

	prompt := buildBatchPrompt(items)

	slog.InfoContext(ctx, "Starting tag classification",
		slog.String("provider", "claude"),
		slog.String("request_id", requestID),
		slog.Int("batch_size", len(items)))

	start := time.Now()

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     claudeModel,
		MaxTokens: claudeMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(prompt),
			),
		},
	})

	duration := time.Since(start)

	if err != nil {
		slog.ErrorContext(ctx, "Tag classification failed",
			slog.String("provider", "claude"),
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		c.metricsRecorder.RecordBatch("claude", false, duration)
		return nil, fmt.Errorf("claude api error: %w", err)
	}

	if len(message.Content) == 0 {
		slog.ErrorContext(ctx, "Claude API returned empty response",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration))
		c.metricsRecorder.RecordBatch("claude", false, duration)
		return nil, fmt.Errorf("claude api returned empty response")
	}

	textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		slog.ErrorContext(ctx, "Claude API returned unexpected response type",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration))
		c.metricsRecorder.RecordBatch("claude", false, duration)
		return nil, fmt.Errorf("claude api returned unexpected response type")
	}

	results, err := ParseResponse(textBlock.Text)
	if err != nil {
		slog.ErrorContext(ctx, "Tag classification returned unparseable response",
			slog.String("provider", "claude"),
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		c.metricsRecorder.RecordBatch("claude", false, duration)
		return nil, err
	}

	slog.InfoContext(ctx, "Tag classification completed",
		slog.String("provider", "claude"),
		slog.String("request_id", requestID),
		slog.Int("batch_size", len(items)),
		slog.Int("results", len(results)),
		slog.Duration("duration", duration))

	c.metricsRecorder.RecordBatch("claude", true, duration)
	return results, nil
}
