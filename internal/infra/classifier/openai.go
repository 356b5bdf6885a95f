package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"tagfeed/internal/resilience/circuitbreaker"
	"tagfeed/internal/resilience/retry"
	"tagfeed/internal/usecase/enrich"
)

// openAIModel is the model used for tag classification. Tagging is a cheap,
// high-volume task, so the mini tier is deliberate.
const openAIModel = openai.GPT4oMini

// OpenAI implements Classifier using OpenAI's chat completion API.
// It includes circuit breaker and retry logic for improved reliability.
type OpenAI struct {
	client          *openai.Client
	circuitBreaker  *circuitbreaker.CircuitBreaker
	retryConfig     retry.Config
	metricsRecorder ClassificationMetricsRecorder
}

// NewOpenAI creates a new OpenAI classifier with the given API key.
// It automatically configures circuit breaker, retry logic, and metrics recording.
func NewOpenAI(apiKey string) *OpenAI {
	slog.Info("Initialized OpenAI classifier",
		slog.String("model", openAIModel))

	return &OpenAI{
		client:          openai.NewClient(apiKey),
		circuitBreaker:  circuitbreaker.New(circuitbreaker.OpenAIAPIConfig()),
		retryConfig:     retry.ClassifierAPIConfig(),
		metricsRecorder: NewPrometheusClassificationMetrics(),
	}
}

// ClassifyBatch generates tags for the given articles using OpenAI's API.
// It uses circuit breaker and retry logic for improved reliability.
func (o *OpenAI) ClassifyBatch(ctx context.Context, items []enrich.BatchInput) ([]enrich.ItemTags, error) {
	if len(items) == 0 {
		return nil, nil
	}

	// Set individual timeout (60 seconds)
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	var results []enrich.ItemTags

	retryErr := retry.WithBackoff(ctx, o.retryConfig, func() error {
		cbResult, err := o.circuitBreaker.Execute(func() (interface{}, error) {
			return o.doClassify(ctx, items)
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("openai api circuit breaker open, request rejected",
					slog.String("service", "openai-api"),
					slog.String("state", o.circuitBreaker.State().String()))
				return fmt.Errorf("openai api unavailable: circuit breaker open")
			}
			return err
		}

		results = cbResult.([]enrich.ItemTags)
		return nil
	})

	if retryErr != nil {
		return nil, fmt.Errorf("openai classify failed after retries: %w", retryErr)
	}

	return results, nil
}

// doClassify performs the actual API call without retry or circuit breaker.
func (o *OpenAI) doClassify(ctx context.Context, items []enrich.BatchInput) ([]enrich.ItemTags, error) {
	prompt := buildBatchPrompt(items)

	slog.InfoContext(ctx, "Starting tag classification",
		slog.String("provider", "openai"),
		slog.Int("batch_size", len(items)))

	start := time.Now()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openAIModel,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}},
	})

	duration := time.Since(start)

	if err != nil {
		slog.ErrorContext(ctx, "Tag classification failed",
			slog.String("provider", "openai"),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		o.metricsRecorder.RecordBatch("openai", false, duration)
		return nil, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		slog.ErrorContext(ctx, "OpenAI API returned empty response",
			slog.Duration("duration", duration))
		o.metricsRecorder.RecordBatch("openai", false, duration)
		return nil, fmt.Errorf("openai api returned empty response")
	}

	results, err := ParseResponse(resp.Choices[0].Message.Content)
	if err != nil {
		slog.ErrorContext(ctx, "Tag classification returned unparseable response",
			slog.String("provider", "openai"),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		o.metricsRecorder.RecordBatch("openai", false, duration)
		return nil, err
	}

	slog.InfoContext(ctx, "Tag classification completed",
		slog.String("provider", "openai"),
		slog.Int("batch_size", len(items)),
		slog.Int("results", len(results)),
		slog.Duration("duration", duration))

	o.metricsRecorder.RecordBatch("openai", true, duration)
	return results, nil
}
