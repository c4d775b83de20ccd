package services

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultOpenAIBaseURL     = "https://api.openai.com/v1"
	DefaultPerplexityBaseURL = "https://api.perplexity.ai"

	chatTemperature = 0.7
)

// chatCompletionAdapter talks to OpenAI-compatible chat completion APIs. It
// serves both OpenAI and Perplexity, which share the request and response shape.
type chatCompletionAdapter struct {
	provider   Provider
	baseURL    string
	httpClient *http.Client
	// rateLimit swaps provider 429 messages for RateLimitMessage.
	rateLimit bool
	logger    *slog.Logger
}

func newOpenAIAdapter(baseURL string, httpClient *http.Client, logger *slog.Logger) *chatCompletionAdapter {
	return &chatCompletionAdapter{
		provider:   ProviderOpenAI,
		baseURL:    orDefault(baseURL, DefaultOpenAIBaseURL),
		httpClient: httpClient,
		rateLimit:  true,
		logger:     logger,
	}
}

func newPerplexityAdapter(baseURL string, httpClient *http.Client, logger *slog.Logger) *chatCompletionAdapter {
	return &chatCompletionAdapter{
		provider:   ProviderPerplexity,
		baseURL:    orDefault(baseURL, DefaultPerplexityBaseURL),
		httpClient: httpClient,
		logger:     logger,
	}
}

func (a *chatCompletionAdapter) Provider() Provider { return a.provider }

func (a *chatCompletionAdapter) Call(ctx context.Context, text, model, credential string) ([]RawCard, error) {
	cfg := openai.DefaultConfig(credential)
	cfg.BaseURL = a.baseURL
	if a.httpClient != nil {
		cfg.HTTPClient = a.httpClient
	}
	client := openai.NewClientWithConfig(cfg)

	start := time.Now()
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(text)},
		},
		Temperature: chatTemperature,
	})
	if err != nil {
		return nil, a.classify(err)
	}

	a.logger.InfoContext(ctx, "provider call completed",
		"provider", a.provider,
		"model", model,
		"duration_ms", time.Since(start).Milliseconds(),
		"choices", len(resp.Choices))

	if len(resp.Choices) == 0 {
		return nil, &ParseError{Err: ErrMissingContent}
	}
	return ParseCards(resp.Choices[0].Message.Content)
}

func (a *chatCompletionAdapter) classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return statusError(a.provider, apiErr.HTTPStatusCode, apiErr.Message, a.rateLimit, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return statusError(a.provider, reqErr.HTTPStatusCode, "", a.rateLimit, err)
	}

	return &TransportError{Provider: a.provider, Message: err.Error(), Err: err}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
