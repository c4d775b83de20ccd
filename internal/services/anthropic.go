package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	DefaultAnthropicBaseURL = "https://api.anthropic.com"

	anthropicMaxTokens = 4000
)

type anthropicAdapter struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func newAnthropicAdapter(baseURL string, httpClient *http.Client, logger *slog.Logger) *anthropicAdapter {
	return &anthropicAdapter{
		baseURL:    orDefault(baseURL, DefaultAnthropicBaseURL),
		httpClient: httpClient,
		logger:     logger,
	}
}

func (a *anthropicAdapter) Provider() Provider { return ProviderAnthropic }

func (a *anthropicAdapter) Call(ctx context.Context, text, model, credential string) ([]RawCard, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(credential),
		option.WithBaseURL(a.baseURL),
		option.WithMaxRetries(0),
	}
	if a.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(a.httpClient))
	}
	client := anthropic.NewClient(opts...)

	start := time.Now()
	message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: anthropicMaxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(text))),
		},
	})
	if err != nil {
		return nil, classifyAnthropic(err)
	}

	a.logger.InfoContext(ctx, "provider call completed",
		"provider", ProviderAnthropic,
		"model", model,
		"duration_ms", time.Since(start).Milliseconds(),
		"input_tokens", message.Usage.InputTokens,
		"output_tokens", message.Usage.OutputTokens)

	for _, block := range message.Content {
		if block.Type == "text" {
			return ParseCards(block.Text)
		}
	}
	return nil, &ParseError{Err: ErrMissingContent}
}

type anthropicErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func classifyAnthropic(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		var body anthropicErrorBody
		_ = json.Unmarshal([]byte(apiErr.RawJSON()), &body)
		return statusError(ProviderAnthropic, apiErr.StatusCode, body.Error.Message, false, err)
	}
	return &TransportError{Provider: ProviderAnthropic, Message: err.Error(), Err: err}
}
