package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// geminiAdapter calls the Gemini generateContent REST endpoint. The key is
// sent as a query parameter, so request URLs must never be logged.
type geminiAdapter struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func newGeminiAdapter(baseURL string, httpClient *http.Client, logger *slog.Logger) *geminiAdapter {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &geminiAdapter{
		baseURL:    strings.TrimRight(orDefault(baseURL, DefaultGeminiBaseURL), "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (a *geminiAdapter) Provider() Provider { return ProviderGemini }

func (a *geminiAdapter) endpoint(model, credential string) string {
	query := url.Values{}
	query.Set("key", credential)
	return fmt.Sprintf("%s/models/%s:generateContent?%s", a.baseURL, url.PathEscape(model), query.Encode())
}

func (a *geminiAdapter) Call(ctx context.Context, text, model, credential string) ([]RawCard, error) {
	request := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: systemPrompt}}},
			{Parts: []geminiPart{{Text: buildPrompt(text)}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     chatTemperature,
			MaxOutputTokens: 2048,
		},
	}

	reqBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("marshal gemini request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint(model, credential), bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create gemini request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		// url.Error embeds the request URL, which carries the key.
		cause := err
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			cause = urlErr.Err
		}
		return nil, &TransportError{Provider: ProviderGemini, Message: redactKey(err.Error(), credential), Err: cause}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Provider: ProviderGemini, StatusCode: resp.StatusCode, Message: "read response body: " + err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp geminiErrorResponse
		_ = json.Unmarshal(body, &errResp)
		return nil, statusError(ProviderGemini, resp.StatusCode, errResp.Error.Message, false, nil)
	}

	a.logger.InfoContext(ctx, "provider call completed",
		"provider", ProviderGemini,
		"model", model,
		"duration_ms", time.Since(start).Milliseconds(),
		"status", resp.StatusCode)

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &ParseError{Raw: excerpt(string(body)), Err: fmt.Errorf("unmarshal gemini response: %w", err)}
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, &ParseError{Raw: excerpt(string(body)), Err: ErrMissingContent}
	}
	return ParseCards(parsed.Candidates[0].Content.Parts[0].Text)
}

func redactKey(message, credential string) string {
	if credential == "" {
		return message
	}
	message = strings.ReplaceAll(message, url.QueryEscape(credential), "REDACTED")
	return strings.ReplaceAll(message, credential, "REDACTED")
}
