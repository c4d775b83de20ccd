package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"flashgen/internal/models"
)

const (
	DefaultRequestTimeout   = 3 * time.Minute
	DefaultProgressInterval = 100 * time.Millisecond

	messageNoKey    = "No valid API key provided. Generated simulated flashcards instead."
	messageFallback = "Switched to AI simulation mode due to API issues."
)

// Adapter performs one provider round trip and returns the parsed cards.
// Adapters do not recover from their own errors.
type Adapter interface {
	Provider() Provider
	Call(ctx context.Context, text, model, credential string) ([]RawCard, error)
}

// Request is one generation attempt. A blank Model selects the provider default.
type Request struct {
	Text       string   `json:"text"`
	Provider   Provider `json:"provider"`
	Model      string   `json:"model"`
	Credential string   `json:"-"`
}

// Result is what a caller receives from Generate, live or simulated.
type Result struct {
	Flashcards []models.Flashcard `json:"flashcards"`
	Mode       models.Mode        `json:"mode"`
	Provider   Provider           `json:"provider"`
	Model      string             `json:"model"`
	Message    string             `json:"message"`
	Diagnostic string             `json:"diagnostic,omitempty"`
}

// Simulated reports whether the heuristic produced the cards.
func (r *Result) Simulated() bool {
	return r.Mode == models.ModeFallback
}

type GeneratorConfig struct {
	OpenAIBaseURL     string
	AnthropicBaseURL  string
	PerplexityBaseURL string
	GeminiBaseURL     string

	HTTPClient       *http.Client
	RequestTimeout   time.Duration
	ProgressInterval time.Duration
	Logger           *slog.Logger
}

// Generator turns text into flashcards through a provider, substituting the
// heuristic generator whenever the provider cannot be used.
type Generator struct {
	adapters  map[Provider]Adapter
	heuristic *HeuristicGenerator
	timeout   time.Duration
	interval  time.Duration
	logger    *slog.Logger
}

func NewGenerator(cfg GeneratorConfig) *Generator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	adapters := make(map[Provider]Adapter, len(Providers()))
	for _, p := range Providers() {
		if a := newAdapter(p, cfg, logger); a != nil {
			adapters[p] = a
		}
	}

	g := &Generator{
		adapters:  adapters,
		heuristic: NewHeuristicGenerator(),
		timeout:   cfg.RequestTimeout,
		interval:  cfg.ProgressInterval,
		logger:    logger,
	}
	if g.timeout <= 0 {
		g.timeout = DefaultRequestTimeout
	}
	if g.interval <= 0 {
		g.interval = DefaultProgressInterval
	}
	return g
}

func newAdapter(p Provider, cfg GeneratorConfig, logger *slog.Logger) Adapter {
	switch p {
	case ProviderOpenAI:
		return newOpenAIAdapter(cfg.OpenAIBaseURL, cfg.HTTPClient, logger)
	case ProviderAnthropic:
		return newAnthropicAdapter(cfg.AnthropicBaseURL, cfg.HTTPClient, logger)
	case ProviderPerplexity:
		return newPerplexityAdapter(cfg.PerplexityBaseURL, cfg.HTTPClient, logger)
	case ProviderGemini:
		return newGeminiAdapter(cfg.GeminiBaseURL, cfg.HTTPClient, logger)
	}
	return nil
}

// Generate validates the request and produces flashcards. The only error it
// returns is a *ValidationError for blank text; provider failures produce a
// fallback Result with Diagnostic set.
func (g *Generator) Generate(ctx context.Context, req Request, progress ProgressCallback) (*Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, &ValidationError{Field: "text", Err: ErrEmptyText}
	}

	if req.Provider == "" {
		req.Provider = Providers()[0]
	}
	if req.Model == "" {
		req.Model = DefaultModelFor(req.Provider)
	}

	if strings.TrimSpace(req.Credential) == "" {
		g.logger.InfoContext(ctx, "no API key provided, using simulated flashcards", "provider", req.Provider)
		return g.fallback(req, messageNoKey, "", progress), nil
	}

	adapter, ok := g.adapters[req.Provider]
	if !ok {
		g.logger.WarnContext(ctx, "unknown provider, using simulated flashcards", "provider", req.Provider)
		return g.fallback(req, messageFallback, fmt.Sprintf("unknown provider %q", req.Provider), progress), nil
	}

	tracker := startProgress(progress, g.interval, fmt.Sprintf("Generating flashcards with %s", req.Provider.DisplayName()))
	defer tracker.Stop("Flashcards ready")

	cards, err := g.callProvider(ctx, adapter, req)
	if err != nil {
		diagnostic := Diagnostic(err)
		g.logger.WarnContext(ctx, "provider call failed, using simulated flashcards",
			"provider", req.Provider,
			"model", req.Model,
			"error", diagnostic)
		tracker.Stop("Switched to simulation mode")
		return g.fallback(req, messageFallback, diagnostic, nil), nil
	}

	tracker.Stop("Flashcards ready")
	return &Result{
		Flashcards: cards,
		Mode:       models.ModeLive,
		Provider:   req.Provider,
		Model:      req.Model,
		Message:    fmt.Sprintf("Successfully created %d flashcards.", len(cards)),
	}, nil
}

func (g *Generator) callProvider(ctx context.Context, adapter Adapter, req Request) ([]models.Flashcard, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := adapter.Call(callCtx, req.Text, req.Model, strings.TrimSpace(req.Credential))
	if err != nil {
		// Adapters report expiry in provider-specific ways; the deadline wins.
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, &TransportError{Provider: req.Provider, Message: "request timed out", Err: err}
		}
		return nil, err
	}
	return NormalizeCards(raw)
}

// fallback builds a simulated result. When progress is non-nil it receives a
// single completion report.
func (g *Generator) fallback(req Request, message, diagnostic string, progress ProgressCallback) *Result {
	cards := g.heuristic.Generate(req.Text)
	if progress != nil {
		progress("complete", "Generated simulated flashcards", progressTotal, progressTotal)
	}
	return &Result{
		Flashcards: cards,
		Mode:       models.ModeFallback,
		Provider:   req.Provider,
		Model:      req.Model,
		Message:    message,
		Diagnostic: diagnostic,
	}
}
