package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flashgen/internal/models"
)

const sampleText = "The mitochondria is the powerhouse of the cell and performs respiration. Ribosomes build proteins from amino acids in every living cell."

type fakeAdapter struct {
	provider Provider
	calls    atomic.Int32
	call     func(ctx context.Context, text, model, credential string) ([]RawCard, error)
}

func (f *fakeAdapter) Provider() Provider { return f.provider }

func (f *fakeAdapter) Call(ctx context.Context, text, model, credential string) ([]RawCard, error) {
	f.calls.Add(1)
	return f.call(ctx, text, model, credential)
}

type progressRecorder struct {
	mu     sync.Mutex
	values []int
	steps  []string
}

func (r *progressRecorder) callback(step, message string, current, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, current)
	r.steps = append(r.steps, step)
}

func (r *progressRecorder) snapshot() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.values...)
}

func newTestGenerator(t *testing.T, adapter *fakeAdapter) *Generator {
	t.Helper()
	g := NewGenerator(GeneratorConfig{
		Logger:           discardLogger(),
		ProgressInterval: 5 * time.Millisecond,
		RequestTimeout:   time.Second,
	})
	if adapter != nil {
		g.adapters[adapter.provider] = adapter
	}
	return g
}

func assertProgressEndsOnce(t *testing.T, values []int) {
	t.Helper()
	require.NotEmpty(t, values)
	completions := 0
	for i, v := range values {
		if i > 0 {
			assert.GreaterOrEqual(t, v, values[i-1], "progress went backwards: %v", values)
		}
		if v == progressTotal {
			completions++
		} else {
			assert.LessOrEqual(t, v, progressCap)
		}
	}
	assert.Equal(t, 1, completions, "progress: %v", values)
	assert.Equal(t, progressTotal, values[len(values)-1])
}

func TestGenerateRejectsBlankText(t *testing.T) {
	adapter := &fakeAdapter{provider: ProviderOpenAI}
	g := newTestGenerator(t, adapter)

	for _, text := range []string{"", "   ", "\n\t"} {
		result, err := g.Generate(context.Background(), Request{Text: text, Provider: ProviderOpenAI, Credential: "sk"}, nil)
		assert.Nil(t, result)

		var validationErr *ValidationError
		require.True(t, errors.As(err, &validationErr))
		assert.ErrorIs(t, err, ErrEmptyText)
	}
	assert.Zero(t, adapter.calls.Load())
}

func TestGenerateWithoutCredentialSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits.Add(1) }))
	t.Cleanup(srv.Close)

	g := NewGenerator(GeneratorConfig{
		OpenAIBaseURL:     srv.URL,
		AnthropicBaseURL:  srv.URL,
		PerplexityBaseURL: srv.URL,
		GeminiBaseURL:     srv.URL,
		HTTPClient:        srv.Client(),
		Logger:            discardLogger(),
	})

	for _, p := range Providers() {
		rec := &progressRecorder{}
		result, err := g.Generate(context.Background(), Request{Text: sampleText, Provider: p, Credential: "  "}, rec.callback)
		require.NoError(t, err)

		assert.Equal(t, models.ModeFallback, result.Mode)
		assert.Equal(t, messageNoKey, result.Message)
		assert.Empty(t, result.Diagnostic)
		assert.Equal(t, DefaultModelFor(p), result.Model)
		assert.Len(t, result.Flashcards, 2)
		assert.Equal(t, []int{100}, rec.snapshot())
	}
	assert.Zero(t, hits.Load())
}

func TestGenerateLive(t *testing.T) {
	adapter := &fakeAdapter{
		provider: ProviderAnthropic,
		call: func(ctx context.Context, text, model, credential string) ([]RawCard, error) {
			assert.Equal(t, sampleText, text)
			assert.Equal(t, "claude-3-haiku-20240307", model)
			assert.Equal(t, "sk-ant", credential)
			time.Sleep(30 * time.Millisecond)
			return []RawCard{
				{Front: "Q1", Back: "A1", Category: "Fact"},
				{Front: "Q2", Back: "A2", Category: "process"},
			}, nil
		},
	}
	g := newTestGenerator(t, adapter)
	rec := &progressRecorder{}

	result, err := g.Generate(context.Background(), Request{Text: sampleText, Provider: ProviderAnthropic, Credential: " sk-ant "}, rec.callback)
	require.NoError(t, err)

	assert.Equal(t, models.ModeLive, result.Mode)
	assert.False(t, result.Simulated())
	assert.Equal(t, "Successfully created 2 flashcards.", result.Message)
	require.Len(t, result.Flashcards, 2)
	assert.Equal(t, models.CategoryProcess, result.Flashcards[1].Category)
	assert.NotEqual(t, result.Flashcards[0].ID, result.Flashcards[1].ID)

	values := rec.snapshot()
	assert.Equal(t, 0, values[0])
	assert.Greater(t, len(values), 2, "expected ticks while the call was outstanding")
	assertProgressEndsOnce(t, values)
}

func TestGenerateFallsBackOnAdapterFailure(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		diagnostic string
	}{
		{
			name:       "transport",
			err:        &TransportError{Provider: ProviderOpenAI, StatusCode: 500, Message: "API request failed with status 500"},
			diagnostic: "API request failed with status 500",
		},
		{
			name:       "parse",
			err:        &ParseError{Err: errors.New("unexpected end of JSON input")},
			diagnostic: "Failed to parse AI response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := &fakeAdapter{
				provider: ProviderOpenAI,
				call: func(ctx context.Context, text, model, credential string) ([]RawCard, error) {
					return nil, tt.err
				},
			}
			g := newTestGenerator(t, adapter)
			rec := &progressRecorder{}

			result, err := g.Generate(context.Background(), Request{Text: sampleText, Provider: ProviderOpenAI, Credential: "sk"}, rec.callback)
			require.NoError(t, err)

			assert.True(t, result.Simulated())
			assert.Equal(t, messageFallback, result.Message)
			assert.Equal(t, tt.diagnostic, result.Diagnostic)
			assert.Len(t, result.Flashcards, 2)
			assert.Equal(t, int32(1), adapter.calls.Load())
			assertProgressEndsOnce(t, rec.snapshot())
		})
	}
}

func TestGenerateFallsBackWhenNoCardSurvives(t *testing.T) {
	adapter := &fakeAdapter{
		provider: ProviderGemini,
		call: func(ctx context.Context, text, model, credential string) ([]RawCard, error) {
			return []RawCard{{Front: "", Back: ""}}, nil
		},
	}
	g := newTestGenerator(t, adapter)

	result, err := g.Generate(context.Background(), Request{Text: sampleText, Provider: ProviderGemini, Credential: "k"}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ModeFallback, result.Mode)
	assert.Equal(t, "Failed to parse AI response", result.Diagnostic)
}

func TestGenerateUnknownProvider(t *testing.T) {
	g := newTestGenerator(t, nil)

	result, err := g.Generate(context.Background(), Request{Text: sampleText, Provider: "mistral", Credential: "k"}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ModeFallback, result.Mode)
	assert.Contains(t, result.Diagnostic, "mistral")
	assert.Len(t, result.Flashcards, 2)
}

func TestGenerateRateLimitDiagnostic(t *testing.T) {
	srv, _ := fakeProvider(t, http.StatusTooManyRequests, `{"error":{"message":"Rate limit reached","type":"requests"}}`)
	g := NewGenerator(GeneratorConfig{
		OpenAIBaseURL: srv.URL,
		HTTPClient:    srv.Client(),
		Logger:        discardLogger(),
	})

	result, err := g.Generate(context.Background(), Request{Text: sampleText, Provider: ProviderOpenAI, Credential: "sk"}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ModeFallback, result.Mode)
	assert.Equal(t, RateLimitMessage, result.Diagnostic)
}

func TestGenerateTimeout(t *testing.T) {
	adapter := &fakeAdapter{
		provider: ProviderPerplexity,
		call: func(ctx context.Context, text, model, credential string) ([]RawCard, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	g := newTestGenerator(t, adapter)
	g.timeout = 20 * time.Millisecond
	rec := &progressRecorder{}

	start := time.Now()
	result, err := g.Generate(context.Background(), Request{Text: sampleText, Provider: ProviderPerplexity, Credential: "k"}, rec.callback)
	require.NoError(t, err)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, models.ModeFallback, result.Mode)
	assert.Equal(t, "request timed out", result.Diagnostic)
	assertProgressEndsOnce(t, rec.snapshot())
}

func TestGenerateHeuristicMayBeEmpty(t *testing.T) {
	g := newTestGenerator(t, nil)

	result, err := g.Generate(context.Background(), Request{Text: "Hi. Ok. No.", Provider: ProviderOpenAI}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ModeFallback, result.Mode)
	assert.NotNil(t, result.Flashcards)
	assert.Empty(t, result.Flashcards)
}

// hangingProvider never answers until the client gives up or the test ends.
func hangingProvider(t *testing.T) *httptest.Server {
	t.Helper()
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })
	return srv
}

func TestGenerateTimeoutWithProviderAdapters(t *testing.T) {
	for _, p := range Providers() {
		t.Run(string(p), func(t *testing.T) {
			srv := hangingProvider(t)
			g := NewGenerator(GeneratorConfig{
				OpenAIBaseURL:     srv.URL,
				AnthropicBaseURL:  srv.URL,
				PerplexityBaseURL: srv.URL,
				GeminiBaseURL:     srv.URL,
				HTTPClient:        srv.Client(),
				RequestTimeout:    50 * time.Millisecond,
				ProgressInterval:  5 * time.Millisecond,
				Logger:            discardLogger(),
			})
			rec := &progressRecorder{}

			result, err := g.Generate(context.Background(), Request{Text: sampleText, Provider: p, Credential: "secret-key"}, rec.callback)
			require.NoError(t, err)

			assert.Equal(t, models.ModeFallback, result.Mode)
			assert.Equal(t, "request timed out", result.Diagnostic)
			assert.NotContains(t, result.Diagnostic, srv.URL)
			assertProgressEndsOnce(t, rec.snapshot())
		})
	}
}

func TestGenerateChecksCredentialBeforeProvider(t *testing.T) {
	g := newTestGenerator(t, nil)

	result, err := g.Generate(context.Background(), Request{Text: sampleText, Provider: "mistral"}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ModeFallback, result.Mode)
	assert.Equal(t, messageNoKey, result.Message)
	assert.Empty(t, result.Diagnostic)
}

func TestGenerateDefaultsEmptyProvider(t *testing.T) {
	adapter := &fakeAdapter{
		provider: ProviderOpenAI,
		call: func(ctx context.Context, text, model, credential string) ([]RawCard, error) {
			assert.Equal(t, "gpt-4o-mini", model)
			return []RawCard{{Front: "Q", Back: "A", Category: "Fact"}}, nil
		},
	}
	g := newTestGenerator(t, adapter)

	result, err := g.Generate(context.Background(), Request{Text: sampleText, Credential: "sk"}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ModeLive, result.Mode)
	assert.Equal(t, ProviderOpenAI, result.Provider)
	assert.Equal(t, "gpt-4o-mini", result.Model)
	assert.Equal(t, int32(1), adapter.calls.Load())
}
