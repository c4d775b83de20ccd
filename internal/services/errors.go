package services

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrEmptyText is returned when the input text is blank after trimming.
	ErrEmptyText = errors.New("please provide some text to generate flashcards from")

	// ErrMissingContent is wrapped by ParseError when a provider response lacks the expected text field.
	ErrMissingContent = errors.New("provider response contained no text content")
)

// RateLimitMessage replaces the provider error when the OpenAI API rate limits a key.
const RateLimitMessage = "API rate limit exceeded. Please try with a different API key or use the simulated mode."

// ValidationError rejects a request before any generation is attempted.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// TransportError covers network failures and non-2xx provider responses.
// Message is safe to show to end users.
type TransportError struct {
	Provider   Provider
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError reports a provider response that could not be turned into cards.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse AI response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// statusError builds the TransportError for a non-success HTTP status. The
// fixed rate-limit message only applies when rateLimit is set.
func statusError(provider Provider, status int, providerMessage string, rateLimit bool, cause error) *TransportError {
	msg := fmt.Sprintf("API request failed with status %d", status)
	switch {
	case rateLimit && status == http.StatusTooManyRequests:
		msg = RateLimitMessage
	case providerMessage != "":
		msg = providerMessage
	}
	return &TransportError{
		Provider:   provider,
		StatusCode: status,
		Message:    msg,
		Err:        cause,
	}
}

// Diagnostic extracts the user-facing explanation from a generation error.
func Diagnostic(err error) string {
	if err == nil {
		return ""
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Message
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return "Failed to parse AI response"
	}
	return err.Error()
}
