package services

import (
	"fmt"
	"strings"
)

// Provider identifies one of the supported LLM backends.
type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderAnthropic  Provider = "anthropic"
	ProviderPerplexity Provider = "perplexity"
	ProviderGemini     Provider = "gemini"
)

type providerInfo struct {
	name   string
	models []string // first entry is the default
}

var catalog = map[Provider]providerInfo{
	ProviderOpenAI: {
		name:   "OpenAI",
		models: []string{"gpt-4o-mini", "gpt-4o", "gpt-3.5-turbo"},
	},
	ProviderAnthropic: {
		name:   "Anthropic Claude",
		models: []string{"claude-3-haiku-20240307", "claude-3-sonnet-20240229", "claude-3-opus-20240229"},
	},
	ProviderPerplexity: {
		name: "Perplexity",
		models: []string{
			"llama-3.1-sonar-small-128k-online",
			"llama-3.1-sonar-large-128k-online",
			"llama-3.1-sonar-huge-128k-online",
		},
	},
	ProviderGemini: {
		name:   "Google Gemini",
		models: []string{"gemini-pro"},
	},
}

// Providers lists every supported provider in display order. OpenAI is the default.
func Providers() []Provider {
	return []Provider{ProviderOpenAI, ProviderAnthropic, ProviderPerplexity, ProviderGemini}
}

// ParseProvider resolves a provider id, ignoring case. An empty string selects
// the default provider.
func ParseProvider(raw string) (Provider, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ProviderOpenAI, nil
	}
	p := Provider(raw)
	if _, ok := catalog[p]; !ok {
		return "", fmt.Errorf("unknown provider %q", raw)
	}
	return p, nil
}

// Known reports whether p is part of the supported set.
func (p Provider) Known() bool {
	_, ok := catalog[p]
	return ok
}

// DisplayName returns the human-readable provider name.
func (p Provider) DisplayName() string {
	if info, ok := catalog[p]; ok {
		return info.name
	}
	return string(p)
}

// DefaultModelFor returns the model a provider selection resets to.
func DefaultModelFor(p Provider) string {
	info, ok := catalog[p]
	if !ok || len(info.models) == 0 {
		return ""
	}
	return info.models[0]
}

// ModelOptions returns the selectable models for p.
func ModelOptions(p Provider) []string {
	info, ok := catalog[p]
	if !ok {
		return nil
	}
	out := make([]string, len(info.models))
	copy(out, info.models)
	return out
}
