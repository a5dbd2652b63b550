package provider

import (
	"context"
	"fmt"
)

// Provider is the capability contract every LLM backend satisfies.
type Provider interface {
	// Complete sends a prompt to the model and returns the normalized
	// response including token usage actuals.
	Complete(ctx context.Context, model string, prompt string) (*Response, error)

	// Name returns the provider's identifier.
	Name() string

	// Models returns the list of known models.
	Models() []string
}

// Kind selects which provider backend is constructed.
type Kind string

const (
	KindOpenAI    Kind = "openai"
	KindAzure     Kind = "azure"
	KindAnthropic Kind = "anthropic"
	KindGemini    Kind = "gemini"
	KindCohere    Kind = "cohere"
	KindDummy     Kind = "dummy"
)

// Kinds lists all supported provider kinds.
func Kinds() []Kind {
	return []Kind{KindOpenAI, KindAzure, KindAnthropic, KindGemini, KindCohere, KindDummy}
}

// ParseKind validates a provider kind string.
func ParseKind(s string) (Kind, error) {
	kind := Kind(s)
	for _, k := range Kinds() {
		if kind == k {
			return kind, nil
		}
	}
	return "", fmt.Errorf("unsupported provider kind %q", s)
}

// Settings carries the per-provider connection configuration.
type Settings struct {
	APIKey     string
	Endpoint   string
	APIVersion string
}

// New constructs the provider for a kind. Unsupported kinds and missing
// credentials fail here, before any request is processed.
func New(kind Kind, settings Settings) (Provider, error) {
	switch kind {
	case KindOpenAI:
		return NewOpenAIProvider(settings.APIKey, settings.Endpoint)
	case KindAzure:
		return NewAzureProvider(settings.APIKey, settings.Endpoint, settings.APIVersion)
	case KindAnthropic:
		return NewAnthropicProvider(settings.APIKey)
	case KindGemini:
		return NewGeminiProvider(settings.APIKey)
	case KindCohere:
		return NewCohereProvider(settings.APIKey, settings.Endpoint)
	case KindDummy:
		return NewDummyProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported provider kind %q", kind)
	}
}
