package provider

import (
	"context"
	"fmt"
)

// DummyProvider returns deterministic responses with zero usage. It is
// used for tests and for operating the scanner without incurring spend.
type DummyProvider struct {
	responses       map[string]string
	defaultResponse string
}

// NewDummyProvider creates a dummy provider with a default response.
func NewDummyProvider() *DummyProvider {
	return &DummyProvider{
		responses:       make(map[string]string),
		defaultResponse: "dummy response:",
	}
}

// NewDummyProviderWithResponses creates a dummy provider with predefined
// per-prompt responses.
func NewDummyProviderWithResponses(responses map[string]string, defaultResponse string) *DummyProvider {
	if defaultResponse == "" {
		defaultResponse = "dummy response:"
	}
	return &DummyProvider{responses: responses, defaultResponse: defaultResponse}
}

// Name returns the provider identifier.
func (p *DummyProvider) Name() string {
	return "dummy"
}

// Models returns the list of dummy models.
func (p *DummyProvider) Models() []string {
	return []string{"dummy-1"}
}

// Complete returns a deterministic response. Usage is always zero, so
// the dummy provider never consumes budget.
func (p *DummyProvider) Complete(_ context.Context, _ string, prompt string) (*Response, error) {
	if response, ok := p.responses[prompt]; ok {
		return &Response{Content: response}, nil
	}
	return &Response{Content: fmt.Sprintf("%s\n%s", p.defaultResponse, prompt)}, nil
}
