package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Pricing maps provider -> model -> per-1k token pricing.
type Pricing map[string]map[string]ModelPricing

// ModelPricing defines per-1k token pricing in USD.
type ModelPricing struct {
	PromptPer1K     float64 `yaml:"prompt_per_1k,omitempty"`
	CompletionPer1K float64 `yaml:"completion_per_1k,omitempty"`
}

// LoadPricing reads a pricing table from a YAML file.
func LoadPricing(path string) (Pricing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var pricing Pricing
	if err := yaml.Unmarshal(data, &pricing); err != nil {
		return nil, err
	}
	return pricing, nil
}

// DefaultPricing returns the built-in pricing table. Operators override
// it with ~/.lintai/pricing.yaml when rates change; unknown models cost
// out at the provider's "default" entry, or zero when none exists.
func DefaultPricing() Pricing {
	return Pricing{
		"openai": {
			"gpt-4o":       {PromptPer1K: 0.0025, CompletionPer1K: 0.01},
			"gpt-4o-mini":  {PromptPer1K: 0.00015, CompletionPer1K: 0.0006},
			"gpt-4.1":      {PromptPer1K: 0.002, CompletionPer1K: 0.008},
			"gpt-4.1-mini": {PromptPer1K: 0.0004, CompletionPer1K: 0.0016},
			"default":      {PromptPer1K: 0.0025, CompletionPer1K: 0.01},
		},
		"azure": {
			// Azure bills per underlying model; the deployment name is
			// operator-chosen, so only a default entry is practical here.
			"default": {PromptPer1K: 0.0025, CompletionPer1K: 0.01},
		},
		"anthropic": {
			"claude-sonnet-4-20250514": {PromptPer1K: 0.003, CompletionPer1K: 0.015},
			"claude-opus-4-20250514":   {PromptPer1K: 0.015, CompletionPer1K: 0.075},
			"default":                  {PromptPer1K: 0.003, CompletionPer1K: 0.015},
		},
		"gemini": {
			"gemini-2.0-flash": {PromptPer1K: 0.0001, CompletionPer1K: 0.0004},
			"gemini-2.0-pro":   {PromptPer1K: 0.00125, CompletionPer1K: 0.005},
			"default":          {PromptPer1K: 0.0001, CompletionPer1K: 0.0004},
		},
		"cohere": {
			"command-r":         {PromptPer1K: 0.00015, CompletionPer1K: 0.0006},
			"command-r-plus":    {PromptPer1K: 0.0025, CompletionPer1K: 0.01},
			"command-a-03-2025": {PromptPer1K: 0.0025, CompletionPer1K: 0.01},
			"default":           {PromptPer1K: 0.00015, CompletionPer1K: 0.0006},
		},
	}
}

// For returns the pricing entry for a provider/model pair, falling back
// to the provider's "default" entry.
func (p Pricing) For(providerName, model string) (ModelPricing, bool) {
	if p == nil {
		return ModelPricing{}, false
	}
	providerPricing, ok := p[providerName]
	if !ok {
		return ModelPricing{}, false
	}
	if entry, ok := providerPricing[model]; ok {
		return entry, true
	}
	if entry, ok := providerPricing["default"]; ok {
		return entry, true
	}
	return ModelPricing{}, false
}

// CostUSD converts token counts into dollars for a provider/model pair.
// Unpriced pairs cost out at zero, reported via ok=false.
func (p Pricing) CostUSD(providerName, model string, promptTokens, completionTokens int64) (float64, bool) {
	entry, ok := p.For(providerName, model)
	if !ok {
		return 0, false
	}
	promptCost := (float64(promptTokens) / 1000.0) * entry.PromptPer1K
	completionCost := (float64(completionTokens) / 1000.0) * entry.CompletionPer1K
	return promptCost + completionCost, true
}
