package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestPricingCostUSD(t *testing.T) {
	pricing := Pricing{
		"openai": {
			"gpt-4o": {PromptPer1K: 0.0025, CompletionPer1K: 0.01},
		},
	}

	cost, ok := pricing.CostUSD("openai", "gpt-4o", 1000, 500)
	if !ok {
		t.Fatalf("expected pricing match")
	}
	want := 0.0025 + 0.005
	if math.Abs(cost-want) > 1e-9 {
		t.Fatalf("cost mismatch: got %.6f want %.6f", cost, want)
	}
}

func TestPricingFallsBackToDefaultEntry(t *testing.T) {
	pricing := Pricing{
		"anthropic": {
			"default": {PromptPer1K: 0.003, CompletionPer1K: 0.015},
		},
	}

	cost, ok := pricing.CostUSD("anthropic", "claude-future-9", 1000, 0)
	if !ok {
		t.Fatalf("expected default entry match")
	}
	if math.Abs(cost-0.003) > 1e-9 {
		t.Fatalf("unexpected cost %.6f", cost)
	}
}

func TestPricingUnknownProviderCostsZero(t *testing.T) {
	pricing := DefaultPricing()

	cost, ok := pricing.CostUSD("local-llama", "llama-3", 1_000_000, 1_000_000)
	if ok || cost != 0 {
		t.Fatalf("expected unknown provider to cost zero, got %.6f ok=%v", cost, ok)
	}
}

func TestDefaultPricingCoversAllBillableProviders(t *testing.T) {
	pricing := DefaultPricing()
	for _, name := range []string{"openai", "azure", "anthropic", "gemini", "cohere"} {
		if _, ok := pricing.For(name, "default"); !ok {
			t.Fatalf("missing default pricing for %s", name)
		}
	}
}

func TestLoadPricingFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pricing.yaml")
	data := []byte("openai:\n  gpt-4o:\n    prompt_per_1k: 0.005\n    completion_per_1k: 0.02\n")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write pricing: %v", err)
	}

	pricing, err := LoadPricing(path)
	if err != nil {
		t.Fatalf("load pricing: %v", err)
	}
	entry, ok := pricing.For("openai", "gpt-4o")
	if !ok || entry.PromptPer1K != 0.005 || entry.CompletionPer1K != 0.02 {
		t.Fatalf("unexpected entry %+v ok=%v", entry, ok)
	}
}

func TestLoadPricingRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pricing.yaml")
	if err := os.WriteFile(path, []byte("openai: [not a map"), 0600); err != nil {
		t.Fatalf("write pricing: %v", err)
	}

	if _, err := LoadPricing(path); err == nil {
		t.Fatalf("expected malformed pricing to fail")
	}
}
