package config

import (
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/lintai-dev/lintai/pkg/provider"
)

func TestLoadRequiresProvider(t *testing.T) {
	setHomeEnv(t, t.TempDir())
	clearLintaiEnv(t)

	if _, err := Load(); err == nil {
		t.Fatalf("expected load to fail without LINTAI_LLM_PROVIDER")
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	setHomeEnv(t, t.TempDir())
	clearLintaiEnv(t)
	t.Setenv("LINTAI_LLM_PROVIDER", "watsonx")

	if _, err := Load(); err == nil {
		t.Fatalf("expected load to fail for unknown provider kind")
	}
}

func TestLoadResolvesProviderSpecificAPIKey(t *testing.T) {
	setHomeEnv(t, t.TempDir())
	clearLintaiEnv(t)
	t.Setenv("LINTAI_LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Provider != provider.KindAnthropic {
		t.Fatalf("unexpected provider %q", cfg.Provider)
	}
	if cfg.APIKey != "sk-ant-test" {
		t.Fatalf("expected provider-specific key, got %q", cfg.APIKey)
	}
	if cfg.Model != "claude-sonnet-4-20250514" {
		t.Fatalf("expected default model, got %q", cfg.Model)
	}
}

func TestLoadGenericKeyWinsOverProviderKey(t *testing.T) {
	setHomeEnv(t, t.TempDir())
	clearLintaiEnv(t)
	t.Setenv("LINTAI_LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-specific")
	t.Setenv("LLM_API_KEY", "sk-generic")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIKey != "sk-generic" {
		t.Fatalf("expected LLM_API_KEY to win, got %q", cfg.APIKey)
	}
}

func TestLoadModelNameOverrides(t *testing.T) {
	setHomeEnv(t, t.TempDir())
	clearLintaiEnv(t)
	t.Setenv("LINTAI_LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_MODEL", "gpt-4o")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Model != "gpt-4o" {
		t.Fatalf("expected OPENAI_MODEL fallback, got %q", cfg.Model)
	}

	t.Setenv("LLM_MODEL_NAME", "gpt-4.1")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Model != "gpt-4.1" {
		t.Fatalf("expected LLM_MODEL_NAME to win, got %q", cfg.Model)
	}
}

func TestLoadParsesLimits(t *testing.T) {
	setHomeEnv(t, t.TempDir())
	clearLintaiEnv(t)
	t.Setenv("LINTAI_LLM_PROVIDER", "dummy")
	t.Setenv("LINTAI_MAX_LLM_TOKENS", "50000")
	t.Setenv("LINTAI_MAX_LLM_COST_USD", "2.50")
	t.Setenv("LINTAI_MAX_LLM_REQUESTS", "100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Limits.MaxTokens != 50000 || cfg.Limits.MaxRequests != 100 {
		t.Fatalf("unexpected limits %+v", cfg.Limits)
	}
	if math.Abs(cfg.Limits.MaxCostUSD-2.50) > 1e-9 {
		t.Fatalf("unexpected cost limit %f", cfg.Limits.MaxCostUSD)
	}
}

func TestLoadUnsetLimitsMeanUnbounded(t *testing.T) {
	setHomeEnv(t, t.TempDir())
	clearLintaiEnv(t)
	t.Setenv("LINTAI_LLM_PROVIDER", "dummy")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Limits.Unbounded() {
		t.Fatalf("expected unbounded limits, got %+v", cfg.Limits)
	}
}

func TestLoadFailsFastOnMalformedLimits(t *testing.T) {
	cases := []struct {
		key   string
		value string
	}{
		{"LINTAI_MAX_LLM_TOKENS", "lots"},
		{"LINTAI_MAX_LLM_TOKENS", "-5"},
		{"LINTAI_MAX_LLM_COST_USD", "$1.00"},
		{"LINTAI_MAX_LLM_COST_USD", "0"},
		{"LINTAI_MAX_LLM_REQUESTS", "2.5"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			setHomeEnv(t, t.TempDir())
			clearLintaiEnv(t)
			t.Setenv("LINTAI_LLM_PROVIDER", "dummy")
			t.Setenv(tc.key, tc.value)

			if _, err := Load(); err == nil {
				t.Fatalf("expected load to fail for %s=%s", tc.key, tc.value)
			}
		})
	}
}

func TestLoadReadsFileConfigBeneathEnv(t *testing.T) {
	home := t.TempDir()
	setHomeEnv(t, home)
	clearLintaiEnv(t)

	configDir := filepath.Join(home, ".lintai")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	data := []byte("provider: dummy\nmodel: dummy-1\nretry:\n  max_retries: 5\n")
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), data, 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Provider != provider.KindDummy {
		t.Fatalf("expected provider from file, got %q", cfg.Provider)
	}
	if cfg.Retry.MaxRetries != 5 {
		t.Fatalf("expected retry settings from file, got %+v", cfg.Retry)
	}

	// Env still wins over the file.
	t.Setenv("LINTAI_LLM_PROVIDER", "cohere")
	t.Setenv("COHERE_API_KEY", "co-test")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Provider != provider.KindCohere {
		t.Fatalf("expected env provider to win, got %q", cfg.Provider)
	}
}

func TestLoadAzureEndpointAndVersion(t *testing.T) {
	setHomeEnv(t, t.TempDir())
	clearLintaiEnv(t)
	t.Setenv("LINTAI_LLM_PROVIDER", "azure")
	t.Setenv("AZURE_OPENAI_API_KEY", "az-key")
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://scanner.openai.azure.com")
	t.Setenv("AZURE_OPENAI_API_VERSION", "2024-06-01")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Endpoint != "https://scanner.openai.azure.com" || cfg.APIVersion != "2024-06-01" {
		t.Fatalf("unexpected endpoint settings: %q %q", cfg.Endpoint, cfg.APIVersion)
	}

	settings := cfg.ProviderSettings()
	if settings.APIKey != "az-key" || settings.Endpoint != cfg.Endpoint || settings.APIVersion != cfg.APIVersion {
		t.Fatalf("provider settings do not match config: %+v", settings)
	}
}

func clearLintaiEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LINTAI_LLM_PROVIDER",
		"LINTAI_MAX_LLM_TOKENS", "LINTAI_MAX_LLM_COST_USD", "LINTAI_MAX_LLM_REQUESTS",
		"LLM_API_KEY", "LLM_MODEL_NAME", "LLM_ENDPOINT_URL", "LLM_API_VERSION",
		"OPENAI_API_KEY", "OPENAI_MODEL",
		"AZURE_OPENAI_API_KEY", "AZURE_OPENAI_ENDPOINT", "AZURE_OPENAI_API_VERSION",
		"ANTHROPIC_API_KEY", "GOOGLE_API_KEY", "COHERE_API_KEY",
	} {
		t.Setenv(key, "")
	}
}

func setHomeEnv(t *testing.T, home string) {
	t.Helper()
	t.Setenv("HOME", home)
	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", home)
	}
}
