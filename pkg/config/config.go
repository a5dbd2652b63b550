package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/lintai-dev/lintai/pkg/budget"
	"github.com/lintai-dev/lintai/pkg/provider"
)

// Config holds the application configuration, resolved once at startup.
type Config struct {
	Provider   provider.Kind
	APIKey     string
	Model      string
	Endpoint   string
	APIVersion string
	Limits     budget.Limits
	Pricing    Pricing
	Retry      RetryConfig
	ConfigDir  string
}

// RetryConfig defines retry and backoff behavior for transient provider
// failures.
type RetryConfig struct {
	MaxRetries    int `yaml:"max_retries,omitempty"`
	BaseBackoffMs int `yaml:"base_backoff_ms,omitempty"`
	MaxBackoffMs  int `yaml:"max_backoff_ms,omitempty"`
}

// FileConfig represents the structure of ~/.lintai/config.yaml
type FileConfig struct {
	Provider   string      `yaml:"provider"`
	Model      string      `yaml:"model"`
	Endpoint   string      `yaml:"endpoint"`
	APIVersion string      `yaml:"api_version"`
	Retry      RetryConfig `yaml:"retry,omitempty"`
	Pricing    Pricing     `yaml:"pricing,omitempty"`
}

// providerAPIKeyEnv maps each provider kind to its dedicated credential
// variable. LLM_API_KEY takes precedence over all of them.
var providerAPIKeyEnv = map[provider.Kind]string{
	provider.KindOpenAI:    "OPENAI_API_KEY",
	provider.KindAzure:     "AZURE_OPENAI_API_KEY",
	provider.KindAnthropic: "ANTHROPIC_API_KEY",
	provider.KindGemini:    "GOOGLE_API_KEY",
	provider.KindCohere:    "COHERE_API_KEY",
}

// defaultModels gives each provider a model to fall back to when none is
// configured. Azure has no default: deployments are operator-named.
var defaultModels = map[provider.Kind]string{
	provider.KindOpenAI:    "gpt-4o-mini",
	provider.KindAnthropic: "claude-sonnet-4-20250514",
	provider.KindGemini:    "gemini-2.0-flash",
	provider.KindCohere:    "command-r",
	provider.KindDummy:     "dummy-1",
}

// Load reads configuration from the config file and environment
// variables. Environment variables take precedence over file values.
// Malformed values fail here, before any request is processed.
func Load() (*Config, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	fileConfig := loadFileConfig(filepath.Join(configDir, "config.yaml"))

	kindStr := getEnvOrDefault("LINTAI_LLM_PROVIDER", fileConfig.Provider)
	if kindStr == "" {
		return nil, fmt.Errorf("LINTAI_LLM_PROVIDER is required (one of openai, azure, anthropic, gemini, cohere, dummy)")
	}
	kind, err := provider.ParseKind(kindStr)
	if err != nil {
		return nil, err
	}

	limits, err := loadLimits()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Provider:   kind,
		APIKey:     resolveAPIKey(kind),
		Model:      resolveModel(kind, fileConfig.Model),
		Endpoint:   getEnvOrDefault("LLM_ENDPOINT_URL", getEnvOrDefault("AZURE_OPENAI_ENDPOINT", fileConfig.Endpoint)),
		APIVersion: getEnvOrDefault("LLM_API_VERSION", getEnvOrDefault("AZURE_OPENAI_API_VERSION", fileConfig.APIVersion)),
		Limits:     limits,
		Pricing:    fileConfig.Pricing,
		Retry:      fileConfig.Retry,
		ConfigDir:  configDir,
	}

	if cfg.Pricing == nil {
		pricingPath := filepath.Join(configDir, "pricing.yaml")
		if _, err := os.Stat(pricingPath); err == nil {
			pricing, err := LoadPricing(pricingPath)
			if err != nil {
				return nil, fmt.Errorf("failed to load pricing config: %w", err)
			}
			cfg.Pricing = pricing
		} else {
			cfg.Pricing = DefaultPricing()
		}
	}

	applyRetryDefaults(&cfg.Retry)
	return cfg, nil
}

// ProviderSettings maps the configuration onto provider construction
// settings.
func (c *Config) ProviderSettings() provider.Settings {
	return provider.Settings{
		APIKey:     c.APIKey,
		Endpoint:   c.Endpoint,
		APIVersion: c.APIVersion,
	}
}

func resolveAPIKey(kind provider.Kind) string {
	if key := os.Getenv("LLM_API_KEY"); key != "" {
		return key
	}
	if envVar, ok := providerAPIKeyEnv[kind]; ok {
		return os.Getenv(envVar)
	}
	return ""
}

func resolveModel(kind provider.Kind, fileModel string) string {
	if model := os.Getenv("LLM_MODEL_NAME"); model != "" {
		return model
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		return model
	}
	if fileModel != "" {
		return fileModel
	}
	return defaultModels[kind]
}

func loadLimits() (budget.Limits, error) {
	var limits budget.Limits

	if raw := os.Getenv("LINTAI_MAX_LLM_TOKENS"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			return budget.Limits{}, fmt.Errorf("invalid LINTAI_MAX_LLM_TOKENS %q: must be a positive integer", raw)
		}
		limits.MaxTokens = v
	}
	if raw := os.Getenv("LINTAI_MAX_LLM_COST_USD"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			return budget.Limits{}, fmt.Errorf("invalid LINTAI_MAX_LLM_COST_USD %q: must be a positive number", raw)
		}
		limits.MaxCostUSD = v
	}
	if raw := os.Getenv("LINTAI_MAX_LLM_REQUESTS"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			return budget.Limits{}, fmt.Errorf("invalid LINTAI_MAX_LLM_REQUESTS %q: must be a positive integer", raw)
		}
		limits.MaxRequests = v
	}

	return limits, nil
}

func applyRetryDefaults(retry *RetryConfig) {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 2
	}
	if retry.BaseBackoffMs == 0 {
		retry.BaseBackoffMs = 200
	}
	if retry.MaxBackoffMs == 0 {
		retry.MaxBackoffMs = 2000
	}
	if retry.MaxBackoffMs < retry.BaseBackoffMs {
		retry.MaxBackoffMs = retry.BaseBackoffMs
	}
}

// loadFileConfig reads the config file, returning empty config if not found.
func loadFileConfig(path string) *FileConfig {
	cfg := &FileConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	_ = yaml.Unmarshal(data, cfg)
	return cfg
}

// getEnvOrDefault returns the environment variable value if set,
// otherwise returns the default value.
func getEnvOrDefault(envVar, defaultValue string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultValue
}

func getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".lintai")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	return configDir, nil
}
