package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lintai-dev/lintai/pkg/archive"
	"github.com/lintai-dev/lintai/pkg/budget"
	"github.com/lintai-dev/lintai/pkg/config"
	"github.com/lintai-dev/lintai/pkg/gateway"
	"github.com/lintai-dev/lintai/pkg/provider"
)

const version = "0.2.0"

var (
	envFile     string
	pricingFile string
	logLevel    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lintai",
		Short: "Shift-left GenAI security scanner",
		Long: `Lintai scans code with the help of LLM providers while enforcing
	strict operational budgets on tokens, dollar cost, and request count.
	The gateway fails closed: once a budget dimension would be exceeded,
	no further provider calls are made.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVarP(&envFile, "env-file", "e", "", "optional .env file with provider and budget settings")
	rootCmd.PersistentFlags().StringVar(&pricingFile, "pricing", "", "path to a pricing YAML file")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "logging level (debug, info, warn, error)")

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(providersCmd())
	rootCmd.AddCommand(usageCmd())
	rootCmd.AddCommand(validateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadConfig() (*config.Config, error) {
	if envFile != "" {
		if err := config.LoadEnvFile(envFile); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if pricingFile != "" {
		pricing, err := config.LoadPricing(pricingFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load pricing file: %w", err)
		}
		cfg.Pricing = pricing
	}
	return cfg, nil
}

func analyzeCmd() *cobra.Command {
	var estimate int64
	var timeout time.Duration
	var noArchive bool

	cmd := &cobra.Command{
		Use:   "analyze [prompt]",
		Short: "Send one analysis prompt through the budgeted gateway",
		Long: `Dispatches a single prompt to the configured LLM provider, subject
	to the configured budget limits. A request that would exceed any
	budget dimension is denied before the provider is contacted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger()

			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			p, err := provider.New(cfg.Provider, cfg.ProviderSettings())
			if err != nil {
				return fmt.Errorf("failed to create provider: %w", err)
			}

			g := gateway.New(p, budget.NewLedger(), cfg)
			g.Logger = logger

			if !noArchive {
				store, err := archive.Open("")
				if err != nil {
					logger.Warn("usage archive unavailable", "error", err)
				} else {
					defer store.Close()
					g.Archive = store
					g.RunID = uuid.NewString()
				}
			}

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			fmt.Fprintf(os.Stderr, "Dispatching to %s/%s\n", p.Name(), cfg.Model)
			result, err := g.Submit(ctx, gateway.Request{
				Prompt:          args[0],
				EstimatedTokens: estimate,
			})
			if err != nil {
				var exceeded *budget.ExceededError
				if errors.As(err, &exceeded) {
					return fmt.Errorf("request denied: %w", err)
				}
				return err
			}

			fmt.Println(result.Content)
			fmt.Fprintf(os.Stderr, "usage: %d prompt + %d completion tokens, $%.4f (run total: %d tokens, $%.4f)\n",
				result.Usage.PromptTokens, result.Usage.CompletionTokens, result.Usage.CostUSD,
				result.Totals.Tokens(), result.Totals.CostUSD)
			return nil
		},
	}

	cmd.Flags().Int64Var(&estimate, "estimate", 2048, "estimated prompt tokens for the budget pre-check")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-request timeout (0 for none)")
	cmd.Flags().BoolVar(&noArchive, "no-archive", false, "skip persisting usage to the local archive")
	return cmd
}

func providersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List supported LLM providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			active := provider.Kind("")
			if cfg, err := loadConfig(); err == nil {
				active = cfg.Provider
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tACTIVE\tMODELS")
			for _, kind := range provider.Kinds() {
				marker := ""
				if kind == active {
					marker = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", kind, marker, strings.Join(knownModels(kind), ", "))
			}
			return w.Flush()
		},
	}
}

// knownModels lists a provider's catalogue without requiring
// credentials; only the dummy provider can be constructed keyless.
func knownModels(kind provider.Kind) []string {
	switch kind {
	case provider.KindOpenAI:
		return (&provider.OpenAIProvider{}).Models()
	case provider.KindAzure:
		return []string{"(deployment-defined)"}
	case provider.KindAnthropic:
		return (&provider.AnthropicProvider{}).Models()
	case provider.KindGemini:
		return (&provider.GeminiProvider{}).Models()
	case provider.KindCohere:
		return (&provider.CohereProvider{}).Models()
	case provider.KindDummy:
		return provider.NewDummyProvider().Models()
	default:
		return nil
	}
}

func usageCmd() *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show archived LLM usage and spend",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := archive.Open("")
			if err != nil {
				return fmt.Errorf("failed to open usage archive: %w", err)
			}
			defer store.Close()

			summaries, err := store.Summarize(cmd.Context(), runID)
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Println("no usage recorded")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tMODEL\tREQUESTS\tPROMPT\tCOMPLETION\tCOST")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t$%.4f\n",
					s.Provider, s.Model, s.Requests, s.PromptTokens, s.CompletionTokens, s.CostUSD)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "restrict the summary to one run ID")
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration without making any provider call",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "provider\t%s\n", cfg.Provider)
			fmt.Fprintf(w, "model\t%s\n", cfg.Model)
			fmt.Fprintf(w, "api key\t%s\n", maskSecret(cfg.APIKey))
			if cfg.Endpoint != "" {
				fmt.Fprintf(w, "endpoint\t%s\n", cfg.Endpoint)
			}
			if cfg.APIVersion != "" {
				fmt.Fprintf(w, "api version\t%s\n", cfg.APIVersion)
			}
			fmt.Fprintf(w, "max tokens\t%s\n", formatLimit(float64(cfg.Limits.MaxTokens), "%d"))
			fmt.Fprintf(w, "max cost\t%s\n", formatLimit(cfg.Limits.MaxCostUSD, "$%.2f"))
			fmt.Fprintf(w, "max requests\t%s\n", formatLimit(float64(cfg.Limits.MaxRequests), "%d"))
			if err := w.Flush(); err != nil {
				return err
			}

			// Construction catches missing credentials and endpoints early.
			if _, err := provider.New(cfg.Provider, cfg.ProviderSettings()); err != nil {
				return fmt.Errorf("provider configuration invalid: %w", err)
			}
			fmt.Println("configuration ok")
			return nil
		},
	}
}

func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

func formatLimit(v float64, format string) string {
	if v == 0 {
		return "unbounded"
	}
	if format == "%d" {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf(format, v)
}
