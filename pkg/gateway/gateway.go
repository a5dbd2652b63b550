package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lintai-dev/lintai/pkg/archive"
	"github.com/lintai-dev/lintai/pkg/budget"
	"github.com/lintai-dev/lintai/pkg/config"
	"github.com/lintai-dev/lintai/pkg/provider"
)

// Gateway routes analysis requests to the configured provider while
// enforcing the operator's budget. Every admitted request holds a
// ledger reservation for its estimate; the provider call runs outside
// the ledger lock and the reservation is settled with actuals once the
// call completes.
type Gateway struct {
	Provider provider.Provider
	Ledger   *budget.Ledger
	Limits   budget.Limits
	Pricing  config.Pricing
	Model    string
	Retry    config.RetryConfig

	// Archive is optional; when set, every call's actual usage is
	// persisted under RunID. Archive failures are logged, never fatal.
	Archive *archive.Store
	RunID   string

	Logger *slog.Logger
}

// New wires a gateway from resolved configuration.
func New(p provider.Provider, ledger *budget.Ledger, cfg *config.Config) *Gateway {
	return &Gateway{
		Provider: p,
		Ledger:   ledger,
		Limits:   cfg.Limits,
		Pricing:  cfg.Pricing,
		Model:    cfg.Model,
		Retry:    cfg.Retry,
	}
}

// Request is one analysis request. EstimatedTokens is the caller's
// upper-bound estimate used for the budget pre-check.
type Request struct {
	Prompt          string
	EstimatedTokens int64
}

// Result is a successful round-trip with the actuals that were
// recorded into the ledger.
type Result struct {
	Content  string
	Usage    budget.Record
	Provider string
	Model    string
	Retries  int
	Totals   budget.Record
}

// Submit runs the budget pre-check, dispatches to the provider, and
// reconciles actual usage into the ledger. A denied request returns
// *budget.ExceededError without any provider contact and leaves the
// ledger untouched. Budget denials are never retried.
func (g *Gateway) Submit(ctx context.Context, req Request) (*Result, error) {
	estimate := g.estimate(req)

	reservation, decision := g.Ledger.TryReserve(estimate, g.Limits)
	if reservation == nil {
		return nil, &budget.ExceededError{Violations: decision.Violations}
	}

	// The provider call runs with no ledger lock held.
	resp, retries, billed, err := g.callWithRetry(ctx, req.Prompt)
	if err != nil {
		if billed.IsZero() {
			// Nothing billable is known; holding the estimate would
			// permanently inflate the totals with phantom usage.
			reservation.Rollback()
			g.logger().Warn("usage reconciliation skipped: failed call reported no billed usage",
				"provider", g.Provider.Name(), "model", g.Model, "error", err)
		} else {
			billed.Requests = 1
			billed.CostUSD, _ = g.Pricing.CostUSD(g.Provider.Name(), g.Model, billed.PromptTokens, billed.CompletionTokens)
			reservation.Commit(billed)
			g.archiveUsage(ctx, billed)
		}
		return nil, fmt.Errorf("provider call failed: %w", err)
	}

	usage := resp.Usage.Normalize()
	actual := billed.Add(budget.Record{
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		Requests:         1,
	})
	actual.CostUSD, _ = g.Pricing.CostUSD(g.Provider.Name(), g.Model, actual.PromptTokens, actual.CompletionTokens)

	totals := reservation.Commit(actual)
	g.archiveUsage(ctx, actual)

	return &Result{
		Content:  resp.Content,
		Usage:    actual,
		Provider: g.Provider.Name(),
		Model:    g.Model,
		Retries:  retries,
		Totals:   totals,
	}, nil
}

// estimate builds the pre-check record. The caller's token estimate
// stands in for the token dimension; the cost dimension is approximated
// with the active model's prompt rate, or zero when the model is not in
// the pricing table.
func (g *Gateway) estimate(req Request) budget.Record {
	cost, _ := g.Pricing.CostUSD(g.Provider.Name(), g.Model, req.EstimatedTokens, 0)
	return budget.Record{
		PromptTokens: req.EstimatedTokens,
		CostUSD:      cost,
		Requests:     1,
	}
}

// callWithRetry retries transient provider failures with exponential
// backoff. Usage billed by failed attempts is accumulated so it can be
// reconciled even when the overall call does not succeed.
func (g *Gateway) callWithRetry(ctx context.Context, prompt string) (*provider.Response, int, budget.Record, error) {
	var billed budget.Record
	var lastErr error

	attempt := 0
	for ; attempt <= g.Retry.MaxRetries; attempt++ {
		resp, err := g.Provider.Complete(ctx, g.Model, prompt)
		if err == nil {
			return resp, attempt, billed, nil
		}
		lastErr = err

		if partial := provider.BilledUsage(err); partial != nil {
			billed = billed.Add(budget.Record{
				PromptTokens:     partial.PromptTokens,
				CompletionTokens: partial.CompletionTokens,
			})
		}

		if !provider.IsTransient(err) || attempt == g.Retry.MaxRetries {
			break
		}

		backoff := computeBackoff(g.Retry.BaseBackoffMs, g.Retry.MaxBackoffMs, attempt)
		g.logger().Debug("retrying transient provider failure",
			"provider", g.Provider.Name(), "attempt", attempt+1, "backoff", backoff, "error", err)
		if err := sleepWithContext(ctx, backoff); err != nil {
			return nil, attempt, billed, err
		}
	}

	return nil, attempt, billed, lastErr
}

func (g *Gateway) archiveUsage(ctx context.Context, actual budget.Record) {
	if g.Archive == nil {
		return
	}
	if err := g.Archive.Record(ctx, g.RunID, g.Provider.Name(), g.Model, actual); err != nil {
		g.logger().Warn("failed to archive usage record", "error", err)
	}
}

func (g *Gateway) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

func computeBackoff(baseMs, maxMs, attempt int) time.Duration {
	backoff := time.Duration(baseMs) * time.Millisecond
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if backoff >= time.Duration(maxMs)*time.Millisecond {
			return time.Duration(maxMs) * time.Millisecond
		}
	}
	if backoff > time.Duration(maxMs)*time.Millisecond {
		return time.Duration(maxMs) * time.Millisecond
	}
	return backoff
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
