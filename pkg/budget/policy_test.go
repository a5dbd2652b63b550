package budget

import "testing"

func TestCheckUnboundedAlwaysAllows(t *testing.T) {
	current := Record{PromptTokens: 1 << 40, CostUSD: 1e9, Requests: 1 << 30}
	estimate := Record{PromptTokens: 1 << 40, CostUSD: 1e9, Requests: 1 << 30}

	decision := Check(current, estimate, Limits{})
	if !decision.Allowed {
		t.Fatalf("expected allow with no limits set, got violations %v", decision.Violations)
	}
}

func TestCheckDeniesTokensRegardlessOfOtherDimensions(t *testing.T) {
	current := Record{PromptTokens: 900}
	estimate := Record{PromptTokens: 200, CostUSD: 0.01, Requests: 1}
	limits := Limits{MaxTokens: 1000, MaxCostUSD: 100, MaxRequests: 100}

	decision := Check(current, estimate, limits)
	if decision.Allowed {
		t.Fatalf("expected deny on tokens")
	}
	if len(decision.Violations) != 1 {
		t.Fatalf("expected exactly one violation, got %v", decision.Violations)
	}
	v := decision.Violations[0]
	if v.Dimension != DimensionTokens {
		t.Fatalf("expected tokens dimension, got %s", v.Dimension)
	}
	if int64(v.Attempted) != 1100 || int64(v.Limit) != 1000 {
		t.Fatalf("expected attempted=1100 limit=1000, got attempted=%.0f limit=%.0f", v.Attempted, v.Limit)
	}
}

func TestCheckAllowsExactlyAtLimit(t *testing.T) {
	current := Record{PromptTokens: 600}
	estimate := Record{PromptTokens: 400}

	decision := Check(current, estimate, Limits{MaxTokens: 1000})
	if !decision.Allowed {
		t.Fatalf("expected reaching the limit exactly to be allowed, got %v", decision.Violations)
	}

	decision = Check(current, estimate, Limits{MaxTokens: 999})
	if decision.Allowed {
		t.Fatalf("expected one token over the limit to deny")
	}
}

func TestCheckReportsAllViolatedDimensions(t *testing.T) {
	current := Record{PromptTokens: 100, CostUSD: 0.90, Requests: 2}
	estimate := Record{PromptTokens: 100, CostUSD: 0.20, Requests: 1}
	limits := Limits{MaxTokens: 150, MaxCostUSD: 1.00, MaxRequests: 2}

	decision := Check(current, estimate, limits)
	if decision.Allowed {
		t.Fatalf("expected deny")
	}
	if len(decision.Violations) != 3 {
		t.Fatalf("expected all three dimensions reported, got %v", decision.Violations)
	}
	seen := map[Dimension]bool{}
	for _, v := range decision.Violations {
		seen[v.Dimension] = true
	}
	for _, d := range []Dimension{DimensionTokens, DimensionCost, DimensionRequests} {
		if !seen[d] {
			t.Fatalf("missing violation for %s", d)
		}
	}
}

func TestCheckIsPure(t *testing.T) {
	current := Record{PromptTokens: 10}
	estimate := Record{PromptTokens: 5}
	limits := Limits{MaxTokens: 100}

	first := Check(current, estimate, limits)
	second := Check(current, estimate, limits)
	if first.Allowed != second.Allowed || len(first.Violations) != len(second.Violations) {
		t.Fatalf("expected identical decisions for identical inputs")
	}
	if current.PromptTokens != 10 || estimate.PromptTokens != 5 {
		t.Fatalf("inputs must not be mutated")
	}
}

func TestExceededErrorMessageNamesDimensions(t *testing.T) {
	err := &ExceededError{Violations: []Violation{
		{Dimension: DimensionRequests, Attempted: 3, Limit: 2},
	}}
	want := "budget exceeded: requests: attempted 3, limit 2"
	if err.Error() != want {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
