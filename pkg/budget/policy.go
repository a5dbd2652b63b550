package budget

import (
	"fmt"
	"strings"
)

// Dimension identifies one independently limited budget axis.
type Dimension string

const (
	DimensionTokens   Dimension = "tokens"
	DimensionCost     Dimension = "cost"
	DimensionRequests Dimension = "requests"
)

// Limits holds the configured caps. A zero value means unbounded
// for that dimension.
type Limits struct {
	MaxTokens   int64
	MaxCostUSD  float64
	MaxRequests int64
}

// Unbounded reports whether no dimension is limited.
func (l Limits) Unbounded() bool {
	return l.MaxTokens == 0 && l.MaxCostUSD == 0 && l.MaxRequests == 0
}

// Violation describes one dimension that a proposed request would exceed.
type Violation struct {
	Dimension Dimension `json:"dimension"`
	Attempted float64   `json:"attempted"`
	Limit     float64   `json:"limit"`
}

func (v Violation) String() string {
	switch v.Dimension {
	case DimensionCost:
		return fmt.Sprintf("%s: attempted %.4f, limit %.4f", v.Dimension, v.Attempted, v.Limit)
	default:
		return fmt.Sprintf("%s: attempted %d, limit %d", v.Dimension, int64(v.Attempted), int64(v.Limit))
	}
}

// Decision is the outcome of a policy check. A denying decision lists
// every violated dimension.
type Decision struct {
	Allowed    bool
	Violations []Violation
}

// Check evaluates whether recording estimate on top of current would
// exceed limits. It is a pure function of its inputs: each dimension is
// checked independently, and any set limit that would be crossed denies
// the request. All-zero limits always allow.
func Check(current, estimate Record, limits Limits) Decision {
	var violations []Violation

	if limits.MaxTokens > 0 {
		attempted := current.Tokens() + estimate.Tokens()
		if attempted > limits.MaxTokens {
			violations = append(violations, Violation{
				Dimension: DimensionTokens,
				Attempted: float64(attempted),
				Limit:     float64(limits.MaxTokens),
			})
		}
	}
	if limits.MaxCostUSD > 0 {
		attempted := current.CostUSD + estimate.CostUSD
		if attempted > limits.MaxCostUSD {
			violations = append(violations, Violation{
				Dimension: DimensionCost,
				Attempted: attempted,
				Limit:     limits.MaxCostUSD,
			})
		}
	}
	if limits.MaxRequests > 0 {
		attempted := current.Requests + estimate.Requests
		if attempted > limits.MaxRequests {
			violations = append(violations, Violation{
				Dimension: DimensionRequests,
				Attempted: float64(attempted),
				Limit:     float64(limits.MaxRequests),
			})
		}
	}

	return Decision{Allowed: len(violations) == 0, Violations: violations}
}

// ExceededError reports a denied request. It is never produced after a
// provider call; a denial always precedes any network traffic.
type ExceededError struct {
	Violations []Violation
}

func (e *ExceededError) Error() string {
	if e == nil || len(e.Violations) == 0 {
		return "budget exceeded"
	}
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return "budget exceeded: " + strings.Join(parts, "; ")
}
