package budget

// Record captures usage across the three budgeted dimensions.
// Records are immutable values; the Ledger sums them.
type Record struct {
	PromptTokens     int64   `json:"prompt_tokens"`
	CompletionTokens int64   `json:"completion_tokens"`
	CostUSD          float64 `json:"cost_usd"`
	Requests         int64   `json:"requests"`
}

// Tokens returns the combined prompt and completion token count.
func (r Record) Tokens() int64 {
	return r.PromptTokens + r.CompletionTokens
}

// IsZero reports whether the record carries no usage at all.
func (r Record) IsZero() bool {
	return r.PromptTokens == 0 && r.CompletionTokens == 0 && r.CostUSD == 0 && r.Requests == 0
}

// Add returns the component-wise sum of two records.
func (r Record) Add(other Record) Record {
	return Record{
		PromptTokens:     r.PromptTokens + other.PromptTokens,
		CompletionTokens: r.CompletionTokens + other.CompletionTokens,
		CostUSD:          r.CostUSD + other.CostUSD,
		Requests:         r.Requests + other.Requests,
	}
}

func (r Record) sub(other Record) Record {
	return Record{
		PromptTokens:     r.PromptTokens - other.PromptTokens,
		CompletionTokens: r.CompletionTokens - other.CompletionTokens,
		CostUSD:          r.CostUSD - other.CostUSD,
		Requests:         r.Requests - other.Requests,
	}
}
