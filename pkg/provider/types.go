package provider

// Usage captures normalized token usage as reported by a backend.
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// Normalize fills in TotalTokens when the backend only reports the parts.
func (u Usage) Normalize() Usage {
	if u.TotalTokens == 0 && (u.PromptTokens > 0 || u.CompletionTokens > 0) {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}
	return u
}

// Response wraps a provider completion and its usage actuals.
type Response struct {
	Content string `json:"content"`
	Usage   Usage  `json:"usage"`
}
