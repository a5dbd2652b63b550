package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const cohereBaseURL = "https://api.cohere.com"

// CohereProvider implements the Provider interface for Cohere models
// via the v2 chat API.
type CohereProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// cohereRequest represents the v2 chat request format.
type cohereRequest struct {
	Model     string          `json:"model"`
	Messages  []cohereMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens,omitempty"`
}

// cohereMessage represents a chat message.
type cohereMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// cohereResponse represents the v2 chat response format.
type cohereResponse struct {
	ID      string `json:"id"`
	Message struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"message"`
	Usage struct {
		BilledUnits struct {
			InputTokens  int64 `json:"input_tokens"`
			OutputTokens int64 `json:"output_tokens"`
		} `json:"billed_units"`
	} `json:"usage"`
}

// NewCohereProvider creates a new Cohere provider. An endpoint override
// is optional.
func NewCohereProvider(apiKey, endpoint string) (*CohereProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("cohere API key is required")
	}

	baseURL := endpoint
	if baseURL == "" {
		baseURL = cohereBaseURL
	}

	return &CohereProvider{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}, nil
}

// Name returns the provider identifier.
func (p *CohereProvider) Name() string {
	return "cohere"
}

// Models returns the list of known Cohere models.
func (p *CohereProvider) Models() []string {
	return []string{
		"command-r",
		"command-r-plus",
		"command-a-03-2025",
	}
}

// Complete sends a prompt to Cohere and returns the normalized response.
func (p *CohereProvider) Complete(ctx context.Context, model string, prompt string) (*Response, error) {
	reqBody := cohereRequest{
		Model: model,
		Messages: []cohereMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens: 4096,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/v2/chat", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Temporary: true, Err: fmt.Errorf("cohere API request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{
			Status: resp.StatusCode,
			Err:    fmt.Errorf("cohere API returned status %d: %s", resp.StatusCode, string(body)),
		}
	}

	var cohereResp cohereResponse
	if err := json.Unmarshal(body, &cohereResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	var content string
	for _, block := range cohereResp.Message.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}
	if content == "" {
		return nil, fmt.Errorf("cohere returned no content")
	}

	return &Response{
		Content: content,
		Usage: Usage{
			PromptTokens:     cohereResp.Usage.BilledUnits.InputTokens,
			CompletionTokens: cohereResp.Usage.BilledUnits.OutputTokens,
		}.Normalize(),
	}, nil
}
