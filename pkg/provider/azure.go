package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
)

// AzureProvider implements the Provider interface for Azure OpenAI
// deployments. The model name is the deployment identifier.
type AzureProvider struct {
	client openai.Client
}

// NewAzureProvider creates a new Azure OpenAI provider. Azure's
// versioned API requires both the resource endpoint and an API version.
func NewAzureProvider(apiKey, endpoint, apiVersion string) (*AzureProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("azure API key is required")
	}
	if endpoint == "" {
		return nil, fmt.Errorf("azure endpoint is required")
	}
	if apiVersion == "" {
		return nil, fmt.Errorf("azure API version is required")
	}

	client := openai.NewClient(
		azure.WithEndpoint(endpoint, apiVersion),
		azure.WithAPIKey(apiKey),
	)
	return &AzureProvider{client: client}, nil
}

// Name returns the provider identifier.
func (p *AzureProvider) Name() string {
	return "azure"
}

// Models returns an empty list: Azure model names are deployment
// identifiers chosen by the operator, not a fixed catalogue.
func (p *AzureProvider) Models() []string {
	return nil
}

// Complete sends a prompt to an Azure OpenAI deployment.
func (p *AzureProvider) Complete(ctx context.Context, model string, prompt string) (*Response, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxCompletionTokens: openai.Int(4096),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, &Error{Status: apiErr.StatusCode, Err: fmt.Errorf("azure API error: %w", err)}
		}
		return nil, fmt.Errorf("azure API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("azure returned no choices")
	}

	return &Response{
		Content: resp.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}.Normalize(),
	}, nil
}
