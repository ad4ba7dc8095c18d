package ai

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

const azureAPIVersion = "2024-02-15-preview"

type OpenAIClient struct {
	client     *openai.Client
	deployment string
}

// NewOpenAIClient builds an Azure OpenAI client; every request goes to deployment.
func NewOpenAIClient(endpoint, apiKey, deployment string) *OpenAIClient {
	cfg := openai.DefaultAzureConfig(apiKey, endpoint)
	cfg.APIVersion = azureAPIVersion
	cfg.AzureModelMapperFunc = func(string) string { return deployment }

	return &OpenAIClient{
		client:     openai.NewClientWithConfig(cfg),
		deployment: deployment,
	}
}

// GetCompletion — один запрос chat completion; текст первого choice или "" если choices пусты.
func (c *OpenAIClient) GetCompletion(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.deployment,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
