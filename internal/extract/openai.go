package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const defaultOpenAIModel = "gpt-4-turbo-preview"

// OpenAIClient calls the OpenAI chat completions API through the official
// SDK.
type OpenAIClient struct {
	model  string
	client openai.Client
}

func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIClient{
		model:  model,
		client: openai.NewClient(option.WithAPIKey(apiKey)),
	}
}

func (c *OpenAIClient) Name() string { return "openai" }

// Extract sends the prompts and returns the raw response text. The JSON
// response format is requested so the model cannot wrap its answer in
// prose.
func (c *OpenAIClient) Extract(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     shared.ChatModel(c.model),
		MaxTokens: openai.Int(maxResponseTokens),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) &&
			(apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500) {
			return "", &RetryableError{
				StatusCode: apiErr.StatusCode,
				Message:    apiErr.Message,
			}
		}
		return "", fmt.Errorf("openai api: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from openai")
	}
	return resp.Choices[0].Message.Content, nil
}

// Close is a no-op; the SDK manages its own transport.
func (c *OpenAIClient) Close() {}
