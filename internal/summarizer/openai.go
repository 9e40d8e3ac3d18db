package summarizer

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	shortSystemPrompt = "You condense daily retrospectives. Answer with the essentials only."

	shortUserPrompt = `Distill the gist of the day from the text below.
Keep only the most important events and key moments.
Format: a short list of the main points.

Text to analyze:
%s

Gist of the day:`
)

type openaiClient struct {
	cli   *openai.Client
	model string
}

// NewOpenAIClient creates a Client backed by the OpenAI chat API.
func NewOpenAIClient(apiKey, model string) Client {
	return &openaiClient{
		cli:   openai.NewClient(apiKey),
		model: model,
	}
}

func (c *openaiClient) ShortSummary(ctx context.Context, mediumSummary string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: shortSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(shortUserPrompt, mediumSummary)},
		},
		MaxTokens:   500,
		Temperature: 0.3,
	}

	resp, err := c.cli.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
