package summarizer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/mzolotukhin/daybook/internal/logger"
)

type geminiClient struct {
	model  string
	logger logger.Logger

	// currentKey is shared across concurrent requests.
	mu         sync.Mutex
	apiKeys    []string
	currentKey int
}

// NewGeminiClient creates a Client that rotates through the supplied
// Gemini API keys on quota errors.
func NewGeminiClient(apiKeys []string, model string, log logger.Logger) Client {
	return &geminiClient{
		apiKeys: apiKeys,
		model:   model,
		logger:  log,
	}
}

func (c *geminiClient) ShortSummary(ctx context.Context, mediumSummary string) (string, error) {
	prompt := shortSystemPrompt + "\n\n" + fmt.Sprintf(shortUserPrompt, mediumSummary)

	attempts := len(c.apiKeys)
	var lastErr error

	for range attempts {
		key := c.takeKey()

		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			lastErr = fmt.Errorf("create client: %w", err)
			c.rotateKey()
			continue
		}

		result, err := client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
		if err != nil {
			errMsg := err.Error()
			if strings.Contains(errMsg, "429") || strings.Contains(errMsg, "quota") || strings.Contains(errMsg, "RESOURCE_EXHAUSTED") {
				c.logger.Warn("gemini key rate limited, rotating")
				c.rotateKey()
				lastErr = err
				continue
			}
			return "", fmt.Errorf("generate content: %w", err)
		}

		if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
			var text string
			for _, part := range result.Candidates[0].Content.Parts {
				if part.Text != "" {
					text += part.Text
				}
			}
			return text, nil
		}

		return "", fmt.Errorf("empty response from Gemini")
	}

	return "", fmt.Errorf("all API keys exhausted: %w", lastErr)
}

func (c *geminiClient) takeKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apiKeys[c.currentKey]
}

func (c *geminiClient) rotateKey() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentKey = (c.currentKey + 1) % len(c.apiKeys)
}
