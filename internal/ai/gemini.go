package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-script-validator/pkg/models"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient talks to the Gemini API. Safe for concurrent use.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiClient binds an API key and model name. timeout bounds a single attempt; zero
// leaves it to the caller's context.
func NewGeminiClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model, timeout: timeout}, nil
}

// Generate sends the parts in order with the prompt last. The text parts of the first
// candidate are concatenated; a response without candidates yields "".
func (g *GeminiClient) Generate(ctx context.Context, parts []models.PromptPart, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	model := g.client.GenerativeModel(g.model)

	content := make([]genai.Part, 0, len(parts)+1)
	for _, p := range parts {
		content = append(content, genai.Blob{MIMEType: p.MIMEType, Data: p.Data})
	}
	content = append(content, genai.Text(prompt))

	resp, err := model.GenerateContent(ctx, content...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return responseText(resp), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}

// Close releases the underlying connection
func (g *GeminiClient) Close() error {
	return g.client.Close()
}
