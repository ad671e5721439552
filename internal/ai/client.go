// Package ai defines the model client the extractor depends on, a Gemini implementation
// and the bounded retry policy wrapped around every request.
package ai

import (
	"context"

	"go-script-validator/pkg/models"
)

// Client sends media parts followed by an instruction prompt and returns the response text.
// Implementations make a single attempt; retrying belongs to RetryPolicy.
type Client interface {
	Generate(ctx context.Context, parts []models.PromptPart, prompt string) (string, error)
}
