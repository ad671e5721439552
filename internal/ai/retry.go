package ai

import (
	"context"
	"fmt"
	"time"

	apperrors "go-script-validator/internal/errors"
	"go-script-validator/internal/logger"
	"go-script-validator/pkg/models"

	"github.com/sirupsen/logrus"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryPolicy bounds the attempts of one request. The wait before attempt n+1 is
// n × BaseDelay; there is no wait after the last attempt.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	Sleep     SleepFunc
}

// NewRetryPolicy builds a policy that sleeps on the wall clock
func NewRetryPolicy(attempts int, base time.Duration) RetryPolicy {
	return RetryPolicy{Attempts: attempts, BaseDelay: base, Sleep: ContextSleep}
}

// ContextSleep is the default SleepFunc
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Backoff returns the wait after the given 1-based attempt
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	return time.Duration(attempt) * p.BaseDelay
}

func (p RetryPolicy) attempts() int {
	if p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

// GenerateWithRetry calls c until it succeeds or the policy is exhausted. Exhaustion and
// context cancellation both yield an AIInvocation error wrapping the last failure.
func GenerateWithRetry(ctx context.Context, c Client, p RetryPolicy, parts []models.PromptPart, prompt string) (string, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = ContextSleep
	}

	total := p.attempts()
	var lastErr error
	for attempt := 1; attempt <= total; attempt++ {
		text, err := c.Generate(ctx, parts, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if attempt == total {
			break
		}

		wait := p.Backoff(attempt)
		logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"of":      total,
			"backoff": wait.String(),
		}).WithError(err).Warn("model request failed, retrying")

		if serr := sleep(ctx, wait); serr != nil {
			return "", apperrors.NewAIInvocationError(
				fmt.Sprintf("model request cancelled after %d attempts", attempt), lastErr)
		}
	}

	return "", apperrors.NewAIInvocationError(
		fmt.Sprintf("model request failed after %d attempts", total), lastErr)
}

// Retrying wraps a Client so every Generate call runs under a policy
type Retrying struct {
	Client Client
	Policy RetryPolicy
}

// WithRetry returns c wrapped in p
func WithRetry(c Client, p RetryPolicy) *Retrying {
	return &Retrying{Client: c, Policy: p}
}

func (r *Retrying) Generate(ctx context.Context, parts []models.PromptPart, prompt string) (string, error) {
	return GenerateWithRetry(ctx, r.Client, r.Policy, parts, prompt)
}
