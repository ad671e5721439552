// Package aitest provides a scripted ai.Client for tests.
package aitest

import (
	"context"
	"errors"
	"sync"

	"go-script-validator/pkg/models"
)

// ErrExhausted is returned once the script has no replies left
var ErrExhausted = errors.New("aitest: no scripted reply left")

// Reply is one scripted outcome
type Reply struct {
	Text string
	Err  error
}

// Call records one request
type Call struct {
	Parts  []models.PromptPart
	Prompt string
}

// Client replays queued replies in order and records every call.
type Client struct {
	mu      sync.Mutex
	replies []Reply
	calls   []Call
}

// New queues the given replies
func New(replies ...Reply) *Client {
	return &Client{replies: replies}
}

// Text is shorthand for a successful reply
func Text(s string) Reply { return Reply{Text: s} }

// Fail is shorthand for a failed reply
func Fail(err error) Reply { return Reply{Err: err} }

func (c *Client) Generate(ctx context.Context, parts []models.PromptPart, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, Call{Parts: parts, Prompt: prompt})
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(c.replies) == 0 {
		return "", ErrExhausted
	}
	r := c.replies[0]
	c.replies = c.replies[1:]
	return r.Text, r.Err
}

// Calls returns a copy of the recorded calls
func (c *Client) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}
