package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

func contextSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Fetcher downloads a remote input into a local file
type Fetcher interface {
	Fetch(ctx context.Context, sourceURL, destPath string) error
}

// HTTPFetcher implements Fetcher over plain HTTP(S)
type HTTPFetcher struct {
	client   *http.Client
	attempts int
	backoff  time.Duration
	sleep    SleepFunc
}

// NewHTTPFetcher creates an HTTP fetcher tuned for single document downloads
func NewHTTPFetcher() *HTTPFetcher {
	transport := &http.Transport{
		// Connection pooling for occasional single downloads
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 4096,
	}

	return &HTTPFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   60 * time.Second,

			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		attempts: 3,
		backoff:  time.Second,
		sleep:    contextSleep,
	}
}

// WithSleep replaces the wait between attempts
func (h *HTTPFetcher) WithSleep(sleep SleepFunc) *HTTPFetcher {
	h.sleep = sleep
	return h
}

// Fetch downloads sourceURL into destPath. 5xx responses and transport errors are retried
// with linear backoff; 4xx responses are not.
func (h *HTTPFetcher) Fetch(ctx context.Context, sourceURL, destPath string) error {
	var lastErr error

	for attempt := 1; attempt <= h.attempts; attempt++ {
		retryable, err := h.fetchOnce(ctx, sourceURL, destPath)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable || attempt == h.attempts {
			break
		}
		if err := h.sleep(ctx, time.Duration(attempt)*h.backoff); err != nil {
			return fmt.Errorf("fetch cancelled: %w", err)
		}
	}

	return fmt.Errorf("failed to fetch document after %d attempts: %w", h.attempts, lastErr)
}

func (h *HTTPFetcher) fetchOnce(ctx context.Context, sourceURL, destPath string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return false, fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("Accept", "application/pdf, image/png, image/jpeg, */*")
	req.Header.Set("User-Agent", "Go-Script-Validator/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		return ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return false, fmt.Errorf("client error: status code %d", resp.StatusCode)
	case resp.StatusCode >= 500:
		return true, fmt.Errorf("server error: status code %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return false, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	return false, writeFile(destPath, resp.Body)
}

func writeFile(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
