package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var errNoCID = errors.New("no content identifier in IPFS response")

// IPFSStore adds files through the IPFS HTTP API
type IPFSStore struct {
	apiURL   string
	client   *http.Client
	attempts int
	backoff  time.Duration
	sleep    SleepFunc
}

// NewIPFSStore targets an API base such as http://127.0.0.1:5001/api/v0
func NewIPFSStore(apiURL string, timeout time.Duration) *IPFSStore {
	return &IPFSStore{
		apiURL:   strings.TrimRight(apiURL, "/"),
		client:   &http.Client{Timeout: timeout},
		attempts: 3,
		backoff:  time.Second,
		sleep:    contextSleep,
	}
}

// WithSleep replaces the wait between attempts
func (s *IPFSStore) WithSleep(sleep SleepFunc) *IPFSStore {
	s.sleep = sleep
	return s
}

func (s *IPFSStore) Name() string { return "ipfs" }

// Add uploads path to {api}/add and returns the CID
func (s *IPFSStore) Add(ctx context.Context, path string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		cid, retryable, err := s.addOnce(ctx, path)
		if err == nil {
			return cid, nil
		}
		lastErr = err
		if !retryable || attempt == s.attempts {
			break
		}
		if err := s.sleep(ctx, time.Duration(attempt)*s.backoff); err != nil {
			return "", fmt.Errorf("ipfs add cancelled: %w", err)
		}
	}
	return "", fmt.Errorf("ipfs add failed: %w", lastErr)
}

func (s *IPFSStore) addOnce(ctx context.Context, path string) (string, bool, error) {
	body, contentType, err := multipartFile(path)
	if err != nil {
		return "", false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/add", body)
	if err != nil {
		return "", false, fmt.Errorf("invalid IPFS API URL: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("failed to read IPFS response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", resp.StatusCode >= 500, fmt.Errorf("IPFS add returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	cid, err := ParseCID(data)
	return cid, false, err
}

func multipartFile(path string) (*bytes.Buffer, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

type addResponse struct {
	Hash      string `json:"Hash"`
	HashLower string `json:"hash"`
}

func (r addResponse) cid() string {
	if r.Hash != "" {
		return r.Hash
	}
	return r.HashLower
}

// ParseCID reads the CID from an /add response. The body is either one JSON object or
// newline-delimited objects, in which case the last object carrying a hash wins.
func ParseCID(body []byte) (string, error) {
	var single addResponse
	if err := json.Unmarshal(body, &single); err == nil && single.cid() != "" {
		return single.cid(), nil
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	for i := len(lines) - 1; i >= 0; i-- {
		var r addResponse
		if err := json.Unmarshal([]byte(lines[i]), &r); err == nil && r.cid() != "" {
			return r.cid(), nil
		}
	}
	return "", errNoCID
}
