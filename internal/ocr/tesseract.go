//go:build ocr

package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync"

	"go-script-validator/internal/preprocess"

	"github.com/otiai10/gosseract/v2"
)

// Enabled reports whether the Tesseract reader is compiled in
const Enabled = true

// TesseractReader wraps one gosseract client. Calls are serialised because the client
// holds per-image state.
type TesseractReader struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewTesseractReader creates a reader for the given language(s), e.g. "eng" or "eng+hin".
// The reader should be closed when no longer needed.
func NewTesseractReader(language string) (Reader, error) {
	client := gosseract.NewClient()
	if language != "" {
		if err := client.SetLanguage(language); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set OCR language: %w", err)
		}
	}
	return &TesseractReader{client: client}, nil
}

func (t *TesseractReader) ReadText(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := preprocess.EncodePNG(img)
	if err != nil {
		return "", fmt.Errorf("failed to encode region: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}
	text, err := t.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// Close releases OCR resources
func (t *TesseractReader) Close() error {
	if t.client != nil {
		return t.client.Close()
	}
	return nil
}
