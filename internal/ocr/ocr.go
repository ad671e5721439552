// Package ocr reads printed header text locally. It backs the degraded extraction path
// and the agreement score that cross-checks model output.
//
// The Tesseract reader needs the tesseract library and is compiled in with the "ocr"
// build tag:
//
//	go build -tags ocr ./...
package ocr

import (
	"context"
	"errors"
	"image"
	"strings"
)

// ErrOCRNotEnabled is returned when OCR support was not compiled in
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// Reader recognises the text of one image
type Reader interface {
	ReadText(ctx context.Context, img image.Image) (string, error)
	Close() error
}

// ReadAll recognises every region and joins the non-empty results with newlines.
// It stops at the first failure.
func ReadAll(ctx context.Context, r Reader, regions []image.Image) (string, error) {
	texts := make([]string, 0, len(regions))
	for _, region := range regions {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := r.ReadText(ctx, region)
		if err != nil {
			return "", err
		}
		if text = strings.TrimSpace(text); text != "" {
			texts = append(texts, text)
		}
	}
	return strings.Join(texts, "\n"), nil
}
