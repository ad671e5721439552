// Package rasterizer renders the first page of a PDF script to a PNG.
package rasterizer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	apperrors "go-script-validator/internal/errors"
	"go-script-validator/internal/preprocess"

	"github.com/gen2brain/go-fitz"
)

// DefaultDPI matches the resolution scripts are scanned at
const DefaultDPI = 200

// FirstPageName is the file written into the output directory
const FirstPageName = "first.png"

// Rasterizer turns a document into a single raster page
type Rasterizer interface {
	FirstPageToImage(ctx context.Context, pdfPath, outDir string) (string, error)
}

// FitzRasterizer implements Rasterizer using go-fitz
type FitzRasterizer struct {
	dpi float64
}

// New creates a rasterizer; a non-positive dpi means DefaultDPI
func New(dpi float64) *FitzRasterizer {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &FitzRasterizer{dpi: dpi}
}

// FirstPageToImage renders page 1 of pdfPath into outDir and returns the PNG path.
// Documents that cannot be opened or have no pages are unreadable input.
func (r *FitzRasterizer) FirstPageToImage(ctx context.Context, pdfPath, outDir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return "", apperrors.NewUnreadableInputError("failed to open PDF", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return "", apperrors.NewUnreadableInputError("PDF has no pages", nil)
	}

	img, err := doc.ImageDPI(0, r.dpi)
	if err != nil {
		return "", apperrors.NewUnreadableInputError("failed to render first page", err)
	}

	data, err := preprocess.EncodePNG(img)
	if err != nil {
		return "", apperrors.NewProcessingError("failed to encode first page", err)
	}

	out := filepath.Join(outDir, FirstPageName)
	if err := os.WriteFile(out, data, 0o600); err != nil {
		return "", apperrors.NewInternalError(fmt.Sprintf("failed to write %s", out), err)
	}
	return out, nil
}
