// Package preprocess prepares scanned answer-script pages for field extraction:
// skew correction, contrast enhancement and header cropping.
package preprocess

import (
	"image"
)

// ImagePreprocessor defines the page transforms. All methods are pure.
type ImagePreprocessor interface {
	Deskew(img image.Image) image.Image
	Enhance(img image.Image) *image.RGBA
	CropHeaderRegions(img image.Image) []image.Image
}

// Options tunes the transforms
type Options struct {
	// Edge detection hysteresis thresholds
	CannyLow  float64
	CannyHigh float64

	// Minimum accumulator votes for a line
	HoughThreshold int

	// Lines whose skew is not strictly inside (-MaxSkewAngle, MaxSkewAngle) are ignored
	MaxSkewAngle float64

	// Local contrast equalization
	ClipLimit float64
	TileGrid  int
}

// DefaultOptions returns the tuned defaults
func DefaultOptions() Options {
	return Options{
		CannyLow:       40,
		CannyHigh:      140,
		HoughThreshold: 150,
		MaxSkewAngle:   45,
		ClipLimit:      2.0,
		TileGrid:       8,
	}
}

// Prepared holds every stage of one page
type Prepared struct {
	Deskewed     image.Image
	Enhanced     *image.RGBA
	Crops        []image.Image
	SkewAngle    float64
	SkewDetected bool
}

// Preprocessor implements ImagePreprocessor
type Preprocessor struct {
	opts Options
}

// New creates a preprocessor with default options
func New() *Preprocessor {
	return &Preprocessor{opts: DefaultOptions()}
}

// NewWithOptions creates a preprocessor with custom options
func NewWithOptions(opts Options) *Preprocessor {
	return &Preprocessor{opts: opts}
}

// Prepare runs deskew, enhance and crop in order
func (p *Preprocessor) Prepare(img image.Image) Prepared {
	angle, detected := p.EstimateSkew(img)
	deskewed := img
	if detected {
		deskewed = p.rotate(img, angle)
	}
	enhanced := p.Enhance(deskewed)

	return Prepared{
		Deskewed:     deskewed,
		Enhanced:     enhanced,
		Crops:        p.CropHeaderRegions(enhanced),
		SkewAngle:    angle,
		SkewDetected: detected,
	}
}
