// Package strategy selects how metadata is read from a page: through the model, or by
// local OCR when the model cannot be reached.
package strategy

import (
	"context"
	"image"

	apperrors "go-script-validator/internal/errors"
	"go-script-validator/internal/extractor"
	"go-script-validator/internal/logger"
	"go-script-validator/internal/ocr"
	"go-script-validator/internal/preprocess"
)

// Outcome is the result of one strategy run
type Outcome struct {
	*extractor.Result

	// Degraded is set when the model was bypassed
	Degraded bool

	// OCRText is the locally recognised header text, when OCR ran
	OCRText string

	Strategy string
}

// ExtractionStrategy defines the interface for different extraction strategies
type ExtractionStrategy interface {
	Extract(ctx context.Context, img image.Image) (*Outcome, error)
	GetStrategyName() string
}

// AIExtractionStrategy asks the model
type AIExtractionStrategy struct {
	extractor extractor.MetadataExtractor
}

// NewAIExtractionStrategy creates a new model-backed strategy
func NewAIExtractionStrategy(ext extractor.MetadataExtractor) ExtractionStrategy {
	return &AIExtractionStrategy{extractor: ext}
}

// Extract runs the model pipeline
func (s *AIExtractionStrategy) Extract(ctx context.Context, img image.Image) (*Outcome, error) {
	res, err := s.extractor.ExtractImage(ctx, img)
	if err != nil {
		return nil, err
	}
	return &Outcome{Result: res, Strategy: s.GetStrategyName()}, nil
}

// GetStrategyName returns the strategy name
func (s *AIExtractionStrategy) GetStrategyName() string {
	return "ai_extraction"
}

// OCRExtractionStrategy reads the header regions locally and rescues fields from the text
type OCRExtractionStrategy struct {
	reader ocr.Reader
	pre    *preprocess.Preprocessor
}

// NewOCRExtractionStrategy creates a new OCR strategy
func NewOCRExtractionStrategy(reader ocr.Reader, pre *preprocess.Preprocessor) ExtractionStrategy {
	if pre == nil {
		pre = preprocess.New()
	}
	return &OCRExtractionStrategy{reader: reader, pre: pre}
}

// Extract recognises the header crops and rescues every field from the text
func (s *OCRExtractionStrategy) Extract(ctx context.Context, img image.Image) (*Outcome, error) {
	prepared := s.pre.Prepare(img)

	text, err := ocr.ReadAll(ctx, s.reader, prepared.Crops)
	if err != nil {
		return nil, apperrors.NewProcessingError("local OCR failed", err)
	}

	res := extractor.FromText(text)
	res.Page = prepared.Enhanced
	res.SkewAngle = prepared.SkewAngle

	return &Outcome{
		Result:   res,
		Degraded: true,
		OCRText:  text,
		Strategy: s.GetStrategyName(),
	}, nil
}

// GetStrategyName returns the strategy name
func (s *OCRExtractionStrategy) GetStrategyName() string {
	return "ocr_extraction"
}

// FallbackStrategy runs primary and switches to fallback only when the model request
// failed after every retry
type FallbackStrategy struct {
	primary  ExtractionStrategy
	fallback ExtractionStrategy
	reader   ocr.Reader
}

// NewFallbackStrategy creates a strategy with a degraded path. When reader is not nil the
// header text is also recognised after a successful primary run, so confidence can be
// cross-checked against it.
func NewFallbackStrategy(primary, fallback ExtractionStrategy, reader ocr.Reader) ExtractionStrategy {
	return &FallbackStrategy{primary: primary, fallback: fallback, reader: reader}
}

// Extract tries the primary strategy first
func (s *FallbackStrategy) Extract(ctx context.Context, img image.Image) (*Outcome, error) {
	out, err := s.primary.Extract(ctx, img)
	if err == nil {
		s.crossCheck(ctx, out)
		return out, nil
	}
	if s.fallback == nil || !apperrors.IsType(err, apperrors.ErrorTypeAIInvocation) || ctx.Err() != nil {
		return nil, err
	}

	logger.WithError(err).WithField("strategy", s.fallback.GetStrategyName()).
		Warn("Model unavailable, extracting in degraded mode")

	degraded, ferr := s.fallback.Extract(ctx, img)
	if ferr != nil {
		logger.WithError(ferr).Error("Degraded extraction failed")
		return nil, err
	}
	return degraded, nil
}

func (s *FallbackStrategy) crossCheck(ctx context.Context, out *Outcome) {
	if s.reader == nil || out.Page == nil || out.OCRText != "" {
		return
	}
	crops := preprocess.New().CropHeaderRegions(out.Page)
	text, err := ocr.ReadAll(ctx, s.reader, crops)
	if err != nil {
		logger.WithError(err).Debug("OCR cross-check skipped")
		return
	}
	out.OCRText = text
}

// GetStrategyName returns the strategy name
func (s *FallbackStrategy) GetStrategyName() string {
	return s.primary.GetStrategyName()
}
