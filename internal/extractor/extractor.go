// Package extractor turns a scanned script page into raw metadata: preprocess, ask the model,
// parse its answer and rescue whatever the answer got wrong.
package extractor

import (
	"context"
	"fmt"
	"image"
	"strings"

	"go-script-validator/internal/ai"
	apperrors "go-script-validator/internal/errors"
	"go-script-validator/internal/logger"
	"go-script-validator/internal/parser"
	"go-script-validator/internal/preprocess"
	"go-script-validator/internal/rescue"
	"go-script-validator/pkg/models"

	"github.com/sirupsen/logrus"
)

// MetadataExtractor is the contract the processing service depends on
type MetadataExtractor interface {
	Extract(ctx context.Context, imagePath string) (*Result, error)
	ExtractImage(ctx context.Context, img image.Image) (*Result, error)
}

// Result of one extraction. Metadata always carries every canonical key.
type Result struct {
	Metadata    models.RawMetadata
	RawResponse string

	// ParseDegraded is set when the response held no JSON object
	ParseDegraded       bool
	CourseNameRecovered bool
	Provenance          map[string]models.Provenance

	// Page is the deskewed and enhanced page that was sent to the model
	Page      *image.RGBA
	SkewAngle float64
}

// Options configures an Extractor
type Options struct {
	Retry        ai.RetryPolicy
	Preprocessor *preprocess.Preprocessor
	Parser       *parser.ResponseParser
}

// Extractor implements MetadataExtractor
type Extractor struct {
	client ai.Client
	retry  ai.RetryPolicy
	pre    *preprocess.Preprocessor
	parser *parser.ResponseParser
}

// New creates an extractor around a model client. Nil options fall back to defaults.
func New(client ai.Client, opts Options) *Extractor {
	e := &Extractor{
		client: client,
		retry:  opts.Retry,
		pre:    opts.Preprocessor,
		parser: opts.Parser,
	}
	if e.pre == nil {
		e.pre = preprocess.New()
	}
	if e.parser == nil {
		e.parser = parser.New()
	}
	return e
}

// Extract decodes the image at imagePath and extracts its metadata. A file that cannot be
// decoded is the only failure besides the model itself being unreachable.
func (e *Extractor) Extract(ctx context.Context, imagePath string) (*Result, error) {
	img, err := preprocess.DecodeFile(imagePath)
	if err != nil {
		return nil, apperrors.NewUnreadableInputError("unreadable image", err)
	}
	return e.ExtractImage(ctx, img)
}

// ExtractImage runs the pipeline on an already decoded page
func (e *Extractor) ExtractImage(ctx context.Context, img image.Image) (*Result, error) {
	prepared := e.pre.Prepare(img)

	full, err := preprocess.EncodeJPEG(prepared.Enhanced, preprocess.FullPageJPEGQuality)
	if err != nil {
		return nil, apperrors.NewProcessingError("failed to encode page", err)
	}
	parts := []models.PromptPart{{MIMEType: "image/jpeg", Data: full}}
	for i, crop := range prepared.Crops {
		data, err := preprocess.EncodePNG(crop)
		if err != nil {
			return nil, apperrors.NewProcessingError(fmt.Sprintf("failed to encode header region %d", i), err)
		}
		parts = append(parts, models.PromptPart{MIMEType: "image/png", Data: data})
	}

	raw, err := ai.GenerateWithRetry(ctx, e.client, e.retry, parts, MetaPrompt)
	if err != nil {
		return nil, err
	}
	raw = parser.StripCodeFences(raw)

	parsed, ok := e.parser.Parse(raw)
	if !ok {
		logger.WithField("response_length", len(raw)).Debug("model response held no JSON object")
	}

	res := settle(parsed, raw)
	res.ParseDegraded = !ok
	res.Page = prepared.Enhanced
	res.SkewAngle = prepared.SkewAngle

	if needsCourseName(res.Metadata.Get(models.FieldCourseName)) {
		name := e.recoverCourseName(ctx, full)
		res.Metadata[models.FieldCourseName] = name
		if name != models.NotAvailable {
			res.CourseNameRecovered = true
			res.Provenance[models.FieldCourseName] = models.ProvenanceRecovered
		} else {
			res.Provenance[models.FieldCourseName] = models.ProvenanceDefault
		}
	}

	return res, nil
}

// FromText builds metadata by rescue alone, for text that did not come from the model
// (local OCR). CourseName cannot be recovered this way and is N/A unless present.
func FromText(text string) *Result {
	res := settle(nil, text)
	if needsCourseName(res.Metadata.Get(models.FieldCourseName)) {
		res.Metadata[models.FieldCourseName] = models.NotAvailable
		res.Provenance[models.FieldCourseName] = models.ProvenanceDefault
	}
	return res
}

// settle upper-cases the parsed values and fills every canonical field, parsed value first,
// rescue from the raw text second, sentinel last.
func settle(parsed map[string]any, raw string) *Result {
	meta := make(models.RawMetadata, len(parsed)+len(models.CanonicalFields))
	for k, v := range parsed {
		meta[k] = parser.Clean(strings.ToUpper(parser.Stringify(v)))
	}
	rawUp := parser.Clean(strings.ToUpper(raw))

	prov := make(map[string]models.Provenance, len(models.CanonicalFields))
	settleField(meta, prov, rescue.KindUSN, rawUp, models.UnknownUSN)
	settleField(meta, prov, rescue.KindCourseID, rawUp, models.UnknownCourse)

	// digits of the settled identifiers must not come back as a semester
	semesterText := rescue.Mask(rawUp, meta[models.FieldUSN], meta[models.FieldCourseID])
	settleField(meta, prov, rescue.KindSemester, semesterText, models.NotAvailable)
	settleField(meta, prov, rescue.KindDate, rawUp, "")

	if name := meta[models.FieldCourseName]; !needsCourseName(name) {
		prov[models.FieldCourseName] = models.ProvenanceParsed
	}

	if meta[models.FieldInstitute] != "" {
		prov[models.FieldInstitute] = models.ProvenanceParsed
	} else {
		meta[models.FieldInstitute] = ""
		prov[models.FieldInstitute] = models.ProvenanceDefault
	}

	return &Result{Metadata: meta, RawResponse: raw, Provenance: prov}
}

func settleField(meta models.RawMetadata, prov map[string]models.Provenance, kind rescue.FieldKind, text, fallback string) {
	field := string(kind)
	if rescue.Accepts(kind, meta[field]) {
		prov[field] = models.ProvenanceParsed
		return
	}

	entry := logger.WithFields(logrus.Fields{"field": field, "parsed": meta[field]})
	if v, ok := rescue.Rescue(kind, text); ok {
		meta[field] = v
		prov[field] = models.ProvenanceRescued
		entry.WithField("value", v).Debug("field rescued from raw text")
		return
	}
	meta[field] = fallback
	prov[field] = models.ProvenanceDefault
	entry.Debug("field defaulted")
}

func needsCourseName(v string) bool {
	return v == "" || v == models.NotAvailable
}

// recoverCourseName asks for the course name alone. Every failure yields N/A.
func (e *Extractor) recoverCourseName(ctx context.Context, fullPage []byte) string {
	parts := []models.PromptPart{{MIMEType: "image/jpeg", Data: fullPage}}
	raw, err := ai.GenerateWithRetry(ctx, e.client, e.retry, parts, CourseRecoverPrompt)
	if err != nil {
		logger.WithError(err).Warn("course name recovery failed")
		return models.NotAvailable
	}

	parsed, _ := e.parser.Parse(raw)
	v, ok := parsed[models.FieldCourseName]
	if !ok {
		return models.NotAvailable
	}
	name := parser.Clean(strings.ToUpper(parser.Stringify(v)))
	if name == "" {
		return models.NotAvailable
	}
	return name
}
