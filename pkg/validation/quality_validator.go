package validation

import (
	"math"

	"go-script-validator/pkg/models"
)

// QualityThresholds defines configurable thresholds for quality validation
type QualityThresholds struct {
	// Sharpness thresholds
	MinLaplacianVariance float64

	// Brightness thresholds
	MinBrightness float64
	MaxBrightness float64

	// Skew threshold (in degrees)
	MaxSkewAngle float64

	// Resolution thresholds
	MinWidth  int
	MinHeight int
}

// DefaultQualityThresholds returns the thresholds for scanned A4 scripts
func DefaultQualityThresholds() QualityThresholds {
	return QualityThresholds{
		MinLaplacianVariance: 100.0,
		MinBrightness:        80.0,
		MaxBrightness:        250.0, // paper is mostly white
		MaxSkewAngle:         5.0,
		MinWidth:             800,
		MinHeight:            1000, // a 200 dpi A4 page is 1654x2339
	}
}

// QualityValidator handles image quality validation logic
type QualityValidator struct {
	thresholds QualityThresholds
}

// NewQualityValidator creates a new quality validator with default thresholds
func NewQualityValidator() *QualityValidator {
	return &QualityValidator{
		thresholds: DefaultQualityThresholds(),
	}
}

// NewQualityValidatorWithThresholds creates a quality validator with custom thresholds
func NewQualityValidatorWithThresholds(thresholds QualityThresholds) *QualityValidator {
	return &QualityValidator{
		thresholds: thresholds,
	}
}

// Thresholds returns the active thresholds
func (qv *QualityValidator) Thresholds() QualityThresholds {
	return qv.thresholds
}

// Evaluate sets the quality flags of report from its measurements and returns the issues,
// which are also stored on the report.
func (qv *QualityValidator) Evaluate(report *models.QualityReport) []models.QualityIssue {
	var issues []models.QualityIssue

	// 1. Blurriness (Laplacian Variance)
	report.Blurry = report.LaplacianVar < qv.thresholds.MinLaplacianVariance
	if report.Blurry {
		issues = append(issues, models.QualityIssue{
			Type:        "blurriness",
			Message:     "Scan is blurry. Rescan with the page flat on the glass.",
			Severity:    "error",
			ActualValue: report.LaplacianVar,
			Threshold:   qv.thresholds.MinLaplacianVariance,
		})
	}

	// 2. Brightness
	report.TooDark = report.Brightness < qv.thresholds.MinBrightness
	report.TooBright = report.Brightness > qv.thresholds.MaxBrightness
	if report.TooDark {
		issues = append(issues, models.QualityIssue{
			Type:        "too_dark",
			Message:     "Scan is too dark. Increase scanner brightness.",
			Severity:    "error",
			ActualValue: report.Brightness,
			Threshold:   qv.thresholds.MinBrightness,
		})
	}
	if report.TooBright {
		issues = append(issues, models.QualityIssue{
			Type:        "too_bright",
			Message:     "Scan is washed out. Handwriting may be lost.",
			Severity:    "warning",
			ActualValue: report.Brightness,
			Threshold:   qv.thresholds.MaxBrightness,
		})
	}

	// 3. Resolution
	report.LowResolution = report.Width < qv.thresholds.MinWidth || report.Height < qv.thresholds.MinHeight
	if report.LowResolution {
		issues = append(issues, models.QualityIssue{
			Type:        "low_resolution",
			Message:     "Scan resolution is too low for reliable reading.",
			Severity:    "warning",
			ActualValue: float64(report.Width * report.Height),
			Threshold:   float64(qv.thresholds.MinWidth * qv.thresholds.MinHeight),
		})
	}

	// 4. Skew (already corrected before extraction, reported for the operator)
	report.Skewed = math.Abs(report.SkewAngle) > qv.thresholds.MaxSkewAngle
	if report.Skewed {
		issues = append(issues, models.QualityIssue{
			Type:        "skew",
			Message:     "Page was fed at an angle.",
			Severity:    "info",
			ActualValue: math.Abs(report.SkewAngle),
			Threshold:   qv.thresholds.MaxSkewAngle,
		})
	}

	report.Issues = issues
	return issues
}

// ConvertIssuesToMessages converts quality issues to simple messages
func (qv *QualityValidator) ConvertIssuesToMessages(issues []models.QualityIssue) []string {
	var messages []string
	for _, issue := range issues {
		messages = append(messages, issue.Message)
	}
	return messages
}

// HasCriticalIssues checks if there are any critical (error severity) issues
func (qv *QualityValidator) HasCriticalIssues(issues []models.QualityIssue) bool {
	for _, issue := range issues {
		if issue.Severity == "error" {
			return true
		}
	}
	return false
}
