package quality

import (
	"image"

	"go-script-validator/pkg/models"
	"go-script-validator/pkg/validation"
)

// Assessor produces the quality report for a page
type Assessor struct {
	calc      *Calculator
	validator *validation.QualityValidator
}

// NewAssessor creates an assessor with default thresholds
func NewAssessor() *Assessor {
	return NewAssessorWith(NewCalculator(), validation.NewQualityValidator())
}

// NewAssessorWith creates an assessor from explicit parts
func NewAssessorWith(calc *Calculator, validator *validation.QualityValidator) *Assessor {
	return &Assessor{calc: calc, validator: validator}
}

// Assess measures img. skewAngle is the angle the preprocessor corrected, in degrees.
func (a *Assessor) Assess(img image.Image, skewAngle float64) *models.QualityReport {
	b := img.Bounds()
	gray := a.calc.Grayscale(img)

	report := &models.QualityReport{
		Width:        b.Dx(),
		Height:       b.Dy(),
		LaplacianVar: a.calc.LaplacianVariance(gray),
		Brightness:   a.calc.Brightness(gray),
		SkewAngle:    skewAngle,
	}
	a.validator.Evaluate(report)
	return report
}
