package quality

import (
	"math"

	"go-script-validator/pkg/models"
)

var provenanceScore = map[models.Provenance]float64{
	models.ProvenanceParsed:    1.0,
	models.ProvenanceRecovered: 0.8,
	models.ProvenanceRescued:   0.6,
	models.ProvenanceDefault:   0,
}

// scoredFields contribute to confidence; Date and Institute are informational
var scoredFields = []string{
	models.FieldUSN,
	models.FieldCourseID,
	models.FieldSemester,
	models.FieldCourseName,
}

const (
	blurPenalty = 0.8
	ocrWeight   = 0.3
)

// Confidence scores a record in [0,1]: the mean provenance score of the identifying
// fields, scaled down for blurry scans and blended with OCR agreement when available.
func Confidence(prov map[string]models.Provenance, report *models.QualityReport) float64 {
	var sum float64
	for _, f := range scoredFields {
		sum += provenanceScore[prov[f]]
	}
	score := sum / float64(len(scoredFields))

	if report != nil {
		if report.Blurry {
			score *= blurPenalty
		}
		if report.OCR != nil {
			agreement := 1 - (report.OCR.CER+report.OCR.WER)/2
			score = (1-ocrWeight)*score + ocrWeight*agreement
		}
	}

	score = math.Max(0, math.Min(1, score))
	return math.Round(score*1e4) / 1e4
}
