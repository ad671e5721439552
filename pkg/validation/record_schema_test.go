package validation

import (
	"testing"

	apperrors "go-script-validator/internal/errors"
	"go-script-validator/pkg/models"
)

func validRecord() models.PersistedMetadata {
	meta := models.CanonicalMetadata{
		USN:        "1AB23CD456",
		CourseID:   "CSE101",
		Semester:   "N/A",
		CourseName: "DATA STRUCTURES",
		Extra:      map[string]string{"Room": "12"},
	}
	return models.PersistedMetadata{
		Metadata:   meta,
		Validation: Validate(meta),
		Confidence: 0.55,
		Provenance: map[string]models.Provenance{models.FieldUSN: models.ProvenanceRescued},
		Source:     "scans/page.png",
		CreatedAt:  "2024-05-12T10:11:12Z",
	}
}

func TestValidateRecord_Valid(t *testing.T) {
	if err := ValidateRecord(validRecord()); err != nil {
		t.Fatalf("Expected record to match schema, got %v", err)
	}
}

func TestValidateRecord_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *models.PersistedMetadata)
	}{
		{"missing usn", func(r *models.PersistedMetadata) { r.Metadata.USN = "" }},
		{"confidence above one", func(r *models.PersistedMetadata) { r.Confidence = 1.5 }},
		{"empty source", func(r *models.PersistedMetadata) { r.Source = "" }},
		{"local timestamp", func(r *models.PersistedMetadata) { r.CreatedAt = "2024-05-12 10:11:12" }},
		{"unknown error code", func(r *models.PersistedMetadata) {
			r.Validation = models.ValidationResult{Errors: map[string]string{"USN": "bad"}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := validRecord()
			tt.mutate(&record)

			err := ValidateRecord(record)
			if err == nil {
				t.Fatal("Expected schema violation")
			}
			if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}
