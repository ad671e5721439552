package validation

import (
	"regexp"

	"go-script-validator/pkg/models"

	"github.com/arbovm/levenshtein"
)

// Format rules for the required fields. USN and CourseID are searched anywhere in the
// value; Semester must be the whole value.
var (
	usnFormat      = regexp.MustCompile(`[0-9][A-Z]{2}[0-9]{2}[A-Z]{2}[0-9]{3}`)
	courseIDFormat = regexp.MustCompile(`[A-Z]{3}[0-9]{3}[A-Z]?`)
	semesterFormat = regexp.MustCompile(`^[1-8]$`)
)

var requiredFormats = map[string]*regexp.Regexp{
	models.FieldUSN:      usnFormat,
	models.FieldCourseID: courseIDFormat,
	models.FieldSemester: semesterFormat,
}

// Validate checks presence and format of the required fields. Invalid metadata is the
// expected case and is reported in the result, never as an error.
func Validate(meta models.CanonicalMetadata) models.ValidationResult {
	errs := make(map[string]string)
	for _, field := range models.RequiredFields {
		v := meta.Value(field)
		switch {
		case v == "":
			errs[field] = models.ErrCodeMissing
		case !requiredFormats[field].MatchString(v):
			errs[field] = models.ErrCodeInvalidFormat
		}
	}
	return models.ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// CompareExpected reports fields whose value differs from a caller supplied expectation.
// Empty expectations are not checked; callers pass them already normalized.
func CompareExpected(meta models.CanonicalMetadata, expected map[string]string) map[string]models.Mismatch {
	out := make(map[string]models.Mismatch)
	for field, want := range expected {
		if want == "" {
			continue
		}
		got := meta.Value(field)
		if got == want {
			continue
		}
		out[field] = models.Mismatch{
			Expected: want,
			Actual:   got,
			Distance: levenshtein.Distance(want, got),
		}
	}
	return out
}
