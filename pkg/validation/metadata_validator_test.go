package validation

import (
	"testing"

	"go-script-validator/pkg/models"
)

func TestValidate_Valid(t *testing.T) {
	result := Validate(models.CanonicalMetadata{USN: "1AB23CD456", CourseID: "CSE101", Semester: "5"})

	if !result.Valid {
		t.Errorf("Expected valid metadata, got errors %v", result.Errors)
	}
	if result.Errors == nil || len(result.Errors) != 0 {
		t.Errorf("Expected an empty, non-nil error map, got %v", result.Errors)
	}
}

func TestValidate_USN(t *testing.T) {
	tests := []struct {
		usn  string
		want string
	}{
		{"1AB23CD456", ""},
		{"4XY19ZZ007", ""},
		{"X1AB23CD456", ""}, // the pattern may appear anywhere
		{"1AB23CD45", models.ErrCodeInvalidFormat},
		{"1ab23cd456", models.ErrCodeInvalidFormat},
		{"AB12CD", models.ErrCodeInvalidFormat},
		{models.UnknownUSN, models.ErrCodeInvalidFormat},
		{"", models.ErrCodeMissing},
	}

	for _, tt := range tests {
		t.Run(tt.usn, func(t *testing.T) {
			result := Validate(models.CanonicalMetadata{USN: tt.usn, CourseID: "CSE101", Semester: "1"})
			if got := result.Errors[models.FieldUSN]; got != tt.want {
				t.Errorf("USN %q: expected %q, got %q", tt.usn, tt.want, got)
			}
			if result.Valid != (tt.want == "") {
				t.Errorf("USN %q: valid=%v inconsistent with errors %v", tt.usn, result.Valid, result.Errors)
			}
		})
	}
}

func TestValidate_CourseIDAndSemester(t *testing.T) {
	tests := []struct {
		name     string
		meta     models.CanonicalMetadata
		expected map[string]string
	}{
		{
			name:     "course id with suffix letter",
			meta:     models.CanonicalMetadata{USN: "1AB23CD456", CourseID: "CSE101A", Semester: "8"},
			expected: map[string]string{},
		},
		{
			name: "bad course id and semester",
			meta: models.CanonicalMetadata{USN: "1AB23CD456", CourseID: "CS101", Semester: "9"},
			expected: map[string]string{
				models.FieldCourseID: models.ErrCodeInvalidFormat,
				models.FieldSemester: models.ErrCodeInvalidFormat,
			},
		},
		{
			name: "semester must be a single digit",
			meta: models.CanonicalMetadata{USN: "1AB23CD456", CourseID: "CSE101", Semester: "15"},
			expected: map[string]string{
				models.FieldSemester: models.ErrCodeInvalidFormat,
			},
		},
		{
			name: "sentinels",
			meta: models.CanonicalMetadata{USN: models.UnknownUSN, CourseID: models.UnknownCourse, Semester: models.NotAvailable},
			expected: map[string]string{
				models.FieldUSN:      models.ErrCodeInvalidFormat,
				models.FieldCourseID: models.ErrCodeInvalidFormat,
				models.FieldSemester: models.ErrCodeInvalidFormat,
			},
		},
		{
			name: "everything missing",
			meta: models.CanonicalMetadata{CourseName: "Physics"},
			expected: map[string]string{
				models.FieldUSN:      models.ErrCodeMissing,
				models.FieldCourseID: models.ErrCodeMissing,
				models.FieldSemester: models.ErrCodeMissing,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.meta)
			if len(result.Errors) != len(tt.expected) {
				t.Fatalf("Expected errors %v, got %v", tt.expected, result.Errors)
			}
			for field, code := range tt.expected {
				if result.Errors[field] != code {
					t.Errorf("Field %s: expected %q, got %q", field, code, result.Errors[field])
				}
			}
			if result.Valid != (len(tt.expected) == 0) {
				t.Errorf("Expected valid=%v", len(tt.expected) == 0)
			}
		})
	}
}

func TestCompareExpected(t *testing.T) {
	meta := models.CanonicalMetadata{USN: "1AB23CD456", CourseID: "CSE101"}

	mismatches := CompareExpected(meta, map[string]string{
		models.FieldUSN:      "1AB23CD465",
		models.FieldCourseID: "CSE101",
		models.FieldSemester: "",
	})

	if len(mismatches) != 1 {
		t.Fatalf("Expected one mismatch, got %v", mismatches)
	}
	m := mismatches[models.FieldUSN]
	if m.Expected != "1AB23CD465" || m.Actual != "1AB23CD456" || m.Distance != 2 {
		t.Errorf("Unexpected mismatch %+v", m)
	}
}
