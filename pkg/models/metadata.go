package models

import "sort"

// Canonical metadata field names
const (
	FieldUSN        = "USN"
	FieldCourseID   = "CourseID"
	FieldSemester   = "Semester"
	FieldCourseName = "CourseName"
	FieldDate       = "Date"
	FieldInstitute  = "Institute"
)

// Sentinel values substituted when no valid value can be determined
const (
	UnknownUSN    = "UNKNOWN_USN"
	UnknownCourse = "UNKNOWN_COURSE"
	NotAvailable  = "N/A"
)

// CanonicalFields lists the six keys every extraction produces, in output order.
var CanonicalFields = []string{
	FieldUSN,
	FieldCourseID,
	FieldSemester,
	FieldCourseName,
	FieldDate,
	FieldInstitute,
}

// RequiredFields are the fields the validator insists on.
var RequiredFields = []string{FieldUSN, FieldCourseID, FieldSemester}

// PromptPart is one media payload of an AI request. Order within a request matters.
type PromptPart struct {
	MIMEType string
	Data     []byte
}

// RawMetadata maps field names to free-text values as recovered from a model response.
// Unknown keys are preserved.
type RawMetadata map[string]string

// Get returns the value for key, or "" when absent.
func (m RawMetadata) Get(key string) string {
	return m[key]
}

// Fields converts the raw metadata into a generic mapping suitable for normalization.
func (m RawMetadata) Fields() map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// CanonicalMetadata is the normalized record. An empty string means the field is absent.
type CanonicalMetadata struct {
	USN        string            `json:"USN,omitempty"`
	CourseID   string            `json:"CourseID,omitempty"`
	Semester   string            `json:"Semester,omitempty"`
	CourseName string            `json:"CourseName,omitempty"`
	Date       string            `json:"Date,omitempty"`
	Institute  string            `json:"Institute,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Value returns the canonical field by name.
func (c CanonicalMetadata) Value(field string) string {
	switch field {
	case FieldUSN:
		return c.USN
	case FieldCourseID:
		return c.CourseID
	case FieldSemester:
		return c.Semester
	case FieldCourseName:
		return c.CourseName
	case FieldDate:
		return c.Date
	case FieldInstitute:
		return c.Institute
	}
	return ""
}

// Set assigns a canonical field by name. Unknown names are ignored.
func (c *CanonicalMetadata) Set(field, value string) {
	switch field {
	case FieldUSN:
		c.USN = value
	case FieldCourseID:
		c.CourseID = value
	case FieldSemester:
		c.Semester = value
	case FieldCourseName:
		c.CourseName = value
	case FieldDate:
		c.Date = value
	case FieldInstitute:
		c.Institute = value
	}
}

// Fields flattens the record back into a mapping: present canonical fields under their
// canonical names and extra keys at the top level.
func (c CanonicalMetadata) Fields() map[string]any {
	out := make(map[string]any, len(CanonicalFields)+len(c.Extra))
	for k, v := range c.Extra {
		out[k] = v
	}
	for _, f := range CanonicalFields {
		if v := c.Value(f); v != "" {
			out[f] = v
		}
	}
	return out
}

// ExtraKeys returns the extra keys in sorted order.
func (c CanonicalMetadata) ExtraKeys() []string {
	keys := make([]string, 0, len(c.Extra))
	for k := range c.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validation error codes
const (
	ErrCodeMissing       = "missing"
	ErrCodeInvalidFormat = "invalid_format"
)

// ValidationResult is derived from a CanonicalMetadata and never cached.
// Valid is true iff Errors is empty.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

// Provenance records how a field value was obtained.
type Provenance string

const (
	ProvenanceParsed    Provenance = "parsed"
	ProvenanceRecovered Provenance = "recovered"
	ProvenanceRescued   Provenance = "rescued"
	ProvenanceDefault   Provenance = "default"
)
