// Package rescue recovers individual metadata fields from unstructured text with fixed
// per-field patterns.
package rescue

import (
	"regexp"
	"strings"

	"go-script-validator/pkg/models"
)

// FieldKind selects the pattern applied by Rescue.
type FieldKind string

const (
	KindUSN      FieldKind = models.FieldUSN
	KindCourseID FieldKind = models.FieldCourseID
	KindSemester FieldKind = models.FieldSemester
	KindDate     FieldKind = models.FieldDate
)

// Patterns are unanchored: they find a value anywhere in the text.
var (
	USNPattern      = regexp.MustCompile(`[0-9][A-Z]{2}[0-9]{2}[A-Z]{2}[0-9]{3}`)
	CourseIDPattern = regexp.MustCompile(`[A-Z]{3}[0-9]{3}`)
	SemesterPattern = regexp.MustCompile(`[1-8]`)
	DatePattern     = regexp.MustCompile(`\d{1,2}[-/]\d{1,2}[-/]\d{4}`)
)

// Prefix checks accept a parsed value whose beginning has the canonical shape.
var (
	usnPrefix      = regexp.MustCompile(`^` + USNPattern.String())
	courseIDPrefix = regexp.MustCompile(`^` + CourseIDPattern.String())
	semesterPrefix = regexp.MustCompile(`^` + SemesterPattern.String())
	datePrefix     = regexp.MustCompile(`^` + DatePattern.String())
)

var patterns = map[FieldKind]*regexp.Regexp{
	KindUSN:      USNPattern,
	KindCourseID: CourseIDPattern,
	KindSemester: SemesterPattern,
	KindDate:     DatePattern,
}

var prefixes = map[FieldKind]*regexp.Regexp{
	KindUSN:      usnPrefix,
	KindCourseID: courseIDPrefix,
	KindSemester: semesterPrefix,
	KindDate:     datePrefix,
}

// Rescue returns the first match of the field's pattern in text.
// Callers pass upper-cased text; the patterns only know upper-case letters.
//
// Semester matches any digit 1-8 anywhere, so digits belonging to dates, room numbers or
// page counts are picked up as well.
func Rescue(kind FieldKind, text string) (string, bool) {
	re, ok := patterns[kind]
	if !ok {
		return "", false
	}
	m := re.FindString(text)
	return m, m != ""
}

// RescueAll returns every non-overlapping match, in order.
func RescueAll(kind FieldKind, text string) []string {
	re, ok := patterns[kind]
	if !ok {
		return nil
	}
	return re.FindAllString(text, -1)
}

// Accepts reports whether a parsed value starts with the field's canonical shape.
func Accepts(kind FieldKind, value string) bool {
	re, ok := prefixes[kind]
	if !ok {
		return false
	}
	return re.MatchString(value)
}

// Mask blanks out every occurrence of the given values so a later rescue cannot reuse
// their characters. Empty values are skipped.
func Mask(text string, values ...string) string {
	for _, v := range values {
		if v == "" {
			continue
		}
		text = strings.ReplaceAll(text, v, " ")
	}
	return text
}
