// Package normalize maps loosely keyed metadata onto the canonical record.
package normalize

import (
	"sort"
	"strings"

	"go-script-validator/internal/parser"
	"go-script-validator/pkg/models"
)

// aliases maps a lower-cased key to its canonical field
var aliases = map[string]string{
	"usn":         models.FieldUSN,
	"student_id":  models.FieldUSN,
	"studentid":   models.FieldUSN,
	"courseid":    models.FieldCourseID,
	"course_id":   models.FieldCourseID,
	"course":      models.FieldCourseID,
	"exam_id":     models.FieldCourseID,
	"semester":    models.FieldSemester,
	"sem":         models.FieldSemester,
	"coursename":  models.FieldCourseName,
	"course_name": models.FieldCourseName,
	"date":        models.FieldDate,
	"exam_date":   models.FieldDate,
	"institute":   models.FieldInstitute,
	"college":     models.FieldInstitute,
	"institution": models.FieldInstitute,
}

// Canonical returns the canonical field for key, matched case-insensitively after trimming.
func Canonical(key string) (string, bool) {
	f, ok := aliases[strings.ToLower(strings.TrimSpace(key))]
	return f, ok
}

// Normalize builds a canonical record from raw. raw is not modified. Null values are
// skipped; unknown keys land in Extra, trimmed but otherwise as given.
//
// Keys are visited in sorted order with exact canonical names last, so when several
// aliases name the same field the canonical key wins and the result never depends on
// map iteration order.
func Normalize(raw map[string]any) models.CanonicalMetadata {
	var out models.CanonicalMetadata

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ei, ej := isExactCanonical(keys[i]), isExactCanonical(keys[j])
		if ei != ej {
			return ej
		}
		return keys[i] < keys[j]
	})

	for _, k := range keys {
		v := raw[k]
		if v == nil {
			continue
		}
		if nested, ok := v.(map[string]any); ok && strings.EqualFold(strings.TrimSpace(k), extraKey) {
			mergeExtra(&out, nested)
			continue
		}
		text := parser.Stringify(v)

		field, ok := Canonical(k)
		if !ok {
			if out.Extra == nil {
				out.Extra = make(map[string]string)
			}
			out.Extra[strings.TrimSpace(k)] = strings.TrimSpace(text)
			continue
		}
		out.Set(field, value(field, text))
	}
	return out
}

// extraKey holds a nested bucket of foreign keys, as produced by the record's JSON form
const extraKey = "extra"

func mergeExtra(out *models.CanonicalMetadata, nested map[string]any) {
	for k, v := range nested {
		if v == nil {
			continue
		}
		k = strings.TrimSpace(k)
		if _, taken := out.Extra[k]; taken {
			continue
		}
		if out.Extra == nil {
			out.Extra = make(map[string]string)
		}
		out.Extra[k] = strings.TrimSpace(parser.Stringify(v))
	}
}

func value(field, text string) string {
	if field == models.FieldCourseName {
		return parser.Clean(text)
	}
	return parser.Clean(strings.ToUpper(text))
}

func isExactCanonical(key string) bool {
	for _, f := range models.CanonicalFields {
		if key == f {
			return true
		}
	}
	return false
}
