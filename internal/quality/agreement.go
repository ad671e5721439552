package quality

import (
	"math"
	"strings"
	"unicode"

	"go-script-validator/pkg/models"

	"github.com/arbovm/levenshtein"
	"github.com/codycollier/wer"
)

// Agreement compares extracted identifiers with locally recognised header text.
// CER is the mean, over USN and CourseID, of the edit distance to the closest OCR token
// relative to the value length. WER is the word error rate of the course name against the
// best matching run of OCR words. Both are capped at 1. Returns nil when ocrText is empty.
func Agreement(meta models.CanonicalMetadata, ocrText string) *models.OCRAgreement {
	tokens := Tokenize(ocrText)
	if len(tokens) == 0 {
		return nil
	}

	return &models.OCRAgreement{
		Text: strings.TrimSpace(ocrText),
		CER:  characterErrorRate(meta, tokens),
		WER:  wordErrorRate(meta, tokens),
	}
}

// Tokenize upper-cases text and splits it on anything that is not a letter or digit
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToUpper(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func characterErrorRate(meta models.CanonicalMetadata, tokens []string) float64 {
	var values []string
	for _, v := range []string{meta.USN, meta.CourseID} {
		if v != "" && v != models.UnknownUSN && v != models.UnknownCourse {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return 1
	}

	var total float64
	for _, v := range values {
		best := len(v)
		for _, tok := range tokens {
			if d := levenshtein.Distance(v, tok); d < best {
				best = d
			}
		}
		total += math.Min(1, float64(best)/float64(len(v)))
	}
	return total / float64(len(values))
}

func wordErrorRate(meta models.CanonicalMetadata, tokens []string) float64 {
	name := meta.CourseName
	if name == models.NotAvailable {
		name = ""
	}
	reference := Tokenize(name)
	if len(reference) == 0 {
		return 1
	}

	n := len(reference)
	if n > len(tokens) {
		n = len(tokens)
	}
	best := 1.0
	for start := 0; start+n <= len(tokens); start++ {
		rate, _ := wer.WER(reference, tokens[start:start+n])
		if rate < best {
			best = rate
		}
	}
	return math.Min(1, best)
}
