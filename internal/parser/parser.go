// Package parser recovers a JSON object from free-form model output.
package parser

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"unicode"
)

// DefaultMaxDepth bounds brace nesting accepted by the scanner.
const DefaultMaxDepth = 64

const fence = "```"

// ResponseParser turns model text into a generic object. It never fails: a response
// that yields no object is reported through the second return value.
type ResponseParser struct {
	maxDepth int
}

// New creates a parser with the default nesting bound
func New() *ResponseParser {
	return &ResponseParser{maxDepth: DefaultMaxDepth}
}

// NewWithMaxDepth creates a parser with a custom nesting bound
func NewWithMaxDepth(depth int) *ResponseParser {
	if depth <= 0 {
		depth = DefaultMaxDepth
	}
	return &ResponseParser{maxDepth: depth}
}

var defaultParser = New()

// Parse decodes text with the default parser.
func Parse(text string) (map[string]any, bool) {
	return defaultParser.Parse(text)
}

// Parse strips code fences, then tries a direct decode and falls back to the first
// balanced {...} substring. ok is false when no object could be recovered; the returned
// map is then empty, never nil.
func (p *ResponseParser) Parse(text string) (map[string]any, bool) {
	text = StripCodeFences(text)

	if v, err := decode(text); err == nil {
		if obj, isObj := v.(map[string]any); isObj {
			return obj, true
		}
		// valid JSON that is not an object counts as no metadata
		return map[string]any{}, false
	}

	candidate, found := p.FirstObject(text)
	if !found {
		return map[string]any{}, false
	}
	v, err := decode(candidate)
	if err != nil {
		return map[string]any{}, false
	}
	obj, isObj := v.(map[string]any)
	if !isObj {
		return map[string]any{}, false
	}
	return obj, true
}

// FirstObject returns the balanced brace-delimited substring with the leftmost opening
// brace. Braces inside string literals of an open object do not count.
func (p *ResponseParser) FirstObject(text string) (string, bool) {
	stack := make([]int, 0, 8)
	bestStart, bestEnd := -1, -1
	inString, escaped := false, false

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if len(stack) > 0 {
				inString = true
			}
		case '{':
			if len(stack) >= p.maxDepth {
				return "", false
			}
			stack = append(stack, i)
		case '}':
			if len(stack) == 0 {
				continue
			}
			start := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if bestStart == -1 || start < bestStart {
				bestStart, bestEnd = start, i
			}
			if len(stack) == 0 {
				// an outermost object closed; nothing later can start further left
				return text[bestStart : bestEnd+1], true
			}
		}
	}

	if bestStart == -1 {
		return "", false
	}
	return text[bestStart : bestEnd+1], true
}

// StripCodeFences removes a surrounding markdown fence and an optional json language tag.
// Text that does not start with a fence is only trimmed.
func StripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, fence) {
		return text
	}
	parts := strings.SplitN(text, fence, 3)
	inner := strings.TrimSpace(parts[1])
	if strings.HasPrefix(strings.ToLower(inner), "json") {
		inner = strings.TrimSpace(inner[4:])
	}
	return inner
}

// Clean replaces line breaks with spaces, drops remaining control characters and trims.
func Clean(s string) string {
	s = strings.NewReplacer("\n", " ", "\r", " ").Replace(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !unicode.IsControl(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// Stringify renders a decoded JSON value as text. Null becomes "".
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func decode(text string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	// trailing garbage means the text as a whole is not JSON
	if _, err := dec.Token(); err != io.EOF {
		return nil, errTrailingData
	}
	return v, nil
}
