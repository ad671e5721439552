package parser

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_FencedJSON(t *testing.T) {
	obj, ok := Parse("```json\n{\"USN\":\"1AB23CD456\"}\n```")

	require.True(t, ok)
	assert.Equal(t, map[string]any{"USN": "1AB23CD456"}, obj)
}

func TestParse_BraceScanFromProse(t *testing.T) {
	obj, ok := Parse(`Sure! Here is what I found: {"Semester":"5"} Let me know if you need more.`)

	require.True(t, ok)
	assert.Equal(t, map[string]any{"Semester": "5"}, obj)
}

func TestParse_NestedObject(t *testing.T) {
	obj, ok := Parse(`result => {"USN":"1AB23CD456","extra":{"room":"B2"}} done`)

	require.True(t, ok)
	assert.Equal(t, "1AB23CD456", obj["USN"])
	assert.Equal(t, map[string]any{"room": "B2"}, obj["extra"])
}

func TestParse_Degraded(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"plain prose", "I could not read the header, sorry."},
		{"unbalanced", `{"USN": "1AB23CD456"`},
		{"balanced but invalid", `note {USN: 1AB23CD456} end`},
		{"json array", `[{"USN":"1AB23CD456"}]`},
		{"json string", `"1AB23CD456"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, ok := Parse(tt.text)
			assert.False(t, ok)
			assert.NotNil(t, obj)
			assert.Empty(t, obj)
		})
	}
}

func TestParse_NumbersKeepTheirText(t *testing.T) {
	obj, ok := Parse(`{"Semester": 5}`)

	require.True(t, ok)
	assert.Equal(t, "5", Stringify(obj["Semester"]))
}

func TestFirstObject(t *testing.T) {
	p := New()

	tests := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{"simple", `x {"a":1} y`, `{"a":1}`, true},
		{"first of two", `{"a":1} {"b":2}`, `{"a":1}`, true},
		{"unclosed outer skips to inner", `{ broken {"b":2}`, `{"b":2}`, true},
		{"brace inside string", `{"a":"}{"} tail`, `{"a":"}{"}`, true},
		{"escaped quote", `{"a":"say \"}\""}`, `{"a":"say \"}\""}`, true},
		{"stray closing brace first", `} {"a":1}`, `{"a":1}`, true},
		{"none", `no braces here`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := p.FirstObject(tt.text)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirstObject_DepthBound(t *testing.T) {
	p := NewWithMaxDepth(3)

	_, found := p.FirstObject(`{"a":{"b":{"c":{"d":1}}}}`)
	assert.False(t, found)

	got, found := p.FirstObject(`{"a":{"b":{"c":1}}}`)
	assert.True(t, found)
	assert.Equal(t, `{"a":{"b":{"c":1}}}`, got)
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```JSON {\"a\":1}```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
		{"```", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StripCodeFences(tt.in), "input %q", tt.in)
	}
}

func TestClean(t *testing.T) {
	assert.Equal(t, "CSE 101", Clean(" CSE\n101\r "))
	assert.Equal(t, "AB", Clean("A\x00\x07B"))
	assert.Equal(t, "", Clean("\t\n"))
	assert.False(t, strings.ContainsAny(Clean("x\ty\x1fz"), "\t\x1f"))
	assert.Equal(t, "CSE", Clean("C\x7fS\u0085E\u009f"))
	assert.Equal(t, "Ünïcode ok", Clean("Ünïcode ok"))
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", Stringify(nil))
	assert.Equal(t, "abc", Stringify("abc"))
	assert.Equal(t, "7", Stringify(json.Number("7")))
	assert.Equal(t, "true", Stringify(true))
	assert.Equal(t, `["a","b"]`, Stringify([]any{"a", "b"}))
}
