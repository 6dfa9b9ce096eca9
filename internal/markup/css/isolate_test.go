package css

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsolateScopesPlainSelector(t *testing.T) {
	out := Isolate(".word { color: red; }", "dict-x")
	assert.Contains(t, out, "#dict-x .word")
}

func TestIsolateScopesHTMLAndBody(t *testing.T) {
	out := Isolate("body { margin: 0; }", "dict-x")
	assert.Contains(t, out, "body #dict-x")
}

func TestIsolateIsIdempotent(t *testing.T) {
	first := Isolate(".word { color: red; }", "dict-x")
	second := Isolate(first, "dict-x")
	assert.Equal(t, first, second)
}

func TestIsolatePreservesImportStatement(t *testing.T) {
	out := Isolate(`@import url(base.css); .word { color: red; }`, "dict-x")
	assert.Contains(t, out, "@import url(base.css);")
}

func TestIsolateDropsPageRule(t *testing.T) {
	out := Isolate(`@page { margin: 1in; } .word { color: red; }`, "dict-x")
	assert.False(t, strings.Contains(out, "@page"))
	assert.Contains(t, out, "#dict-x .word")
}

func TestIsolateScopesInsideMediaQuery(t *testing.T) {
	out := Isolate(`@media print { .word { color: black; } }`, "dict-x")
	assert.Contains(t, out, "@media print {")
	assert.Contains(t, out, "#dict-x .word")
}

func TestIsolateHasMarkerComment(t *testing.T) {
	out := Isolate(".word { color: red; }", "dict-x")
	assert.True(t, strings.HasPrefix(out, "/* Isolated */"))
}
