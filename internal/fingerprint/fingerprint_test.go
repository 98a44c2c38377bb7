package fingerprint

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello world", "hello world"},
		{"  hello   world  ", "hello world"},
		{"hello\t\nworld", "hello world"},
		{"hello world", "hello world"},
		{"", ""},
		{"   ", ""},
		{"single", "single"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "input %q", tt.in)
	}
}

func TestNormalizePreservesCase(t *testing.T) {
	assert.Equal(t, "I LOVE this", Normalize("I  LOVE   this"))
}

func TestKeyDeterministic(t *testing.T) {
	a := Key("great product", "en", "v1")
	b := Key("great product", "en", "v1")
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "sentiment:analysis:"))
}

func TestKeyIgnoresIncidentalWhitespace(t *testing.T) {
	a := Key("great   product", "en", "v1")
	b := Key("  great product ", "en", "v1")
	assert.Equal(t, a, b)
}

func TestKeyCaseSensitive(t *testing.T) {
	assert.NotEqual(t, Key("Great product", "en", "v1"), Key("great product", "en", "v1"))
}

func TestKeyVariesWithTuple(t *testing.T) {
	base := Key("great product", "en", "v1")
	assert.NotEqual(t, base, Key("great product", "pt", "v1"), "language is part of the key")
	assert.NotEqual(t, base, Key("great product", "en", "v2"), "model version is part of the key")
}

func TestKeyFieldBoundaries(t *testing.T) {
	// Without length prefixes these tuples would hash the same bytes.
	assert.NotEqual(t, Key("ab", "c", "v1"), Key("a", "bc", "v1"))
}
