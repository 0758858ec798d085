package wb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnumValues(t *testing.T) {
	tests := []struct {
		name   string
		params string
		want   []string
	}{
		{"simple", "('new','paid','shipped')", []string{"new", "paid", "shipped"}},
		{"single", "('only')", []string{"only"}},
		{"padded", "  ('a','b')  ", []string{"a", "b"}},
		{"comma inside value", "('a,b','c')", []string{"a,b", "c"}},
		{"double quotes", `("yes","no")`, []string{"yes", "no"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEnumValues(tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEnumValuesErrors(t *testing.T) {
	tests := []struct {
		name   string
		params string
	}{
		{"no parentheses", "'a','b'"},
		{"empty", ""},
		{"unterminated literal", "('a','b)"},
		{"no values", "()"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEnumValues(tt.params)
			assert.Error(t, err)
		})
	}
}
