package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeOutputFormat(t *testing.T) {
	supported := []string{"json", "text", "markdown"}

	tests := []struct {
		name          string
		format        string
		supported     []string
		expected      string
		expectedError string
	}{
		{name: "json", format: "json", supported: supported, expected: "json"},
		{name: "upper case", format: "Markdown", supported: supported, expected: "markdown"},
		{name: "padded", format: " text ", supported: supported, expected: "text"},
		{
			name:          "xml",
			format:        "xml",
			supported:     supported,
			expectedError: "unsupported output format 'xml'. Supported formats: json, text, markdown",
		},
		{
			name:          "empty",
			format:        "",
			supported:     supported,
			expectedError: "unsupported output format ''. Supported formats: json, text, markdown",
		},
		{name: "no restrictions", format: "XML", supported: nil, expected: "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeOutputFormat(tt.format, tt.supported)
			if tt.expectedError != "" {
				assert.EqualError(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func BenchmarkNormalizeOutputFormat(b *testing.B) {
	supported := []string{"json", "text", "markdown"}
	for b.Loop() {
		_, _ = NormalizeOutputFormat("Markdown", supported)
	}
}
