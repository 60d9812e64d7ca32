package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "blank lines collapsed",
			input:    "John Doe\n\n\nBackend Engineer\n",
			expected: "John Doe\nBackend Engineer",
		},
		{
			name:     "per-line whitespace trimmed",
			input:    "  Skills:  \n\t Go, PostgreSQL \n",
			expected: "Skills:\nGo, PostgreSQL",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "whitespace only",
			input:    " \n \t \n ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanText(tt.input))
		})
	}
}
