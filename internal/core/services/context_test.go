package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssembleContext(t *testing.T) {
	tests := []struct {
		name         string
		chunks       []string
		conversation string
		expected     string
	}{
		{name: "empty", expected: ""},
		{name: "chunks only", chunks: []string{"first", "second"}, expected: "first\n\nsecond"},
		{name: "conversation only", conversation: "user: hi", expected: "user: hi"},
		{
			name:         "conversation first",
			chunks:       []string{"Invoice total: $4,200"},
			conversation: "user: which invoice?\nassistant: INV-7",
			expected:     "user: which invoice?\nassistant: INV-7\n\nInvoice total: $4,200",
		},
		{name: "blank conversation ignored", chunks: []string{"a"}, conversation: "  \n", expected: "a"},
		{name: "blank chunks skipped", chunks: []string{"a", " ", "b"}, expected: "a\n\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AssembleContext(tt.chunks, tt.conversation))
		})
	}
}

func TestAssembleContext_PreservesRankOrder(t *testing.T) {
	got := AssembleContext([]string{"z", "a", "m"}, "")
	assert.Equal(t, "z\n\na\n\nm", got)
}
