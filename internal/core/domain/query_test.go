package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetrievedContext_DocumentIDs(t *testing.T) {
	rc := RetrievedContext{Chunks: []RetrievedChunk{
		{ChunkID: "b#0", DocumentID: "b", Score: 0.9},
		{ChunkID: "a#2", DocumentID: "a", Score: 0.8},
		{ChunkID: "b#1", DocumentID: "b", Score: 0.7},
		{ChunkID: "c#0", DocumentID: "c", Score: 0.6},
	}}

	assert.Equal(t, []string{"b", "a", "c"}, rc.DocumentIDs())
}

func TestRetrievedContext_Empty(t *testing.T) {
	var rc RetrievedContext
	assert.Empty(t, rc.DocumentIDs())
	assert.Empty(t, rc.Texts())
}

func TestRetrievedContext_Texts(t *testing.T) {
	rc := RetrievedContext{Chunks: []RetrievedChunk{
		{Text: "first"},
		{Text: "second"},
	}}

	assert.Equal(t, []string{"first", "second"}, rc.Texts())
}

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank(""))
	assert.True(t, IsBlank(" \n\t "))
	assert.False(t, IsBlank(" x "))
}

func TestJoinConversationContext(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
		want  string
	}{
		{name: "none", want: ""},
		{name: "history only", parts: []string{"user: hi", ""}, want: "user: hi"},
		{name: "supplied only", parts: []string{"", "  assistant: earlier answer\n"}, want: "assistant: earlier answer"},
		{name: "both", parts: []string{"user: hi\nassistant: hello", "user: follow-up"}, want: "user: hi\nassistant: hello\nuser: follow-up"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JoinConversationContext(tt.parts...))
		})
	}
}
