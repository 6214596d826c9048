package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

func TestConfigStore_Seed(t *testing.T) {
	store := NewConfigStore(
		map[string]any{"llm.provider": "openai", "retrieval.top_k": 3},
		map[string]any{"llm.provider": "ollama", "retrieval.top_k": 8},
	)

	assert.Equal(t, "ollama", store.GetString("llm.provider"))
	assert.Equal(t, 8, store.GetInt("retrieval.top_k"))
	assert.Equal(t, []string{"llm.provider", "retrieval.top_k"}, store.Keys())
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("s", "text"))
	require.NoError(t, store.Set("i", 42))
	require.NoError(t, store.Set("i64", int64(7)))
	require.NoError(t, store.Set("f", 0.25))
	require.NoError(t, store.Set("whole", 3.0))

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"string", store.GetString("s"), "text"},
		{"string wrong type", store.GetString("i"), ""},
		{"int", store.GetInt("i"), 42},
		{"int from int64", store.GetInt("i64"), 7},
		{"int from float", store.GetInt("f"), 0},
		{"int from whole float", store.GetInt("whole"), 3},
		{"int wrong type", store.GetInt("s"), 0},
		{"float", store.GetFloat("f"), 0.25},
		{"float from int", store.GetFloat("i"), 42.0},
		{"float missing", store.GetFloat("missing"), 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.got)
		})
	}
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup
	for n := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := fmt.Sprintf("k%d", n%5)
			_ = store.Set(key, n)
			_ = store.GetInt(key)
		}()
	}
	wg.Wait()
	assert.Len(t, store.Keys(), 5)
}

func TestConfigStore_Path(t *testing.T) {
	var store driven.ConfigStore = NewConfigStore()
	assert.Equal(t, ":memory:", store.Path())
}
