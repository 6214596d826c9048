package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

func writePrompt(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".txt"), []byte(content), 0o600))
}

// touch moves the modification time forward so the cache notices edits
// made within the filesystem's timestamp resolution.
func touch(t *testing.T, dir, name string) {
	t.Helper()
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(filepath.Join(dir, name+".txt"), future, future))
}

func TestPromptStore_SeedsLazily(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")
	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())
	assert.NoDirExists(t, dir)

	_, err = store.Load(driven.PromptRAGSystem)
	require.NoError(t, err)

	for _, f := range []string{"rag_system.txt", "no_context_system.txt", "README.md"} {
		assert.FileExists(t, filepath.Join(dir, f))
	}
}

func TestPromptStore_BuiltinPrompts(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	rag, err := store.Load(driven.PromptRAGSystem)
	require.NoError(t, err)
	assert.Contains(t, rag, "Context:\n%s")

	none, err := store.Load(driven.PromptNoContextSystem)
	require.NoError(t, err)
	assert.Contains(t, none, "No document context was available")
	assert.NotContains(t, none, "%s")
}

func TestPromptStore_KeepsUserFiles(t *testing.T) {
	dir := t.TempDir()
	writePrompt(t, dir, driven.PromptRAGSystem, "\n  Answer in Indonesian.\n\n%s  \n")

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptRAGSystem)
	require.NoError(t, err)
	assert.Equal(t, "Answer in Indonesian.\n\n%s", prompt)

	raw, err := os.ReadFile(filepath.Join(dir, "rag_system.txt"))
	require.NoError(t, err)
	assert.Equal(t, "\n  Answer in Indonesian.\n\n%s  \n", string(raw), "seeding never overwrites")
}

func TestPromptStore_PicksUpEdits(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptNoContextSystem)
	require.NoError(t, err)

	writePrompt(t, dir, driven.PromptNoContextSystem, "Say you do not know.")
	touch(t, dir, driven.PromptNoContextSystem)

	prompt, err := store.Load(driven.PromptNoContextSystem)
	require.NoError(t, err)
	assert.Equal(t, "Say you do not know.", prompt)
}

func TestPromptStore_Reload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	_, err = store.Load(driven.PromptRAGSystem)
	require.NoError(t, err)

	store.Reload()

	store.mu.Lock()
	assert.Empty(t, store.cache)
	store.mu.Unlock()
}

func TestPromptStore_DeletedFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	builtin, err := store.Load(driven.PromptRAGSystem)
	require.NoError(t, err)

	writePrompt(t, dir, driven.PromptRAGSystem, "custom %s")
	touch(t, dir, driven.PromptRAGSystem)
	custom, err := store.Load(driven.PromptRAGSystem)
	require.NoError(t, err)
	require.Equal(t, "custom %s", custom)

	require.NoError(t, os.Remove(filepath.Join(dir, "rag_system.txt")))
	prompt, err := store.Load(driven.PromptRAGSystem)
	require.NoError(t, err)
	assert.Equal(t, builtin, prompt)
}

func TestPromptStore_UnusableDirectory(t *testing.T) {
	store, err := NewPromptStore("/dev/null/prompts")
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptNoContextSystem)
	require.NoError(t, err)
	assert.NotEmpty(t, prompt)

	_, err = store.Load("summary")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "summary")
}

func TestPromptStore_ConcurrentLoad(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]string, 32)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := store.Load(driven.PromptRAGSystem)
			assert.NoError(t, err)
			results[i] = p
		}()
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
}
