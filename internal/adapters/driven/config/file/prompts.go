package file

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

//go:embed defaults
var defaults embed.FS

type cachedPrompt struct {
	text    string
	modTime time.Time
}

// PromptStore serves system prompts from <dir>/<name>.txt. The directory
// is seeded with the built-in prompts on first use and existing files are
// never overwritten. A cached prompt is re-read when its file changes.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.Mutex
	cache map[string]cachedPrompt
}

// NewPromptStore returns a store rooted at dir, ~/.docrag/prompts when
// empty. Nothing is written until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("prompts: locating home directory: %w", err)
		}
		dir = filepath.Join(home, ".docrag", "prompts")
	}
	return &PromptStore{dir: dir, cache: map[string]cachedPrompt{}}, nil
}

// Load returns the prompt called name. A missing or unreadable file falls
// back to the built-in text; unknown names without a file are an error.
func (s *PromptStore) Load(name string) (string, error) {
	s.seedOnce.Do(s.seed)
	if s.seedErr != nil {
		logger.Debug("prompts: %v", s.seedErr)
	}

	text, err := s.read(name)
	if err == nil {
		return text, nil
	}
	if builtin, ok := builtinPrompt(name); ok {
		return builtin, nil
	}
	return "", fmt.Errorf("prompts: %s: %w", name, err)
}

// Reload drops every cached prompt.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	clear(s.cache)
	s.mu.Unlock()
}

// Dir returns the directory prompts are read from.
func (s *PromptStore) Dir() string {
	return s.dir
}

func (s *PromptStore) read(name string) (string, error) {
	file := filepath.Join(s.dir, name+".txt")
	info, err := os.Stat(file)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.cache[name]; ok && c.modTime.Equal(info.ModTime()) {
		return c.text, nil
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(raw))
	s.cache[name] = cachedPrompt{text: text, modTime: info.ModTime()}
	return text, nil
}

// seed copies each embedded default that has no counterpart on disk.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		s.seedErr = err
		return
	}
	entries, err := defaults.ReadDir("defaults")
	if err != nil {
		s.seedErr = err
		return
	}
	for _, e := range entries {
		target := filepath.Join(s.dir, e.Name())
		if _, err := os.Stat(target); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		data, err := defaults.ReadFile(path.Join("defaults", e.Name()))
		if err == nil {
			err = os.WriteFile(target, data, 0o600)
		}
		if err != nil {
			s.seedErr = errors.Join(s.seedErr, err)
		}
	}
}

func builtinPrompt(name string) (string, bool) {
	data, err := defaults.ReadFile(path.Join("defaults", name+".txt"))
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}
