// Package filesystem discovers local documents for ingestion and watches
// a directory tree for changes to them.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docrag/internal/logger"
)

// ErrClosed is returned by Watch after Close.
var ErrClosed = errors.New("connector is closed")

// ChangeType classifies a watched change.
type ChangeType int

const (
	// ChangeCreated is a new file.
	ChangeCreated ChangeType = iota
	// ChangeUpdated is a write to an existing file.
	ChangeUpdated
	// ChangeDeleted is a removed or renamed-away file.
	ChangeDeleted
)

func (t ChangeType) String() string {
	switch t {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// File is a document candidate found under the root.
type File struct {
	Path       string
	DocumentID string
}

// Change is one file event observed by Watch.
type Change struct {
	Type ChangeType
	File File
}

// Connector walks and watches a single root, which may be a directory or
// a lone file.
type Connector struct {
	rootPath string

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// New creates a connector for rootPath. The path is not checked until
// Validate, FullSync or Watch.
func New(rootPath string) *Connector {
	return &Connector{rootPath: rootPath}
}

// Root returns the configured root path.
func (c *Connector) Root() string {
	return c.rootPath
}

// Validate checks that the root exists.
func (c *Connector) Validate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.stat()
	return err
}

// FullSync returns every non-hidden regular file under the root, or the
// root itself when it is a file.
func (c *Connector) FullSync(ctx context.Context) ([]File, error) {
	info, err := c.stat()
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []File{{Path: c.rootPath, DocumentID: filepath.Base(c.rootPath)}}, nil
	}

	var files []File
	err = filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path != c.rootPath && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, File{Path: path, DocumentID: c.DocumentID(path)})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", c.rootPath, err)
	}
	logger.Debug("Found %d file(s) under %s", len(files), c.rootPath)
	return files, nil
}

// DocumentID derives a stable id for path: the slash-separated path
// relative to the root, or the base name when the root is the file itself.
func (c *Connector) DocumentID(path string) string {
	rel, err := filepath.Rel(c.rootPath, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}

// Watch reports changes below a directory root until ctx is cancelled.
// Subdirectories created after the call are watched too.
func (c *Connector) Watch(ctx context.Context) (<-chan Change, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if c.watcher != nil {
		return nil, errors.New("connector is already watching")
	}

	info, err := c.stat()
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path error: %s is not a directory", c.rootPath)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := addTree(watcher, c.rootPath); err != nil {
		watcher.Close()
		return nil, err
	}
	c.watcher = watcher

	changes := make(chan Change)
	go c.loop(ctx, watcher, changes)
	return changes, nil
}

func (c *Connector) loop(ctx context.Context, watcher *fsnotify.Watcher, changes chan<- Change) {
	defer close(changes)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) && !isHidden(filepath.Base(ev.Name)) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addTree(watcher, ev.Name); err != nil {
						logger.Warn("Failed to watch %s: %v", ev.Name, err)
					}
					continue
				}
			}
			change := c.handleFsEvent(ev)
			if change == nil {
				continue
			}
			select {
			case changes <- *change:
			case <-ctx.Done():
				return
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Watch error under %s: %v", c.rootPath, err)
		}
	}
}

// handleFsEvent maps a raw event to a change, or nil when the event
// concerns a directory, a hidden path or only permissions.
func (c *Connector) handleFsEvent(ev fsnotify.Event) *Change {
	if c.hasHiddenSegment(ev.Name) {
		return nil
	}

	file := File{Path: ev.Name, DocumentID: c.DocumentID(ev.Name)}
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		return &Change{Type: ChangeDeleted, File: file}
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		info, err := os.Stat(ev.Name)
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
		if ev.Has(fsnotify.Create) {
			return &Change{Type: ChangeCreated, File: file}
		}
		return &Change{Type: ChangeUpdated, File: file}
	default:
		return nil
	}
}

// Close stops any active watch. It is safe to call more than once.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.watcher != nil {
		err := c.watcher.Close()
		c.watcher = nil
		return err
	}
	return nil
}

func (c *Connector) stat() (os.FileInfo, error) {
	info, err := os.Stat(c.rootPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("root path error: %s does not exist", c.rootPath)
		}
		return nil, fmt.Errorf("root path error: %w", err)
	}
	return info, nil
}

func (c *Connector) hasHiddenSegment(path string) bool {
	rel, err := filepath.Rel(c.rootPath, path)
	if err != nil {
		return isHidden(filepath.Base(path))
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if isHidden(part) {
			return true
		}
	}
	return false
}

func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
