package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

const dbFile = "docrag.db"

//go:embed schema/*.sql
var schemaFS embed.FS

// Store owns the connection to docrag.db. The vector and conversation
// stores it hands out share that connection.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens dataDir/docrag.db, ~/.docrag/data when dataDir is
// empty, and brings its schema up to date.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("sqlite: locating home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docrag", "data")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}

	file := filepath.Join(dataDir, dbFile)
	// WAL lets searches run while an ingestion batch is being written.
	db, err := sql.Open("sqlite", file+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening %s: %w", file, err)
	}

	if err := upgrade(context.Background(), db, schemaFS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: upgrading schema: %w", err)
	}
	return &Store{db: db, path: file}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file.
func (s *Store) Path() string { return s.path }

// VectorStore returns the chunk store. Closing it leaves the database open.
func (s *Store) VectorStore() *VectorStore {
	return &VectorStore{store: s}
}

// ConversationStore returns the turn store backed by the same database.
func (s *Store) ConversationStore() driven.ConversationStore {
	return &conversationStore{store: s}
}

// schemaVersion reads PRAGMA user_version, which the upgrade sets to the
// number of the last applied script.
func schemaVersion(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}) (int, error) {
	var v int
	err := q.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v)
	return v, err
}

// upgrade applies every schema/NNN_*.sql script numbered above the
// current user_version, each in its own transaction.
func upgrade(ctx context.Context, db *sql.DB, fsys fs.FS) error {
	current, err := schemaVersion(ctx, db)
	if err != nil {
		return err
	}

	scripts, err := fs.Glob(fsys, "schema/*.sql")
	if err != nil {
		return err
	}
	// Glob returns names in lexical order, which the zero padding keeps
	// numeric.
	for _, name := range scripts {
		version, err := scriptVersion(name)
		if err != nil {
			return err
		}
		if version <= current {
			continue
		}

		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		if err := apply(ctx, db, version, string(body)); err != nil {
			return fmt.Errorf("%s: %w", path.Base(name), err)
		}
		logger.Debug("sqlite: applied %s", path.Base(name))
	}
	return nil
}

func scriptVersion(name string) (int, error) {
	prefix, _, ok := strings.Cut(path.Base(name), "_")
	if !ok {
		return 0, errors.New("schema script without number: " + name)
	}
	return strconv.Atoi(prefix)
}

func apply(ctx context.Context, db *sql.DB, version int, script string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, script); err != nil {
		return err
	}
	// PRAGMA does not take bound parameters; version is an int.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return err
	}
	return tx.Commit()
}
