package recordstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Backend persists the full record sequence as one unit.
type Backend interface {
	// Load returns the persisted sequence, or ErrNoDocument when nothing
	// has been written yet.
	Load(ctx context.Context) ([]Record, error)
	// Save replaces the persisted sequence. It must be atomic: a failed
	// Save leaves the previous document intact.
	Save(ctx context.Context, records []Record) error
}

// FileBackend keeps the sequence in a single JSON document on disk.
type FileBackend struct {
	path string
	perm fs.FileMode
}

// NewFileBackend returns a backend bound to path. The file is not touched
// until the first Load or Save.
func NewFileBackend(path string) *FileBackend {
	if path == "" {
		path = "precinct_strategy.json"
	}
	return &FileBackend{path: path, perm: 0o640}
}

// Path returns the configured document path.
func (b *FileBackend) Path() string { return b.path }

func (b *FileBackend) Load(ctx context.Context) ([]Record, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", b.path, err)
	}
	return decodeDocument(data)
}

func (b *FileBackend) Save(ctx context.Context, records []Record) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	data, err := encodeDocument(records)
	if err != nil {
		return err
	}
	return writeFileAtomic(b.path, data, b.perm)
}

// writeFileAtomic writes to a temp file in the target directory, syncs it,
// then renames it over path.
func writeFileAtomic(path string, data []byte, perm fs.FileMode) (retErr error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create dirs: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}

	// Best effort: persist the rename itself.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
