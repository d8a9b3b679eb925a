package upload

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrDirExists is returned by NewBatch when the target directory is
// already present, meaning a writeup with the same slug exists.
var ErrDirExists = errors.New("asset directory already exists")

// Batch stages asset writes into a freshly created directory. If any
// asset fails validation the whole directory is removed, so no partial
// writeup is ever published.
//
// The rollback covers failures within one request. It is at-least-once,
// not exactly-once: a process crash between WriteFile calls can leave a
// partial directory behind for the operator to remove.
type Batch struct {
	dir       string
	committed bool
}

// NewBatch creates dir (and parents) and returns a batch rooted there.
func NewBatch(dir string) (*Batch, error) {
	if _, err := os.Stat(dir); err == nil {
		return nil, ErrDirExists
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("checking asset directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating asset directory: %w", err)
	}
	return &Batch{dir: dir}, nil
}

// Dir returns the staged directory path.
func (b *Batch) Dir() string { return b.dir }

// WriteFile writes one asset into the batch directory. name must
// already be sanitized; anything resolving outside the directory is
// rejected.
func (b *Batch) WriteFile(name string, data []byte) error {
	dest := filepath.Join(b.dir, name)
	if filepath.Dir(dest) != filepath.Clean(b.dir) {
		return validationErrorf("invalid asset filename: %s", name)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("writing asset %s: %w", name, err)
	}
	return nil
}

// Commit marks the batch as complete so Abort becomes a no-op.
func (b *Batch) Commit() {
	b.committed = true
}

// Abort deletes the staged directory unless the batch was committed.
// Safe to defer unconditionally.
func (b *Batch) Abort() error {
	if b.committed {
		return nil
	}
	return os.RemoveAll(b.dir)
}
