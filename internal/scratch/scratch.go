// Package scratch manages the session-owned working directory that holds
// extracted segments. The directory lives under the process temp root at a
// fixed, well-known name, is wiped when a session opens it, and is guarded
// by a file lock so concurrent sessions cannot share it.
package scratch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// ErrBusy indicates another session holds the scratch directory.
var ErrBusy = errors.New("scratch directory is in use by another session")

// lockName is the lock file inside the scratch root. It survives the wipe.
const lockName = ".lock"

// DefaultName is the well-known scratch subdirectory name.
const DefaultName = "clipsift"

// Dir is an exclusively held scratch directory for one session.
type Dir struct {
	Root string
	// ID tags this session in logs and summaries.
	ID uuid.UUID

	lock *flock.Flock
}

// Open creates (or reuses) tempRoot/name, acquires its lock, and removes
// everything left over from earlier sessions. An empty tempRoot selects
// os.TempDir(); an empty name selects DefaultName.
func Open(tempRoot, name string) (*Dir, error) {
	if tempRoot == "" {
		tempRoot = os.TempDir()
	}
	if name == "" {
		name = DefaultName
	}
	root := filepath.Join(tempRoot, name)

	if err := os.MkdirAll(root, 0750); err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}

	lock := flock.New(filepath.Join(root, lockName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock scratch directory: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrBusy, root)
	}

	d := &Dir{
		Root: root,
		ID:   uuid.New(),
		lock: lock,
	}
	if err := d.wipe(); err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	return d, nil
}

// Path joins name onto the scratch root.
func (d *Dir) Path(name string) string {
	return filepath.Join(d.Root, name)
}

// wipe removes every entry except the lock file.
func (d *Dir) wipe() error {
	entries, err := os.ReadDir(d.Root)
	if err != nil {
		return fmt.Errorf("read scratch directory: %w", err)
	}
	for _, e := range entries {
		if e.Name() == lockName {
			continue
		}
		if err := os.RemoveAll(filepath.Join(d.Root, e.Name())); err != nil {
			return fmt.Errorf("clear scratch directory: %w", err)
		}
	}
	return nil
}

// Close releases the lock. Extracted files stay on disk so the user can
// still reach the session's output; the next session wipes them.
func (d *Dir) Close() error {
	return d.lock.Unlock()
}
