package scratch_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"clipsift/internal/scratch"
)

func TestOpen_CreatesAndWipes(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	// Seed a leftover from a previous session.
	dir := filepath.Join(root, "work")
	if err := os.MkdirAll(dir, 0750); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(dir, "old_segment.wav")
	if err := os.WriteFile(stale, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	d, err := scratch.Open(root, "work")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer func() { _ = d.Close() }()

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("stale file survived the wipe: %v", err)
	}
	if d.Root != dir {
		t.Errorf("Root = %q, want %q", d.Root, dir)
	}
	if d.ID.String() == "" {
		t.Error("session id is empty")
	}
}

func TestOpen_SecondSessionRefused(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	first, err := scratch.Open(root, "work")
	if err != nil {
		t.Fatalf("first Open() error: %v", err)
	}
	defer func() { _ = first.Close() }()

	if _, err := scratch.Open(root, "work"); !errors.Is(err, scratch.ErrBusy) {
		t.Fatalf("second Open() error = %v, want ErrBusy", err)
	}
}

func TestOpen_ReusableAfterClose(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	first, err := scratch.Open(root, "work")
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	second, err := scratch.Open(root, "work")
	if err != nil {
		t.Fatalf("Open() after Close() error: %v", err)
	}
	_ = second.Close()
}

func TestDir_Path(t *testing.T) {
	t.Parallel()

	d, err := scratch.Open(t.TempDir(), "work")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = d.Close() }()

	if got, want := d.Path("a.wav"), filepath.Join(d.Root, "a.wav"); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}
