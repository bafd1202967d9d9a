package cli

import "errors"

// CLI-specific sentinel errors. Validation and flow errors that don't
// belong to domain packages.

var (
	// ErrNotInteractive indicates the review needs a terminal on stdin/stdout.
	ErrNotInteractive = errors.New("interactive review requires a terminal")

	// ErrNotADirectory indicates the given path is not a readable directory.
	ErrNotADirectory = errors.New("not a directory")

	// ErrNoClips indicates a run produced no extractable clips.
	ErrNoClips = errors.New("no clips extracted")

	// ErrAborted indicates the user aborted via double Ctrl+C.
	ErrAborted = errors.New("aborted")
)
