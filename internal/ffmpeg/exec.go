package ffmpeg

import (
	"bytes"
	"context"
	"os/exec"
)

// Runner executes an external command and returns its combined output.
// Production code uses OSRunner; tests substitute a fake.
type Runner interface {
	CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error)
}

// OSRunner implements Runner with exec.CommandContext.
type OSRunner struct{}

func (OSRunner) CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error) {
	// #nosec G204 -- name and args are constructed by this program, not user input
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// RunStderr executes ffmpeg and returns its stderr output. ffmpeg writes
// diagnostic output (durations, stream info) to stderr and often exits
// non-zero for operations that still produced the data we need, so the
// output is returned alongside any error and callers decide which matters.
func RunStderr(ctx context.Context, r Runner, ffmpegPath string, args []string) (string, error) {
	out, err := r.CombinedOutput(ctx, ffmpegPath, args)
	return string(bytes.TrimSpace(out)), err
}
