// Package concat joins accepted clips into one output audio file.
//
// The join is all-or-nothing: ffmpeg writes to a temporary file that is
// renamed into place only on success, so a failed run leaves no partial
// output behind.
package concat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"clipsift/internal/extract"
	"clipsift/internal/ffmpeg"
)

// ErrEmptySelection indicates there was nothing to concatenate. Reported,
// non-fatal.
var ErrEmptySelection = errors.New("no segments selected")

// ErrConcatFailed indicates the join itself failed; no output exists.
var ErrConcatFailed = errors.New("concatenation failed")

// Concatenator joins extracted clips with the ffmpeg concat demuxer.
type Concatenator struct {
	ffmpegPath string
	runner     ffmpeg.Runner
}

// New creates a Concatenator. A nil runner selects the OS runner.
func New(ffmpegPath string, runner ffmpeg.Runner) *Concatenator {
	if runner == nil {
		runner = ffmpeg.OSRunner{}
	}
	return &Concatenator{ffmpegPath: ffmpegPath, runner: runner}
}

// Concat joins segments end-to-end, in the order given, into outPath.
// The caller passes the selection in acceptance order; this function
// preserves whatever order it receives. Every segment file must be
// readable up front, and any mid-join failure aborts the whole operation.
func (c *Concatenator) Concat(ctx context.Context, segments []extract.Segment, outPath string) error {
	if len(segments) == 0 {
		return ErrEmptySelection
	}

	for _, seg := range segments {
		if _, err := os.Stat(seg.Path); err != nil {
			return fmt.Errorf("%w: segment %d unreadable: %v", ErrConcatFailed, seg.Ordinal, err)
		}
	}

	outDir := filepath.Dir(outPath)

	listFile, err := writeListFile(outDir, segments)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConcatFailed, err)
	}
	defer func() { _ = os.Remove(listFile) }()

	tmp, err := os.CreateTemp(outDir, ".concat-*"+filepath.Ext(outPath))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConcatFailed, err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()

	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c", "copy",
		tmpPath,
	}
	if out, err := c.runner.CombinedOutput(ctx, c.ffmpegPath, args); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: %v\n%s", ErrConcatFailed, err, out)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrConcatFailed, err)
	}
	return nil
}

// writeListFile emits the concat demuxer's input list next to the output.
func writeListFile(dir string, segments []extract.Segment) (string, error) {
	f, err := os.CreateTemp(dir, ".concat-list-*.txt")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, seg := range segments {
		abs, err := filepath.Abs(seg.Path)
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
			return "", err
		}
		fmt.Fprintf(&b, "file '%s'\n", escapeListPath(abs))
	}

	if _, err := f.WriteString(b.String()); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// escapeListPath escapes single quotes for the concat demuxer's quoted
// file directive.
func escapeListPath(p string) string {
	return strings.ReplaceAll(p, "'", `'\''`)
}
