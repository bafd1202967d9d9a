// Package ffmpeg locates and runs the ffmpeg and ffplay binaries.
//
// Unlike tools that bundle or download ffmpeg, clipsift expects it to be
// installed: segmentation is a workstation task and every supported
// platform has a package manager that provides it.
package ffmpeg

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Environment variables overriding binary discovery.
const (
	EnvFFmpegPath = "FFMPEG_PATH"
	EnvFFplayPath = "FFPLAY_PATH"
)

// minMajorVersion is the oldest ffmpeg major version known to handle the
// concat demuxer and sample-accurate -ss/-to cuts we rely on.
const minMajorVersion = 4

// Resolver locates ffmpeg and ffplay binaries.
type Resolver struct {
	getenv   func(string) string
	lookPath func(string) (string, error)
	stat     func(string) (os.FileInfo, error)
	stderr   io.Writer
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithGetenv sets the environment lookup (for testing).
func WithGetenv(fn func(string) string) ResolverOption {
	return func(r *Resolver) { r.getenv = fn }
}

// WithLookPath sets the PATH lookup (for testing).
func WithLookPath(fn func(string) (string, error)) ResolverOption {
	return func(r *Resolver) { r.lookPath = fn }
}

// WithStat sets the file stat function (for testing).
func WithStat(fn func(string) (os.FileInfo, error)) ResolverOption {
	return func(r *Resolver) { r.stat = fn }
}

// WithStderr sets the writer for warnings.
func WithStderr(w io.Writer) ResolverOption {
	return func(r *Resolver) { r.stderr = w }
}

// NewResolver creates a Resolver with production defaults.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		getenv:   os.Getenv,
		lookPath: exec.LookPath,
		stat:     os.Stat,
		stderr:   os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve finds ffmpeg: FFMPEG_PATH first (error if set but missing),
// then the system PATH.
func (r *Resolver) Resolve() (string, error) {
	return r.resolve(EnvFFmpegPath, "ffmpeg", ErrNotFound)
}

// ResolvePlayer finds ffplay the same way via FFPLAY_PATH.
func (r *Resolver) ResolvePlayer() (string, error) {
	return r.resolve(EnvFFplayPath, "ffplay", ErrPlayerNotFound)
}

func (r *Resolver) resolve(envVar, binary string, sentinel error) (string, error) {
	if p := r.getenv(envVar); p != "" {
		if _, err := r.stat(p); err != nil {
			return "", fmt.Errorf("%w: %s is set to %q but no binary exists there", sentinel, envVar, p)
		}
		return p, nil
	}

	p, err := r.lookPath(binary)
	if err != nil {
		return "", fmt.Errorf("%w: install it or set %s", sentinel, envVar)
	}
	return p, nil
}

// CheckVersion parses `ffmpeg -version` and warns on stderr when the
// installed major version is below the supported minimum. Failures to run
// or parse are ignored: the version check is advisory.
func (r *Resolver) CheckVersion(ctx context.Context, runner Runner, ffmpegPath string) {
	out, err := RunStderr(ctx, runner, ffmpegPath, []string{"-version"})
	if err != nil && out == "" {
		return
	}

	line, _, _ := strings.Cut(out, "\n")
	var major int
	if _, err := fmt.Sscanf(line, "ffmpeg version %d", &major); err != nil {
		// Distribution builds prefix the version with "n".
		if _, err := fmt.Sscanf(line, "ffmpeg version n%d", &major); err != nil {
			return
		}
	}

	if major < minMajorVersion {
		fmt.Fprintf(r.stderr, "Warning: ffmpeg version %d detected, version %d+ recommended\n",
			major, minMajorVersion)
	}
}
