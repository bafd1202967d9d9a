// Package media resolves timing files to their sibling media assets and
// exposes asset durations probed through ffmpeg.
package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"clipsift/internal/ffmpeg"
)

// ErrNoMatchingMedia indicates no media sibling exists for a timing file.
var ErrNoMatchingMedia = errors.New("no matching media file")

// ErrProbeFailed indicates ffmpeg could not report an asset's duration.
var ErrProbeFailed = errors.New("media probe failed")

// Kind distinguishes audio-only assets from video assets whose audio
// track gets extracted.
type Kind int

const (
	KindAudio Kind = iota
	KindVideo
)

func (k Kind) String() string {
	if k == KindVideo {
		return "video"
	}
	return "audio"
}

// DefaultExtensions is the resolution preference order: video formats
// before audio formats, first existing match wins.
var DefaultExtensions = []string{".mp4", ".mkv", ".avi", ".mp3", ".wav"}

// videoExtensions classifies resolved assets; anything else is audio.
var videoExtensions = map[string]bool{
	".mp4": true,
	".mkv": true,
	".avi": true,
}

// DirectoryLister abstracts directory listing for the pipeline.
type DirectoryLister interface {
	List(dir string) ([]string, error)
}

// OSLister implements DirectoryLister with os.ReadDir, returning file
// names only.
type OSLister struct{}

func (OSLister) List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// Asset is one source media file. Duration is probed lazily on first use
// (decoding cost) and cached for the asset's lifetime.
type Asset struct {
	Path string
	Kind Kind

	ffmpegPath string
	runner     ffmpeg.Runner

	once       sync.Once
	durationMS int
	durErr     error
}

// Base returns the asset's file name without its extension.
func (a *Asset) Base() string {
	name := filepath.Base(a.Path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// DurationMS returns the asset's duration in milliseconds, probing ffmpeg
// on the first call. The result, success or failure, is cached.
func (a *Asset) DurationMS(ctx context.Context) (int, error) {
	a.once.Do(func() {
		a.durationMS, a.durErr = probeDurationMS(ctx, a.runner, a.ffmpegPath, a.Path)
	})
	return a.durationMS, a.durErr
}

// Resolver locates the media sibling for a timing file base name.
type Resolver struct {
	extensions []string
	ffmpegPath string
	runner     ffmpeg.Runner
}

// NewResolver creates a Resolver. A nil or empty extensions slice selects
// DefaultExtensions; a nil runner selects the OS runner.
func NewResolver(ffmpegPath string, extensions []string, runner ffmpeg.Runner) *Resolver {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	if runner == nil {
		runner = ffmpeg.OSRunner{}
	}
	return &Resolver{
		extensions: extensions,
		ffmpegPath: ffmpegPath,
		runner:     runner,
	}
}

// Resolve returns the asset for base within dir, trying the configured
// extensions in order against the given directory listing. Resolution is
// deterministic: identical listings always produce the same asset.
func (r *Resolver) Resolve(dir, base string, entries []string) (*Asset, error) {
	present := make(map[string]bool, len(entries))
	for _, e := range entries {
		present[e] = true
	}

	for _, ext := range r.extensions {
		name := base + ext
		if !present[name] {
			continue
		}
		kind := KindAudio
		if videoExtensions[strings.ToLower(ext)] {
			kind = KindVideo
		}
		return &Asset{
			Path:       filepath.Join(dir, name),
			Kind:       kind,
			ffmpegPath: r.ffmpegPath,
			runner:     r.runner,
		}, nil
	}

	return nil, fmt.Errorf("%w for %q (tried %s)", ErrNoMatchingMedia, base, strings.Join(r.extensions, " "))
}

// durationPattern matches the Duration line ffmpeg prints for any input.
var durationPattern = regexp.MustCompile(`Duration:\s*(\d+):(\d+):(\d+)\.(\d+)`)

// probeDurationMS asks ffmpeg to decode the file headers and parses the
// reported duration. ffmpeg exits non-zero for a null output target, so
// the output is parsed regardless of the exit status.
func probeDurationMS(ctx context.Context, runner ffmpeg.Runner, ffmpegPath, path string) (int, error) {
	out, err := ffmpeg.RunStderr(ctx, runner, ffmpegPath, []string{
		"-i", path,
		"-f", "null", "-",
	})
	if err != nil && out == "" {
		return 0, fmt.Errorf("%w: %s: %v", ErrProbeFailed, path, err)
	}

	m := durationPattern.FindStringSubmatch(out)
	if m == nil {
		return 0, fmt.Errorf("%w: no duration in ffmpeg output for %s", ErrProbeFailed, path)
	}

	h, _ := strconv.Atoi(m[1])
	mi, _ := strconv.Atoi(m[2])
	s, _ := strconv.Atoi(m[3])
	ms := fractionToMS(m[4])

	return h*3600000 + mi*60000 + s*1000 + ms, nil
}

// fractionToMS normalizes a fractional-second field of any width to
// milliseconds ("4" -> 400, "45" -> 450, "4567" -> 456).
func fractionToMS(frac string) int {
	v, _ := strconv.Atoi(frac)
	switch n := len(frac); {
	case n == 1:
		return v * 100
	case n == 2:
		return v * 10
	case n == 3:
		return v
	default:
		for i := n; i > 3; i-- {
			v /= 10
		}
		return v
	}
}
