// Package extract produces bounded audio sub-clips from source media and
// runs the directory-wide extraction batch.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"clipsift/internal/ffmpeg"
	"clipsift/internal/media"
)

// ErrOutOfRange indicates an interval starting at or past the end of its
// asset. Such intervals are discarded, not failed.
var ErrOutOfRange = errors.New("interval out of range")

// ErrExtractionFailed indicates ffmpeg could not write the sub-clip.
var ErrExtractionFailed = errors.New("extraction failed")

// ErrUnknownCodec indicates an unsupported output codec name.
var ErrUnknownCodec = errors.New("unknown audio codec")

// Status tracks a segment through its lifecycle.
type Status int

const (
	StatusPending Status = iota
	StatusExtracted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusExtracted:
		return "extracted"
	case StatusFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Segment is one extracted audio sub-clip. Ordinal is its position in the
// session-wide segment list; CueIndex and Text carry the source block's
// numbering and text for diagnostics only. Interval bounds are post-clamp.
type Segment struct {
	Ordinal  int
	Source   *media.Asset
	StartMS  int
	EndMS    int
	Path     string
	Status   Status
	CueIndex int
	Text     string
}

// Codec selects the output audio encoding.
type Codec string

const (
	CodecPCM Codec = "pcm"
	CodecMP3 Codec = "mp3"
	CodecOGG Codec = "ogg"
)

// ParseCodec validates a codec name from config or flags.
func ParseCodec(s string) (Codec, error) {
	switch Codec(s) {
	case CodecPCM, CodecMP3, CodecOGG:
		return Codec(s), nil
	default:
		return "", fmt.Errorf("%w: %q (want pcm, mp3, or ogg)", ErrUnknownCodec, s)
	}
}

// Ext returns the container extension for the codec.
func (c Codec) Ext() string {
	switch c {
	case CodecMP3:
		return ".mp3"
	case CodecOGG:
		return ".ogg"
	default:
		return ".wav"
	}
}

// encodeArgs returns the ffmpeg encoder arguments for the codec.
func (c Codec) encodeArgs() []string {
	switch c {
	case CodecMP3:
		return []string{"-c:a", "libmp3lame", "-q:a", "2"}
	case CodecOGG:
		return []string{"-c:a", "libvorbis", "-q:a", "2"}
	default:
		return []string{"-c:a", "pcm_s16le"}
	}
}

// ClipName is the deterministic output file name for a clamped interval:
// the same (source base, start, end) always maps to the same name, which
// makes re-extraction idempotent. Content addressing is by timing, not by
// a content hash.
func ClipName(base string, startMS, endMS int, ext string) string {
	return fmt.Sprintf("%s_%08d-%08d%s", base, startMS, endMS, ext)
}

// seconds is the single conversion point from internal milliseconds to
// ffmpeg's floating-point seconds, avoiding double rounding elsewhere.
func seconds(ms int) string {
	return strconv.FormatFloat(float64(ms)/1000.0, 'f', 3, 64)
}

// Extractor cuts audio sub-clips out of media assets into a fixed
// output directory.
type Extractor struct {
	ffmpegPath string
	outDir     string
	codec      Codec
	sampleRate int
	runner     ffmpeg.Runner
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithSampleRate resamples output to the given rate; 0 keeps the source rate.
func WithSampleRate(hz int) ExtractorOption {
	return func(e *Extractor) { e.sampleRate = hz }
}

// WithRunner sets the command runner (for testing).
func WithRunner(r ffmpeg.Runner) ExtractorOption {
	return func(e *Extractor) { e.runner = r }
}

// NewExtractor creates an Extractor writing codec-encoded clips to outDir.
func NewExtractor(ffmpegPath, outDir string, codec Codec, opts ...ExtractorOption) (*Extractor, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpegPath cannot be empty: %w", ffmpeg.ErrNotFound)
	}
	if _, err := ParseCodec(string(codec)); err != nil {
		return nil, err
	}

	e := &Extractor{
		ffmpegPath: ffmpegPath,
		outDir:     outDir,
		codec:      codec,
		runner:     ffmpeg.OSRunner{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Cut extracts the asset's audio between startMS and endMS, clamped to the
// asset's real duration. Returns ErrOutOfRange when the interval starts at
// or past the end of the asset (the interval is discarded), and
// ErrExtractionFailed when ffmpeg cannot write the clip. Probe errors pass
// through unwrapped so the caller can give up on the whole asset.
func (e *Extractor) Cut(ctx context.Context, asset *media.Asset, startMS, endMS int) (Segment, error) {
	durationMS, err := asset.DurationMS(ctx)
	if err != nil {
		return Segment{}, err
	}

	if startMS >= durationMS {
		return Segment{}, fmt.Errorf("%w: start %dms >= duration %dms in %s",
			ErrOutOfRange, startMS, durationMS, asset.Path)
	}
	endMS = min(endMS, durationMS)

	outPath := filepath.Join(e.outDir, ClipName(asset.Base(), startMS, endMS, e.codec.Ext()))

	args := []string{
		"-y",
		"-i", asset.Path,
		"-ss", seconds(startMS),
		"-to", seconds(endMS),
		"-vn",
		"-ac", "1",
	}
	if e.sampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(e.sampleRate))
	}
	args = append(args, e.codec.encodeArgs()...)
	args = append(args, outPath)

	if out, err := e.runner.CombinedOutput(ctx, e.ffmpegPath, args); err != nil {
		_ = os.Remove(outPath) // drop any partial write
		return Segment{}, fmt.Errorf("%w: %s [%s, %s]: %v\n%s",
			ErrExtractionFailed, asset.Path, seconds(startMS), seconds(endMS), err, out)
	}

	return Segment{
		Source:  asset,
		StartMS: startMS,
		EndMS:   endMS,
		Path:    outPath,
		Status:  StatusExtracted,
	}, nil
}
