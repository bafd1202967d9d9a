package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"clipsift/internal/media"
	"clipsift/internal/timing"
)

// TimingExt is the timing-file extension the batch scans for.
const TimingExt = ".srt"

// ProgressReporter receives extraction progress as (done, total) cues.
type ProgressReporter interface {
	Report(done, total int)
}

// nopReporter is the default reporter.
type nopReporter struct{}

func (nopReporter) Report(int, int) {}

// Result is one batch run's outcome. Segments holds only successfully
// extracted clips, in deterministic order (timing files sorted by name,
// cues in file order) with ordinals assigned to match.
type Result struct {
	Segments    []Segment
	TimingFiles int // timing files found
	Cues        int // cues queued for extraction
	Unmatched   int // timing files without a media sibling
	Unreadable  int // timing files that could not be read or decoded
	Skipped     int // cues discarded as out of range
	Failed      int // cues whose extraction failed
}

// Batch extracts every cue of every timing file in a directory.
//
// Files run concurrently up to the jobs limit, but all cues of one file
// run sequentially on its asset, so each source keeps at most one open
// decoder process at a time. Per-file and per-cue failures are recovered;
// only an unlistable directory is fatal. Cancellation is honored between
// cues, never mid-cut, and already extracted segments survive it.
type Batch struct {
	lister    media.DirectoryLister
	resolver  *media.Resolver
	extractor *Extractor
	jobs      int
	reporter  ProgressReporter
	log       *slog.Logger
}

// BatchOption configures a Batch.
type BatchOption func(*Batch)

// WithJobs bounds how many source files extract concurrently (default 1,
// which preserves the strictly sequential behavior).
func WithJobs(n int) BatchOption {
	return func(b *Batch) {
		if n > 0 {
			b.jobs = n
		}
	}
}

// WithReporter sets the progress reporter.
func WithReporter(r ProgressReporter) BatchOption {
	return func(b *Batch) {
		if r != nil {
			b.reporter = r
		}
	}
}

// WithLogger sets the batch logger.
func WithLogger(l *slog.Logger) BatchOption {
	return func(b *Batch) {
		if l != nil {
			b.log = l
		}
	}
}

// WithLister sets the directory lister (for testing).
func WithLister(l media.DirectoryLister) BatchOption {
	return func(b *Batch) { b.lister = l }
}

// NewBatch creates a Batch over the given resolver and extractor.
func NewBatch(resolver *media.Resolver, extractor *Extractor, opts ...BatchOption) *Batch {
	b := &Batch{
		lister:    media.OSLister{},
		resolver:  resolver,
		extractor: extractor,
		jobs:      1,
		reporter:  nopReporter{},
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// unit is one timing file's work and results.
type unit struct {
	asset    *media.Asset
	cues     []timing.Cue
	segments []Segment
	skipped  int
	failed   int
}

// Run extracts the whole directory and returns all produced segments. On
// context cancellation it returns the segments completed so far together
// with the context's error; the caller decides whether partial output is
// usable.
func (b *Batch) Run(ctx context.Context, dir string) (Result, error) {
	var res Result

	entries, err := b.lister.List(dir)
	if err != nil {
		return res, fmt.Errorf("list directory %s: %w", dir, err)
	}

	units := b.collect(dir, entries, &res)

	total := 0
	for _, u := range units {
		total += len(u.cues)
	}
	res.Cues = total

	var (
		mu   sync.Mutex
		done int
	)
	b.reporter.Report(0, total)
	progress := func(n int) {
		mu.Lock()
		done += n
		b.reporter.Report(done, total)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.jobs)
	for _, u := range units {
		g.Go(func() error {
			return b.runUnit(gctx, u, progress)
		})
	}
	runErr := g.Wait()

	// Flatten in deterministic order and number the segments.
	for _, u := range units {
		res.Skipped += u.skipped
		res.Failed += u.failed
		for _, seg := range u.segments {
			seg.Ordinal = len(res.Segments)
			res.Segments = append(res.Segments, seg)
		}
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return res, runErr
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

// collect parses timing files and resolves their media, recovering from
// every per-file failure.
func (b *Batch) collect(dir string, entries []string, res *Result) []*unit {
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e, TimingExt) {
			names = append(names, e)
		}
	}
	sort.Strings(names)
	res.TimingFiles = len(names)

	var units []*unit
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name)) // #nosec G304 -- path comes from the scanned directory
		if err != nil {
			b.log.Warn("skipping unreadable timing file", "file", name, "error", err)
			res.Unreadable++
			continue
		}

		cues, err := timing.Parse(data)
		if err != nil {
			b.log.Warn("skipping undecodable timing file", "file", name, "error", err)
			res.Unreadable++
			continue
		}
		if len(cues) == 0 {
			b.log.Info("timing file yields no cues", "file", name)
			continue
		}

		base := strings.TrimSuffix(name, TimingExt)
		asset, err := b.resolver.Resolve(dir, base, entries)
		if err != nil {
			b.log.Warn("no media for timing file", "file", name, "error", err)
			res.Unmatched++
			continue
		}

		b.log.Debug("queued timing file", "file", name, "media", asset.Path, "cues", len(cues))
		units = append(units, &unit{asset: asset, cues: cues})
	}
	return units
}

// runUnit extracts one file's cues sequentially. A probe failure abandons
// the remaining cues of the file; out-of-range and extraction failures
// cost only their own cue.
func (b *Batch) runUnit(ctx context.Context, u *unit, progress func(int)) error {
	for i, cue := range u.cues {
		if err := ctx.Err(); err != nil {
			return err
		}

		seg, err := b.extractor.Cut(ctx, u.asset, cue.StartMS, cue.EndMS)
		switch {
		case errors.Is(err, media.ErrProbeFailed):
			remaining := len(u.cues) - i
			u.failed += remaining
			progress(remaining)
			b.log.Warn("media unusable, abandoning its cues",
				"media", u.asset.Path, "cues", remaining, "error", err)
			return nil
		case errors.Is(err, ErrOutOfRange):
			u.skipped++
			progress(1)
			b.log.Info("cue out of range", "media", u.asset.Path, "cue", cue.Index, "range", cue.Range())
		case err != nil:
			u.failed++
			progress(1)
			b.log.Warn("cue extraction failed", "media", u.asset.Path, "cue", cue.Index, "error", err)
		default:
			seg.CueIndex = cue.Index
			seg.Text = cue.Text
			u.segments = append(u.segments, seg)
			progress(1)
			b.log.Debug("extracted", "clip", seg.Path)
		}
	}
	return nil
}
