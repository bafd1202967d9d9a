package extract_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"clipsift/internal/extract"
	"clipsift/internal/media"
)

// fixedLister returns a canned listing.
type fixedLister struct {
	entries []string
	err     error
}

func (f fixedLister) List(string) ([]string, error) { return f.entries, f.err }

// recordReporter captures progress reports.
type recordReporter struct {
	mu      sync.Mutex
	reports [][2]int
}

func (r *recordReporter) Report(done, total int) {
	r.mu.Lock()
	r.reports = append(r.reports, [2]int{done, total})
	r.mu.Unlock()
}

func (r *recordReporter) last() [2]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.reports) == 0 {
		return [2]int{-1, -1}
	}
	return r.reports[len(r.reports)-1]
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestBatch_Run(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	// a.srt: two good cues and one fully out of range against a 10s asset.
	writeFile(t, dir, "a.srt",
		"1\n00:00:01,000 --> 00:00:03,500\nhello\n\n"+
			"2\n00:00:04,000 --> 00:00:05,000\nworld\n\n"+
			"3\n00:00:15,000 --> 00:00:17,000\ntoo late\n")
	// b.srt: one cue clamped against a 2s asset.
	writeFile(t, dir, "b.srt", "1\n00:00:01,000 --> 00:00:03,500\nclamped\n")
	// orphan.srt: parses but has no media sibling.
	writeFile(t, dir, "orphan.srt", "1\n00:00:00,000 --> 00:00:01,000\nlost\n")
	// broken.srt: not UTF-8.
	if err := os.WriteFile(filepath.Join(dir, "broken.srt"), []byte{0xff, 0xfe, 0x41}, 0600); err != nil {
		t.Fatal(err)
	}

	entries := []string{"a.srt", "a.mp4", "b.srt", "b.wav", "orphan.srt", "broken.srt"}
	runner := &scriptRunner{durations: map[string]string{
		filepath.Join(dir, "a.mp4"): "00:00:10.00",
		filepath.Join(dir, "b.wav"): "00:00:02.00",
	}}

	resolver := media.NewResolver("ffmpeg", nil, runner)
	extractor, err := extract.NewExtractor("ffmpeg", dir, extract.CodecPCM, extract.WithRunner(runner))
	if err != nil {
		t.Fatal(err)
	}

	reporter := &recordReporter{}
	batch := extract.NewBatch(resolver, extractor,
		extract.WithLister(fixedLister{entries: entries}),
		extract.WithReporter(reporter),
		extract.WithJobs(2))

	res, err := batch.Run(context.Background(), dir)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if res.TimingFiles != 4 {
		t.Errorf("TimingFiles = %d, want 4", res.TimingFiles)
	}
	if res.Unmatched != 1 {
		t.Errorf("Unmatched = %d, want 1", res.Unmatched)
	}
	if res.Unreadable != 1 {
		t.Errorf("Unreadable = %d, want 1", res.Unreadable)
	}
	if res.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", res.Skipped)
	}
	if res.Failed != 0 {
		t.Errorf("Failed = %d, want 0", res.Failed)
	}

	// a.srt's two retained cues then b.srt's one, ordinals sequential.
	if len(res.Segments) != 3 {
		t.Fatalf("Segments = %d, want 3: %+v", len(res.Segments), res.Segments)
	}
	wantIntervals := [][2]int{{1000, 3500}, {4000, 5000}, {1000, 2000}}
	for i, seg := range res.Segments {
		if seg.Ordinal != i {
			t.Errorf("segment %d ordinal = %d", i, seg.Ordinal)
		}
		if seg.StartMS != wantIntervals[i][0] || seg.EndMS != wantIntervals[i][1] {
			t.Errorf("segment %d interval = [%d,%d], want %v", i, seg.StartMS, seg.EndMS, wantIntervals[i])
		}
		if seg.Status != extract.StatusExtracted {
			t.Errorf("segment %d status = %v", i, seg.Status)
		}
	}

	// Progress ends complete: 4 cues extracted or skipped.
	if got := reporter.last(); got != [2]int{4, 4} {
		t.Errorf("final progress = %v, want [4 4]", got)
	}
}

func TestBatch_Run_UnlistableDirIsFatal(t *testing.T) {
	t.Parallel()

	batch := extract.NewBatch(nil, nil, extract.WithLister(fixedLister{err: os.ErrPermission}))
	_, err := batch.Run(context.Background(), "/nope")
	if !errors.Is(err, os.ErrPermission) {
		t.Fatalf("Run() error = %v, want wrapped ErrPermission", err)
	}
}

func TestBatch_Run_ExtractionFailureRecovered(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.srt",
		"1\n00:00:01,000 --> 00:00:02,000\nx\n\n2\n00:00:03,000 --> 00:00:04,000\ny\n")

	runner := &scriptRunner{
		durations: map[string]string{filepath.Join(dir, "a.wav"): "00:00:10.00"},
		failCuts:  true,
	}
	resolver := media.NewResolver("ffmpeg", nil, runner)
	extractor, _ := extract.NewExtractor("ffmpeg", dir, extract.CodecPCM, extract.WithRunner(runner))
	batch := extract.NewBatch(resolver, extractor,
		extract.WithLister(fixedLister{entries: []string{"a.srt", "a.wav"}}))

	res, err := batch.Run(context.Background(), dir)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.Failed != 2 || len(res.Segments) != 0 {
		t.Errorf("Failed = %d, Segments = %d; want 2 failed, 0 segments", res.Failed, len(res.Segments))
	}
}

func TestBatch_Run_Canceled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.srt", "1\n00:00:01,000 --> 00:00:02,000\nx\n")

	runner := &scriptRunner{durations: map[string]string{filepath.Join(dir, "a.wav"): "00:00:10.00"}}
	resolver := media.NewResolver("ffmpeg", nil, runner)
	extractor, _ := extract.NewExtractor("ffmpeg", dir, extract.CodecPCM, extract.WithRunner(runner))
	batch := extract.NewBatch(resolver, extractor,
		extract.WithLister(fixedLister{entries: []string{"a.srt", "a.wav"}}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := batch.Run(ctx, dir)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
}
