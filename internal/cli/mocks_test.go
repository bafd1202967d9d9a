package cli_test

// Shared fakes for command tests. All commands run against an Env whose
// runner, binaries, config store, and playback are faked; the directory
// lister and filesystem are real (t.TempDir).

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/spf13/cobra"

	"clipsift/internal/config"
	"clipsift/internal/ffmpeg"
	"clipsift/internal/interrupt"
	"clipsift/internal/session"
)

// executeCommand runs a cobra command with cobra's own output silenced;
// the command under test writes to the Env streams instead.
func executeCommand(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(context.Background())
}

// fakeRunner scripts ffmpeg invocations: probes report a fixed duration,
// cuts and concats create their output file so later stat calls succeed.
type fakeRunner struct {
	mu       sync.Mutex
	duration string // HH:MM:SS.cc reported for every probe
	failCuts bool
	calls    [][]string
}

func (r *fakeRunner) CombinedOutput(_ context.Context, _ string, args []string) ([]byte, error) {
	r.mu.Lock()
	r.calls = append(r.calls, slices.Clone(args))
	failCuts := r.failCuts
	d := r.duration
	r.mu.Unlock()

	if slices.Contains(args, "null") {
		if d == "" {
			d = "00:00:10.00"
		}
		return fmt.Appendf(nil, "Input #0\n  Duration: %s, bitrate: 256 kb/s", d), errors.New("exit status 1")
	}

	if failCuts && !slices.Contains(args, "concat") {
		return []byte("boom"), errors.New("exit status 1")
	}

	// Cut and concat invocations both name their output last.
	out := args[len(args)-1]
	if err := os.WriteFile(out, []byte("audio"), 0600); err != nil {
		return nil, err
	}
	return nil, nil
}

func (r *fakeRunner) concatCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, call := range r.calls {
		if slices.Contains(call, "concat") {
			n++
		}
	}
	return n
}

// fakeBinaries resolves fixed paths and skips the version check.
type fakeBinaries struct{}

func (fakeBinaries) Resolve() (string, error)       { return "/usr/bin/ffmpeg", nil }
func (fakeBinaries) ResolvePlayer() (string, error) { return "/usr/bin/ffplay", nil }
func (fakeBinaries) CheckVersion(context.Context, ffmpeg.Runner, string) {}

// fakeStore serves a fixed config and records saves.
type fakeStore struct {
	mu    sync.Mutex
	cfg   config.Config
	saved []config.Config
}

func newFakeStore() *fakeStore { return &fakeStore{cfg: config.Default()} }

func (s *fakeStore) Load() (config.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg, nil
}

func (s *fakeStore) Save(cfg config.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	s.saved = append(s.saved, cfg)
	return nil
}

// fakePlayer records playback calls without running anything.
type fakePlayer struct {
	mu      sync.Mutex
	loaded  []string
	playing bool
	stops   int
}

func (p *fakePlayer) Load(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loaded = append(p.loaded, path)
	return nil
}

func (p *fakePlayer) Play(bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = true
	return nil
}

func (p *fakePlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
	return nil
}

func (p *fakePlayer) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = true
	return nil
}

func (p *fakePlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *fakePlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
	p.stops++
	return nil
}

var _ session.Player = (*fakePlayer)(nil)

// quietInterrupt builds handlers with no signal subscription so tests
// never race with real SIGINT delivery.
func quietInterrupt(parent context.Context) (*interrupt.Handler, context.Context) {
	return interrupt.NewHandlerWithOptions(parent, interrupt.Options{})
}

// writeDataset creates a directory with one timing file and its media
// sibling, plus any extra files, and returns its path.
func writeDataset(t *testing.T, cues string, extra ...string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ep1.srt"), []byte(cues), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ep1.wav"), []byte("riff"), 0600); err != nil {
		t.Fatal(err)
	}
	for _, name := range extra {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// writeBinary writes bytes that fail UTF-8 validation.
func writeBinary(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte{0xff, 0xfe, 0x81, 0x00}, 0600); err != nil {
		t.Fatal(err)
	}
}

// twoCues is a well-formed timing file with two in-range cues.
const twoCues = `1
00:00:01,000 --> 00:00:02,500
first line

2
00:00:03,000 --> 00:00:04,000
second line
`
