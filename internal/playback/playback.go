// Package playback implements the session Player on top of ffplay.
//
// Each Play spawns one ffplay process for the loaded file; Pause and
// Resume suspend and continue that process with job-control signals, so
// the bundled engine is unix-only. The session engine only sees the
// Player interface, so a different backend can replace this one without
// touching review logic.
package playback

import (
	"errors"
	"fmt"
	"os/exec"
	"sync"
)

// ErrNoFileLoaded indicates Play was called before Load.
var ErrNoFileLoaded = errors.New("no file loaded")

// ErrUnsupported indicates process-signal pause is unavailable on this
// platform.
var ErrUnsupported = errors.New("pause is not supported on this platform")

// FFPlay drives a local ffplay process.
type FFPlay struct {
	ffplayPath string

	mu      sync.Mutex
	path    string
	cmd     *exec.Cmd
	playing bool
	paused  bool
}

// NewFFPlay creates a player using the given ffplay binary.
func NewFFPlay(ffplayPath string) *FFPlay {
	return &FFPlay{ffplayPath: ffplayPath}
}

// Load stops any current playback and stages path for the next Play.
func (p *FFPlay) Load(path string) error {
	if err := p.Stop(); err != nil {
		return err
	}
	p.mu.Lock()
	p.path = path
	p.mu.Unlock()
	return nil
}

// buildArgs assembles the ffplay invocation. Looped playback repeats the
// clip until the process is stopped; otherwise the process exits at the
// end of the file.
func buildArgs(path string, loop bool) []string {
	args := []string{"-nodisp", "-loglevel", "quiet"}
	if loop {
		args = append(args, "-loop", "0")
	} else {
		args = append(args, "-autoexit")
	}
	return append(args, path)
}

// Play starts playback of the loaded file.
func (p *FFPlay) Play(loop bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.path == "" {
		return ErrNoFileLoaded
	}

	// #nosec G204 -- binary and file path are resolved by this program
	cmd := exec.Command(p.ffplayPath, buildArgs(p.path, loop)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffplay: %w", err)
	}
	p.cmd = cmd
	p.playing = true
	p.paused = false

	// Reap the process; non-looped playback ends on its own.
	go func() {
		_ = cmd.Wait()
		p.mu.Lock()
		if p.cmd == cmd {
			p.playing = false
			p.cmd = nil
		}
		p.mu.Unlock()
	}()

	return nil
}

// Pause suspends the playback process.
func (p *FFPlay) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd == nil || !p.playing || p.paused {
		return nil
	}
	if err := signalPause(p.cmd.Process); err != nil {
		return err
	}
	p.paused = true
	return nil
}

// Resume continues a paused playback process.
func (p *FFPlay) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd == nil || !p.paused {
		return nil
	}
	if err := signalResume(p.cmd.Process); err != nil {
		return err
	}
	p.paused = false
	return nil
}

// IsPlaying reports whether audio is currently audible.
func (p *FFPlay) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing && !p.paused
}

// Stop kills the playback process, if any.
func (p *FFPlay) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd == nil {
		return nil
	}
	// A paused process cannot handle SIGKILL's reaping promptly unless
	// resumed first.
	if p.paused {
		_ = signalResume(p.cmd.Process)
	}
	if err := p.cmd.Process.Kill(); err != nil {
		return fmt.Errorf("stop ffplay: %w", err)
	}
	p.cmd = nil
	p.playing = false
	p.paused = false
	return nil
}
