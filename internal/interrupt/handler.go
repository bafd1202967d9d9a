// Package interrupt implements double Ctrl+C handling for the extraction
// pipeline: the first interrupt cancels in-flight extraction so the review
// can start on whatever clips exist, a second interrupt within a short
// window aborts the whole run.
package interrupt

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Behavior is the user's intent after the first Ctrl+C.
type Behavior int

const (
	// Continue proceeds to review with the clips extracted so far.
	Continue Behavior = iota
	// Abort discards the run entirely.
	Abort
)

func (b Behavior) String() string {
	switch b {
	case Continue:
		return "Continue"
	case Abort:
		return "Abort"
	default:
		return fmt.Sprintf("Behavior(%d)", b)
	}
}

// ExitCode is the process exit code for an aborted run (128 + SIGINT).
const ExitCode = 130

// abortWindow is how long a second Ctrl+C counts as an abort.
const abortWindow = 2 * time.Second

// pollInterval is how often WaitForDecision re-checks for an abort.
const pollInterval = 100 * time.Millisecond

// Handler watches SIGINT/SIGTERM and distinguishes "stop extracting"
// from "abort everything".
type Handler struct {
	mu       sync.Mutex
	firstAt  time.Time
	signaled bool
	aborted  bool
	stopped  bool
	cancel   context.CancelFunc
	done     chan struct{}

	exit   func(int)
	now    func() time.Time
	stderr io.Writer
}

// Options carries injectable dependencies for tests.
type Options struct {
	SigCh <-chan os.Signal
	Exit  func(int)
	Now   func() time.Time
	// Stderr receives user-facing messages. Must tolerate concurrent
	// writes; os.Stderr does at the OS level.
	Stderr io.Writer
}

// NewHandler subscribes to SIGINT/SIGTERM and returns the handler plus a
// child context that is canceled on the first signal.
func NewHandler(parent context.Context) (*Handler, context.Context) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return newHandler(parent, Options{SigCh: sigCh})
}

// NewHandlerWithOptions is NewHandler with injected signal channel, clock,
// exit function, and error stream.
func NewHandlerWithOptions(parent context.Context, opts Options) (*Handler, context.Context) {
	return newHandler(parent, opts)
}

func newHandler(parent context.Context, opts Options) (*Handler, context.Context) {
	ctx, cancel := context.WithCancel(parent)

	if opts.Exit == nil {
		opts.Exit = os.Exit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	h := &Handler{
		cancel: cancel,
		done:   make(chan struct{}),
		exit:   opts.Exit,
		now:    opts.Now,
		stderr: opts.Stderr,
	}

	if opts.SigCh != nil {
		go h.listen(opts.SigCh)
	}

	return h, ctx
}

func (h *Handler) listen(sigCh <-chan os.Signal) {
	for {
		select {
		case <-h.done:
			return
		case _, ok := <-sigCh:
			if !ok {
				return
			}

			h.mu.Lock()
			if h.stopped {
				h.mu.Unlock()
				return
			}
			now := h.now()

			if !h.signaled {
				h.signaled = true
				h.firstAt = now
				h.cancel()
				h.mu.Unlock()
				continue
			}

			if now.Sub(h.firstAt) <= abortWindow {
				h.aborted = true
				h.mu.Unlock()
				fmt.Fprintln(h.stderr, "\nAborted.")
				h.exit(ExitCode)
				return // exit may be a no-op in tests
			}

			h.mu.Unlock()
		}
	}
}

// Interrupted reports whether at least one signal was received.
func (h *Handler) Interrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.signaled
}

// WaitForDecision blocks until the abort window closes and returns what
// the user chose. With no interrupt pending it returns Continue at once.
// The message tells the user a second Ctrl+C aborts.
func (h *Handler) WaitForDecision(message string) Behavior {
	h.mu.Lock()
	if !h.signaled {
		h.mu.Unlock()
		return Continue
	}
	if h.aborted {
		h.mu.Unlock()
		return Abort
	}
	firstAt := h.firstAt
	h.mu.Unlock()

	remaining := abortWindow - h.now().Sub(firstAt)
	if remaining <= 0 {
		return Continue
	}

	fmt.Fprintln(h.stderr, message)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(remaining)
	defer deadline.Stop()

	for {
		select {
		case <-deadline.C:
			return Continue
		case <-ticker.C:
			h.mu.Lock()
			aborted := h.aborted
			h.mu.Unlock()
			if aborted {
				return Abort
			}
		}
	}
}

// Stop unsubscribes from signals and ends the listener goroutine.
func (h *Handler) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	signal.Reset(syscall.SIGINT, syscall.SIGTERM)
	close(h.done)
}
