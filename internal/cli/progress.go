package cli

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/mattn/go-isatty"
)

// reporter sits between the extraction batch and the terminal. On a
// terminal it renders a live go-pretty progress bar; elsewhere it prints
// plain milestone lines so logs stay readable.
type reporter interface {
	Report(done, total int)
	Close()
}

// newReporter picks the rendering mode for the given output.
func newReporter(w io.Writer) reporter {
	if f, ok := w.(*os.File); ok {
		fd := f.Fd()
		if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
			return &barReporter{w: w}
		}
	}
	return &lineReporter{w: w, lastDecile: -1}
}

// barReporter renders a single live progress tracker.
type barReporter struct {
	w       io.Writer
	once    sync.Once
	pw      progress.Writer
	tracker *progress.Tracker
}

func (r *barReporter) Report(done, total int) {
	r.once.Do(func() {
		r.pw = progress.NewWriter()
		r.pw.SetOutputWriter(r.w)
		r.pw.SetTrackerLength(25)
		r.pw.SetUpdateFrequency(100 * time.Millisecond)
		r.tracker = &progress.Tracker{Message: "extracting clips", Total: int64(total)}
		r.pw.AppendTracker(r.tracker)
		go r.pw.Render()
	})
	r.tracker.SetValue(int64(done))
	if done >= total {
		r.tracker.MarkAsDone()
	}
}

func (r *barReporter) Close() {
	if r.pw == nil {
		return
	}
	r.tracker.MarkAsDone()
	r.pw.Stop()
	// Let the renderer flush its final frame before the summary prints.
	for r.pw.IsRenderInProgress() {
		time.Sleep(10 * time.Millisecond)
	}
}

// lineReporter prints one line per completed decile.
type lineReporter struct {
	w          io.Writer
	mu         sync.Mutex
	lastDecile int
}

func (r *lineReporter) Report(done, total int) {
	if total <= 0 {
		return
	}
	decile := done * 10 / total
	r.mu.Lock()
	defer r.mu.Unlock()
	if decile <= r.lastDecile {
		return
	}
	r.lastDecile = decile
	fmt.Fprintf(r.w, "extracted %d/%d clips\n", done, total)
}

func (r *lineReporter) Close() {}
