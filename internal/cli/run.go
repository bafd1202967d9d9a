package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"clipsift/internal/concat"
	"clipsift/internal/config"
	"clipsift/internal/extract"
	"clipsift/internal/format"
	"clipsift/internal/interrupt"
	"clipsift/internal/media"
	"clipsift/internal/scratch"
	"clipsift/internal/session"
)

// runOptions holds the validated options for the run command.
type runOptions struct {
	dir  string
	jobs int
}

// RunCmd creates the run command.
// The env parameter provides injectable dependencies for testing.
func RunCmd(env *Env) *cobra.Command {
	var jobs int

	cmd := &cobra.Command{
		Use:   "run <dir>",
		Short: "Extract clips from a directory and review them interactively",
		Long: `Extract one audio clip per timing cue from every media file in <dir>,
then review the clips one by one with looped playback.

Review commands (press Enter after each):
  a   accept the current clip and move on
  s   skip the current clip
  u   undo the last accept or skip
  p   pause or resume playback
  c   stop reviewing and concatenate what is accepted so far
  q   quit without concatenating

During extraction, Ctrl+C once stops extracting and continues to review
with the clips finished so far; Ctrl+C twice within 2 seconds aborts.`,
		Example: `  clipsift run ./dataset
  clipsift run -j 4 ./dataset`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), env, runOptions{dir: args[0], jobs: jobs})
		},
	}

	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "Source files to extract concurrently (default from config)")

	return cmd
}

// runRun executes the full extract-review-concat pipeline.
func runRun(ctx context.Context, env *Env, opts runOptions) error {
	if !env.Interactive() {
		return fmt.Errorf("%w (use \"cull\" for scripted runs)", ErrNotInteractive)
	}
	if err := checkDirectory(opts.dir); err != nil {
		return err
	}

	cfg := loadConfig(env)
	if opts.jobs > 0 {
		cfg.ExtractJobs = opts.jobs
	}

	ffmpegPath, err := env.Binaries.Resolve()
	if err != nil {
		return err
	}
	ffplayPath, err := env.Binaries.ResolvePlayer()
	if err != nil {
		return err
	}
	env.Binaries.CheckVersion(ctx, env.Runner, ffmpegPath)

	dir, err := scratch.Open(env.TempRoot, cfg.ScratchDirName)
	if err != nil {
		return err
	}
	defer func() { _ = dir.Close() }()

	log := env.Logger.With("session", dir.ID)
	log.Info("session started", "dir", opts.dir, "scratch", dir.Root)

	res, err := extractAll(ctx, env, cfg, ffmpegPath, dir, opts.dir)
	if err != nil {
		return err
	}
	if len(res.Segments) == 0 {
		fmt.Fprintln(env.Stderr, "Nothing to review: no clips could be extracted.")
		printBatchIssues(env.Stderr, res)
		return ErrNoClips
	}

	sess := session.New(res.Segments)
	engine := session.NewEngine(sess, env.NewPlayer(ffplayPath), log)
	in := bufio.NewScanner(env.Stdin)
	wantConcat, err := review(env, in, engine)
	if err != nil {
		return err
	}

	selected := sess.Selected()
	if wantConcat && len(selected) > 0 {
		if err := concatSelected(ctx, env, in, cfg, ffmpegPath, selected); err != nil {
			return err
		}
	} else if len(selected) == 0 {
		fmt.Fprintln(env.Stderr, "No clips accepted.")
	} else {
		fmt.Fprintf(env.Stderr, "Accepted clips left in %s\n", dir.Root)
	}

	printSummary(env, dir.ID.String(), res, sess)
	return nil
}

// extractAll runs the batch with progress reporting and double Ctrl+C
// handling. The first interrupt yields the segments finished so far.
func extractAll(ctx context.Context, env *Env, cfg config.Config, ffmpegPath string, dir *scratch.Dir, srcDir string) (extract.Result, error) {
	codec, err := extract.ParseCodec(cfg.AudioCodec)
	if err != nil {
		return extract.Result{}, err
	}
	extractor, err := extract.NewExtractor(ffmpegPath, dir.Root, codec,
		extract.WithSampleRate(cfg.SampleRate),
		extract.WithRunner(env.Runner),
	)
	if err != nil {
		return extract.Result{}, err
	}

	resolver := media.NewResolver(ffmpegPath, cfg.MediaExtensions, env.Runner)
	rep := newReporter(env.Stderr)
	batch := extract.NewBatch(resolver, extractor,
		extract.WithJobs(cfg.ExtractJobs),
		extract.WithReporter(rep),
		extract.WithLogger(env.Logger),
		extract.WithLister(env.Lister),
	)

	handler, bctx := env.NewInterrupt(ctx)
	res, runErr := batch.Run(bctx, srcDir)
	rep.Close()

	if handler.Interrupted() {
		decision := handler.WaitForDecision("Interrupted. Press Ctrl+C again within 2s to abort; continuing to review otherwise.")
		handler.Stop()
		if decision == interrupt.Abort {
			return res, ErrAborted
		}
		fmt.Fprintf(env.Stderr, "Continuing with %d extracted clips.\n", len(res.Segments))
		return res, nil
	}
	handler.Stop()

	return res, runErr
}

// review drives the interactive loop until the session completes or the
// user bails out. Returns whether accepted clips should be concatenated.
func review(env *Env, in *bufio.Scanner, engine *session.Engine) (bool, error) {
	if err := engine.Start(); err != nil {
		return false, err
	}
	defer func() { _ = engine.Finish() }()

	sess := engine.Session()

	for engine.State() != session.StateComplete {
		printCurrent(env, sess)
		fmt.Fprint(env.Stdout, "(a)ccept (s)kip (u)ndo (p)ause (c)oncat (q)uit > ")

		if !in.Scan() {
			// EOF on stdin ends the review without concatenating.
			fmt.Fprintln(env.Stdout)
			return false, in.Err()
		}

		var err error
		switch strings.TrimSpace(strings.ToLower(in.Text())) {
		case "a":
			err = engine.Handle(session.EventAccept)
		case "s":
			err = engine.Handle(session.EventSkip)
		case "u":
			err = engine.Handle(session.EventUndo)
		case "p":
			err = engine.Handle(session.EventToggle)
		case "c":
			return true, nil
		case "q":
			return false, nil
		case "":
			continue
		default:
			fmt.Fprintln(env.Stdout, "unknown command")
			continue
		}

		switch {
		case err == nil:
		case errors.Is(err, session.ErrEndOfSession):
			fmt.Fprintln(env.Stdout, "last clip: accept it, undo, or quit")
		case errors.Is(err, session.ErrEmptyHistory):
			fmt.Fprintln(env.Stdout, "nothing to undo")
		default:
			return false, err
		}
	}

	fmt.Fprintf(env.Stdout, "Review complete: %d of %d clips accepted.\n",
		len(sess.Selected()), sess.Len())
	return askYesNo(env, in, "Concatenate accepted clips into one file?"), nil
}

// printCurrent shows the clip under the cursor.
func printCurrent(env *Env, sess *session.Session) {
	seg, ok := sess.Current()
	if !ok {
		return
	}
	line := fmt.Sprintf("[%d/%d] %s  %s", sess.Cursor()+1, sess.Len(),
		seg.Source.Base(), format.Span(seg.StartMS, seg.EndMS))
	if text := oneLine(seg.Text); text != "" {
		line += "  " + text
	}
	fmt.Fprintln(env.Stdout, line)
}

// concatSelected prompts for an output path and writes the joined file.
func concatSelected(ctx context.Context, env *Env, in *bufio.Scanner, cfg config.Config, ffmpegPath string, selected []extract.Segment) error {
	codec, err := extract.ParseCodec(cfg.AudioCodec)
	if err != nil {
		return err
	}
	def := "clips" + codec.Ext()

	fmt.Fprintf(env.Stdout, "Output path [%s]: ", def)
	out := def
	if in.Scan() {
		if answer := strings.TrimSpace(in.Text()); answer != "" {
			out = answer
		}
	}

	if err := concat.New(ffmpegPath, env.Runner).Concat(ctx, selected, out); err != nil {
		return err
	}
	if size, err := fileSize(out); err == nil {
		fmt.Fprintf(env.Stderr, "Wrote %s (%s)\n", out, format.Size(size))
	} else {
		fmt.Fprintf(env.Stderr, "Wrote %s\n", out)
	}
	return nil
}

// printSummary renders the end-of-session table.
func printSummary(env *Env, sessionID string, res extract.Result, sess *session.Session) {
	var totalMS int
	for _, seg := range sess.Selected() {
		totalMS += seg.EndMS - seg.StartMS
	}

	rows := [][]string{
		{"timing files", fmt.Sprintf("%d", res.TimingFiles)},
		{"cues", fmt.Sprintf("%d", res.Cues)},
		{"clips extracted", fmt.Sprintf("%d", len(res.Segments))},
		{"accepted", fmt.Sprintf("%d", len(sess.Selected()))},
		{"accepted duration", format.Clock(totalMS)},
		{"out of range", fmt.Sprintf("%d", res.Skipped)},
		{"failed", fmt.Sprintf("%d", res.Failed)},
		{"session", sessionID},
	}
	fmt.Fprintln(env.Stdout, renderTable(
		[]string{"Summary", ""},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	))
}

// printBatchIssues explains why a batch came back empty.
func printBatchIssues(w io.Writer, res extract.Result) {
	if res.TimingFiles == 0 {
		fmt.Fprintf(w, "No %s files found.\n", extract.TimingExt)
		return
	}
	if res.Unmatched > 0 {
		fmt.Fprintf(w, "%d timing file(s) had no matching media file.\n", res.Unmatched)
	}
	if res.Unreadable > 0 {
		fmt.Fprintf(w, "%d timing file(s) could not be read.\n", res.Unreadable)
	}
	if res.Failed > 0 {
		fmt.Fprintf(w, "%d cue(s) failed to extract.\n", res.Failed)
	}
	if res.Skipped > 0 {
		fmt.Fprintf(w, "%d cue(s) were out of range.\n", res.Skipped)
	}
}

// askYesNo reads a y/N answer; anything but y counts as no.
func askYesNo(env *Env, in *bufio.Scanner, question string) bool {
	fmt.Fprintf(env.Stdout, "%s [y/N] ", question)
	if !in.Scan() {
		return false
	}
	answer := strings.TrimSpace(strings.ToLower(in.Text()))
	return answer == "y" || answer == "yes"
}

// loadConfig loads configuration, falling back to defaults with a warning.
func loadConfig(env *Env) config.Config {
	cfg, err := env.ConfigStore.Load()
	if err != nil {
		fmt.Fprintf(env.Stderr, "Warning: failed to load config: %v\n", err)
		return config.Default()
	}
	return cfg
}

// checkDirectory validates that path is an existing directory.
func checkDirectory(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%q: %w", path, ErrNotADirectory)
	}
	if !info.IsDir() {
		return fmt.Errorf("%q: %w", path, ErrNotADirectory)
	}
	return nil
}

// fileSize returns the size of path in bytes.
func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// oneLine collapses cue text to a single trimmed line for display.
func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	const max = 60
	if len(s) > max {
		s = s[:max-3] + "..."
	}
	return s
}
