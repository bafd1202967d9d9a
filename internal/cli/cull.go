package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"clipsift/internal/concat"
	"clipsift/internal/format"
	"clipsift/internal/scratch"
)

// cullOptions holds the validated options for the cull command.
type cullOptions struct {
	dir    string
	output string
	jobs   int
}

// CullCmd creates the cull command.
func CullCmd(env *Env) *cobra.Command {
	var (
		output string
		jobs   int
	)

	cmd := &cobra.Command{
		Use:   "cull <dir>",
		Short: "Extract every clip and concatenate them without review",
		Long: `Extract one audio clip per timing cue from every media file in <dir>
and concatenate all of them into a single output file, in source order.
No terminal is needed; use this from scripts.

Ctrl+C once stops extracting and concatenates what exists so far;
Ctrl+C twice within 2 seconds aborts without writing anything.`,
		Example: `  clipsift cull ./dataset -o dataset.wav
  clipsift cull -j 4 ./dataset -o dataset.wav`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCull(cmd.Context(), env, cullOptions{dir: args[0], output: output, jobs: jobs})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "Source files to extract concurrently (default from config)")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runCull(ctx context.Context, env *Env, opts cullOptions) error {
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
	env.Binaries.CheckVersion(ctx, env.Runner, ffmpegPath)

	dir, err := scratch.Open(env.TempRoot, cfg.ScratchDirName)
	if err != nil {
		return err
	}
	defer func() { _ = dir.Close() }()

	log := env.Logger.With("session", dir.ID)
	log.Info("cull started", "dir", opts.dir, "out", opts.output)

	res, err := extractAll(ctx, env, cfg, ffmpegPath, dir, opts.dir)
	if err != nil {
		return err
	}
	if len(res.Segments) == 0 {
		fmt.Fprintln(env.Stderr, "Nothing to concatenate: no clips could be extracted.")
		printBatchIssues(env.Stderr, res)
		return ErrNoClips
	}

	if err := concat.New(ffmpegPath, env.Runner).Concat(ctx, res.Segments, opts.output); err != nil {
		return err
	}

	var totalMS int
	for _, seg := range res.Segments {
		totalMS += seg.EndMS - seg.StartMS
	}
	if size, err := fileSize(opts.output); err == nil {
		fmt.Fprintf(env.Stderr, "Wrote %s: %d clips, %s (%s)\n",
			opts.output, len(res.Segments), format.Clock(totalMS), format.Size(size))
	} else {
		fmt.Fprintf(env.Stderr, "Wrote %s: %d clips, %s\n",
			opts.output, len(res.Segments), format.Clock(totalMS))
	}
	return nil
}
