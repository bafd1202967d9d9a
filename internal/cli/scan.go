package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"clipsift/internal/extract"
	"clipsift/internal/media"
	"clipsift/internal/timing"
)

// ScanCmd creates the scan command.
func ScanCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "scan <dir>",
		Short: "Report timing files and their media without extracting",
		Long: `Scan <dir> for timing files, resolve each one's media sibling, and
print a table of what a run would extract. Nothing is written.`,
		Example: `  clipsift scan ./dataset`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), env, args[0])
		},
	}
}

// scanRow is one timing file's resolution outcome.
type scanRow struct {
	timingFile string
	mediaFile  string
	cues       int
	status     string
}

func runScan(ctx context.Context, env *Env, dir string) error {
	if err := checkDirectory(dir); err != nil {
		return err
	}

	cfg := loadConfig(env)

	ffmpegPath, err := env.Binaries.Resolve()
	if err != nil {
		return err
	}
	env.Binaries.CheckVersion(ctx, env.Runner, ffmpegPath)

	entries, err := env.Lister.List(dir)
	if err != nil {
		return fmt.Errorf("list %s: %w", dir, err)
	}

	resolver := media.NewResolver(ffmpegPath, cfg.MediaExtensions, env.Runner)
	rows := scanDirectory(dir, entries, resolver)
	if len(rows) == 0 {
		fmt.Fprintf(env.Stderr, "No %s files in %s\n", extract.TimingExt, dir)
		return nil
	}

	out := make([][]string, 0, len(rows))
	var cues int
	for _, row := range rows {
		out = append(out, []string{
			row.timingFile,
			row.mediaFile,
			fmt.Sprintf("%d", row.cues),
			row.status,
		})
		cues += row.cues
	}

	fmt.Fprintln(env.Stdout, renderTable(
		[]string{"Timing file", "Media", "Cues", "Status"},
		out,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))
	fmt.Fprintf(env.Stdout, "%d file(s), %d cue(s)\n", len(rows), cues)
	return nil
}

// scanDirectory resolves every timing file in entries against its media
// sibling, sorted by name for a stable report.
func scanDirectory(dir string, entries []string, resolver *media.Resolver) []scanRow {
	var names []string
	for _, name := range entries {
		if strings.EqualFold(filepath.Ext(name), extract.TimingExt) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	rows := make([]scanRow, 0, len(names))
	for _, name := range names {
		row := scanRow{timingFile: name, mediaFile: "-", status: "ok"}

		data, err := os.ReadFile(filepath.Join(dir, name)) // #nosec G304 -- user-chosen scan dir
		if err != nil {
			row.status = "unreadable"
			rows = append(rows, row)
			continue
		}
		cues, err := timing.Parse(data)
		if err != nil {
			row.status = "unreadable"
			rows = append(rows, row)
			continue
		}
		row.cues = len(cues)

		base := strings.TrimSuffix(name, filepath.Ext(name))
		asset, err := resolver.Resolve(dir, base, entries)
		switch {
		case errors.Is(err, media.ErrNoMatchingMedia):
			row.status = "no media"
		case err != nil:
			row.status = "error"
		default:
			row.mediaFile = filepath.Base(asset.Path)
		}

		rows = append(rows, row)
	}
	return rows
}
