package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/logmerge/pkg/detector"
	"github.com/ccollicutt/logmerge/pkg/discovery"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	opts := &MergeOptions{}
	var sample int

	cmd := &cobra.Command{
		Use:   "inspect <log-root>",
		Short: "Show what a merge would do without writing output",
		Long: `Scan <log-root> like a merge and report, per group and file, how many lines
would be merged, which lines would be dropped as malformed, and the years
announced by BEGIN LOGGING markers.

Files whose records are out of order are flagged: merge them in the default
buffered mode, not with --stream. Lines in a recognized foreign timestamp
format (ISO 8601, Apache, ...) are counted, since they are not dated by the
merge.

Exit codes:
  0 - All files could be read
  1 - One or more files could not be read
  2 - Configuration or runtime error`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args, opts, sample)
		},
	}

	addConfigFlags(cmd.Flags(), opts)
	cmd.Flags().IntVarP(&sample, "sample", "n", detector.DefaultSampleSize, "Lines to sample per file (0 reads whole files)")

	return cmd
}

func runInspect(cmd *cobra.Command, args []string, opts *MergeOptions, sample int) error {
	ExitCode = 0
	root := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(ctx, cmd.Flags(), opts)
	if err != nil {
		return err
	}
	if err := SetupLogging(cmd.ErrOrStderr(), cfg.LogLevel); err != nil {
		return err
	}

	dirs, err := discovery.Scan(root, cfg.ScanOptions())
	if err != nil {
		return err
	}
	groups := discovery.ResolveGroups(dirs)

	d := detector.New(cfg.ParserOptions(), detector.WithSampleSize(sample))
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Inspecting %s (%d worker directories)\n", root, len(dirs))
	fmt.Fprintf(w, "Output would go to %s\n\n", cfg.ScanOptions().OutputPath(root))

	files, unsorted, failed := 0, 0, 0
	for _, g := range groups {
		if g.Single() {
			fmt.Fprintf(w, "[COPY]  %s\n", g.Name)
		} else {
			fmt.Fprintf(w, "[MERGE] %s (%d files)\n", g.Name, len(g.Files))
		}

		for _, path := range g.Files {
			files++
			rel, err := filepath.Rel(root, path)
			if err != nil {
				rel = path
			}

			report, err := d.InspectFile(ctx, path)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				failed++
				fmt.Fprintf(w, "  %s: error: %v\n", rel, err)
				continue
			}
			if !g.Single() && !report.Sorted() {
				unsorted++
			}
			printFileReport(w, rel, report, g.Single())
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "%d groups, %d files", len(groups), files)
	if failed > 0 {
		fmt.Fprintf(w, ", %d unreadable", failed)
	}
	if unsorted > 0 {
		fmt.Fprintf(w, ", %d out of order (do not use --stream)", unsorted)
	}
	fmt.Fprintln(w)

	if failed > 0 {
		ExitCode = 1
	}
	return nil
}

func printFileReport(w io.Writer, rel string, r *detector.FileReport, copied bool) {
	s := r.Stats
	scope := "sampled"
	if r.Complete {
		scope = "all"
	}
	fmt.Fprintf(w, "  %s: %d lines (%s), %d records, %d markers, %d ignored, %d malformed\n",
		rel, s.Lines, scope, s.Records, s.Markers, s.Ignored, s.Malformed)

	if len(r.Years) > 0 {
		years := make([]string, len(r.Years))
		for i, y := range r.Years {
			years[i] = fmt.Sprint(y)
		}
		fmt.Fprintf(w, "      years: %s\n", strings.Join(years, ", "))
	}
	if s.Records > 0 {
		fmt.Fprintf(w, "      range: %s .. %s\n",
			r.First.Format("2006-01-02 15:04:05"), r.Last.Format("2006-01-02 15:04:05"))
	}
	if r.ReadError != "" {
		fmt.Fprintf(w, "      read error: %s\n", r.ReadError)
	}
	// Copied files are written verbatim, so order and bad lines don't matter.
	if copied {
		return
	}
	if !r.Sorted() {
		fmt.Fprintf(w, "      out of order: %d records\n", r.OutOfOrder)
	}
	if r.SampleMalformed != "" {
		fmt.Fprintf(w, "      malformed: %q (%s)\n", r.SampleMalformed, r.MalformedError)
	}
	if f := r.DominantForeign(); f != nil {
		fmt.Fprintf(w, "      undated %s lines: %d (e.g. %s)\n", f.Name, r.Foreign[f.Name], f.Example)
	}
}
