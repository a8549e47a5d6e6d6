package output

import (
	"context"
	"fmt"
	"io"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text. The last line is always the
// throughput summary.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if !f.opts.Quiet {
		if err := f.formatGroups(report, w); err != nil {
			return err
		}
	}
	return formatTotals(report, w)
}

func (f *TextFormatter) formatGroups(report *Report, w io.Writer) error {
	fmt.Fprintln(w, "=== logmerge ===")
	fmt.Fprintf(w, "Root:   %s\n", report.Metadata.Root)
	fmt.Fprintf(w, "Output: %s\n", report.Metadata.OutputDir)
	fmt.Fprintln(w)

	for i := range report.Groups {
		f.formatGroup(&report.Groups[i], w)
	}
	if len(report.Groups) > 0 {
		fmt.Fprintln(w)
	}

	s := report.Summary
	fmt.Fprintln(w, "---")
	_, err := fmt.Fprintf(w, "Summary: %d groups (%d merged, %d copied, %d failed), %d files, %d lines, %d malformed\n",
		s.Groups, s.Merged, s.Copied, s.Failed, s.Files, s.LinesMerged, s.LinesMalformed)
	return err
}

func (f *TextFormatter) formatGroup(g *GroupReport, w io.Writer) {
	status := "MERGED"
	switch {
	case g.Error != "" || len(g.FileErrors) > 0:
		status = "FAILED"
	case g.Copied:
		status = "COPIED"
	}

	if g.Copied {
		fmt.Fprintf(w, "[%s] %s (%d bytes)\n", status, g.Name, g.Bytes)
	} else {
		fmt.Fprintf(w, "[%s] %s: %d files, %d lines, %d malformed\n",
			status, g.Name, len(g.Files), g.Lines, g.Malformed)
	}

	if f.opts.Verbose {
		for _, file := range g.Files {
			fmt.Fprintf(w, "    %s\n", file)
		}
	}
	for _, ferr := range g.FileErrors {
		fmt.Fprintf(w, "  - %s\n", ferr)
	}
	if g.Error != "" {
		fmt.Fprintf(w, "  - %s\n", g.Error)
	}
}

func formatTotals(report *Report, w io.Writer) error {
	_, err := fmt.Fprintf(w, "%d megabytes of logs merged in %dms.\n",
		report.Summary.Megabytes, report.Summary.DurationMS)
	return err
}
