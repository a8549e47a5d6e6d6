// Package output renders merge run reports.
package output

import (
	"time"

	"github.com/ccollicutt/logmerge/pkg/merger"
)

const bytesPerMB = 1024 * 1024

// Report is the complete run output.
type Report struct {
	// Summary provides aggregate statistics.
	Summary Summary

	// Groups has one entry per merge group, sorted by name.
	Groups []GroupReport

	// Metadata provides context about the run.
	Metadata Metadata
}

// Summary provides aggregate statistics.
type Summary struct {
	Groups int
	Merged int
	Copied int
	Failed int

	// Files is the number of source files across all groups.
	Files int

	// LinesMerged counts lines written to merged outputs. Copied groups are
	// not parsed and do not contribute.
	LinesMerged int

	// LinesMalformed counts lines dropped for an unparsable timestamp.
	LinesMalformed int

	// Bytes is the total read from source files.
	Bytes int64

	// Megabytes is Bytes in whole MiB, rounded down.
	Megabytes int64

	// DurationMS is the wall-clock run time in milliseconds.
	DurationMS int64
}

// GroupReport summarizes one merge group.
type GroupReport struct {
	Name       string
	Output     string
	Files      []string
	Copied     bool
	Lines      int
	Malformed  int
	Bytes      int64
	Error      string   `json:",omitempty"`
	FileErrors []string `json:",omitempty"`
}

// Metadata provides context about the run.
type Metadata struct {
	// ConfigFile is the configuration file used, if any.
	ConfigFile string

	Root      string
	OutputDir string

	// Mode is the merge strategy: buffered or streaming.
	Mode string

	StartedAt time.Time
	Duration  time.Duration
}

// NewReport creates a Report from a merge result.
func NewReport(result *merger.Result, configFile, mode string) *Report {
	report := &Report{
		Groups: make([]GroupReport, 0, len(result.Groups)),
		Metadata: Metadata{
			ConfigFile: configFile,
			Root:       result.Root,
			OutputDir:  result.OutputDir,
			Mode:       mode,
			StartedAt:  result.Start,
			Duration:   result.Duration(),
		},
	}

	s := &report.Summary
	for i := range result.Groups {
		g := &result.Groups[i]
		gr := GroupReport{
			Name:      g.Name,
			Output:    g.Output,
			Files:     g.Files,
			Copied:    g.Copied,
			Lines:     g.LinesWritten,
			Malformed: g.Stats.Malformed,
			Bytes:     g.Stats.Bytes,
		}
		if g.Err != nil {
			gr.Error = g.Err.Error()
		}
		for _, ferr := range g.FileErrors {
			gr.FileErrors = append(gr.FileErrors, ferr.Error())
		}
		report.Groups = append(report.Groups, gr)

		s.Groups++
		s.Files += len(g.Files)
		s.LinesMerged += g.LinesWritten
		s.LinesMalformed += g.Stats.Malformed
		switch {
		case g.Failed():
			s.Failed++
		case g.Copied:
			s.Copied++
		default:
			s.Merged++
		}
	}
	s.Bytes = result.Bytes
	s.Megabytes = result.Bytes / bytesPerMB
	s.DurationMS = result.Duration().Milliseconds()

	return report
}

// HasFailures returns true if any group lost input or produced no output.
func (r *Report) HasFailures() bool {
	return r.Summary.Failed > 0
}
