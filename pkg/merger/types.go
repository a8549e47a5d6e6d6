// Package merger merges same-named log files from sibling worker
// directories into one time-ordered file per log name.
package merger

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/ccollicutt/logmerge/pkg/parser"
)

// GroupResult describes what happened to one merge group.
type GroupResult struct {
	// Name is the log name and the output file name.
	Name string

	// Files are the source files of the group.
	Files []string

	// Output is the path of the merged file.
	Output string

	// Copied is true when the group had one file and was copied verbatim.
	Copied bool

	// Stats aggregates the source files. For copied groups only Bytes is set.
	Stats parser.FileStats

	// LinesWritten is the number of lines in the merged output.
	LinesWritten int

	// FileErrors lists source files that failed to open or read. Lines read
	// from them before the failure are part of the output.
	FileErrors []error

	// Err is set when no output could be produced for the group.
	Err error

	Duration time.Duration
}

// Failed reports whether the group lost any input or produced no output.
func (g *GroupResult) Failed() bool {
	return g.Err != nil || len(g.FileErrors) > 0
}

// Result is the outcome of a full run.
type Result struct {
	Root      string
	OutputDir string
	Groups    []GroupResult

	// Bytes is the total number of bytes read from source files.
	Bytes int64

	Start time.Time
	End   time.Time
}

// Duration is the wall-clock time of the run.
func (r *Result) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// FailedGroups counts groups for which Failed is true.
func (r *Result) FailedGroups() int {
	n := 0
	for i := range r.Groups {
		if r.Groups[i].Failed() {
			n++
		}
	}
	return n
}

// Err combines all group and file failures, or returns nil.
func (r *Result) Err() error {
	var merr *multierror.Error
	for i := range r.Groups {
		g := &r.Groups[i]
		for _, ferr := range g.FileErrors {
			merr = multierror.Append(merr, &GroupError{Group: g.Name, Err: ferr})
		}
		if g.Err != nil {
			merr = multierror.Append(merr, &GroupError{Group: g.Name, Err: g.Err})
		}
	}
	return merr.ErrorOrNil()
}

// GroupError ties a failure to the group it happened in.
type GroupError struct {
	Group string
	Err   error
}

func (e *GroupError) Error() string {
	return fmt.Sprintf("group %s: %v", e.Group, e.Err)
}

func (e *GroupError) Unwrap() error { return e.Err }
