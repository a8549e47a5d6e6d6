// Package parser provides log file reading, timestamp parsing and
// timestamp-ordered merging of log lines.
package parser

import (
	"fmt"
	"time"
)

// ParsedLine represents a single dated log line.
type ParsedLine struct {
	// Raw is the trimmed line content. It is written to the merged output
	// unchanged, so nothing is lost when the parser had to guess fields.
	Raw string

	// Timestamp is the resolved timestamp (year from the YearContext, UTC).
	Timestamp time.Time

	// Source is the file path this line came from.
	Source string

	// LineNum is the 1-based line number in the source file.
	LineNum int

	// Seq orders lines that share a timestamp. It increases with source
	// index and then with line number, which keeps ties stable.
	Seq uint64
}

// Before reports whether l sorts before o.
func (l *ParsedLine) Before(o *ParsedLine) bool {
	if l.Timestamp.Equal(o.Timestamp) {
		return l.Seq < o.Seq
	}
	return l.Timestamp.Before(o.Timestamp)
}

// LineKind classifies a raw log line.
type LineKind int

const (
	// LineBlank is an empty or whitespace-only line.
	LineBlank LineKind = iota
	// LineMarker is a "begin logging" line carrying the year.
	LineMarker
	// LineRecord is a dated log record.
	LineRecord
	// LineIgnored is any other line (banners, separators, continuations).
	LineIgnored
	// LineMalformed looked like a marker or record but failed to parse.
	LineMalformed
)

func (k LineKind) String() string {
	switch k {
	case LineBlank:
		return "blank"
	case LineMarker:
		return "marker"
	case LineRecord:
		return "record"
	case LineIgnored:
		return "ignored"
	case LineMalformed:
		return "malformed"
	default:
		return fmt.Sprintf("LineKind(%d)", int(k))
	}
}

// FileStats counts what a FileSource saw in its file.
type FileStats struct {
	Bytes     int64
	Lines     int
	Records   int
	Markers   int
	Ignored   int
	Malformed int
}

// Add accumulates o into s.
func (s *FileStats) Add(o FileStats) {
	s.Bytes += o.Bytes
	s.Lines += o.Lines
	s.Records += o.Records
	s.Markers += o.Markers
	s.Ignored += o.Ignored
	s.Malformed += o.Malformed
}

// ParseError is returned for a line that looked like a marker or record but
// could not be turned into a timestamp.
type ParseError struct {
	Source  string
	LineNum int
	Line    string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("parsing line %q: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("%s:%d: parsing line %q: %v", e.Source, e.LineNum, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ReadError is returned when a source file fails mid-read. Lines already
// returned from that file stay valid.
type ReadError struct {
	Source string
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Source, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }
