package parser

import (
	"context"
)

// LogSource provides an iterator over dated log lines.
// Implementations must be safe for sequential access (not concurrent).
type LogSource interface {
	// Next returns the next dated log line, or io.EOF when exhausted.
	// Undated lines are skipped.
	Next(ctx context.Context) (*ParsedLine, error)

	// Close releases any resources held by the source.
	Close() error
}

// CombinedSource orders the lines of several sources. A *ReadError from one
// source is recorded and the others keep going.
type CombinedSource interface {
	LogSource

	// ReadErrors returns the source failures seen so far.
	ReadErrors() []*ReadError
}

var (
	_ CombinedSource = (*MergedSource)(nil)
	_ CombinedSource = (*BufferedSource)(nil)
)
