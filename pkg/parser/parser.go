package parser

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// FileSource implements LogSource for reading from log files.
// Each file gets a fresh LineParser, so the year context never leaks from
// one file into the next.
type FileSource struct {
	files []string
	opts  Options

	open func(path string) (io.ReadCloser, error)

	currentFile   io.ReadCloser
	currentReader *LineReader
	currentParser *LineParser
	currentSource string
	currentLine   int
	fileIndex     int

	counter *countingReader
	seq     uint64
	stats   FileStats
}

// NewFileSource creates a LogSource that reads the given files in order.
func NewFileSource(files []string, opts Options) *FileSource {
	return &FileSource{
		files:     files,
		opts:      opts,
		open:      openFile,
		fileIndex: -1,
	}
}

// Next returns the next dated log line.
// Blank, marker and unrecognized lines are skipped. Malformed lines,
// including lines longer than MaxLineSize, are logged and skipped. A failure
// while opening or reading a file is returned as a *ReadError; the source
// then moves on to its next file, so callers may keep calling Next.
// Returns io.EOF when all files have been exhausted.
func (s *FileSource) Next(ctx context.Context) (*ParsedLine, error) {
	for {
		// Check for context cancellation
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		// Ensure we have a file open
		if s.currentReader == nil {
			if err := s.openNextFile(); err != nil {
				return nil, err
			}
		}

		// Try to read the next line
		line, tooLong, readErr := s.currentReader.Next()
		if readErr == nil {
			s.currentLine++
			s.stats.Lines++

			if tooLong {
				s.stats.Malformed++
				log.Warn().
					Err(&ParseError{Source: s.currentSource, LineNum: s.currentLine, Line: truncate(line), Err: ErrLineTooLong}).
					Msg("Skipping unparsable log line")
				continue
			}

			// Try to extract timestamp
			kind, ts, err := s.currentParser.Parse(line)
			switch kind {
			case LineRecord:
				s.stats.Records++
				s.seq++
				return &ParsedLine{
					Raw:       strings.TrimSpace(line),
					Timestamp: ts,
					Source:    s.currentSource,
					LineNum:   s.currentLine,
					Seq:       s.seq,
				}, nil
			case LineMarker:
				s.stats.Markers++
			case LineMalformed:
				s.stats.Malformed++
				log.Warn().
					Err(&ParseError{Source: s.currentSource, LineNum: s.currentLine, Line: line, Err: err}).
					Msg("Skipping unparsable log line")
			case LineIgnored:
				s.stats.Ignored++
			}
			continue
		}

		// Current file exhausted or failed, try next
		source := s.currentSource
		s.stats.Bytes += s.counter.n
		closeErr := s.closeCurrentFile()

		if readErr != io.EOF {
			return nil, &ReadError{Source: source, Err: readErr}
		}
		if closeErr != nil {
			return nil, &ReadError{Source: source, Err: closeErr}
		}
	}
}

// Stats returns the counters accumulated so far.
func (s *FileSource) Stats() FileStats {
	st := s.stats
	if s.counter != nil && s.currentFile != nil {
		st.Bytes += s.counter.n
	}
	return st
}

// Close releases resources.
func (s *FileSource) Close() error {
	if s.currentFile != nil {
		s.stats.Bytes += s.counter.n
	}
	return s.closeCurrentFile()
}

func (s *FileSource) openNextFile() error {
	s.fileIndex++
	if s.fileIndex >= len(s.files) {
		return io.EOF
	}

	path := s.files[s.fileIndex]
	f, err := s.open(path)
	if err != nil {
		return &ReadError{Source: path, Err: err}
	}

	s.currentFile = f
	s.counter = &countingReader{r: f}
	s.currentReader = NewLineReader(s.counter, MaxLineSize)
	s.currentParser = NewLineParser(s.opts)
	s.currentSource = path
	s.currentLine = 0

	return nil
}

func (s *FileSource) closeCurrentFile() error {
	if s.currentFile != nil {
		err := s.currentFile.Close()
		s.currentFile = nil
		s.currentReader = nil
		return err
	}
	s.currentReader = nil
	return nil
}

func openFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path) // #nosec G304 -- paths come from the directory scan
	if err != nil {
		return nil, err
	}
	return f, nil
}

// truncate shortens a line for log output.
func truncate(line string) string {
	const max = 200
	if len(line) <= max {
		return line
	}
	return line[:max] + "..."
}

// countingReader counts the bytes read through it.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
