package parser

import (
	"bufio"
	"errors"
	"io"
)

// MaxLineSize bounds a single log line. Longer lines are discarded.
const MaxLineSize = 1024 * 1024

// ErrLineTooLong marks a line that exceeded the line size limit.
var ErrLineTooLong = errors.New("line too long")

// LineReader splits a stream into lines like bufio.Scanner, but an
// oversized line is skipped instead of ending the stream.
type LineReader struct {
	r   *bufio.Reader
	max int
	buf []byte
	err error
}

// NewLineReader returns a LineReader that keeps at most max bytes per line.
func NewLineReader(r io.Reader, max int) *LineReader {
	if max <= 0 {
		max = MaxLineSize
	}
	return &LineReader{r: bufio.NewReaderSize(r, 64*1024), max: max}
}

// Next returns the next line without its line ending. tooLong is set when
// the line exceeded the limit; line then holds only its first max bytes.
// The final unterminated line is returned before io.EOF.
func (lr *LineReader) Next() (line string, tooLong bool, err error) {
	if lr.err != nil {
		return "", false, lr.err
	}

	lr.buf = lr.buf[:0]
	read := 0
	newline := false
	for {
		chunk, err := lr.r.ReadSlice('\n')
		read += len(chunk)
		if room := lr.max - len(lr.buf); room > 0 {
			if len(chunk) > room {
				lr.buf = append(lr.buf, chunk[:room]...)
			} else {
				lr.buf = append(lr.buf, chunk...)
			}
		}
		if len(chunk) > 0 && chunk[len(chunk)-1] == '\n' {
			newline = true
			break
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil {
			lr.err = err
			if read == 0 {
				return "", false, err
			}
			break
		}
	}

	if newline {
		read--
	}
	tooLong = read > lr.max
	return string(dropEOL(lr.buf)), tooLong, nil
}

// Err returns the error that ended the stream, nil at a clean io.EOF.
func (lr *LineReader) Err() error {
	if lr.err == io.EOF {
		return nil
	}
	return lr.err
}

func dropEOL(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] == '\n' {
		b = b[:len(b)-1]
	}
	if len(b) > 0 && b[len(b)-1] == '\r' {
		b = b[:len(b)-1]
	}
	return b
}
