// Package detector samples log files and reports how the merge parser would
// classify their lines, without writing any output.
package detector

import (
	"context"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ccollicutt/logmerge/pkg/parser"
)

// DefaultSampleSize is the number of lines read per file.
const DefaultSampleSize = 1000

// FileReport describes a sampled file.
type FileReport struct {
	Path string

	// Stats counts line kinds over the sample. Bytes is not set.
	Stats parser.FileStats

	// Complete is true when the whole file fit in the sample.
	Complete bool

	// Years lists the years announced by markers, in file order.
	Years []int

	// First and Last are the earliest and latest record timestamps seen.
	First time.Time
	Last  time.Time

	// OutOfOrder counts records dated before the record preceding them.
	// Such files need buffered mode to merge in order.
	OutOfOrder int

	SampleRecord    string
	SampleMalformed string
	MalformedError  string

	// Foreign counts undated lines per recognized foreign timestamp format.
	Foreign map[string]int

	// ReadError is set when reading stopped on an I/O error.
	ReadError string
}

// Sorted reports whether the sampled records were in timestamp order.
func (r *FileReport) Sorted() bool {
	return r.OutOfOrder == 0
}

// DominantForeign returns the most frequent foreign format, or nil if none
// was seen.
func (r *FileReport) DominantForeign() *Format {
	names := make([]string, 0, len(r.Foreign))
	for name := range r.Foreign {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if r.Foreign[names[i]] != r.Foreign[names[j]] {
			return r.Foreign[names[i]] > r.Foreign[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) == 0 {
		return nil
	}
	return formatByName(names[0])
}

// Detector samples log files with the merge parser.
type Detector struct {
	popts      parser.Options
	sampleSize int
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets the number of lines to sample. Zero or less reads the
// whole file.
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		d.sampleSize = n
	}
}

// New creates a Detector that classifies lines like a merge with the given
// parser options would.
func New(popts parser.Options, opts ...Option) *Detector {
	d := &Detector{
		popts:      popts,
		sampleSize: DefaultSampleSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// InspectFile samples the head of a file.
func (d *Detector) InspectFile(ctx context.Context, path string) (*FileReport, error) {
	// #nosec G304 -- path comes from the directory scan
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	report := d.InspectLines(ctx, file)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report.Path = path
	return report, nil
}

// InspectLines classifies lines from r until the sample is full. Lines
// longer than parser.MaxLineSize count as malformed. A read error ends the
// sample early and is recorded on the report.
func (d *Detector) InspectLines(ctx context.Context, r io.Reader) *FileReport {
	p := parser.NewLineParser(d.popts)
	report := &FileReport{Complete: true}
	lr := parser.NewLineReader(r, parser.MaxLineSize)
	var prev time.Time

	for {
		if ctx.Err() != nil {
			report.Complete = false
			break
		}

		raw, tooLong, err := lr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			report.Complete = false
			report.ReadError = err.Error()
			break
		}
		if d.sampleSize > 0 && report.Stats.Lines >= d.sampleSize {
			report.Complete = false
			break
		}

		line := strings.TrimSpace(raw)
		report.Stats.Lines++

		if tooLong {
			report.Stats.Malformed++
			if report.SampleMalformed == "" {
				report.SampleMalformed = truncate(line)
				report.MalformedError = parser.ErrLineTooLong.Error()
			}
			continue
		}

		kind, ts, err := p.Parse(line)
		switch kind {
		case parser.LineMarker:
			report.Stats.Markers++
			report.Years = append(report.Years, p.Year())
		case parser.LineRecord:
			report.Stats.Records++
			if report.SampleRecord == "" {
				report.SampleRecord = line
			}
			if report.First.IsZero() || ts.Before(report.First) {
				report.First = ts
			}
			if ts.After(report.Last) {
				report.Last = ts
			}
			if !prev.IsZero() && ts.Before(prev) {
				report.OutOfOrder++
			}
			prev = ts
		case parser.LineMalformed:
			report.Stats.Malformed++
			if report.SampleMalformed == "" {
				report.SampleMalformed = line
				if err != nil {
					report.MalformedError = err.Error()
				}
			}
			report.countForeign(line)
		case parser.LineIgnored:
			report.Stats.Ignored++
			report.countForeign(line)
		}
	}
	return report
}

// truncate shortens a sample line for display.
func truncate(line string) string {
	const max = 200
	if len(line) <= max {
		return line
	}
	return line[:max] + "..."
}

func (r *FileReport) countForeign(line string) {
	f := matchForeign(line)
	if f == nil {
		return
	}
	if r.Foreign == nil {
		r.Foreign = make(map[string]int)
	}
	r.Foreign[f.Name]++
}
