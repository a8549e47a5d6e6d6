package merger

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ccollicutt/logmerge/pkg/discovery"
	"github.com/ccollicutt/logmerge/pkg/metrics"
	"github.com/ccollicutt/logmerge/pkg/parser"
)

// Options configures a Merger.
type Options struct {
	// Scan selects the directories and files to merge.
	Scan discovery.ScanOptions

	// Parser configures line dating for every source file.
	Parser parser.Options

	// Workers bounds how many groups are merged at once.
	Workers int

	// Streaming merges with one pending line per file instead of sorting
	// the whole group in memory. Output is only fully ordered when every
	// source file is.
	Streaming bool

	// Metrics receives run metrics. May be nil.
	Metrics *metrics.Recorder
}

// Merger merges the log directories under one root.
type Merger struct {
	root  string
	opts  Options
	bytes atomic.Int64
}

// New creates a Merger for the given log root.
func New(root string, opts Options) *Merger {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Merger{root: root, opts: opts}
}

// Run scans the root, merges every group and returns the run result.
// A scan or output-directory failure is returned as an error; failures of
// single groups or files are reported in the result instead.
func (m *Merger) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		Root:      m.root,
		OutputDir: m.opts.Scan.OutputPath(m.root),
		Start:     time.Now(),
	}

	dirs, err := discovery.Scan(m.root, m.opts.Scan)
	if err != nil {
		return nil, err
	}
	groups := discovery.ResolveGroups(dirs)
	log.Debug().
		Int("directories", len(dirs)).
		Int("groups", len(groups)).
		Msg("Scanned log root")

	if len(groups) > 0 {
		if err := os.MkdirAll(result.OutputDir, 0755); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
	}

	result.Groups = make([]GroupResult, len(groups))

	g := new(errgroup.Group)
	g.SetLimit(m.opts.Workers)
	for i, group := range groups {
		i, group := i, group
		g.Go(func() error {
			result.Groups[i] = m.mergeGroup(ctx, group, result.OutputDir)
			return nil
		})
	}
	_ = g.Wait()

	result.Bytes = m.bytes.Load()
	result.End = time.Now()
	m.opts.Metrics.RunDone(result.End, result.Duration())

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func (m *Merger) mergeGroup(ctx context.Context, group discovery.MergeGroup, outDir string) GroupResult {
	start := time.Now()
	res := GroupResult{
		Name:   group.Name,
		Files:  group.Files,
		Output: filepath.Join(outDir, group.Name),
	}

	log.Info().Str("group", group.Name).Int("files", len(group.Files)).Msg("Merging group")

	if group.Single() {
		res.Copied = true
		n, err := copyVerbatim(ctx, group.Files[0], res.Output)
		res.Stats.Bytes = n
		res.Err = err
	} else {
		m.mergeFiles(ctx, group, &res)
	}

	res.Duration = time.Since(start)
	m.bytes.Add(res.Stats.Bytes)
	m.record(&res)

	for _, ferr := range res.FileErrors {
		log.Error().Err(ferr).Str("group", group.Name).Msg("Source file failed, keeping lines read before the failure")
	}
	if res.Err != nil {
		log.Error().Err(res.Err).Str("group", group.Name).Msg("Failed to merge group")
	} else {
		log.Debug().
			Str("group", group.Name).
			Int("lines", res.LinesWritten).
			Int("malformed", res.Stats.Malformed).
			Int64("bytes", res.Stats.Bytes).
			Dur("duration", res.Duration).
			Msg("Merged group")
	}
	return res
}

func (m *Merger) mergeFiles(ctx context.Context, group discovery.MergeGroup, res *GroupResult) {
	files := make([]*parser.FileSource, len(group.Files))
	sources := make([]parser.LogSource, len(group.Files))
	for i, path := range group.Files {
		files[i] = parser.NewFileSource([]string{path}, m.opts.Parser)
		sources[i] = files[i]
	}

	var src parser.CombinedSource
	if m.opts.Streaming {
		src = parser.NewMergedSource(sources...)
	} else {
		src = parser.NewBufferedSource(sources...)
	}

	res.Err = writeAtomic(res.Output, func(w *bufio.Writer) error {
		for {
			line, err := src.Next(ctx)
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			if _, err := w.WriteString(line.Raw); err != nil {
				return err
			}
			if err := w.WriteByte('\n'); err != nil {
				return err
			}
			res.LinesWritten++
		}
	})

	if err := src.Close(); err != nil {
		log.Warn().Err(err).Str("group", group.Name).Msg("Failed to close source file")
	}

	for _, f := range files {
		res.Stats.Add(f.Stats())
	}
	for _, rerr := range src.ReadErrors() {
		res.FileErrors = append(res.FileErrors, rerr)
	}
}

func (m *Merger) record(res *GroupResult) {
	rec := m.opts.Metrics
	rec.AddBytes(res.Stats.Bytes)
	rec.AddLines(res.LinesWritten, res.Stats.Malformed)
	rec.AddFileErrors(len(res.FileErrors))

	outcome := metrics.ResultMerged
	switch {
	case res.Err != nil:
		outcome = metrics.ResultFailed
	case res.Copied:
		outcome = metrics.ResultCopied
	}
	rec.GroupDone(outcome, res.Duration)
}

// copyVerbatim copies a single-file group byte for byte, bypassing the
// parser entirely.
func copyVerbatim(ctx context.Context, src, dst string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	in, err := os.Open(src) // #nosec G304 -- paths come from the directory scan
	if err != nil {
		return 0, &parser.ReadError{Source: src, Err: err}
	}
	defer in.Close()

	var n int64
	err = writeAtomic(dst, func(w *bufio.Writer) error {
		var cerr error
		n, cerr = io.Copy(w, in)
		if cerr != nil {
			return fmt.Errorf("copying %s: %w", src, cerr)
		}
		return nil
	})
	return n, err
}
