package parser

import (
	"container/heap"
	"context"
	"errors"
	"io"
)

// MergedSource combines multiple LogSources into a single stream ordered by
// timestamp (oldest first). It keeps one pending line per source, so memory
// stays bounded by the number of sources. Each source must itself be in
// timestamp order for the output to be globally ordered; use BufferedSource
// when that is not guaranteed.
type MergedSource struct {
	sources []LogSource
	heap    *lineHeap
	started bool
	closed  bool

	readErrs []*ReadError
}

// NewMergedSource creates a LogSource that merges multiple sources by timestamp.
// Lines with equal timestamps come out in source order, then in line order.
func NewMergedSource(sources ...LogSource) *MergedSource {
	return &MergedSource{
		sources: sources,
		heap:    &lineHeap{},
	}
}

// Next returns the next log line in timestamp order across all sources.
// Returns io.EOF when all sources are exhausted.
func (m *MergedSource) Next(ctx context.Context) (*ParsedLine, error) {
	if !m.started {
		m.started = true
		if err := m.initHeap(ctx); err != nil {
			return nil, err
		}
	}

	if m.heap.Len() == 0 {
		return nil, io.EOF
	}

	// Pop the oldest line
	item := heap.Pop(m.heap).(*heapItem)
	line := item.line

	// Refill from the same source
	if err := m.pull(ctx, item.sourceIdx); err != nil {
		return nil, err
	}

	return line, nil
}

// ReadErrors returns the file failures seen so far. Those files stopped
// contributing at the point of failure; their earlier lines were merged.
func (m *MergedSource) ReadErrors() []*ReadError {
	return m.readErrs
}

// initHeap reads the first line from each source to initialize the heap.
func (m *MergedSource) initHeap(ctx context.Context) error {
	heap.Init(m.heap)

	for i := range m.sources {
		if err := m.pull(ctx, i); err != nil {
			return err
		}
	}

	return nil
}

// pull pushes the next line of source i, if any. Read errors are recorded
// and the source is asked again, since a multi-file source continues with
// its next file.
func (m *MergedSource) pull(ctx context.Context, i int) error {
	for {
		line, err := m.sources[i].Next(ctx)
		if err == nil {
			heap.Push(m.heap, &heapItem{line: line, sourceIdx: i})
			return nil
		}
		if err == io.EOF {
			return nil
		}
		var rerr *ReadError
		if errors.As(err, &rerr) {
			m.readErrs = append(m.readErrs, rerr)
			continue
		}
		return err
	}
}

// Close releases all source resources.
func (m *MergedSource) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	var firstErr error
	for _, src := range m.sources {
		if err := src.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// heapItem wraps a ParsedLine with its source index for the priority queue.
type heapItem struct {
	line      *ParsedLine
	sourceIdx int
}

// lineHeap implements heap.Interface for timestamp-ordered merging.
type lineHeap []*heapItem

func (h lineHeap) Len() int { return len(h) }

func (h lineHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if !a.line.Timestamp.Equal(b.line.Timestamp) {
		return a.line.Timestamp.Before(b.line.Timestamp)
	}
	if a.sourceIdx != b.sourceIdx {
		return a.sourceIdx < b.sourceIdx
	}
	return a.line.Seq < b.line.Seq
}

func (h lineHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *lineHeap) Push(x interface{}) {
	*h = append(*h, x.(*heapItem))
}

func (h *lineHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return item
}
