package parser

import (
	"container/heap"
	"context"
	"errors"
	"io"
)

// BufferedSource reads every line of its sources into memory before
// returning any, then yields them in ascending timestamp order. Unlike
// MergedSource the output is ordered even when a source is not, at the cost
// of holding the whole group in memory.
type BufferedSource struct {
	sources []LogSource
	heap    *recordHeap
	loaded  bool
	closed  bool

	readErrs []*ReadError
}

// NewBufferedSource creates a LogSource that sorts all lines of the given
// sources. Lines with equal timestamps keep their insertion order: source
// order, then line order.
func NewBufferedSource(sources ...LogSource) *BufferedSource {
	return &BufferedSource{
		sources: sources,
		heap:    &recordHeap{},
	}
}

// Next returns the oldest remaining line. The first call drains all sources.
func (b *BufferedSource) Next(ctx context.Context) (*ParsedLine, error) {
	if !b.loaded {
		b.loaded = true
		if err := b.load(ctx); err != nil {
			return nil, err
		}
	}
	if b.heap.Len() == 0 {
		return nil, io.EOF
	}
	return heap.Pop(b.heap).(*ParsedLine), nil
}

// Len returns the number of buffered lines not yet returned.
func (b *BufferedSource) Len() int {
	return b.heap.Len()
}

// ReadErrors returns the file failures seen while loading.
func (b *BufferedSource) ReadErrors() []*ReadError {
	return b.readErrs
}

func (b *BufferedSource) load(ctx context.Context) error {
	var seq uint64
	for _, src := range b.sources {
		for {
			line, err := src.Next(ctx)
			if err == io.EOF {
				break
			}
			if err != nil {
				var rerr *ReadError
				if errors.As(err, &rerr) {
					b.readErrs = append(b.readErrs, rerr)
					continue
				}
				return err
			}
			seq++
			line.Seq = seq
			heap.Push(b.heap, line)
		}
	}
	return nil
}

// Close releases all source resources.
func (b *BufferedSource) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	var firstErr error
	for _, src := range b.sources {
		if err := src.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type recordHeap []*ParsedLine

func (h recordHeap) Len() int           { return len(h) }
func (h recordHeap) Less(i, j int) bool { return h[i].Before(h[j]) }
func (h recordHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *recordHeap) Push(x interface{}) {
	*h = append(*h, x.(*ParsedLine))
}

func (h *recordHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return item
}
