// Package tracebuffer holds the ordered, drainable queue of MatchedTrace
// records that couples matching to block building. Appends preserve exact
// match order; DrainAll hands the whole queue to the block builder and
// empties it atomically under the same lock, so a trace visible to a
// drainer is always fully constructed (happens-before). The buffer is held
// in memory only: traces not yet drained into a persisted block are lost if
// the process stops.
package tracebuffer

import (
	"sync"

	"github.com/zkclob/engine/pkg/orderbook"
)

type Buffer struct {
	mu     sync.Mutex
	traces []orderbook.MatchedTrace
}

func New() *Buffer {
	return &Buffer{}
}

// Append adds traces to the tail of the buffer in the order given.
func (b *Buffer) Append(traces ...orderbook.MatchedTrace) {
	if len(traces) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.traces = append(b.traces, traces...)
}

// DrainAll removes and returns every buffered trace, in FIFO order.
func (b *Buffer) DrainAll() []orderbook.MatchedTrace {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.traces) == 0 {
		return nil
	}
	out := b.traces
	b.traces = nil
	return out
}

// Len reports the number of currently buffered traces.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.traces)
}
