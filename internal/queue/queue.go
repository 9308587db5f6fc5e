// Package queue provides a bounded FIFO buffer shared between producers and a
// single flushing consumer.
package queue

import "sync"

// Buffer holds at most limit items. When full, the oldest items are dropped
// to make room for new ones.
type Buffer[T any] struct {
	mu      sync.Mutex
	items   []T
	limit   int
	dropped int
}

// New returns an empty buffer. A limit of zero or less means unbounded.
func New[T any](limit int) *Buffer[T] {
	return &Buffer[T]{limit: limit}
}

// Push appends items and returns how many old items were evicted.
func (b *Buffer[T]) Push(items ...T) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, items...)
	return b.trim()
}

// Requeue puts items back in front of anything pushed since they were drained.
// Used after a failed flush so the batch is retried first.
func (b *Buffer[T]) Requeue(items []T) int {
	if len(items) == 0 {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	merged := make([]T, 0, len(items)+len(b.items))
	merged = append(merged, items...)
	b.items = append(merged, b.items...)
	return b.trim()
}

// Drain removes and returns every buffered item in order.
func (b *Buffer[T]) Drain() []T {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.items
	b.items = nil
	return out
}

// Len returns the number of buffered items.
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Dropped returns the total number of items evicted since creation.
func (b *Buffer[T]) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// caller holds mu
func (b *Buffer[T]) trim() int {
	if b.limit <= 0 || len(b.items) <= b.limit {
		return 0
	}
	n := len(b.items) - b.limit
	clear(b.items[:n])
	b.items = b.items[n:]
	b.dropped += n
	return n
}
