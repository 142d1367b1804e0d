// Package ring provides a fixed-capacity FIFO buffer with O(1) eviction.
//
// Once full, each push drops exactly the single oldest element, so the
// buffer always holds the most recent Cap() elements in insertion order.
// The buffer is not safe for concurrent use; callers guard it with their
// own lock so eviction and derived state stay consistent under one
// critical section.
package ring

// Buffer is a bounded FIFO ring over a backing slice.
type Buffer[T any] struct {
	items []T
	head  int // index of the oldest element
	size  int
}

// New creates a buffer with the given capacity. Capacity must be positive.
func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Buffer[T]{
		items: make([]T, capacity),
	}
}

// Push appends an element. When the buffer is full the oldest element is
// overwritten; the evicted element and true are returned.
func (b *Buffer[T]) Push(item T) (evicted T, wasFull bool) {
	if b.size == len(b.items) {
		evicted = b.items[b.head]
		b.items[b.head] = item
		b.head = (b.head + 1) % len(b.items)
		return evicted, true
	}

	b.items[(b.head+b.size)%len(b.items)] = item
	b.size++
	return evicted, false
}

// Len returns the number of buffered elements.
func (b *Buffer[T]) Len() int {
	return b.size
}

// Cap returns the fixed capacity.
func (b *Buffer[T]) Cap() int {
	return len(b.items)
}

// At returns the i-th element in insertion order, oldest first.
// The caller must keep i within [0, Len()).
func (b *Buffer[T]) At(i int) T {
	return b.items[(b.head+i)%len(b.items)]
}

// Snapshot copies the buffered elements in insertion order, oldest first.
func (b *Buffer[T]) Snapshot() []T {
	out := make([]T, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.At(i)
	}
	return out
}

// Each calls fn for every buffered element in insertion order until fn
// returns false.
func (b *Buffer[T]) Each(fn func(item T) bool) {
	for i := 0; i < b.size; i++ {
		if !fn(b.At(i)) {
			return
		}
	}
}
