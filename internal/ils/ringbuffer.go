package ils

import "github.com/aryanbinazir/vrpsolve/internal/vrpcore"

// RingBuffer is the fixed-capacity history LAHC compares candidates
// against, per spec.md §4.8. peek returns the slot the write cursor
// currently points at (nil if never written); append writes there and
// advances; skip advances without writing.
type RingBuffer struct {
	slots []*vrpcore.Solution
	idx   int
}

// NewRingBuffer builds a ring buffer of the given capacity, all slots
// initially empty.
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{slots: make([]*vrpcore.Solution, capacity)}
}

// Peek returns the element at the current index, or nil if that slot has
// never been written.
func (b *RingBuffer) Peek() *vrpcore.Solution {
	return b.slots[b.idx]
}

// Append writes x at the current index and advances.
func (b *RingBuffer) Append(x *vrpcore.Solution) {
	b.slots[b.idx] = x
	b.advance()
}

// Skip advances without writing, leaving every slot's contents untouched.
func (b *RingBuffer) Skip() {
	b.advance()
}

func (b *RingBuffer) advance() {
	b.idx = (b.idx + 1) % len(b.slots)
}

// Clear resets every slot to empty and rewinds to index 0.
func (b *RingBuffer) Clear() {
	for i := range b.slots {
		b.slots[i] = nil
	}
	b.idx = 0
}

// Len is the buffer's fixed capacity.
func (b *RingBuffer) Len() int { return len(b.slots) }
