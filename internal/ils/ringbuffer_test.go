package ils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aryanbinazir/vrpsolve/internal/vrpcore"
)

func solAt(cost vrpcore.Distance) *vrpcore.Solution {
	return &vrpcore.Solution{Distance: cost}
}

// TestRingBufferWraps matches §8's "Ring buffer" property: after H+k
// appends, peek returns the (k mod H)+1-th-oldest element.
func TestRingBufferWraps(t *testing.T) {
	const h = 5
	b := NewRingBuffer(h)
	assert.Nil(t, b.Peek())

	for i := 0; i < h+2; i++ {
		b.Append(solAt(vrpcore.Distance(i)))
	}

	// h+2 appends into capacity h: the cursor has wrapped once past slot
	// 2, which was last (re)written on append #3 (value 2) and never
	// overwritten by the wrap-around writes to slots 0 and 1.
	assert.Equal(t, vrpcore.Distance(2), b.Peek().Distance)
}

func TestRingBufferSkipAdvancesWithoutWriting(t *testing.T) {
	b := NewRingBuffer(3)
	b.Append(solAt(10))
	b.Append(solAt(20))
	b.Append(solAt(30))

	before := b.Peek()
	b.Skip()
	assert.Equal(t, solAt(20).Distance, b.Peek().Distance)

	b.Skip()
	b.Skip()
	assert.Equal(t, before, b.Peek())
}

func TestRingBufferClear(t *testing.T) {
	b := NewRingBuffer(2)
	b.Append(solAt(1))
	b.Append(solAt(2))
	b.Clear()

	assert.Nil(t, b.Peek())
	b.Skip()
	assert.Nil(t, b.Peek())
}
