package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aryanbinazir/vrpsolve/internal/vrpcore"
)

func TestLoadMergeAssociative(t *testing.T) {
	a := NodeLoad(5, 0)
	b := NodeLoad(3, 1)
	c := NodeLoad(2, 4)

	left := MergeLoad(MergeLoad(a, b), c)
	right := MergeLoad(a, MergeLoad(b, c))

	assert.Equal(t, left, right)
}

func TestLoadMergeIdentity(t *testing.T) {
	a := NodeLoad(7, 2)

	assert.Equal(t, a, MergeLoad(EmptyLoad, a))
	assert.Equal(t, a, MergeLoad(a, EmptyLoad))
}

func TestLoadExcessAgainstCapacity(t *testing.T) {
	seg := MergeLoad(NodeLoad(6, 0), NodeLoad(6, 0))
	assert.Equal(t, vrpcore.Load(12), seg.Load)
	assert.Equal(t, vrpcore.Load(2), seg.ExcessAgainst(10))
	assert.Equal(t, vrpcore.Load(0), seg.ExcessAgainst(20))
}

func TestLoadFinaliseResetsAndBanksExcess(t *testing.T) {
	seg := MergeLoad(NodeLoad(6, 0), NodeLoad(6, 0))
	finalised := seg.Finalise(10)

	assert.Equal(t, vrpcore.Load(2), finalised.ExcessLoad)
	assert.Equal(t, vrpcore.Load(0), finalised.Load)
	assert.Equal(t, vrpcore.Load(0), finalised.Delivery)
	assert.Equal(t, vrpcore.Load(0), finalised.Pickup)
}
