package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aryanbinazir/vrpsolve/internal/vrpcore"
)

func TestDurationMergeIdentity(t *testing.T) {
	a := NodeDuration(0, 10, 2, 0)
	empty := Duration{StartEarly: 0, StartLate: vrpcore.Duration(vrpcore.Unreachable)}

	merged := Merge(0, empty, a)
	assert.Equal(t, a.Duration, merged.Duration)
	assert.Equal(t, a.TimeWarp, merged.TimeWarp)
}

func TestDurationMergeNoWarp(t *testing.T) {
	a := NodeDuration(0, 10, 2, 0)
	b := NodeDuration(5, 8, 3, 0)

	merged := Merge(4, a, b)

	assert.Equal(t, vrpcore.Duration(9), merged.Duration)
	assert.Equal(t, vrpcore.Duration(0), merged.TimeWarp)
	assert.Equal(t, vrpcore.Duration(0), merged.StartEarly)
	assert.Equal(t, vrpcore.Duration(2), merged.StartLate)
}

func TestDurationMergeIncursWarp(t *testing.T) {
	a := NodeDuration(0, 10, 2, 0)
	b := NodeDuration(5, 8, 3, 0)

	merged := Merge(7, a, b)

	assert.Equal(t, vrpcore.Duration(12), merged.Duration)
	assert.Equal(t, vrpcore.Duration(1), merged.TimeWarp)
}

func TestDurationMergeAssociative(t *testing.T) {
	a := NodeDuration(0, 100, 2, 0)
	b := NodeDuration(5, 20, 3, 0)
	c := NodeDuration(10, 15, 1, 0)

	left := Merge(2, Merge(3, a, b), c)
	right := Merge(3, a, Merge(2, b, c))

	assert.Equal(t, left.Duration, right.Duration)
	assert.Equal(t, left.TimeWarp, right.TimeWarp)
	assert.Equal(t, left.StartEarly, right.StartEarly)
	assert.Equal(t, left.StartLate, right.StartLate)
}

func TestDurationFinaliseBackBanksCumulative(t *testing.T) {
	a := NodeDuration(0, 10, 2, 0)
	b := NodeDuration(5, 8, 3, 0)
	merged := Merge(7, a, b)

	finalised := merged.FinaliseBack()

	assert.Equal(t, vrpcore.Duration(12), finalised.CumDuration)
	assert.Equal(t, vrpcore.Duration(1), finalised.CumTimeWarp)
	assert.Equal(t, vrpcore.Duration(0), finalised.Duration)
	assert.Equal(t, vrpcore.Duration(0), finalised.TimeWarp)
}
