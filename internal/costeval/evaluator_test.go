package costeval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aryanbinazir/vrpsolve/internal/vrpcore"
)

func baseAggregates() RouteAggregates {
	return RouteAggregates{
		Distance:         100,
		UnitDistanceCost: 1,
		ExcessLoad:       []vrpcore.Load{0},
	}
}

func TestCostInfiniteWhenInfeasible(t *testing.T) {
	e := New([]vrpcore.Cost{10}, 10, 10)

	agg := baseAggregates()
	agg.TimeWarp = 5

	assert.Equal(t, Infinite, e.Cost(agg))
	assert.NotEqual(t, Infinite, e.PenalisedCost(agg))
}

func TestCostMonotoneInViolations(t *testing.T) {
	e := New([]vrpcore.Cost{10}, 10, 10)

	low := baseAggregates()
	low.ExcessLoad = []vrpcore.Load{1}

	high := baseAggregates()
	high.ExcessLoad = []vrpcore.Load{5}

	assert.Greater(t, e.PenalisedCost(high), e.PenalisedCost(low))
}

func TestPenalisedCostSubtractsPrizes(t *testing.T) {
	e := New([]vrpcore.Cost{0}, 0, 0)

	agg := baseAggregates()
	agg.PrizeCollected = 30

	assert.Equal(t, vrpcore.Cost(70), e.PenalisedCost(agg))
}
