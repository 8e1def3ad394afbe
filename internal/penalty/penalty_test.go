package penalty

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryanbinazir/vrpsolve/internal/vrpcore"
)

func testParams() Params {
	p := DefaultParams()
	p.SolutionsBetweenUpdates = 4
	return p
}

func feasibleSolution() *vrpcore.Solution {
	return &vrpcore.Solution{Routes: []vrpcore.RouteResult{
		{ExcessLoad: []vrpcore.Load{0}},
	}}
}

func infeasibleSolution() *vrpcore.Solution {
	return &vrpcore.Solution{Routes: []vrpcore.RouteResult{
		{TimeWarp: 5, ExcessDistance: 3, ExcessLoad: []vrpcore.Load{2}},
	}}
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(1, Params{SolutionsBetweenUpdates: 0})
	assert.Error(t, err)

	_, err = New(1, Params{SolutionsBetweenUpdates: 1, MinPenalty: -1})
	assert.Error(t, err)

	_, err = New(1, Params{SolutionsBetweenUpdates: 1, MinPenalty: 10, MaxPenalty: 5})
	assert.Error(t, err)
}

// TestAllFeasibleDecreasesPenalties matches §8's penalty-manager property:
// with every registered solution feasible, each penalty after one window
// update is strictly lower (or pinned at min_penalty).
func TestAllFeasibleDecreasesPenalties(t *testing.T) {
	params := testParams()
	params.MinPenalty = 1
	params.MaxPenalty = 1_000_000
	m, err := New(1, params)
	require.NoError(t, err)
	m.twPenalty = 1000
	m.distPenalty = 1000
	m.loadPenalty[0] = 1000

	for i := 0; i < params.SolutionsBetweenUpdates; i++ {
		m.Register(feasibleSolution())
	}

	assert.Less(t, m.twPenalty, vrpcore.Cost(1000))
	assert.Less(t, m.distPenalty, vrpcore.Cost(1000))
	assert.Less(t, m.loadPenalty[0], vrpcore.Cost(1000))
}

// TestAllInfeasibleIncreasesPenalties mirrors the all-infeasible half of
// the same §8 property.
func TestAllInfeasibleIncreasesPenalties(t *testing.T) {
	params := testParams()
	params.MinPenalty = 1
	params.MaxPenalty = 1_000_000
	m, err := New(1, params)
	require.NoError(t, err)
	m.twPenalty = 1000
	m.distPenalty = 1000
	m.loadPenalty[0] = 1000

	for i := 0; i < params.SolutionsBetweenUpdates; i++ {
		m.Register(infeasibleSolution())
	}

	assert.Greater(t, m.twPenalty, vrpcore.Cost(1000))
	assert.Greater(t, m.distPenalty, vrpcore.Cost(1000))
	assert.Greater(t, m.loadPenalty[0], vrpcore.Cost(1000))
}

// TestAtTargetRateHoldsPenalties: registering exactly target_feasible's
// share of feasible solutions leaves every penalty unchanged.
func TestAtTargetRateHoldsPenalties(t *testing.T) {
	params := testParams()
	params.SolutionsBetweenUpdates = 20
	params.TargetFeasible = 0.5
	params.FeasTolerance = 0.05
	m, err := New(1, params)
	require.NoError(t, err)
	m.twPenalty = 1000

	for i := 0; i < params.SolutionsBetweenUpdates; i++ {
		if i%2 == 0 {
			m.Register(feasibleSolution())
		} else {
			m.Register(infeasibleSolution())
		}
	}

	assert.Equal(t, vrpcore.Cost(1000), m.twPenalty)
}

func TestInitFromFloorsTimeWarpPenaltyWhenPrizesPresent(t *testing.T) {
	problem := &vrpcore.ProblemData{
		NumDepots: 1, NumClients: 1,
		NumProfiles: 1,
		Locations: []vrpcore.Location{
			{},
			{Prize: 6000},
		},
		Distances: []vrpcore.DistanceMatrix{{N: 2, Cells: []vrpcore.Distance{0, 10, 10, 0}}},
		Durations: []vrpcore.DurationMatrix{{N: 2, Cells: []vrpcore.Duration{0, 10, 10, 0}}},
		VehicleTypes: []vrpcore.VehicleType{
			{NumAvailable: 1, UnitDistanceCost: 1},
		},
	}
	m, err := New(0, DefaultParams())
	require.NoError(t, err)
	m.InitFrom(problem)

	// maxPrize/60 = 100, which should floor an otherwise-tiny tw_penalty.
	assert.GreaterOrEqual(t, m.twPenalty, vrpcore.Cost(100))
}
