package vrpsolve

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryanbinazir/vrpsolve/internal/vrpcore"
)

// floorDist is the "Euclidean distance rounded down" rule §8's scenarios
// use to build their fixture matrices.
func floorDist(ax, ay, bx, by float64) vrpcore.Distance {
	dx, dy := ax-bx, ay-by
	return vrpcore.Distance(math.Floor(math.Sqrt(dx*dx + dy*dy)))
}

// buildMatrices constructs a single-profile distance matrix (floored
// Euclidean) and a duration matrix equal to it, from a flat list of
// (x, y) coordinates.
func buildMatrices(coords [][2]float64) (vrpcore.DistanceMatrix, vrpcore.DurationMatrix) {
	n := len(coords)
	dist := make([]vrpcore.Distance, n*n)
	dur := make([]vrpcore.Duration, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			d := floorDist(coords[i][0], coords[i][1], coords[j][0], coords[j][1])
			dist[i*n+j] = d
			dur[i*n+j] = vrpcore.Duration(d)
		}
	}
	return vrpcore.DistanceMatrix{N: n, Cells: dist}, vrpcore.DurationMatrix{N: n, Cells: dur}
}

func bigWindow() (vrpcore.Duration, vrpcore.Duration) { return 0, 100_000 }

// scenario1TrivialCVRP matches §8 scenario 1: a single vehicle, capacity
// 20, visiting four clients arranged around a depot. Expect a single
// feasible route covering every client.
func TestScenario1TrivialCVRP(t *testing.T) {
	coords := [][2]float64{{0, 0}, {10, 0}, {0, 10}, {-10, 0}, {0, -10}}
	dist, dur := buildMatrices(coords)
	early, late := bigWindow()

	problem := &vrpcore.ProblemData{
		NumDepots: 1, NumClients: 4,
		NumProfiles: 1,
		Distances:   []vrpcore.DistanceMatrix{dist},
		Durations:   []vrpcore.DurationMatrix{dur},
		Locations: []vrpcore.Location{
			{TWEarly: early, TWLate: late},
			{TWEarly: early, TWLate: late, Required: true, Delivery: []vrpcore.Load{5}, Pickup: []vrpcore.Load{0}},
			{TWEarly: early, TWLate: late, Required: true, Delivery: []vrpcore.Load{5}, Pickup: []vrpcore.Load{0}},
			{TWEarly: early, TWLate: late, Required: true, Delivery: []vrpcore.Load{5}, Pickup: []vrpcore.Load{0}},
			{TWEarly: early, TWLate: late, Required: true, Delivery: []vrpcore.Load{5}, Pickup: []vrpcore.Load{0}},
		},
		VehicleTypes: []vrpcore.VehicleType{
			{
				Name: "veh", NumAvailable: 1, Capacity: []vrpcore.Load{20},
				StartDepot: 0, EndDepot: 0, TWEarly: early, TWLate: late,
				ShiftDuration: 100_000, MaxDuration: 100_000, UnitDistanceCost: 1,
			},
		},
		NumLoadDimensions: 1,
	}

	result, err := Solve(problem, Options{Seed: 1, MaxIterations: 3000})
	require.NoError(t, err)

	sol := result.BestSolution
	assert.True(t, sol.IsFeasible())
	assert.Empty(t, sol.Unassigned)
	assert.Equal(t, 1, sol.NumRoutes)
	assert.Equal(t, 4, sol.Routes[0].NumClients())
}

// scenario2MultiVehicleCapacitySplit matches §8 scenario 2: the same
// four clients, but capacity 10 per vehicle forces a two-route split.
func TestScenario2MultiVehicleCapacitySplit(t *testing.T) {
	coords := [][2]float64{{0, 0}, {10, 0}, {0, 10}, {-10, 0}, {0, -10}}
	dist, dur := buildMatrices(coords)
	early, late := bigWindow()

	problem := &vrpcore.ProblemData{
		NumDepots: 1, NumClients: 4,
		NumProfiles: 1,
		Distances:   []vrpcore.DistanceMatrix{dist},
		Durations:   []vrpcore.DurationMatrix{dur},
		Locations: []vrpcore.Location{
			{TWEarly: early, TWLate: late},
			{TWEarly: early, TWLate: late, Required: true, Delivery: []vrpcore.Load{5}, Pickup: []vrpcore.Load{0}},
			{TWEarly: early, TWLate: late, Required: true, Delivery: []vrpcore.Load{5}, Pickup: []vrpcore.Load{0}},
			{TWEarly: early, TWLate: late, Required: true, Delivery: []vrpcore.Load{5}, Pickup: []vrpcore.Load{0}},
			{TWEarly: early, TWLate: late, Required: true, Delivery: []vrpcore.Load{5}, Pickup: []vrpcore.Load{0}},
		},
		VehicleTypes: []vrpcore.VehicleType{
			{
				Name: "veh", NumAvailable: 2, Capacity: []vrpcore.Load{10},
				StartDepot: 0, EndDepot: 0, TWEarly: early, TWLate: late,
				ShiftDuration: 100_000, MaxDuration: 100_000, UnitDistanceCost: 1,
			},
		},
		NumLoadDimensions: 1,
	}

	result, err := Solve(problem, Options{Seed: 1, MaxIterations: 3000})
	require.NoError(t, err)

	sol := result.BestSolution
	assert.True(t, sol.IsFeasible())
	assert.Empty(t, sol.Unassigned)
	assert.Equal(t, 2, sol.NumRoutes)
	totalClients := 0
	for _, r := range sol.Routes {
		totalClients += r.NumClients()
		for d, load := range r.Load {
			assert.LessOrEqual(t, load, vrpcore.Load(10), "dimension %d must respect capacity", d)
		}
	}
	assert.Equal(t, 4, totalClients)
}

// scenario3TimeWindows matches §8 scenario 3: A and B share the window
// [0,10] and A is nearer the depot, so the best route serves A first.
func TestScenario3TimeWindows(t *testing.T) {
	coords := [][2]float64{{0, 0}, {10, 0}, {20, 0}}
	dist, dur := buildMatrices(coords)

	problem := &vrpcore.ProblemData{
		NumDepots: 1, NumClients: 2,
		NumProfiles: 1,
		Distances:   []vrpcore.DistanceMatrix{dist},
		Durations:   []vrpcore.DurationMatrix{dur},
		Locations: []vrpcore.Location{
			{TWEarly: 0, TWLate: 1000},
			{TWEarly: 0, TWLate: 10, Required: true},
			{TWEarly: 0, TWLate: 10, Required: true},
		},
		VehicleTypes: []vrpcore.VehicleType{
			{
				Name: "veh", NumAvailable: 1, Capacity: []vrpcore.Load{},
				StartDepot: 0, EndDepot: 0, TWEarly: 0, TWLate: 1000,
				ShiftDuration: 1000, MaxDuration: 1000, UnitDistanceCost: 1,
			},
		},
		NumLoadDimensions: 0,
	}

	result, err := Solve(problem, Options{Seed: 1, MaxIterations: 3000})
	require.NoError(t, err)

	sol := result.BestSolution
	assert.True(t, sol.IsFeasible())
	require.Equal(t, 1, sol.NumRoutes)
	require.Len(t, sol.Routes[0].Trips, 1)
	clients := sol.Routes[0].Trips[0].Clients
	require.Len(t, clients, 2)
	assert.Equal(t, 1, clients[0], "A (nearer the depot) must be served before B")
	assert.Equal(t, 2, clients[1])
}

// scenario4PrizeCollecting matches §8 scenario 4: a required client A and
// a far-away, low-value optional client B. The best solution leaves B
// unvisited.
func TestScenario4PrizeCollectingOptional(t *testing.T) {
	coords := [][2]float64{{0, 0}, {1, 0}, {100, 100}}
	dist, dur := buildMatrices(coords)
	early, late := bigWindow()

	problem := &vrpcore.ProblemData{
		NumDepots: 1, NumClients: 2,
		NumProfiles: 1,
		Distances:   []vrpcore.DistanceMatrix{dist},
		Durations:   []vrpcore.DurationMatrix{dur},
		Locations: []vrpcore.Location{
			{TWEarly: early, TWLate: late},
			{TWEarly: early, TWLate: late, Required: true, Delivery: []vrpcore.Load{1}, Pickup: []vrpcore.Load{0}, Prize: 0},
			{TWEarly: early, TWLate: late, Required: false, Delivery: []vrpcore.Load{1}, Pickup: []vrpcore.Load{0}, Prize: 10},
		},
		VehicleTypes: []vrpcore.VehicleType{
			{
				Name: "veh", NumAvailable: 1, Capacity: []vrpcore.Load{1000},
				StartDepot: 0, EndDepot: 0, TWEarly: early, TWLate: late,
				ShiftDuration: 100_000, MaxDuration: 100_000, UnitDistanceCost: 1,
			},
		},
		NumLoadDimensions: 1,
	}

	result, err := Solve(problem, Options{Seed: 1, MaxIterations: 3000})
	require.NoError(t, err)

	sol := result.BestSolution
	assert.True(t, sol.IsFeasible())
	assert.Equal(t, []int{2}, sol.Unassigned)
}

// scenario5MutuallyExclusiveGroup matches §8 scenario 5: two co-located,
// optional, mutually-exclusive clients. Exactly one ends up visited.
func TestScenario5MutuallyExclusiveGroup(t *testing.T) {
	coords := [][2]float64{{0, 0}, {5, 0}, {5, 0}}
	dist, dur := buildMatrices(coords)
	early, late := bigWindow()

	problem := &vrpcore.ProblemData{
		NumDepots: 1, NumClients: 2,
		NumProfiles: 1,
		Distances:   []vrpcore.DistanceMatrix{dist},
		Durations:   []vrpcore.DurationMatrix{dur},
		Locations: []vrpcore.Location{
			{TWEarly: early, TWLate: late},
			{TWEarly: early, TWLate: late, Required: false, GroupID: 0},
			{TWEarly: early, TWLate: late, Required: false, GroupID: 0},
		},
		VehicleTypes: []vrpcore.VehicleType{
			{
				Name: "veh", NumAvailable: 1, Capacity: []vrpcore.Load{},
				StartDepot: 0, EndDepot: 0, TWEarly: early, TWLate: late,
				ShiftDuration: 100_000, MaxDuration: 100_000, UnitDistanceCost: 1,
			},
		},
		ClientGroups: []vrpcore.ClientGroup{
			{Clients: []int{1, 2}, Required: true, MutuallyExclusive: true},
		},
		NumLoadDimensions: 0,
	}

	result, err := Solve(problem, Options{Seed: 1, MaxIterations: 3000})
	require.NoError(t, err)

	sol := result.BestSolution
	assert.True(t, sol.IsFeasible())
	present := 0
	for _, loc := range []int{1, 2} {
		if !containsAssigned(sol, loc) {
			continue
		}
		present++
	}
	assert.Equal(t, 1, present)
}

// scenario6SameVehicleConstraint matches §8 scenario 6: two clients in a
// same-vehicle group must end up on the same route.
func TestScenario6SameVehicleConstraint(t *testing.T) {
	coords := [][2]float64{{0, 0}, {3, 0}, {-3, 0}}
	dist, dur := buildMatrices(coords)
	early, late := bigWindow()

	problem := &vrpcore.ProblemData{
		NumDepots: 1, NumClients: 2,
		NumProfiles: 1,
		Distances:   []vrpcore.DistanceMatrix{dist},
		Durations:   []vrpcore.DurationMatrix{dur},
		Locations: []vrpcore.Location{
			{TWEarly: early, TWLate: late},
			{TWEarly: early, TWLate: late, Required: true},
			{TWEarly: early, TWLate: late, Required: true},
		},
		VehicleTypes: []vrpcore.VehicleType{
			{
				Name: "veh", NumAvailable: 2, Capacity: []vrpcore.Load{},
				StartDepot: 0, EndDepot: 0, TWEarly: early, TWLate: late,
				ShiftDuration: 100_000, MaxDuration: 100_000, UnitDistanceCost: 1,
			},
		},
		SameVehicleGroups: []vrpcore.SameVehicleGroup{
			{Clients: []int{1, 2}},
		},
		NumLoadDimensions: 0,
	}

	result, err := Solve(problem, Options{Seed: 1, MaxIterations: 3000})
	require.NoError(t, err)

	sol := result.BestSolution
	assert.True(t, sol.IsFeasible())

	routeOf := map[int]int{}
	for ri, r := range sol.Routes {
		for _, trip := range r.Trips {
			for _, c := range trip.Clients {
				routeOf[c] = ri
			}
		}
	}
	require.Contains(t, routeOf, 1)
	require.Contains(t, routeOf, 2)
	assert.Equal(t, routeOf[1], routeOf[2], "same-vehicle group members must share a route")
}

// TestDeterminismGivenSameSeed matches §8's "Given identical seed and
// identical inputs, two runs produce identical (best, stats.num_iterations,
// stats.improvements, stats.restarts)" and §5's ordering guarantee.
func TestDeterminismGivenSameSeed(t *testing.T) {
	coords := [][2]float64{{0, 0}, {10, 3}, {-6, 8}, {14, -9}, {-11, -4}, {5, 15}}
	dist, dur := buildMatrices(coords)
	early, late := bigWindow()

	buildProblem := func() *vrpcore.ProblemData {
		locs := make([]vrpcore.Location, len(coords))
		for i := range locs {
			locs[i] = vrpcore.Location{TWEarly: early, TWLate: late}
			if i > 0 {
				locs[i].Required = true
				locs[i].Delivery = []vrpcore.Load{3}
				locs[i].Pickup = []vrpcore.Load{0}
			}
		}
		return &vrpcore.ProblemData{
			NumDepots: 1, NumClients: len(coords) - 1,
			NumProfiles: 1,
			Distances:   []vrpcore.DistanceMatrix{dist},
			Durations:   []vrpcore.DurationMatrix{dur},
			Locations:   locs,
			VehicleTypes: []vrpcore.VehicleType{
				{
					Name: "veh", NumAvailable: 2, Capacity: []vrpcore.Load{10},
					StartDepot: 0, EndDepot: 0, TWEarly: early, TWLate: late,
					ShiftDuration: 100_000, MaxDuration: 100_000, UnitDistanceCost: 1,
				},
			},
			NumLoadDimensions: 1,
		}
	}

	opts := Options{Seed: 42, MaxIterations: 500}
	result1, err := Solve(buildProblem(), opts)
	require.NoError(t, err)
	result2, err := Solve(buildProblem(), opts)
	require.NoError(t, err)

	assert.Equal(t, result1.Stats.NumIterations, result2.Stats.NumIterations)
	assert.Equal(t, result1.Stats.Improvements, result2.Stats.Improvements)
	assert.Equal(t, result1.Stats.Restarts, result2.Stats.Restarts)
	assert.Equal(t, result1.Stats.FinalCost, result2.Stats.FinalCost)
	assert.Equal(t, result1.BestSolution, result2.BestSolution)
}

func containsAssigned(sol *vrpcore.Solution, loc int) bool {
	for _, r := range sol.Routes {
		for _, t := range r.Trips {
			for _, c := range t.Clients {
				if c == loc {
					return true
				}
			}
		}
	}
	return false
}
