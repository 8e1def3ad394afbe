package searchstate

import (
	"math"

	"golang.org/x/exp/slices"

	"github.com/aryanbinazir/vrpsolve/internal/costeval"
	"github.com/aryanbinazir/vrpsolve/internal/segment"
	"github.com/aryanbinazir/vrpsolve/internal/vrpcore"
)

// Route is the mutable search-view sequence described in spec.md §4.2: an
// ordered list of RouteNodes (depots + clients) with cached prefix/suffix
// segment arrays that let the primitive insert/remove/in-place deltas of
// deltas.go price a single-client change in O(1) instead of re-folding
// the node list.
//
// A Route never owns a *vrpcore.ProblemData; it borrows one for the
// lifetime of a solve, matching §9's "ProblemData is read-only and
// shared."
type Route struct {
	problem     *vrpcore.ProblemData
	idx         int
	vehicleType int
	profile     int

	nodes []RouteNode

	prefixLoad [][]segment.Load // prefixLoad[i][d]
	suffixLoad [][]segment.Load
	prefixDur  []segment.Duration
	suffixDur  []segment.Duration
	distBefore []vrpcore.Distance // cumulative distance from start through position i
	distAfter  []vrpcore.Distance // cumulative distance from position i through end

	distance       vrpcore.Distance
	duration       vrpcore.Duration
	timeWarp       vrpcore.Duration
	overtime       vrpcore.Duration
	excessDistance vrpcore.Distance
	load           []vrpcore.Load
	excessLoad     []vrpcore.Load
	numClients     int
	numTrips       int
	centroidX      float64
	centroidY      float64
}

// NewRoute builds an empty route (just start/end depots) for the given
// vehicle type, bound to the shared ProblemData.
func NewRoute(problem *vrpcore.ProblemData, idx, vehicleType int) *Route {
	vt := problem.VehicleTypes[vehicleType]
	r := &Route{
		problem:     problem,
		idx:         idx,
		vehicleType: vehicleType,
		profile:     vt.Profile,
	}
	r.Clear()
	return r
}

// Idx is this route's stable index into Solution.routes.
func (r *Route) Idx() int { return r.idx }

// VehicleType is the index into ProblemData.VehicleTypes this route drives.
func (r *Route) VehicleType() int { return r.vehicleType }

// Profile is the distance/duration matrix profile this route's vehicle uses.
func (r *Route) Profile() int { return r.profile }

func (r *Route) vt() vrpcore.VehicleType { return r.problem.VehicleTypes[r.vehicleType] }

// MaxTrips is max_reloads+1, or 1 if the vehicle has no reload depots.
func (r *Route) MaxTrips() int {
	vt := r.vt()
	if vt.MaxReloads <= 0 {
		return 1
	}
	return vt.MaxReloads + 1
}

// Reserve pre-allocates node-array capacity; a no-op optimisation hint.
func (r *Route) Reserve(n int) {
	if cap(r.nodes) < n {
		grown := make([]RouteNode, len(r.nodes), n)
		copy(grown, r.nodes)
		r.nodes = grown
	}
}

// Clear resets the route to its empty form: [start_depot, end_depot].
func (r *Route) Clear() {
	vt := r.vt()
	r.nodes = []RouteNode{
		{Kind: StartDepot, Loc: vt.StartDepot},
		{Kind: EndDepot, Loc: vt.EndDepot},
	}
	r.load = make([]vrpcore.Load, r.problem.NumLoadDimensions)
	r.excessLoad = make([]vrpcore.Load, r.problem.NumLoadDimensions)
	r.Update()
}

// PushBack appends a node at the end, just before the end depot.
func (r *Route) PushBack(n RouteNode) {
	r.Insert(len(r.nodes)-1, n)
}

// Insert places n at position idx, shifting everything at and after idx
// one slot to the right. idx must be in (0, size) — callers never insert
// before the start depot or after the end depot.
func (r *Route) Insert(idx int, n RouteNode) {
	r.nodes = slices.Insert(r.nodes, idx, n)
}

// Remove deletes the node at position idx.
func (r *Route) Remove(idx int) {
	r.nodes = slices.Delete(r.nodes, idx, idx+1)
}

// Swap exchanges the nodes at the two given positions.
func (r *Route) Swap(i, j int) {
	r.nodes[i], r.nodes[j] = r.nodes[j], r.nodes[i]
}

// Size is the number of positions, including both depots.
func (r *Route) Size() int { return len(r.nodes) }

// Empty reports whether the route carries no clients (just the two depots).
func (r *Route) Empty() bool { return r.numClients == 0 }

// At returns the node occupying position i.
func (r *Route) At(i int) RouteNode { return r.nodes[i] }

// Nodes returns the full node sequence; callers must not mutate it.
func (r *Route) Nodes() []RouteNode { return r.nodes }

func (r *Route) locDelivery(loc, dim int) vrpcore.Load {
	if r.problem.IsDepot(loc) {
		return 0
	}
	return r.problem.Locations[loc].Delivery[dim]
}

func (r *Route) locPickup(loc, dim int) vrpcore.Load {
	if r.problem.IsDepot(loc) {
		return 0
	}
	return r.problem.Locations[loc].Pickup[dim]
}

func (r *Route) identityDuration(loc int) segment.Duration {
	l := r.problem.Locations[loc]
	return segment.NodeDuration(l.TWEarly, l.TWLate, l.ServiceDuration, l.ReleaseTime)
}

// Update recomputes every cached segment array and aggregate from the
// current node sequence. Clients must call this after any mutation before
// reading aggregates or segment queries; Solution's mutators
// (InsertClient, InsertDepot, RemoveClient, RemoveNode, ReplaceNodes,
// Load) call it after every change they make.
func (r *Route) Update() {
	n := len(r.nodes)
	vt := r.vt()
	dims := r.problem.NumLoadDimensions
	distMatrix := r.problem.Distances[r.profile]
	durMatrix := r.problem.Durations[r.profile]

	r.prefixLoad = make([][]segment.Load, n)
	r.suffixLoad = make([][]segment.Load, n)
	r.prefixDur = make([]segment.Duration, n)
	r.suffixDur = make([]segment.Duration, n)
	r.distBefore = make([]vrpcore.Distance, n)
	r.distAfter = make([]vrpcore.Distance, n)

	runningLoad := make([]segment.Load, dims)
	runningDur := segment.Duration{StartLate: vrpcore.Duration(vrpcore.Unreachable)}
	runningDist := vrpcore.Distance(0)
	numTrips := 0

	for i := 0; i < n; i++ {
		node := r.nodes[i]
		identLoad := make([]segment.Load, dims)
		for d := 0; d < dims; d++ {
			identLoad[d] = segment.NodeLoad(r.locDelivery(node.Loc, d), r.locPickup(node.Loc, d))
		}
		identDur := r.identityDuration(node.Loc)

		if i == 0 {
			runningLoad = identLoad
			runningDur = identDur
			numTrips = 1
		} else {
			prev := r.nodes[i-1]
			edgeDist := distMatrix.Get(prev.Loc, node.Loc)
			edgeDur := durMatrix.Get(prev.Loc, node.Loc)
			runningDist = vrpcore.SatAddDistance(runningDist, edgeDist)
			for d := 0; d < dims; d++ {
				runningLoad[d] = segment.MergeLoad(runningLoad[d], identLoad[d])
			}
			runningDur = segment.Merge(edgeDur, runningDur, identDur)
		}

		snapLoad := make([]segment.Load, dims)
		copy(snapLoad, runningLoad)
		r.prefixLoad[i] = snapLoad
		r.prefixDur[i] = runningDur
		r.distBefore[i] = runningDist

		if node.Kind == ReloadDepot {
			numTrips++
			for d := 0; d < dims; d++ {
				runningLoad[d] = runningLoad[d].Finalise(vt.Capacity[d])
			}
			runningDur = runningDur.FinaliseBack()
		}
	}

	// Suffix arrays: symmetric backward pass.
	runningLoad = make([]segment.Load, dims)
	runningDur = segment.Duration{StartLate: vrpcore.Duration(vrpcore.Unreachable)}
	runningDist = 0
	for i := n - 1; i >= 0; i-- {
		node := r.nodes[i]
		identLoad := make([]segment.Load, dims)
		for d := 0; d < dims; d++ {
			identLoad[d] = segment.NodeLoad(r.locDelivery(node.Loc, d), r.locPickup(node.Loc, d))
		}
		identDur := r.identityDuration(node.Loc)

		if i == n-1 {
			runningLoad = identLoad
			runningDur = identDur
		} else {
			next := r.nodes[i+1]
			edgeDist := distMatrix.Get(node.Loc, next.Loc)
			edgeDur := durMatrix.Get(node.Loc, next.Loc)
			runningDist = vrpcore.SatAddDistance(runningDist, edgeDist)
			for d := 0; d < dims; d++ {
				runningLoad[d] = segment.MergeLoad(identLoad[d], runningLoad[d])
			}
			runningDur = segment.Merge(edgeDur, identDur, runningDur)
		}

		snapLoad := make([]segment.Load, dims)
		copy(snapLoad, runningLoad)
		r.suffixLoad[i] = snapLoad
		r.suffixDur[i] = runningDur
		r.distAfter[i] = runningDist

		if node.Kind == ReloadDepot {
			for d := 0; d < dims; d++ {
				runningLoad[d] = runningLoad[d].Finalise(vt.Capacity[d])
			}
			runningDur = runningDur.FinaliseBack()
		}
	}

	r.distance = r.distBefore[n-1]
	total := r.prefixDur[n-1]
	r.duration = total.TotalDuration()
	r.timeWarp = total.TotalTimeWarp(r.duration, vt.MaxDuration)
	r.overtime = vrpcore.ExcessOf(r.duration, vt.ShiftDuration)
	r.excessDistance = vrpcore.ExcessOf(r.distance, vt.MaxDistance)

	r.load = make([]vrpcore.Load, dims)
	r.excessLoad = make([]vrpcore.Load, dims)
	for d := 0; d < dims; d++ {
		finalLoad := r.prefixLoad[n-1][d]
		r.load[d] = finalLoad.Load
		r.excessLoad[d] = finalLoad.ExcessAgainst(vt.Capacity[d])
	}

	r.numTrips = numTrips
	r.numClients = 0
	sumX, sumY := 0.0, 0.0
	for _, node := range r.nodes {
		if node.Kind == ClientNode {
			r.numClients++
			loc := r.problem.Locations[node.Loc]
			sumX += loc.X
			sumY += loc.Y
		}
	}
	if r.numClients > 0 {
		r.centroidX = sumX / float64(r.numClients)
		r.centroidY = sumY / float64(r.numClients)
	} else {
		r.centroidX, r.centroidY = 0, 0
	}
}

// --- Queries ---

func (r *Route) NumClients() int       { return r.numClients }
func (r *Route) NumTrips() int         { return r.numTrips }
func (r *Route) Distance() vrpcore.Distance { return r.distance }
func (r *Route) Duration() vrpcore.Duration { return r.duration }
func (r *Route) TimeWarp() vrpcore.Duration { return r.timeWarp }
func (r *Route) Overtime() vrpcore.Duration { return r.overtime }
func (r *Route) ExcessDistance() vrpcore.Distance { return r.excessDistance }
func (r *Route) Load(d int) vrpcore.Load       { return r.load[d] }
func (r *Route) ExcessLoad(d int) vrpcore.Load { return r.excessLoad[d] }
func (r *Route) Centroid() (float64, float64)  { return r.centroidX, r.centroidY }

func (r *Route) HasExcessLoad() bool {
	for _, e := range r.excessLoad {
		if e != 0 {
			return true
		}
	}
	return false
}

func (r *Route) HasTimeWarp() bool       { return r.timeWarp != 0 }
func (r *Route) HasExcessDistance() bool { return r.excessDistance != 0 }

// IsFeasible reports whether the route violates no constraint.
func (r *Route) IsFeasible() bool {
	return !r.HasExcessLoad() && !r.HasTimeWarp() && !r.HasExcessDistance() && r.overtime == 0
}

// DistBetween is the travel distance directly from the location at
// position i to the location at position j (adjacent positions only are
// meaningful for most callers; exposed generally for symmetry with
// dist_before/dist_after).
func (r *Route) DistBetween(i, j int) vrpcore.Distance {
	return r.problem.Distances[r.profile].Get(r.nodes[i].Loc, r.nodes[j].Loc)
}

// DistBefore is the cumulative route distance from the start depot through
// position i, inclusive of edges.
func (r *Route) DistBefore(i int) vrpcore.Distance { return r.distBefore[i] }

// DistAfter is the cumulative route distance from position i through the
// end depot.
func (r *Route) DistAfter(i int) vrpcore.Distance { return r.distAfter[i] }

// PrefixLoad returns the finalised-aware load segment covering [0, i].
func (r *Route) PrefixLoad(i, dim int) segment.Load { return r.prefixLoad[i][dim] }

// SuffixLoad returns the finalised-aware load segment covering [i, end].
func (r *Route) SuffixLoad(i, dim int) segment.Load { return r.suffixLoad[i][dim] }

// PrefixDuration returns the duration segment covering [0, i].
func (r *Route) PrefixDuration(i int) segment.Duration { return r.prefixDur[i] }

// SuffixDuration returns the duration segment covering [i, end].
func (r *Route) SuffixDuration(i int) segment.Duration { return r.suffixDur[i] }

// Extent is the route's approximate geographic radius: the largest
// distance from the centroid to any client it serves. Used by
// OverlapsWith to prune SwapStar route pairs (§4.2).
func (r *Route) Extent() float64 {
	maxD := 0.0
	for _, node := range r.nodes {
		if node.Kind != ClientNode {
			continue
		}
		loc := r.problem.Locations[node.Loc]
		dx := loc.X - r.centroidX
		dy := loc.Y - r.centroidY
		d := dx*dx + dy*dy
		if d > maxD {
			maxD = d
		}
	}
	return math.Sqrt(maxD)
}

// OverlapsWith reports whether this route's centroid lies within
// tolerance * (this.Extent()+other.Extent()) of other's centroid.
func (r *Route) OverlapsWith(other *Route, tolerance float64) bool {
	if r.numClients == 0 || other.numClients == 0 {
		return true
	}
	dx := r.centroidX - other.centroidX
	dy := r.centroidY - other.centroidY
	centroidDist := math.Sqrt(dx*dx + dy*dy)
	maxExtent := r.Extent() + other.Extent()
	return centroidDist <= tolerance*maxExtent
}

// ToAggregates packages the route's cached aggregates for costeval.
func (r *Route) ToAggregates(prize vrpcore.Cost) costeval.RouteAggregates {
	vt := r.vt()
	excessLoad := make([]vrpcore.Load, len(r.excessLoad))
	copy(excessLoad, r.excessLoad)
	return costeval.RouteAggregates{
		FixedCost:        vt.FixedCost,
		Distance:         r.distance,
		Duration:         r.duration,
		Overtime:         r.overtime,
		UnitDistanceCost: vt.UnitDistanceCost,
		UnitDurationCost: vt.UnitDurationCost,
		UnitOvertimeCost: vt.UnitOvertimeCost,
		ExcessLoad:       excessLoad,
		TimeWarp:         r.timeWarp,
		ExcessDistance:   r.excessDistance,
		PrizeCollected:   prize,
	}
}
