// Package neighbourhood builds the granular neighbourhood lists the
// GLOSSARY defines: a per-client list of top-k other clients ranked by a
// proximity measure blending edge cost, minimum forced wait and minimum
// time warp, so LocalSearch only ever scans a bounded, geographically
// sensible candidate set instead of all client pairs.
package neighbourhood

import (
	"sort"

	"github.com/samber/lo"

	"github.com/aryanbinazir/vrpsolve/internal/vrpcore"
)

// SearchSpace holds the granular neighbour lists; it is built once per
// solve and shared read-only by every operator. The route visiting order
// of the sweeps is kept by LocalSearch, not here.
type SearchSpace struct {
	problem    *vrpcore.ProblemData
	k          int
	neighbours [][]int // indexed by loc, clients only
}

// DefaultK is the neighbour-list size used when the caller does not
// override it via Options.
const DefaultK = 10

// Build computes granular neighbour lists for every client, using the
// first distance/duration profile as the representative proximity metric
// (clients are shared across vehicle types; profile 0 is the common case
// of a single homogeneous cost structure, matching how the teacher's
// distance cache is profile-agnostic in internal/distance/osrm.go).
func Build(problem *vrpcore.ProblemData, k int) *SearchSpace {
	if k <= 0 {
		k = DefaultK
	}
	n := problem.NumLocations()
	ss := &SearchSpace{problem: problem, k: k, neighbours: make([][]int, n)}

	dist := problem.Distances[0]
	dur := problem.Durations[0]

	for i := problem.NumDepots; i < n; i++ {
		type scored struct {
			loc   int
			score float64
		}
		candidates := make([]scored, 0, problem.NumClients-1)
		for j := problem.NumDepots; j < n; j++ {
			if i == j {
				continue
			}
			candidates = append(candidates, scored{loc: j, score: proximity(problem, dist, dur, i, j)})
		}
		sort.Slice(candidates, func(a, b int) bool { return candidates[a].score < candidates[b].score })
		top := k
		if top > len(candidates) {
			top = len(candidates)
		}
		ss.neighbours[i] = lo.Map(candidates[:top], func(c scored, _ int) int { return c.loc })
	}
	return ss
}

// proximity combines raw edge cost with the minimum unavoidable wait or
// time-warp incurred travelling i->j or j->i, whichever direction is
// cheaper; both terms vanish for edges with no time-window friction.
func proximity(problem *vrpcore.ProblemData, dist vrpcore.DistanceMatrix, dur vrpcore.DurationMatrix, i, j int) float64 {
	edgeCost := float64(dist.Get(i, j))

	li, lj := problem.Locations[i], problem.Locations[j]
	fwdWait := waitOrWarp(li, lj, dur.Get(i, j))
	bwdWait := waitOrWarp(lj, li, dur.Get(j, i))
	friction := fwdWait
	if bwdWait < friction {
		friction = bwdWait
	}
	return edgeCost + friction
}

func waitOrWarp(from, to vrpcore.Location, travel vrpcore.Duration) float64 {
	arrival := from.TWEarly + from.ServiceDuration + travel
	wait := 0.0
	if to.TWEarly > arrival {
		wait = float64(to.TWEarly - arrival)
	}
	warp := 0.0
	latestArrival := from.TWLate + from.ServiceDuration + travel
	if latestArrival > to.TWLate {
		warp = float64(latestArrival - to.TWLate)
	}
	if wait < warp {
		return wait
	}
	return warp
}

// Neighbours returns client's granular neighbour list, nearest first.
func (s *SearchSpace) Neighbours(client int) []int { return s.neighbours[client] }

// K is the configured neighbour-list size.
func (s *SearchSpace) K() int { return s.k }
