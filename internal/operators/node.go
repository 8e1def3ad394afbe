// Package operators implements the node- and route-level move families of
// spec.md §4.4: each exposes Evaluate (a candidate delta-cost, never
// mutating) and Apply (performs the move for real), both driven by
// LocalSearch's sweeps.
package operators

import (
	"github.com/aryanbinazir/vrpsolve/internal/costeval"
	"github.com/aryanbinazir/vrpsolve/internal/searchstate"
	"github.com/aryanbinazir/vrpsolve/internal/vrpcore"
)

// NodeOp is the common shape every node operator (Exchange<k,m>,
// SwapTails, RelocateWithDepot) satisfies.
type NodeOp interface {
	Init(sol *searchstate.Solution)
	Evaluate(u, v int, ceval costeval.Evaluator) vrpcore.Cost
	Apply(u, v int)
	Update(route *searchstate.Route)
	Name() string
	Stats() (evaluations, applications int)
}

// counters is embedded by every operator to satisfy the Stats() half of
// NodeOp/RouteOp without repeating the bookkeeping.
type counters struct {
	evaluations int
	applications int
}

func (c *counters) Stats() (int, int) { return c.evaluations, c.applications }

// Exchange implements the general Exchange<K,M> family of §4.4: remove K
// consecutive clients starting at U, remove M consecutive clients
// starting at V (M=0 means "relocate", nothing is removed from V's side
// and U's segment is inserted right after V), and reinsert each segment
// in the other's place. K=1,M=0 is relocate;
// K=1,M=1 is a swap; K,M up to 3 cover the table's general case.
type Exchange struct {
	counters
	K, M int
	sol  *searchstate.Solution
	problem *vrpcore.ProblemData
}

// NewExchange builds an Exchange<K,M> operator.
func NewExchange(k, m int) *Exchange { return &Exchange{K: k, M: m} }

func (e *Exchange) Init(sol *searchstate.Solution) {
	e.sol = sol
	e.problem = sol.ProblemData()
}

func (e *Exchange) Name() string {
	switch {
	case e.M == 0 && e.K == 1:
		return "Exchange<1,0>"
	case e.K == 1 && e.M == 1:
		return "Exchange<1,1>"
	default:
		return "Exchange<k,m>"
	}
}

// segmentBounds returns whether a K-length client-only segment starting
// at pos fits within route (never touching a depot), and the segment
// itself.
func segmentBounds(route *searchstate.Route, pos, length int) ([]searchstate.RouteNode, bool) {
	if length == 0 {
		return nil, true
	}
	if pos < 1 || pos+length > route.Size()-1 {
		return nil, false
	}
	seg := make([]searchstate.RouteNode, length)
	for i := 0; i < length; i++ {
		n := route.At(pos + i)
		if n.Kind != searchstate.ClientNode {
			return nil, false
		}
		seg[i] = n
	}
	return seg, true
}

func (e *Exchange) Evaluate(u, v int, ceval costeval.Evaluator) vrpcore.Cost {
	e.evaluations++
	sol := e.sol

	routeU := sol.ClientRoute(u)
	routeV := sol.ClientRoute(v)
	if routeU == nil || routeV == nil {
		return 0
	}
	posU, _ := sol.ClientPosition(u)
	posV, _ := sol.ClientPosition(v)

	segU, ok := segmentBounds(routeU, posU, e.K)
	if !ok {
		return 0
	}
	segV, ok := segmentBounds(routeV, posV, e.M)
	if !ok {
		return 0
	}
	insV := posV
	if e.M == 0 {
		insV = posV + 1
	}

	if routeU == routeV {
		if rangesOverlap(posU, e.K, insV, e.M) || insV == posU {
			return 0
		}
		newNodes := rebuildSameRoute(routeU.Nodes(), posU, e.K, segV, insV, e.M, segU)
		if sol.WouldViolateSameVehicleMove(segU, routeV) || sol.WouldViolateSameVehicleMove(segV, routeU) {
			return 0
		}
		oldAgg := routeU.ToAggregates(routePrize(e.problem, routeU))
		newAgg := searchstate.EvaluateNodes(e.problem, routeU.VehicleType(), routeU.Profile(), newNodes)
		return ceval.PenalisedCost(newAgg) - ceval.PenalisedCost(oldAgg)
	}

	if sol.WouldViolateSameVehicleMove(segU, routeV) || sol.WouldViolateSameVehicleMove(segV, routeU) {
		return 0
	}

	newU := spliceReplace(routeU.Nodes(), posU, e.K, segV)
	newV := spliceReplace(routeV.Nodes(), insV, e.M, segU)

	oldCost := ceval.PenalisedCost(routeU.ToAggregates(routePrize(e.problem, routeU))) +
		ceval.PenalisedCost(routeV.ToAggregates(routePrize(e.problem, routeV)))
	newCost := ceval.PenalisedCost(searchstate.EvaluateNodes(e.problem, routeU.VehicleType(), routeU.Profile(), newU)) +
		ceval.PenalisedCost(searchstate.EvaluateNodes(e.problem, routeV.VehicleType(), routeV.Profile(), newV))
	return newCost - oldCost
}

func (e *Exchange) Apply(u, v int) {
	e.applications++
	sol := e.sol
	routeU := sol.ClientRoute(u)
	routeV := sol.ClientRoute(v)
	posU, _ := sol.ClientPosition(u)
	posV, _ := sol.ClientPosition(v)
	segU, _ := segmentBounds(routeU, posU, e.K)
	segV, _ := segmentBounds(routeV, posV, e.M)
	insV := posV
	if e.M == 0 {
		insV = posV + 1
	}

	if routeU == routeV {
		newNodes := rebuildSameRoute(routeU.Nodes(), posU, e.K, segV, insV, e.M, segU)
		sol.ReplaceNodes(routeU, newNodes)
		return
	}

	newU := spliceReplace(routeU.Nodes(), posU, e.K, segV)
	newV := spliceReplace(routeV.Nodes(), insV, e.M, segU)
	sol.ReplaceNodes(routeU, newU)
	sol.ReplaceNodes(routeV, newV)
}

func (e *Exchange) Update(route *searchstate.Route) {}

func rangesOverlap(posA, lenA, posB, lenB int) bool {
	return posA < posB+lenB && posB < posA+lenA
}

// spliceReplace removes length nodes starting at pos and inserts repl in
// their place (repl may be a different length, including zero — the
// relocate case, where the "replacement" is nil and nothing fills the
// gap left by the removed segment).
func spliceReplace(nodes []searchstate.RouteNode, pos, length int, repl []searchstate.RouteNode) []searchstate.RouteNode {
	out := make([]searchstate.RouteNode, 0, len(nodes)-length+len(repl))
	out = append(out, nodes[:pos]...)
	out = append(out, repl...)
	out = append(out, nodes[pos+length:]...)
	return out
}

// rebuildSameRoute handles the within-one-route Exchange case: posU/posV
// locate the two (non-overlapping) segments being swapped within the
// same original node list.
func rebuildSameRoute(nodes []searchstate.RouteNode, posU, lenU int, segV []searchstate.RouteNode, posV, lenV int, segU []searchstate.RouteNode) []searchstate.RouteNode {
	if posU > posV {
		posU, posV = posV, posU
		lenU, lenV = lenV, lenU
		segU, segV = segV, segU
	}
	out := make([]searchstate.RouteNode, 0, len(nodes))
	out = append(out, nodes[:posU]...)
	out = append(out, segV...)
	out = append(out, nodes[posU+lenU:posV]...)
	out = append(out, segU...)
	out = append(out, nodes[posV+lenV:]...)
	return out
}

func routePrize(problem *vrpcore.ProblemData, route *searchstate.Route) vrpcore.Cost {
	var total vrpcore.Cost
	for _, n := range route.Nodes() {
		if n.Kind == searchstate.ClientNode {
			total += problem.Locations[n.Loc].Prize
		}
	}
	return total
}
