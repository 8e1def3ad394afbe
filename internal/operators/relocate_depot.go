package operators

import (
	"github.com/aryanbinazir/vrpsolve/internal/costeval"
	"github.com/aryanbinazir/vrpsolve/internal/searchstate"
	"github.com/aryanbinazir/vrpsolve/internal/vrpcore"
)

// RelocateWithDepot moves client U to directly after V with a reload depot
// inserted between V and U, so that U starts a new trip on V's route
// (§4.4). It only inserts reload depots; it never removes one. It is only
// defined when V's vehicle type has reload depots configured and V's route
// has a trip to spare (NumTrips < MaxTrips); otherwise it reports no
// improvement, since without a reload the move is a plain relocate, which
// the ordinary Exchange<1,0> operator already covers.
type RelocateWithDepot struct {
	counters
	sol     *searchstate.Solution
	problem *vrpcore.ProblemData
}

func NewRelocateWithDepot() *RelocateWithDepot { return &RelocateWithDepot{} }

func (o *RelocateWithDepot) Init(sol *searchstate.Solution) {
	o.sol = sol
	o.problem = sol.ProblemData()
}

func (o *RelocateWithDepot) Name() string { return "RelocateWithDepot" }

func (o *RelocateWithDepot) eligible(routeV *searchstate.Route) bool {
	vt := o.problem.VehicleTypes[routeV.VehicleType()]
	return len(vt.ReloadDepots) > 0 && routeV.NumTrips() < routeV.MaxTrips()
}

func (o *RelocateWithDepot) Evaluate(u, v int, ceval costeval.Evaluator) vrpcore.Cost {
	o.evaluations++
	sol := o.sol
	routeU := sol.ClientRoute(u)
	routeV := sol.ClientRoute(v)
	if routeU == nil || routeV == nil || u == v {
		return 0
	}
	if !o.eligible(routeV) {
		return 0
	}
	if sol.WouldViolateSameVehicle(u, routeV) {
		return 0
	}

	posU, _ := sol.ClientPosition(u)
	posV, _ := sol.ClientPosition(v)

	withoutU := spliceReplace(routeU.Nodes(), posU, 1, nil)
	insertAt := posV
	if routeU == routeV && posV >= posU {
		insertAt--
	}

	vt := o.problem.VehicleTypes[routeV.VehicleType()]
	reload := searchstate.RouteNode{Kind: searchstate.ReloadDepot, Loc: vt.ReloadDepots[0]}
	uNode := searchstate.RouteNode{Kind: searchstate.ClientNode, Loc: u}

	var newV []searchstate.RouteNode
	if routeU == routeV {
		newV = append(append([]searchstate.RouteNode{}, withoutU[:insertAt+1]...), reload, uNode)
		newV = append(newV, withoutU[insertAt+1:]...)
	} else {
		base := routeV.Nodes()
		newV = append(append([]searchstate.RouteNode{}, base[:insertAt+1]...), reload, uNode)
		newV = append(newV, base[insertAt+1:]...)
	}

	if routeU == routeV {
		oldCost := ceval.PenalisedCost(routeU.ToAggregates(routePrize(o.problem, routeU)))
		newCost := ceval.PenalisedCost(searchstate.EvaluateNodes(o.problem, routeU.VehicleType(), routeU.Profile(), newV))
		return newCost - oldCost
	}

	oldCost := ceval.PenalisedCost(routeU.ToAggregates(routePrize(o.problem, routeU))) +
		ceval.PenalisedCost(routeV.ToAggregates(routePrize(o.problem, routeV)))
	newCost := ceval.PenalisedCost(searchstate.EvaluateNodes(o.problem, routeU.VehicleType(), routeU.Profile(), withoutU)) +
		ceval.PenalisedCost(searchstate.EvaluateNodes(o.problem, routeV.VehicleType(), routeV.Profile(), newV))
	return newCost - oldCost
}

func (o *RelocateWithDepot) Apply(u, v int) {
	o.applications++
	sol := o.sol
	routeU := sol.ClientRoute(u)
	routeV := sol.ClientRoute(v)
	if routeU == nil || routeV == nil {
		return
	}
	posU, _ := sol.ClientPosition(u)
	posV, _ := sol.ClientPosition(v)

	withoutU := spliceReplace(routeU.Nodes(), posU, 1, nil)
	insertAt := posV
	if routeU == routeV && posV >= posU {
		insertAt--
	}

	vt := o.problem.VehicleTypes[routeV.VehicleType()]
	reload := searchstate.RouteNode{Kind: searchstate.ReloadDepot, Loc: vt.ReloadDepots[0]}
	uNode := searchstate.RouteNode{Kind: searchstate.ClientNode, Loc: u}

	if routeU == routeV {
		newV := append(append([]searchstate.RouteNode{}, withoutU[:insertAt+1]...), reload, uNode)
		newV = append(newV, withoutU[insertAt+1:]...)
		sol.ReplaceNodes(routeU, newV)
		return
	}

	base := routeV.Nodes()
	newV := append(append([]searchstate.RouteNode{}, base[:insertAt+1]...), reload, uNode)
	newV = append(newV, base[insertAt+1:]...)
	sol.ReplaceNodes(routeU, withoutU)
	sol.ReplaceNodes(routeV, newV)
}

func (o *RelocateWithDepot) Update(route *searchstate.Route) {}
