// Package localsearch implements the LocalSearch driver of spec.md §4.5:
// a granular node-operator sweep, a pairwise route-operator sweep, and
// the operator() entry point the ILS driver calls once per iteration.
package localsearch

import (
	"sort"

	"github.com/aryanbinazir/vrpsolve/internal/costeval"
	"github.com/aryanbinazir/vrpsolve/internal/neighbourhood"
	"github.com/aryanbinazir/vrpsolve/internal/operators"
	"github.com/aryanbinazir/vrpsolve/internal/perturbation"
	"github.com/aryanbinazir/vrpsolve/internal/rng"
	"github.com/aryanbinazir/vrpsolve/internal/searchstate"
	"github.com/aryanbinazir/vrpsolve/internal/vrpcore"
)

// LocalSearch owns one mutable search-view Solution for the lifetime of a
// solve and drives the node and route sweeps over it, reloading it fresh
// from the caller's immutable vrpcore.Solution on every entry point call.
type LocalSearch struct {
	problem *vrpcore.ProblemData
	ss      *neighbourhood.SearchSpace
	perturb *perturbation.Manager
	rng     *rng.Xoshiro128PP

	view *searchstate.Solution

	nodeOps  []operators.NodeOp
	routeOps []operators.RouteOp

	promising    []bool // indexed by client offset
	lastTested   []int  // indexed by client offset
	routeVersion []int  // indexed by route idx
	numUpdates   int

	clientOrder  []int
	vehTypeOrder []int
	routeOrder   []int
	nodeOpOrder  []int
	routeOpOrder []int
}

// New builds a LocalSearch with the full node- and route-operator roster
// named in §4.4's table, sharing problem and the granular neighbour lists
// with every other component of the solve.
func New(problem *vrpcore.ProblemData, ss *neighbourhood.SearchSpace, perturb *perturbation.Manager, r *rng.Xoshiro128PP) *LocalSearch {
	ls := &LocalSearch{problem: problem, ss: ss, perturb: perturb, rng: r}
	ls.view = searchstate.NewSolution(problem)

	ls.nodeOps = []operators.NodeOp{
		operators.NewExchange(1, 0),
		operators.NewExchange(1, 1),
		operators.NewExchange(2, 0),
		operators.NewExchange(2, 1),
		operators.NewExchange(2, 2),
		operators.NewExchange(3, 0),
		operators.NewExchange(3, 1),
		operators.NewExchange(3, 2),
		operators.NewExchange(3, 3),
		operators.NewSwapTails(),
		operators.NewRelocateWithDepot(),
	}
	ls.routeOps = []operators.RouteOp{
		operators.NewSwapStar(),
		operators.NewSwapRoutes(),
	}
	for _, op := range ls.nodeOps {
		op.Init(ls.view)
	}
	for _, op := range ls.routeOps {
		op.Init(ls.view)
	}

	ls.promising = make([]bool, problem.NumClients)
	ls.lastTested = make([]int, problem.NumClients)
	ls.routeVersion = make([]int, ls.view.NumRoutes())
	return ls
}

func (ls *LocalSearch) clientOffset(client int) int { return client - ls.problem.NumDepots }

// load refreshes the search view from sol and re-derives every per-solve
// shuffle order and bookkeeping slice, matching §4.5's "seeded with all on
// loadSolution" and §5's list of shuffle() call sites.
func (ls *LocalSearch) load(sol *vrpcore.Solution) {
	ls.view.Load(sol)

	for i := range ls.promising {
		ls.promising[i] = true
	}
	for i := range ls.lastTested {
		ls.lastTested[i] = -1
	}
	for i := range ls.routeVersion {
		ls.routeVersion[i] = 0
	}
	ls.numUpdates = 0

	clientPerm := ls.rng.ShuffleInts(ls.problem.NumClients)
	ls.clientOrder = make([]int, len(clientPerm))
	for i, p := range clientPerm {
		ls.clientOrder[i] = ls.problem.NumDepots + p
	}
	ls.vehTypeOrder = ls.rng.ShuffleInts(len(ls.problem.VehicleTypes))
	ls.routeOrder = ls.rng.ShuffleInts(ls.view.NumRoutes())
	ls.nodeOpOrder = ls.rng.ShuffleInts(len(ls.nodeOps))
	ls.routeOpOrder = ls.rng.ShuffleInts(len(ls.routeOps))
}

// touch bumps the global update counter and the affected route's version,
// implementing §4.5's update(U, V): "increments num_updates, calls
// route.update() on both affected routes" (the route itself is already
// updated by the searchstate mutator that triggered this call; touch only
// maintains the version bookkeeping the sweeps use for change detection).
func (ls *LocalSearch) touch(route *searchstate.Route) {
	if route == nil {
		return
	}
	ls.numUpdates++
	ls.routeVersion[route.Idx()] = ls.numUpdates
}

func (ls *LocalSearch) markPromising(client int) {
	if ls.problem.IsClient(client) {
		ls.promising[ls.clientOffset(client)] = true
	}
}

func (ls *LocalSearch) markRequiredMissingAsPromising() {
	for c := ls.problem.NumDepots; c < ls.problem.NumLocations(); c++ {
		if ls.problem.Locations[c].Required && !ls.view.IsAssigned(c) {
			ls.promising[ls.clientOffset(c)] = true
		}
	}
}

// routeChangedSince reports whether client's route has been touched more
// recently than the given update-counter snapshot. An unassigned client
// always counts as changed, so every sweep keeps retrying insertion.
func (ls *LocalSearch) routeChangedSince(client, since int) bool {
	route := ls.view.ClientRoute(client)
	if route == nil {
		return true
	}
	return ls.routeVersion[route.Idx()] > since
}

// Search loads sol, runs the node-operator sweep plus the one-shot
// multi-trip insertion pass, and unloads the result.
func (ls *LocalSearch) Search(sol *vrpcore.Solution, ceval costeval.Evaluator) *vrpcore.Solution {
	ls.load(sol)
	ls.nodeSweep(ceval)
	ls.multiTripInsertionPass(ceval)
	return ls.view.Unload(ceval)
}

// Intensify loads sol, runs one pairwise route-operator sweep, and
// unloads the result.
func (ls *LocalSearch) Intensify(sol *vrpcore.Solution, ceval costeval.Evaluator) *vrpcore.Solution {
	ls.load(sol)
	ls.routeSweep(ceval)
	return ls.view.Unload(ceval)
}

// Operator loads sol, optionally perturbs it, then alternates the node
// and route sweeps until a route sweep finds no further improvement, and
// unloads the result.
func (ls *LocalSearch) Operator(sol *vrpcore.Solution, ceval costeval.Evaluator, exhaustive bool) *vrpcore.Solution {
	ls.load(sol)
	if !exhaustive {
		ls.perturb.Shuffle(ls.rng)
		ls.perturb.Perturb(ls.view, ls.ss, ceval, ls.rng)
	}
	for {
		ls.nodeSweep(ceval)
		ls.multiTripInsertionPass(ceval)
		if !ls.routeSweep(ceval) {
			break
		}
	}
	return ls.view.Unload(ceval)
}

// nodeSweep is §4.5's inner loop: repeat over clientOrder, testing only
// promising clients, until a full pass applies no move.
func (ls *LocalSearch) nodeSweep(ceval costeval.Evaluator) {
	ls.markRequiredMissingAsPromising()
	step := 0
	for {
		searchCompleted := true
		for _, u := range ls.clientOrder {
			off := ls.clientOffset(u)
			if !ls.promising[off] {
				continue
			}
			prevTested := ls.lastTested[off]
			ls.lastTested[off] = ls.numUpdates

			moved := false
			if ls.routeChangedSince(u, prevTested) {
				if ls.applyOptionalClientMoves(u, ceval) {
					moved = true
				}
			}
			if ls.applyGroupMoves(u, ceval) {
				moved = true
			}

			if ls.view.ClientRoute(u) == nil {
				ls.promising[off] = moved
				if moved {
					searchCompleted = false
				}
				continue
			}

			if ls.applyDepotRemovalAround(u, ceval) {
				moved = true
			}

			for _, v := range ls.ss.Neighbours(u) {
				if ls.view.ClientRoute(v) == nil {
					continue
				}
				if !ls.routeChangedSince(u, prevTested) && !ls.routeChangedSince(v, prevTested) {
					continue
				}
				if ls.applyNodeOps(u, v, ceval) {
					moved = true
					break
				}
			}

			if step > 0 {
				if ls.applyEmptyRouteMoves(u, ceval) {
					moved = true
				}
			}

			ls.promising[off] = moved
			if moved {
				searchCompleted = false
			}
		}
		step++
		if searchCompleted {
			break
		}
	}
}

// applyNodeOps tries every node operator, in this load's shuffled order,
// against (u, v) and applies the first improving one.
func (ls *LocalSearch) applyNodeOps(u, v int, ceval costeval.Evaluator) bool {
	for _, oi := range ls.nodeOpOrder {
		op := ls.nodeOps[oi]
		delta := op.Evaluate(u, v, ceval)
		if delta < 0 {
			op.Apply(u, v)
			ls.touch(ls.view.ClientRoute(u))
			ls.touch(ls.view.ClientRoute(v))
			ls.markPromising(u)
			ls.markPromising(v)
			return true
		}
	}
	return false
}

// applyOptionalClientMoves implements §4.5's bullet of the same name.
func (ls *LocalSearch) applyOptionalClientMoves(u int, ceval costeval.Evaluator) bool {
	loc := ls.problem.Locations[u]
	route := ls.view.ClientRoute(u)

	if route == nil {
		if ls.view.Insert(ceval, ls.ss, u, loc.Required) {
			ls.touch(ls.view.ClientRoute(u))
			ls.markPromising(u)
			return true
		}
		if loc.Required {
			return false
		}
		for _, v := range ls.ss.Neighbours(u) {
			routeV := ls.view.ClientRoute(v)
			if routeV == nil {
				continue
			}
			posV, _ := ls.view.ClientPosition(v)
			if searchstate.InplaceCost(ls.problem, ceval, routeV, posV, u) < 0 {
				ls.view.RemoveClient(v)
				ls.view.InsertClient(routeV, posV, u)
				ls.touch(routeV)
				ls.markPromising(v)
				ls.markPromising(u)
				return true
			}
		}
		return false
	}

	if loc.Required {
		return false
	}
	pos, _ := ls.view.ClientPosition(u)
	if searchstate.RemoveCost(ls.problem, ceval, route, pos) < 0 {
		ls.view.RemoveClient(u)
		ls.touch(route)
		ls.markPromising(u)
		return true
	}
	return false
}

// applyGroupMoves implements §4.5's bullet of the same name for every
// mutually-exclusive group u belongs to.
func (ls *LocalSearch) applyGroupMoves(u int, ceval costeval.Evaluator) bool {
	moved := false
	for _, g := range ls.problem.ClientGroups {
		if !g.MutuallyExclusive || !containsInt(g.Clients, u) {
			continue
		}

		var present []int
		for _, c := range g.Clients {
			if ls.view.IsAssigned(c) {
				present = append(present, c)
			}
		}

		if len(present) == 0 {
			if ls.view.IsAssigned(u) {
				continue
			}
			if ls.view.Insert(ceval, ls.ss, u, g.Required) {
				ls.touch(ls.view.ClientRoute(u))
				ls.markPromising(u)
				moved = true
			}
			continue
		}

		if ls.view.IsAssigned(u) {
			continue
		}

		type scoredMember struct {
			client int
			cost   vrpcore.Cost
		}
		scored := make([]scoredMember, 0, len(present))
		for _, c := range present {
			cr := ls.view.ClientRoute(c)
			pos, _ := ls.view.ClientPosition(c)
			scored = append(scored, scoredMember{c, searchstate.RemoveCost(ls.problem, ceval, cr, pos)})
		}
		sort.Slice(scored, func(i, j int) bool { return scored[i].cost < scored[j].cost })

		for i := 0; i < len(scored)-1; i++ {
			route := ls.view.ClientRoute(scored[i].client)
			ls.view.RemoveClient(scored[i].client)
			ls.touch(route)
			ls.markPromising(scored[i].client)
			moved = true
		}

		keep := scored[len(scored)-1].client
		route := ls.view.ClientRoute(keep)
		if route != nil {
			pos, _ := ls.view.ClientPosition(keep)
			if searchstate.InplaceCost(ls.problem, ceval, route, pos, u) < 0 {
				ls.view.RemoveClient(keep)
				ls.view.InsertClient(route, pos, u)
				ls.touch(route)
				ls.markPromising(keep)
				ls.markPromising(u)
				moved = true
			}
		}
	}
	return moved
}

// applyDepotRemovalAround implements applyDepotRemovalMove for both
// neighbours of u: if the node immediately before or after u is a reload
// depot whose removal is not a loss, drop it.
func (ls *LocalSearch) applyDepotRemovalAround(u int, ceval costeval.Evaluator) bool {
	moved := false
	for {
		route := ls.view.ClientRoute(u)
		if route == nil {
			return moved
		}
		pos, _ := ls.view.ClientPosition(u)
		removed := false
		for _, np := range []int{pos - 1, pos + 1} {
			if np <= 0 || np >= route.Size()-1 {
				continue
			}
			if route.At(np).Kind != searchstate.ReloadDepot {
				continue
			}
			if searchstate.RemoveCost(ls.problem, ceval, route, np) <= 0 {
				ls.view.RemoveNode(route, np)
				ls.touch(route)
				removed, moved = true, true
				break
			}
		}
		if !removed {
			return moved
		}
	}
}

// applyEmptyRouteMoves tries to activate the first empty route of each
// vehicle type, in this load's shuffled vehTypeOrder, by moving the routed
// client u to its start when that lowers the cost.
func (ls *LocalSearch) applyEmptyRouteMoves(u int, ceval costeval.Evaluator) bool {
	routeU := ls.view.ClientRoute(u)
	if routeU == nil {
		return false
	}
	posU, _ := ls.view.ClientPosition(u)
	removeDelta := searchstate.RemoveCost(ls.problem, ceval, routeU, posU)
	for _, vt := range ls.vehTypeOrder {
		if !ls.vehicleAllowsClient(vt, u) {
			continue
		}
		route := ls.firstEmptyRouteOfType(vt)
		if route == nil || ls.view.WouldViolateSameVehicle(u, route) {
			continue
		}
		if removeDelta+searchstate.InsertCost(ls.problem, ceval, route, 0, u) < 0 {
			ls.view.RemoveClient(u)
			ls.view.InsertClient(route, 1, u)
			ls.touch(routeU)
			ls.touch(route)
			ls.markPromising(u)
			return true
		}
	}
	return false
}

func (ls *LocalSearch) firstEmptyRouteOfType(vt int) *searchstate.Route {
	for _, route := range ls.view.Routes() {
		if route.VehicleType() == vt && route.Empty() {
			return route
		}
	}
	return nil
}

func (ls *LocalSearch) vehicleAllowsClient(vt, client int) bool {
	allowed := ls.problem.VehicleTypes[vt].AllowedClients
	if allowed == nil {
		return true
	}
	return containsInt(allowed, client)
}

// routeSweep is §4.5's route sweep: pairwise iteration (rU < rV, in this
// load's shuffled routeOrder) over non-empty routes, applying the first
// improving route operator on each pair. Returns whether any move applied.
func (ls *LocalSearch) routeSweep(ceval costeval.Evaluator) bool {
	all := ls.view.Routes()
	var nonEmpty []*searchstate.Route
	for _, idx := range ls.routeOrder {
		r := all[idx]
		if !r.Empty() {
			nonEmpty = append(nonEmpty, r)
		}
	}

	moved := false
	for i := 0; i < len(nonEmpty); i++ {
		for j := i + 1; j < len(nonEmpty); j++ {
			routeU, routeV := nonEmpty[i], nonEmpty[j]
			for _, oi := range ls.routeOpOrder {
				op := ls.routeOps[oi]
				delta := op.Evaluate(routeU, routeV, ceval)
				if delta < 0 {
					op.Apply(routeU, routeV)
					ls.touch(routeU)
					ls.touch(routeV)
					moved = true
					break
				}
			}
		}
	}
	return moved
}

// multiTripInsertionPass is §4.5's one-shot, non-iterative pass: for each
// unassigned, positively-prized client, find the cheapest route able to
// serve it as a brand-new (reload_depot -> client -> reload_depot) trip
// appended at the route's end, and insert it there if profitable.
func (ls *LocalSearch) multiTripInsertionPass(ceval costeval.Evaluator) {
	for c := ls.problem.NumDepots; c < ls.problem.NumLocations(); c++ {
		if ls.view.IsAssigned(c) {
			continue
		}
		loc := ls.problem.Locations[c]
		if loc.Prize <= 0 {
			continue
		}
		ls.tryAppendNewTrip(c, loc.Prize)
	}
}

func (ls *LocalSearch) tryAppendNewTrip(client int, prize vrpcore.Cost) bool {
	var bestRoute *searchstate.Route
	var bestGain vrpcore.Cost

	for _, route := range ls.view.Routes() {
		if route.Empty() {
			continue
		}
		vt := ls.problem.VehicleTypes[route.VehicleType()]
		if len(vt.ReloadDepots) == 0 || route.NumTrips() >= route.MaxTrips() {
			continue
		}
		if !ls.vehicleAllowsClient(route.VehicleType(), client) {
			continue
		}

		// Capacity gate per §9's first Open Question: checked against the
		// client's own demand alone, not against load already committed on
		// this route's earlier trips. A trip reload finalises and resets
		// the load segment, so this is conservative-but-possibly-suboptimal
		// by construction, exactly as the spec instructs us to keep it
		// rather than silently strengthen it.
		clientLoc := ls.problem.Locations[client]
		if exceedsCapacity(clientLoc, vt.Capacity) {
			continue
		}

		reloadLoc := vt.ReloadDepots[0]
		last := route.Size() - 1
		lastLoc := route.At(last - 1).Loc
		distM := ls.problem.Distances[route.Profile()]
		extraDist := distM.Get(lastLoc, reloadLoc) + distM.Get(reloadLoc, client) +
			distM.Get(client, vt.EndDepot) - distM.Get(lastLoc, vt.EndDepot)
		gain := prize - vrpcore.Cost(extraDist)*vt.UnitDistanceCost
		if gain <= 0 {
			continue
		}

		nodes := append(append([]searchstate.RouteNode{}, route.Nodes()[:last]...),
			searchstate.RouteNode{Kind: searchstate.ReloadDepot, Loc: reloadLoc},
			searchstate.RouteNode{Kind: searchstate.ClientNode, Loc: client})
		nodes = append(nodes, route.Nodes()[last:]...)

		agg := searchstate.EvaluateNodes(ls.problem, route.VehicleType(), route.Profile(), nodes)
		if agg.Overtime != 0 {
			continue
		}

		if bestRoute == nil || gain > bestGain {
			bestRoute, bestGain = route, gain
		}
	}

	if bestRoute == nil {
		return false
	}
	vt := ls.problem.VehicleTypes[bestRoute.VehicleType()]
	last := bestRoute.Size() - 1
	ls.view.InsertDepot(bestRoute, last, vt.ReloadDepots[0])
	ls.view.InsertClient(bestRoute, last+1, client)
	ls.touch(bestRoute)
	ls.markPromising(client)
	return true
}

// exceedsCapacity is the naive, per-client-only capacity gate described
// in DESIGN.md's first Open Question decision: true if the client's own
// demand on any dimension exceeds that dimension's vehicle capacity,
// regardless of what the route's other trips already carry.
func exceedsCapacity(loc vrpcore.Location, capacity []vrpcore.Load) bool {
	for d, cap := range capacity {
		demand := loc.Delivery[d]
		if loc.Pickup[d] > demand {
			demand = loc.Pickup[d]
		}
		if demand > cap {
			return true
		}
	}
	return false
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
