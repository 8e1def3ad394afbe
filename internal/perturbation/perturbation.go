// Package perturbation implements the PerturbationManager of spec.md §4.6:
// a small number of random removals and reinsertions applied at the start
// of each non-exhaustive ILS iteration to escape local optima.
package perturbation

import (
	"github.com/aryanbinazir/vrpsolve/internal/costeval"
	"github.com/aryanbinazir/vrpsolve/internal/neighbourhood"
	"github.com/aryanbinazir/vrpsolve/internal/rng"
	"github.com/aryanbinazir/vrpsolve/internal/searchstate"
)

// Manager samples a target perturbation count in [MinPerturbations,
// MaxPerturbations] and applies that many random segment removals,
// reinserting every removed client afterwards via Solution.Insert.
type Manager struct {
	MinPerturbations int
	MaxPerturbations int

	current int
}

// DefaultMin and DefaultMax match the §4.6 constructor defaults.
const (
	DefaultMin = 1
	DefaultMax = 25
)

// New builds a PerturbationManager with the given bounds; non-positive
// values fall back to the §4.6 defaults.
func New(min, max int) *Manager {
	if min <= 0 {
		min = DefaultMin
	}
	if max < min {
		max = DefaultMax
	}
	return &Manager{MinPerturbations: min, MaxPerturbations: max, current: min}
}

// NumPerturbations returns the current target perturbation count.
func (m *Manager) NumPerturbations() int { return m.current }

// Shuffle re-samples the target count uniformly from [min, max].
func (m *Manager) Shuffle(r *rng.Xoshiro128PP) {
	span := m.MaxPerturbations - m.MinPerturbations + 1
	m.current = m.MinPerturbations + r.Intn(span)
}

// Perturb removes a small random segment of clients from random
// non-empty routes (one segment per perturbation count), then reinserts
// every removed client via Solution.Insert at whatever position is
// legal, preserving required-client coverage throughout.
func (m *Manager) Perturb(sol *searchstate.Solution, ss *neighbourhood.SearchSpace, ceval costeval.Evaluator, r *rng.Xoshiro128PP) {
	problem := sol.ProblemData()
	for i := 0; i < m.current; i++ {
		routes := nonEmptyRoutes(sol)
		if len(routes) == 0 {
			return
		}
		route := routes[r.Intn(len(routes))]
		if route.NumClients() == 0 {
			continue
		}
		segLen := 1 + r.Intn(3)
		if segLen > route.NumClients() {
			segLen = route.NumClients()
		}
		start := 1 + r.Intn(route.Size()-segLen-1)
		removed := collectClients(route, start, segLen)

		for _, c := range removed {
			sol.RemoveClient(c)
		}
		for _, c := range removed {
			if !sol.Insert(ceval, ss, c, true) && problem.Locations[c].Required {
				// No legal position was found for a required client;
				// force it back onto the route it was removed from rather
				// than drop required-client coverage, matching §4.6's
				// invariant.
				sol.InsertClient(route, 1, c)
			}
		}
	}
}

func nonEmptyRoutes(sol *searchstate.Solution) []*searchstate.Route {
	var routes []*searchstate.Route
	for _, r := range sol.Routes() {
		if !r.Empty() {
			routes = append(routes, r)
		}
	}
	return routes
}

func collectClients(route *searchstate.Route, start, length int) []int {
	clients := make([]int, 0, length)
	for i := start; i < start+length && i < route.Size()-1; i++ {
		n := route.At(i)
		if n.Kind == searchstate.ClientNode {
			clients = append(clients, n.Loc)
		}
	}
	return clients
}
