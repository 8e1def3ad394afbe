package ils

import (
	"github.com/aryanbinazir/vrpsolve/internal/costeval"
	"github.com/aryanbinazir/vrpsolve/internal/vrpcore"
)

// StopFn is queried after each outer iteration (and may be queried after
// the inner sweep too) with the current best feasible-or-infinite cost;
// returning true ends the solve, per §6's stop predicate taxonomy.
type StopFn func(bestObj vrpcore.Cost) bool

// MaxIterations stops after n calls.
func MaxIterations(n int) StopFn {
	count := 0
	return func(vrpcore.Cost) bool {
		count++
		return count >= n
	}
}

// MaxRuntime stops once elapsed time since the first call reaches limit.
// nowFn is injected so the predicate never calls time.Now() itself,
// keeping every source of real-world nondeterminism at the edges of the
// core per §5.
func MaxRuntime(limit float64, nowFn func() float64) StopFn {
	var start float64
	started := false
	return func(vrpcore.Cost) bool {
		now := nowFn()
		if !started {
			start = now
			started = true
		}
		return now-start >= limit
	}
}

// NoImprovement stops after n consecutive calls where bestObj did not
// strictly decrease.
func NoImprovement(n int) StopFn {
	best := costeval.Infinite
	streak := 0
	return func(obj vrpcore.Cost) bool {
		if obj < best {
			best = obj
			streak = 0
		} else {
			streak++
		}
		return streak >= n
	}
}

// FirstFeasible stops the first time bestObj is finite.
func FirstFeasible() StopFn {
	return func(obj vrpcore.Cost) bool {
		return obj < costeval.Infinite
	}
}

// MultipleCriteria is the OR combinator: stops once any predicate stops.
func MultipleCriteria(fns ...StopFn) StopFn {
	return func(obj vrpcore.Cost) bool {
		stop := false
		for _, fn := range fns {
			if fn(obj) {
				stop = true
			}
		}
		return stop
	}
}

// All is the AND combinator: stops only once every predicate stops.
func All(fns ...StopFn) StopFn {
	return func(obj vrpcore.Cost) bool {
		stop := true
		for _, fn := range fns {
			if !fn(obj) {
				stop = false
			}
		}
		return stop
	}
}
