// Package penalty implements the PenaltyManager of spec.md §4.7: it
// tracks recent feasibility rates per violation kind and adapts three
// penalty weights so the search spends roughly target_feasible of its
// time in feasible territory.
package penalty

import (
	"github.com/samber/lo"

	"github.com/aryanbinazir/vrpsolve/internal/costeval"
	"github.com/aryanbinazir/vrpsolve/internal/vrpcore"
)

// Params configures the manager. New does not fill in zero fields: it
// rejects a non-positive SolutionsBetweenUpdates, a negative MinPenalty
// and a MaxPenalty below MinPenalty. Solve substitutes DefaultParams when
// it is given an all-zero Params.
type Params struct {
	SolutionsBetweenUpdates int
	PenaltyIncrease         float64
	PenaltyDecrease         float64
	TargetFeasible          float64
	FeasTolerance           float64
	MinPenalty              vrpcore.Cost
	MaxPenalty              vrpcore.Cost
}

// DefaultParams matches §4.7's constructor defaults.
func DefaultParams() Params {
	return Params{
		SolutionsBetweenUpdates: 500,
		PenaltyIncrease:         1.25,
		PenaltyDecrease:         0.85,
		TargetFeasible:          0.65,
		FeasTolerance:           0.05,
		MinPenalty:              1,
		MaxPenalty:              100_000,
	}
}

// Manager owns the current penalty weights and the sliding feasibility
// windows that drive their adaptation.
type Manager struct {
	params Params

	loadPenalty []vrpcore.Cost
	twPenalty   vrpcore.Cost
	distPenalty vrpcore.Cost

	loadFeas [][]bool
	twFeas   []bool
	distFeas []bool
}

// New validates params (rejecting configuration errors at construction,
// per §7) and returns a manager whose load penalties start at MaxPenalty
// and whose time-warp and distance penalties start at zero; call InitFrom
// before the first solve iteration to seed them from the problem data.
func New(numLoadDimensions int, params Params) (*Manager, error) {
	if params.SolutionsBetweenUpdates <= 0 {
		return nil, errConfig("solutions_between_updates must be positive")
	}
	if params.MinPenalty < 0 {
		return nil, errConfig("min_penalty must be non-negative")
	}
	if params.MaxPenalty < params.MinPenalty {
		return nil, errConfig("max_penalty must be >= min_penalty")
	}
	m := &Manager{
		params:      params,
		loadPenalty: make([]vrpcore.Cost, numLoadDimensions),
		loadFeas:    make([][]bool, numLoadDimensions),
	}
	for d := range m.loadPenalty {
		m.loadPenalty[d] = params.MaxPenalty
	}
	return m, nil
}

type configError string

func (e configError) Error() string { return string(e) }
func errConfig(msg string) error    { return configError("penalty: " + msg) }

// InitFrom seeds penalties from the problem's average edge statistics,
// per §4.7: tw_penalty and dist_penalty start proportional to average
// edge cost per unit duration/distance, and load penalties start at
// max_penalty (they only ever adapt down as infeasible-load solutions
// become rare).
func (m *Manager) InitFrom(problem *vrpcore.ProblemData) {
	var sumCost, sumDur, sumDist float64
	var maxPrize vrpcore.Cost
	n := 0
	dist := problem.Distances[0]
	dur := problem.Durations[0]
	locs := problem.NumLocations()
	unitCost := vrpcore.Cost(1)
	if len(problem.VehicleTypes) > 0 {
		unitCost = problem.VehicleTypes[0].UnitDistanceCost
		if unitCost == 0 {
			unitCost = 1
		}
	}
	for i := 0; i < locs; i++ {
		for j := 0; j < locs; j++ {
			if i == j {
				continue
			}
			d := dist.Get(i, j)
			if vrpcore.IsUnreachable(int64(d)) {
				continue
			}
			sumCost += float64(d) * float64(unitCost)
			sumDur += float64(dur.Get(i, j))
			sumDist += float64(d)
			n++
		}
	}
	for _, l := range problem.Locations {
		if l.Prize > maxPrize {
			maxPrize = l.Prize
		}
	}

	if n == 0 {
		n = 1
	}
	avgCost := sumCost / float64(n)
	avgDur := sumDur / float64(n)
	avgDist := sumDist / float64(n)
	if avgDur < 1 {
		avgDur = 1
	}
	if avgDist < 1 {
		avgDist = 1
	}

	m.twPenalty = vrpcore.Cost(avgCost / avgDur)
	m.distPenalty = vrpcore.Cost(avgCost / avgDist)

	if maxPrize > 0 {
		floor := maxPrize / 60
		if m.twPenalty < floor {
			m.twPenalty = floor
		}
	}
	for d := range m.loadPenalty {
		m.loadPenalty[d] = m.params.MaxPenalty
	}
}

// CostEvaluator returns a costeval.Evaluator bound to the current
// penalty weights.
func (m *Manager) CostEvaluator() costeval.Evaluator {
	return costeval.New(append([]vrpcore.Cost{}, m.loadPenalty...), m.twPenalty, m.distPenalty)
}

// MaxCostEvaluator returns an evaluator with every penalty pinned to
// max_penalty, used when finalising or cleaning up a solution so that
// any residual infeasibility is priced as harshly as possible.
func (m *Manager) MaxCostEvaluator() costeval.Evaluator {
	maxLoad := make([]vrpcore.Cost, len(m.loadPenalty))
	for d := range maxLoad {
		maxLoad[d] = m.params.MaxPenalty
	}
	return costeval.New(maxLoad, m.params.MaxPenalty, m.params.MaxPenalty)
}

// Register appends the solution's per-violation feasibility flags to the
// sliding windows, updating (and resetting) any window that has reached
// solutions_between_updates. Returns true if any penalty changed, so the
// caller knows to rebuild its cached cost evaluator.
func (m *Manager) Register(sol *vrpcore.Solution) bool {
	changed := false

	twFeasible, distFeasible := true, true
	loadFeasible := make([]bool, len(m.loadPenalty))
	for d := range loadFeasible {
		loadFeasible[d] = true
	}
	for _, r := range sol.Routes {
		if r.TimeWarp != 0 {
			twFeasible = false
		}
		if r.ExcessDistance != 0 {
			distFeasible = false
		}
		for d, e := range r.ExcessLoad {
			if e != 0 && d < len(loadFeasible) {
				loadFeasible[d] = false
			}
		}
	}

	m.twFeas = append(m.twFeas, twFeasible)
	m.distFeas = append(m.distFeas, distFeasible)
	for d := range m.loadFeas {
		m.loadFeas[d] = append(m.loadFeas[d], loadFeasible[d])
	}

	if len(m.twFeas) >= m.params.SolutionsBetweenUpdates {
		m.twPenalty = adapt(m.twPenalty, rate(m.twFeas), m.params)
		m.twFeas = m.twFeas[:0]
		changed = true
	}
	if len(m.distFeas) >= m.params.SolutionsBetweenUpdates {
		m.distPenalty = adapt(m.distPenalty, rate(m.distFeas), m.params)
		m.distFeas = m.distFeas[:0]
		changed = true
	}
	for d := range m.loadFeas {
		if len(m.loadFeas[d]) >= m.params.SolutionsBetweenUpdates {
			m.loadPenalty[d] = adapt(m.loadPenalty[d], rate(m.loadFeas[d]), m.params)
			m.loadFeas[d] = m.loadFeas[d][:0]
			changed = true
		}
	}
	return changed
}

func rate(flags []bool) float64 {
	if len(flags) == 0 {
		return 1
	}
	feasible := lo.CountBy(flags, func(b bool) bool { return b })
	return float64(feasible) / float64(len(flags))
}

func adapt(penalty vrpcore.Cost, feasRate float64, params Params) vrpcore.Cost {
	switch {
	case feasRate < params.TargetFeasible-params.FeasTolerance:
		penalty = vrpcore.Cost(float64(penalty) * params.PenaltyIncrease)
	case feasRate > params.TargetFeasible+params.FeasTolerance:
		penalty = vrpcore.Cost(float64(penalty) * params.PenaltyDecrease)
	default:
		return penalty
	}
	if penalty < params.MinPenalty {
		penalty = params.MinPenalty
	}
	if penalty > params.MaxPenalty {
		penalty = params.MaxPenalty
	}
	if penalty == 0 && params.MinPenalty == 0 {
		penalty = 1
	}
	return penalty
}
