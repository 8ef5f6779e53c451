package route

import (
	"math"

	"github.com/velib-tools/rebalance/core/milp"
)

// hintFrom copies the incumbent arc values into a warm-start hint for the
// same variant.
func hintFrom(v *variant, sol milp.Solution) map[int]float64 {
	hint := make(map[int]float64, len(v.arcs))
	for _, x := range v.arcs {
		hint[x] = math.Round(sol.Value(x))
	}
	return hint
}

// freezeExcept pins every arc variable of days other than dayA and dayB to
// its incumbent value and returns a closure restoring the original bounds.
// The refinement passes are strictly sequential: each round re-optimizes the
// unfrozen days against the previous round's frozen incumbent.
func (v *variant) freezeExcept(sol milp.Solution, dayA, dayB int) func() {
	type saved struct {
		v      int
		lb, ub float64
	}
	var frozen []saved
	pin := func(id int, val float64) {
		lb, ub := v.m.Bounds(id)
		frozen = append(frozen, saved{v: id, lb: lb, ub: ub})
		v.m.SetBounds(id, val, val)
	}
	for k, x := range v.arcs {
		if k.day == dayA || k.day == dayB {
			continue
		}
		pin(x, math.Round(sol.Value(x)))
	}
	for day, a := range v.absorb {
		if day == dayA || day == dayB {
			continue
		}
		pin(a, sol.Value(a))
	}
	return func() {
		for _, s := range frozen {
			v.m.SetBounds(s.v, s.lb, s.ub)
		}
	}
}

// refineDays walks the days in turn, re-optimizing each one with every other
// day frozen at the incumbent, for a fixed number of rounds, then runs one
// short full re-solve.
func (o *Optimizer) refineDays(v *variant, sol milp.Solution) milp.Solution {
	for round := 0; round < o.cfg.DayRounds; round++ {
		for focus := 0; focus < v.horizon; focus++ {
			restore := v.freezeExcept(sol, focus, -1)
			res, err := v.m.Solve(milp.Options{TimeLimit: o.cfg.DayTime, Hint: hintFrom(v, sol)})
			restore()
			if err == nil && res.Feasible() && res.Objective > sol.Objective {
				sol = res
			}
		}
	}
	res, err := v.m.Solve(milp.Options{TimeLimit: o.cfg.DayTime, Hint: hintFrom(v, sol)})
	if err == nil && res.Feasible() && res.Objective > sol.Objective {
		sol = res
	}
	o.log.Infof("per-day refinement done, objective %.2f", sol.Objective)
	return sol
}

// refinePairs repeatedly frees two random days at once under a
// feasibility-first search mode, escaping local optima the single-day pass
// cannot reach.
func (o *Optimizer) refinePairs(v *variant, sol milp.Solution) milp.Solution {
	if v.horizon < 2 {
		return sol
	}
	for it := 0; it < o.cfg.PairRounds; it++ {
		a := o.rng.Intn(v.horizon)
		b := o.rng.Intn(v.horizon - 1)
		if b >= a {
			b++
		}
		restore := v.freezeExcept(sol, a, b)
		res, err := v.m.Solve(milp.Options{
			TimeLimit:        o.cfg.PairTime,
			FeasibilityFocus: true,
			Hint:             hintFrom(v, sol),
		})
		restore()
		if err == nil && res.Feasible() && res.Objective > sol.Objective {
			sol = res
		}
	}
	o.log.Infof("paired-day refinement done, objective %.2f", sol.Objective)
	return sol
}
