// Package plan builds the visit-planning optimization: choosing, for every
// station, a concrete weekly regulation pattern consistent with its dominance
// frontier, under a fleet-wide per-day injection cap.
package plan

import (
	"time"

	"github.com/velib-tools/rebalance/core/logger"
	"github.com/velib-tools/rebalance/core/milp"
	"github.com/velib-tools/rebalance/core/model"
)

// CoreVars exposes the decision variables shared between the visit planner
// and the routing optimizer: one injection variable per station and day, and
// one success score per station. Indices align with the frontier slice the
// model was built from.
type CoreVars struct {
	Dinj  [][]int
	Score []int
}

// BuildCore adds the visit-planning variables and constraints for the given
// frontiers to m. With binary injections the planner decides patterns
// directly; the routing model relaxes them to continuous and lets the arc
// variables force integrality.
func BuildCore(m *milp.Model, frontiers []model.Frontier, horizon, dayCap int, binary bool) *CoreVars {
	cv := &CoreVars{
		Dinj:  make([][]int, len(frontiers)),
		Score: make([]int, len(frontiers)),
	}

	for g, fr := range frontiers {
		days := make([]int, horizon)
		for n := 0; n < horizon; n++ {
			if binary {
				days[n] = m.AddBinary()
			} else {
				days[n] = m.AddContinuous(0, 1)
			}
		}
		cv.Dinj[g] = days
		cv.Score[g] = m.AddContinuous(0, 1)

		// One activation variable per frontier pattern. Continuous suffices:
		// the dominance constraints only let it reach 1 when the chosen plan
		// is consistent with the pattern.
		lowAct := make([]int, len(fr.Low))
		for k, p := range fr.Low {
			a := m.AddContinuous(0, 1)
			lowAct[k] = a
			for n := 0; n < horizon; n++ {
				if p[n] == 0 {
					continue
				}
				// dinj[n] >= p[n] * activation
				m.AddConstr([]milp.Term{
					{Var: days[n], Coef: 1},
					{Var: a, Coef: -float64(p[n])},
				}, milp.GE, 0)
			}
		}
		highAct := make([]int, len(fr.High))
		for k, q := range fr.High {
			a := m.AddContinuous(0, 1)
			highAct[k] = a
			for n := 0; n < horizon; n++ {
				// dinj[n] <= q[n] + (1 - activation)
				m.AddConstr([]milp.Term{
					{Var: days[n], Coef: 1},
					{Var: a, Coef: 1},
				}, milp.LE, float64(q[n])+1)
			}
		}

		// Success requires consistency with at least one lower and one upper
		// frontier pattern simultaneously.
		low := []milp.Term{{Var: cv.Score[g], Coef: 1}}
		for _, a := range lowAct {
			low = append(low, milp.Term{Var: a, Coef: -1})
		}
		m.AddConstr(low, milp.LE, 0)
		high := []milp.Term{{Var: cv.Score[g], Coef: 1}}
		for _, a := range highAct {
			high = append(high, milp.Term{Var: a, Coef: -1})
		}
		m.AddConstr(high, milp.LE, 0)
	}

	// Per-day fleet injection cap, one per regime.
	for _, sign := range model.Signs {
		for n := 0; n < horizon; n++ {
			var terms []milp.Term
			for g, fr := range frontiers {
				if fr.Sign != sign {
					continue
				}
				terms = append(terms, milp.Term{Var: cv.Dinj[g][n], Coef: 1})
			}
			if len(terms) > 0 {
				m.AddConstr(terms, milp.LE, float64(dayCap))
			}
		}
	}

	return cv
}

// Planner selects one concrete pattern per station, maximizing success while
// minimizing interventions, preferring earlier days.
type Planner struct {
	DayCap int
	// ScoreWeight and VisitWeight are the objective importances of success
	// and of each injection.
	ScoreWeight float64
	VisitWeight float64
	// RoundThreshold binarizes the continuous relaxation on extraction. A
	// policy choice, not load-bearing for correctness.
	RoundThreshold float64
	TimeLimit      time.Duration
	SizeLimit      int

	Log logger.Logger
}

// Plan solves the visit-planning MILP. A time-limited incumbent is a valid
// result; only infeasible and size-exceeded come back without plans.
func (p Planner) Plan(frontiers []model.Frontier, horizon int) ([]model.VisitPlan, milp.Status, error) {
	if len(frontiers) == 0 {
		return nil, milp.StatusOptimal, nil
	}

	m := milp.New("visit_plan")
	m.SetSizeLimit(p.SizeLimit)
	cv := BuildCore(m, frontiers, horizon, p.DayCap, true)
	p.applyObjective(m, cv, frontiers, horizon)

	sol, err := m.Solve(milp.Options{TimeLimit: p.TimeLimit})
	if err != nil {
		return nil, sol.Status, err
	}
	if !sol.Feasible() {
		if p.Log != nil {
			p.Log.Warnf("visit planning ended without a solution: %s", sol.Status)
		}
		return nil, sol.Status, nil
	}
	if p.Log != nil {
		p.Log.Infof("visit planning %s, objective %.2f", sol.Status, sol.Objective)
	}

	plans := make([]model.VisitPlan, len(frontiers))
	for g, fr := range frontiers {
		pat := make(model.Pattern, horizon)
		for n, v := range cv.Dinj[g] {
			if sol.Value(v) > p.RoundThreshold {
				pat[n] = 1
			}
		}
		score := sol.Value(cv.Score[g])
		plans[g] = model.VisitPlan{
			Station: fr.Station,
			Sign:    fr.Sign,
			Pattern: pat,
			Score:   score,
			Success: score > p.RoundThreshold,
		}
	}
	return plans, sol.Status, nil
}

// applyObjective maximizes weighted success minus weighted interventions.
// Station and day weights increase slightly to break symmetry: among equally
// successful plans, fewer and earlier interventions win.
func (p Planner) applyObjective(m *milp.Model, cv *CoreVars, frontiers []model.Frontier, horizon int) {
	nweights := linspace(1, 1.1, horizon)
	for _, sign := range model.Signs {
		var idx []int
		for g, fr := range frontiers {
			if fr.Sign == sign {
				idx = append(idx, g)
			}
		}
		sweights := linspace(1, 1.1, len(idx))
		for i, g := range idx {
			m.AddObjCoef(cv.Score[g], sweights[i]*p.ScoreWeight)
			for n := 0; n < horizon; n++ {
				m.AddObjCoef(cv.Dinj[g][n], -sweights[i]*nweights[n]*p.VisitWeight)
			}
		}
	}
}

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}
	for i := 0; i < n; i++ {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}
