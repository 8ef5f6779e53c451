package milp

import (
	"errors"
	"math"
	"time"
)

const intTol = 1e-6

// Options controls a single solve.
type Options struct {
	// TimeLimit bounds the wall-clock budget. Zero means no limit.
	TimeLimit time.Duration
	// FeasibilityFocus biases the search toward producing incumbents quickly
	// instead of tightening the optimality bound, mirroring a solver's
	// feasibility-first search mode.
	FeasibilityFocus bool
	// Hint seeds the search with a starting point on a subset of variables.
	// Binary hints are rounded, fixed and completed by an LP solve; when that
	// point is feasible it becomes the initial incumbent.
	Hint map[int]float64
}

// Solve runs branch-and-bound over the LP relaxation. A nil error covers all
// four terminal statuses; errors are reserved for internal solver failures.
func (m *Model) Solve(opts Options) (Solution, error) {
	if m.maxVars > 0 && len(m.types) > m.maxVars {
		return Solution{Status: StatusSizeExceeded}, nil
	}

	var deadline time.Time
	if opts.TimeLimit > 0 {
		deadline = time.Now().Add(opts.TimeLimit)
	}
	expired := func() bool {
		return !deadline.IsZero() && time.Now().After(deadline)
	}

	best := Solution{Status: StatusInfeasible, Objective: math.Inf(-1)}

	if len(opts.Hint) > 0 {
		if x, obj, ok := m.completeHint(opts.Hint); ok {
			best.X = x
			best.Objective = obj
		}
	}

	type node struct {
		lb, ub []float64
	}
	root := node{
		lb: append([]float64(nil), m.lb...),
		ub: append([]float64(nil), m.ub...),
	}
	stack := []node{root}
	// halted means the search ended before exhausting the tree; the incumbent
	// is best-effort, not proven optimal.
	halted := false

	for len(stack) > 0 {
		if expired() {
			halted = true
			break
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		x, obj, err := m.relax(nd.lb, nd.ub)
		if errors.Is(err, errRelaxInfeasible) {
			continue
		}
		if err != nil {
			if best.X != nil {
				halted = true
				break
			}
			return Solution{Status: StatusInfeasible}, err
		}
		if best.X != nil && obj <= best.Objective+intTol {
			continue
		}

		v := m.branchVar(x, opts.FeasibilityFocus)
		if v < 0 {
			// Integral point: new incumbent.
			for i, t := range m.types {
				if t == Binary {
					x[i] = math.Round(x[i])
				}
			}
			best.X = x
			best.Objective = obj
			continue
		}

		up := node{lb: append([]float64(nil), nd.lb...), ub: append([]float64(nil), nd.ub...)}
		down := node{lb: append([]float64(nil), nd.lb...), ub: append([]float64(nil), nd.ub...)}
		up.lb[v], up.ub[v] = 1, 1
		down.lb[v], down.ub[v] = 0, 0

		// Depth-first; the preferred child is pushed last so it is explored
		// first.
		if x[v] >= 0.5 {
			stack = append(stack, down, up)
		} else {
			stack = append(stack, up, down)
		}
	}

	if best.X == nil {
		if halted {
			return Solution{Status: StatusTimeLimit}, nil
		}
		return Solution{Status: StatusInfeasible}, nil
	}
	best.Status = StatusOptimal
	if halted {
		best.Status = StatusTimeLimit
	}
	return best, nil
}

// branchVar picks the binary variable to branch on, or -1 when the point is
// integral. The default picks the most fractional variable; feasibility focus
// picks the least fractional one so that dives reach integral points fast.
func (m *Model) branchVar(x []float64, feasibility bool) int {
	bestVar := -1
	bestScore := math.Inf(-1)
	for i, t := range m.types {
		if t != Binary {
			continue
		}
		frac := math.Abs(x[i] - math.Round(x[i]))
		if frac <= intTol {
			continue
		}
		score := -math.Abs(x[i] - 0.5) // closest to 0.5 wins
		if feasibility {
			score = math.Abs(x[i] - 0.5) // closest to integer wins
		}
		if score > bestScore {
			bestScore = score
			bestVar = i
		}
	}
	return bestVar
}

// completeHint fixes every hinted binary to its rounded value, solves the LP
// over the remaining variables and reports the completed point when feasible.
func (m *Model) completeHint(hint map[int]float64) ([]float64, float64, bool) {
	lb := append([]float64(nil), m.lb...)
	ub := append([]float64(nil), m.ub...)
	for v, val := range hint {
		if v < 0 || v >= len(m.types) || m.types[v] != Binary {
			continue
		}
		r := math.Round(val)
		if r < lb[v] || r > ub[v] {
			return nil, 0, false
		}
		lb[v], ub[v] = r, r
	}
	x, obj, err := m.relax(lb, ub)
	if err != nil {
		return nil, 0, false
	}
	if m.branchVar(x, false) >= 0 {
		return nil, 0, false
	}
	for i, t := range m.types {
		if t == Binary {
			x[i] = math.Round(x[i])
		}
	}
	return x, obj, true
}
