package milp

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const (
	simplexTol = 1e-7
	foldTol    = 1e-9
)

var errRelaxInfeasible = errors.New("milp: relaxation infeasible")

// relax solves the LP relaxation of the model under the given bound vectors.
// Variables with lb == ub are folded into the right-hand sides, which keeps
// large-neighborhood re-solves small: frozen arcs vanish from the LP.
//
// The remaining problem is shifted by its lower bounds and assembled directly
// in standard form (min cᵀy s.t. Ay = b, y >= 0) with one slack column per
// inequality row and one upper-bound row per active variable, then handed to
// gonum's simplex, the same substrate the dispatch LP used.
func (m *Model) relax(lb, ub []float64) ([]float64, float64, error) {
	n := len(m.types)

	col := make([]int, n) // variable -> active column, -1 when folded
	active := 0
	for i := 0; i < n; i++ {
		if ub[i]-lb[i] > foldTol {
			col[i] = active
			active++
		} else {
			col[i] = -1
		}
	}

	type row struct {
		coefs []float64 // dense over active columns
		rhs   float64
		ineq  bool // true: coefs·y + s = rhs with a fresh slack column
	}
	var rows []row

	addRow := func(terms []Term, op Op, rhs float64) error {
		coefs := make([]float64, active)
		r := rhs
		nonzero := false
		for _, t := range terms {
			if col[t.Var] < 0 {
				r -= t.Coef * lb[t.Var] // folded constant
				continue
			}
			r -= t.Coef * lb[t.Var] // shift y = x - lb
			coefs[col[t.Var]] += t.Coef
			if t.Coef != 0 {
				nonzero = true
			}
		}
		if op == GE {
			r = -r
			for i := range coefs {
				coefs[i] = -coefs[i]
			}
		}
		if !nonzero {
			// Fully folded row: consistency check only.
			switch op {
			case EQ:
				if math.Abs(r) > 1e-6 {
					return errRelaxInfeasible
				}
			default:
				if r < -1e-6 {
					return errRelaxInfeasible
				}
			}
			return nil
		}
		rows = append(rows, row{coefs: coefs, rhs: r, ineq: op != EQ})
		return nil
	}

	for _, c := range m.cons {
		if err := addRow(c.terms, c.op, c.rhs); err != nil {
			return nil, 0, err
		}
	}
	// Dense circulation-style models carry equality rows whose signed sum is
	// identically zero (the depot degree rows against the node balances), and
	// gonum's simplex rejects a rank-deficient basis outright. Reduce the
	// equality block and drop rows that eliminate to zero; a dependent row
	// with a non-zero reduced right-hand side is a contradiction.
	type pivotRow struct {
		coefs []float64
		rhs   float64
		pivot int
	}
	var reduced []pivotRow
	kept := make([]row, 0, len(rows))
	for _, r := range rows {
		if r.ineq {
			kept = append(kept, r)
			continue
		}
		work := append([]float64(nil), r.coefs...)
		rhs := r.rhs
		for _, p := range reduced {
			f := work[p.pivot] / p.coefs[p.pivot]
			if f == 0 {
				continue
			}
			for i := range work {
				work[i] -= f * p.coefs[i]
			}
			rhs -= f * p.rhs
		}
		pivot, best := -1, simplexTol
		for i, v := range work {
			if math.Abs(v) > best {
				best = math.Abs(v)
				pivot = i
			}
		}
		if pivot < 0 {
			if math.Abs(rhs) > 1e-6 {
				return nil, 0, errRelaxInfeasible
			}
			continue
		}
		reduced = append(reduced, pivotRow{coefs: work, rhs: rhs, pivot: pivot})
		kept = append(kept, r)
	}
	rows = kept

	// Upper-bound rows keep every active column structurally present.
	for i := 0; i < n; i++ {
		if col[i] < 0 {
			continue
		}
		coefs := make([]float64, active)
		coefs[col[i]] = 1
		rows = append(rows, row{coefs: coefs, rhs: ub[i] - lb[i], ineq: true})
	}

	// Objective constant from folded variables and the lower-bound shift.
	objConst := 0.0
	for i := 0; i < n; i++ {
		objConst += m.obj[i] * lb[i]
	}

	if active == 0 {
		return append([]float64(nil), lb...), objConst, nil
	}

	slacks := 0
	for _, r := range rows {
		if r.ineq {
			slacks++
		}
	}

	cols := active + slacks
	a := mat.NewDense(len(rows), cols, nil)
	b := make([]float64, len(rows))
	c := make([]float64, cols)
	for i := 0; i < n; i++ {
		if col[i] >= 0 {
			c[col[i]] = -m.obj[i] // maximize -> minimize
		}
	}
	slack := active
	for ri, r := range rows {
		for ci, v := range r.coefs {
			a.Set(ri, ci, v)
		}
		b[ri] = r.rhs
		if r.ineq {
			a.Set(ri, slack, 1)
			slack++
		}
	}

	_, y, err := lp.Simplex(c, a, b, simplexTol, nil)
	if err != nil {
		if errors.Is(err, lp.ErrInfeasible) {
			return nil, 0, errRelaxInfeasible
		}
		return nil, 0, fmt.Errorf("%w: %v", ErrNoSolver, err)
	}

	x := make([]float64, n)
	obj := objConst
	for i := 0; i < n; i++ {
		if col[i] < 0 {
			x[i] = lb[i]
			continue
		}
		x[i] = y[col[i]] + lb[i]
		obj += m.obj[i] * y[col[i]]
	}
	return x, obj, nil
}
