// Package milp implements a small mixed-integer linear programming engine:
// a branch-and-bound search over LP relaxations solved with gonum's simplex.
// It supports binary and bounded continuous variables, linear constraints,
// a maximization objective, wall-clock time limits, warm-start hints and a
// model-size ceiling. A time-limited solve returning the best incumbent is a
// valid outcome, not an error.
package milp

import (
	"errors"
	"fmt"
	"math"
)

// VarType distinguishes continuous from binary decision variables.
type VarType int

const (
	Continuous VarType = iota
	Binary
)

// Status reports the terminal state of a solve.
type Status int

const (
	// StatusOptimal means the search space was exhausted and the incumbent
	// is proven optimal.
	StatusOptimal Status = iota
	// StatusTimeLimit means the time budget elapsed; the incumbent, if any,
	// is the best solution found so far.
	StatusTimeLimit
	// StatusInfeasible means no feasible solution exists.
	StatusInfeasible
	// StatusSizeExceeded means the model is larger than the configured
	// solvable-size ceiling and was not solved at all.
	StatusSizeExceeded
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusTimeLimit:
		return "time_limit"
	case StatusInfeasible:
		return "infeasible"
	case StatusSizeExceeded:
		return "size_exceeded"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Op is a constraint comparison operator.
type Op int

const (
	LE Op = iota
	GE
	EQ
)

// Term is one coefficient of a linear expression.
type Term struct {
	Var  int
	Coef float64
}

type constraint struct {
	terms []Term
	op    Op
	rhs   float64
}

// Model is a maximization MILP. All variables must carry finite bounds.
type Model struct {
	name    string
	types   []VarType
	lb, ub  []float64
	obj     []float64
	cons    []constraint
	maxVars int
}

// New creates an empty model.
func New(name string) *Model {
	return &Model{name: name}
}

// SetSizeLimit installs a ceiling on the number of variables. A model larger
// than the ceiling solves to StatusSizeExceeded immediately. Zero disables
// the check.
func (m *Model) SetSizeLimit(n int) { m.maxVars = n }

// NumVars returns the number of variables added so far.
func (m *Model) NumVars() int { return len(m.types) }

// AddVar adds a variable with the given type and finite bounds and returns
// its index.
func (m *Model) AddVar(t VarType, lb, ub float64) int {
	if math.IsInf(lb, 0) || math.IsInf(ub, 0) {
		panic("milp: variable bounds must be finite")
	}
	m.types = append(m.types, t)
	m.lb = append(m.lb, lb)
	m.ub = append(m.ub, ub)
	m.obj = append(m.obj, 0)
	return len(m.types) - 1
}

// AddBinary adds a 0/1 integer variable.
func (m *Model) AddBinary() int { return m.AddVar(Binary, 0, 1) }

// AddContinuous adds a bounded continuous variable.
func (m *Model) AddContinuous(lb, ub float64) int { return m.AddVar(Continuous, lb, ub) }

// AddConstr adds the linear constraint sum(terms) op rhs. Constraints with no
// terms are evaluated immediately at solve time against the folded constants.
func (m *Model) AddConstr(terms []Term, op Op, rhs float64) {
	cp := make([]Term, len(terms))
	copy(cp, terms)
	m.cons = append(m.cons, constraint{terms: cp, op: op, rhs: rhs})
}

// SetObjCoef sets the maximization objective coefficient of a variable.
func (m *Model) SetObjCoef(v int, c float64) { m.obj[v] = c }

// AddObjCoef accumulates onto the objective coefficient of a variable.
func (m *Model) AddObjCoef(v int, c float64) { m.obj[v] += c }

// Bounds returns the current bounds of a variable.
func (m *Model) Bounds(v int) (lb, ub float64) { return m.lb[v], m.ub[v] }

// SetBounds overrides the bounds of a variable. Setting lb == ub freezes the
// variable, which is how large-neighborhood passes pin an incumbent.
func (m *Model) SetBounds(v int, lb, ub float64) {
	m.lb[v] = lb
	m.ub[v] = ub
}

// Solution is the outcome of a solve. X is nil when no feasible point was
// found.
type Solution struct {
	Status    Status
	X         []float64
	Objective float64
}

// Feasible reports whether the solution carries a usable incumbent.
func (s Solution) Feasible() bool { return s.X != nil }

// Value returns the incumbent value of a variable.
func (s Solution) Value(v int) float64 { return s.X[v] }

// ErrNoSolver reports an internal failure of the LP relaxation machinery.
var ErrNoSolver = errors.New("milp: relaxation solve failed")
