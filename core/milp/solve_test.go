package milp

import (
	"math"
	"testing"
	"time"
)

func TestSolveLP(t *testing.T) {
	// max x + y  s.t. x + y <= 1.5, x, y in [0, 1]
	m := New("lp")
	x := m.AddContinuous(0, 1)
	y := m.AddContinuous(0, 1)
	m.SetObjCoef(x, 1)
	m.SetObjCoef(y, 1)
	m.AddConstr([]Term{{x, 1}, {y, 1}}, LE, 1.5)

	sol, err := m.Solve(Options{})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if sol.Status != StatusOptimal {
		t.Fatalf("status: %s", sol.Status)
	}
	if math.Abs(sol.Objective-1.5) > 1e-6 {
		t.Fatalf("objective: got %v want 1.5", sol.Objective)
	}
}

func TestSolveKnapsack(t *testing.T) {
	// max 10a + 6b + 4c  s.t. 5a + 4b + 3c <= 8, binaries.
	// Optimum is a + c = 14 (weight 9 > 8 for a+b, 12 for all three).
	m := New("knapsack")
	a := m.AddBinary()
	b := m.AddBinary()
	c := m.AddBinary()
	m.SetObjCoef(a, 10)
	m.SetObjCoef(b, 6)
	m.SetObjCoef(c, 4)
	m.AddConstr([]Term{{a, 5}, {b, 4}, {c, 3}}, LE, 8)

	sol, err := m.Solve(Options{})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if sol.Status != StatusOptimal {
		t.Fatalf("status: %s", sol.Status)
	}
	if math.Abs(sol.Objective-14) > 1e-6 {
		t.Fatalf("objective: got %v want 14", sol.Objective)
	}
	if sol.Value(a) < 0.5 || sol.Value(b) > 0.5 || sol.Value(c) < 0.5 {
		t.Fatalf("selection: a=%v b=%v c=%v", sol.Value(a), sol.Value(b), sol.Value(c))
	}
}

func TestSolveIntegrality(t *testing.T) {
	// The LP relaxation of max x + y with x + y <= 1.5 over binaries is 1.5;
	// the integer optimum is 1.
	m := New("frac")
	x := m.AddBinary()
	y := m.AddBinary()
	m.SetObjCoef(x, 1)
	m.SetObjCoef(y, 1)
	m.AddConstr([]Term{{x, 1}, {y, 1}}, LE, 1.5)

	sol, err := m.Solve(Options{})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if math.Abs(sol.Objective-1) > 1e-6 {
		t.Fatalf("objective: got %v want 1", sol.Objective)
	}
	for _, v := range sol.X {
		if math.Abs(v-math.Round(v)) > 1e-6 {
			t.Fatalf("non-integral binary: %v", v)
		}
	}
}

func TestSolveInfeasible(t *testing.T) {
	m := New("infeasible")
	x := m.AddBinary()
	m.AddConstr([]Term{{x, 1}}, GE, 2)

	sol, err := m.Solve(Options{})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if sol.Status != StatusInfeasible {
		t.Fatalf("status: %s", sol.Status)
	}
	if sol.Feasible() {
		t.Fatalf("infeasible solution carries an incumbent")
	}
}

func TestSolveEquality(t *testing.T) {
	// max 2x + y  s.t. x + y == 1, binaries. Optimum picks x.
	m := New("eq")
	x := m.AddBinary()
	y := m.AddBinary()
	m.SetObjCoef(x, 2)
	m.SetObjCoef(y, 1)
	m.AddConstr([]Term{{x, 1}, {y, 1}}, EQ, 1)

	sol, err := m.Solve(Options{})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if math.Abs(sol.Objective-2) > 1e-6 {
		t.Fatalf("objective: got %v want 2", sol.Objective)
	}
	if sol.Value(x) < 0.5 || sol.Value(y) > 0.5 {
		t.Fatalf("selection: x=%v y=%v", sol.Value(x), sol.Value(y))
	}
}

func TestSolveRedundantEqualities(t *testing.T) {
	// Degree rows of a one-truck circulation: out, in and the node balance
	// sum to zero, so the equality block is rank-deficient. The solver must
	// shed the dependent row instead of surfacing a singular-basis error.
	m := New("circulation")
	s := m.AddContinuous(0, 2)
	x := m.AddBinary()
	y := m.AddBinary()
	m.SetObjCoef(x, 1)
	m.AddConstr([]Term{{s, 1}, {x, 1}}, EQ, 1)
	m.AddConstr([]Term{{s, 1}, {y, 1}}, EQ, 1)
	m.AddConstr([]Term{{x, 1}, {y, -1}}, EQ, 0)

	sol, err := m.Solve(Options{})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if sol.Status != StatusOptimal {
		t.Fatalf("status: %s", sol.Status)
	}
	if math.Abs(sol.Objective-1) > 1e-6 {
		t.Fatalf("objective: got %v want 1", sol.Objective)
	}
	if sol.Value(x) < 0.5 || sol.Value(y) < 0.5 || sol.Value(s) > 1e-6 {
		t.Fatalf("selection: s=%v x=%v y=%v", sol.Value(s), sol.Value(x), sol.Value(y))
	}
}

func TestSolveContradictingEqualities(t *testing.T) {
	// A dependent equality with a different right-hand side is a
	// contradiction, not a row to drop.
	m := New("contradiction")
	x := m.AddBinary()
	y := m.AddBinary()
	m.AddConstr([]Term{{x, 1}, {y, 1}}, EQ, 1)
	m.AddConstr([]Term{{x, 1}, {y, 1}}, EQ, 2)

	sol, err := m.Solve(Options{})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if sol.Status != StatusInfeasible {
		t.Fatalf("status: %s", sol.Status)
	}
}

func TestSolveSizeLimit(t *testing.T) {
	m := New("big")
	for i := 0; i < 10; i++ {
		m.AddBinary()
	}
	m.SetSizeLimit(5)

	sol, err := m.Solve(Options{})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if sol.Status != StatusSizeExceeded {
		t.Fatalf("status: %s", sol.Status)
	}
	if sol.Feasible() {
		t.Fatalf("size-exceeded solution carries an incumbent")
	}
}

func TestSolveHintSeedsIncumbent(t *testing.T) {
	m := New("hint")
	a := m.AddBinary()
	b := m.AddBinary()
	m.SetObjCoef(a, 3)
	m.SetObjCoef(b, 2)
	m.AddConstr([]Term{{a, 1}, {b, 1}}, LE, 1)

	hint := map[int]float64{a: 1, b: 0}
	sol, err := m.Solve(Options{Hint: hint})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if sol.Status != StatusOptimal {
		t.Fatalf("status: %s", sol.Status)
	}
	if math.Abs(sol.Objective-3) > 1e-6 {
		t.Fatalf("objective: got %v want 3", sol.Objective)
	}
}

func TestSolveTimeLimitWithHint(t *testing.T) {
	// An already-expired budget with a feasible hint must surface the hint as
	// a time-limited incumbent, never an error.
	m := New("budget")
	a := m.AddBinary()
	b := m.AddBinary()
	m.SetObjCoef(a, 1)
	m.SetObjCoef(b, 1)
	m.AddConstr([]Term{{a, 1}, {b, 1}}, LE, 1)

	sol, err := m.Solve(Options{TimeLimit: time.Nanosecond, Hint: map[int]float64{a: 1, b: 0}})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if sol.Status != StatusTimeLimit {
		t.Fatalf("status: %s", sol.Status)
	}
	if !sol.Feasible() || math.Abs(sol.Objective-1) > 1e-6 {
		t.Fatalf("incumbent: feasible=%v objective=%v", sol.Feasible(), sol.Objective)
	}
}

func TestSolveFrozenVariables(t *testing.T) {
	// Pinning a binary via SetBounds forces it into every solution.
	m := New("frozen")
	a := m.AddBinary()
	b := m.AddBinary()
	m.SetObjCoef(a, 5)
	m.SetObjCoef(b, 1)
	m.AddConstr([]Term{{a, 1}, {b, 1}}, LE, 1)
	m.SetBounds(a, 0, 0)

	sol, err := m.Solve(Options{})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if sol.Value(a) != 0 {
		t.Fatalf("frozen variable moved: %v", sol.Value(a))
	}
	if math.Abs(sol.Objective-1) > 1e-6 {
		t.Fatalf("objective: got %v want 1", sol.Objective)
	}
}

func TestSolveFeasibilityFocus(t *testing.T) {
	m := New("focus")
	vars := make([]int, 6)
	for i := range vars {
		vars[i] = m.AddBinary()
		m.SetObjCoef(vars[i], float64(i+1))
	}
	terms := make([]Term, len(vars))
	for i, v := range vars {
		terms[i] = Term{v, 1}
	}
	m.AddConstr(terms, LE, 3)

	sol, err := m.Solve(Options{FeasibilityFocus: true})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if sol.Status != StatusOptimal {
		t.Fatalf("status: %s", sol.Status)
	}
	// Top three coefficients: 6 + 5 + 4.
	if math.Abs(sol.Objective-15) > 1e-6 {
		t.Fatalf("objective: got %v want 15", sol.Objective)
	}
}
