// Package sim simulates station stock trajectories under candidate
// regulation patterns and evaluates every pattern of the remaining horizon.
package sim

import "math"

// Simulator replays minute-resolution demand against a station's stock for a
// batch of candidate day-regulations, anchored to the historical trajectory
// by a stabilization rule.
type Simulator struct {
	Capacity float64
	// Tolerance is the band around [0, Capacity] within which a regulation
	// still counts as applyable.
	Tolerance float64
	// Band is the stabilization half-width: a simulated value within Band of
	// the historical one snaps back to history.
	Band float64
}

// Result holds one trajectory and feasibility mask per candidate pattern.
// Traj is indexed [pattern][day][step]; each day carries the post-regulation
// value at step 0 followed by one value per demand increment. Feasible is
// indexed [pattern][day].
type Result struct {
	Traj     [][][]float64
	Feasible [][]bool
}

// Run simulates every candidate in regs, indexed [pattern][day] with signed
// stock adjustments. histStock and histReg carry the historical reference and
// regulation-event mask per [day][step]; passing nil disables stabilization.
func (s Simulator) Run(start float64, regs [][]float64, demand [][]float64, histStock [][]float64, histReg [][]bool) Result {
	nPat := len(regs)
	nDay := len(demand)
	res := Result{
		Traj:     make([][][]float64, nPat),
		Feasible: make([][]bool, nPat),
	}

	for p := 0; p < nPat; p++ {
		traj := make([][]float64, nDay)
		feas := make([]bool, nDay)
		x := start

		stabilized := histStock != nil
		drift := 0.0
		if stabilized {
			drift = signOf(start - histStock[0][0])
		}

		for d := 0; d < nDay; d++ {
			steps := len(demand[d])
			traj[d] = make([]float64, steps+1)

			test := x + regs[p][d]
			feas[d] = test >= -s.Tolerance && test <= s.Capacity+s.Tolerance
			x = clamp(test, 0, s.Capacity)
			if stabilized {
				reset := regs[p][d] != 0 || histReg[d][0]
				x, drift = s.stabilize(x, histStock[d][0], drift, reset)
			}
			traj[d][0] = x

			for t := 0; t < steps; t++ {
				x = clamp(x+demand[d][t], 0, s.Capacity)
				if stabilized {
					x, drift = s.stabilize(x, histStock[d][t], drift, histReg[d][t])
				}
				traj[d][t+1] = x
			}
		}
		res.Traj[p] = traj
		res.Feasible[p] = feas
	}
	return res
}

// stabilize anchors a simulated value to the historical reference. Within the
// band, or with no tracked drift, the value snaps to history and the drift
// clears; a ground-truth crossing (deviation sign contradicting the tracked
// drift) also snaps. On a reset step the pre-snap value survives and the
// drift re-seeds from the current deviation instead of clearing.
func (s Simulator) stabilize(x, ref, drift float64, reset bool) (float64, float64) {
	orig := x
	delta := orig - ref
	if math.Abs(delta) <= s.Band || drift == 0 {
		x, drift = ref, 0
	} else if signOf(delta) != drift {
		x, drift = ref, 0
	}
	if reset {
		x = orig
		drift = signOf(orig - ref)
	}
	return x, drift
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func signOf(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
