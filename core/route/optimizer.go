// Package route assigns the planned station visits to truck tours across the
// remaining days. The combined visit+routing problem is NP-hard; it is solved
// through a ladder of increasingly dense sparsified graphs with warm-start
// chaining, finished by two large-neighborhood refinement passes, all under
// wall-clock time budgets.
package route

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/velib-tools/rebalance/core/geo"
	"github.com/velib-tools/rebalance/core/logger"
	"github.com/velib-tools/rebalance/core/milp"
	"github.com/velib-tools/rebalance/core/model"
	"github.com/velib-tools/rebalance/core/plan"
)

// Config parameterizes the routing optimizer.
type Config struct {
	Fleet   int // trucks available per day
	MaxTour int // maximum stations per tour

	// TopK, RandomConnect and StageTime define the solve ladder; all three
	// must have the same length.
	TopK          []int
	RandomConnect []int
	StageTime     []time.Duration

	DayTime    time.Duration // per-day LNS re-solve budget
	DayRounds  int
	PairTime   time.Duration // paired-day LNS re-solve budget
	PairRounds int

	SamePenalty    float64 // additive distance penalty between same-type nodes
	DayCap         int     // per-day fleet injection cap
	ScoreWeight    float64 // success importance in the objective
	DistWeight     float64 // total-distance importance in the objective
	RoundThreshold float64
	SizeLimit      int

	// FallbackFraction is the station share kept when the capacity
	// degradation path re-runs a size-exceeded or infeasible instance.
	FallbackFraction float64
	Seed             int64
}

// Input is one routing instance.
type Input struct {
	Frontiers []model.Frontier
	Horizon   int
	Dist      *geo.Matrix
}

// Solution is the routing outcome. Plans aligns with the input frontiers of
// the (possibly reduced) instance that was solved.
type Solution struct {
	Plans   []model.RoutePlan
	Tours   []model.Tour
	Status  milp.Status
	Reduced bool
	Horizon int
}

// Optimizer owns the rng and logger shared across solves.
type Optimizer struct {
	cfg Config
	rng *rand.Rand
	log logger.Logger
}

// New creates a routing optimizer.
func New(cfg Config, log logger.Logger) *Optimizer {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Optimizer{cfg: cfg, rng: rand.New(rand.NewSource(seed)), log: log}
}

type arcKey struct {
	i, j, day int
}

// variant is one rung of the solve ladder: an independent model over a
// sparsified arc set. No state is shared between variants except explicit
// value copies at warm-start time.
type variant struct {
	m       *milp.Model
	cv      *plan.CoreVars
	horizon int
	arcs    map[arcKey]int
	absorb  []int // per day, continuous depot self-loop soaking up idle trucks
}

// Solve runs the ladder with the capacity-degradation fallback: a
// size-exceeded or infeasible instance is re-run on a reduced station sample,
// then additionally on a shortened horizon. A feasible-but-time-limited
// outcome is accepted as final.
func (o *Optimizer) Solve(in Input) (Solution, error) {
	sol, err := o.solveOnce(in)
	if err != nil {
		return sol, err
	}
	if sol.Status != milp.StatusInfeasible && sol.Status != milp.StatusSizeExceeded {
		return sol, nil
	}

	o.log.Warnf("routing %s on %d station groups; retrying with reduced sample", sol.Status, len(in.Frontiers))
	reduced := o.sampleInput(in, in.Horizon)
	sol, err = o.solveOnce(reduced)
	if err != nil {
		return sol, err
	}
	sol.Reduced = true
	if sol.Status != milp.StatusInfeasible && sol.Status != milp.StatusSizeExceeded {
		return sol, nil
	}

	if in.Horizon > 1 {
		o.log.Warnf("routing still %s; retrying with shortened horizon %d", sol.Status, in.Horizon-1)
		shorter := o.sampleInput(in, in.Horizon-1)
		sol, err = o.solveOnce(shorter)
		sol.Reduced = true
	}
	return sol, err
}

func (o *Optimizer) solveOnce(in Input) (Solution, error) {
	out := Solution{Horizon: in.Horizon}
	if len(in.Frontiers) == 0 {
		out.Status = milp.StatusOptimal
		return out, nil
	}
	g, err := buildGraph(in.Frontiers, in.Dist, o.cfg.SamePenalty)
	if err != nil {
		return out, err
	}

	stages := len(o.cfg.TopK)
	maxTop := o.cfg.TopK[stages-1]
	maxRnd := o.cfg.RandomConnect[stages-1]
	cands := buildCandidates(g, in.Horizon, maxTop, maxRnd, o.rng)

	var v *variant
	var sol milp.Solution
	var prev *variant
	var prevSol milp.Solution
	for m := 0; m < stages; m++ {
		v = o.buildVariant(g, in, cands, m)
		opts := milp.Options{TimeLimit: o.cfg.StageTime[m]}
		if prev != nil && prevSol.Feasible() {
			opts.Hint = warmStart(prev, prevSol, v)
		}
		sol, err = v.m.Solve(opts)
		if err != nil {
			return out, fmt.Errorf("routing stage %d: %w", m, err)
		}
		o.log.Infof("routing stage %d/%d: %s, %d vars, objective %.2f",
			m+1, stages, sol.Status, v.m.NumVars(), sol.Objective)
		if sol.Status == milp.StatusInfeasible || sol.Status == milp.StatusSizeExceeded {
			out.Status = sol.Status
			return out, nil
		}
		prev, prevSol = v, sol
	}

	if sol.Feasible() {
		sol = o.refineDays(v, sol)
		sol = o.refinePairs(v, sol)
	}

	out.Status = sol.Status
	if !sol.Feasible() {
		return out, nil
	}
	out.Plans = o.extractPlans(in, v, sol)
	out.Tours = o.extractTours(g, v, sol)
	return out, nil
}

// buildVariant assembles the MILP for ladder stage m: the shared
// visit-planning core with continuous injections, binary arc variables over
// the stage's sparsified candidate set, and the two decoupled anti-subtour
// flows.
func (o *Optimizer) buildVariant(g *graph, in Input, cands *candidates, stage int) *variant {
	v := &variant{
		m:       milp.New(fmt.Sprintf("truck_routes_%d", stage)),
		horizon: in.Horizon,
		arcs:    make(map[arcKey]int),
	}
	v.m.SetSizeLimit(o.cfg.SizeLimit)
	v.cv = plan.BuildCore(v.m, in.Frontiers, in.Horizon, o.cfg.DayCap, false)

	n := len(g.nodes)
	fleet := float64(o.cfg.Fleet)
	for day := 0; day < in.Horizon; day++ {
		// Depot-adjacent arcs are always dense: depot degree equals the
		// fleet size. The continuous self-loop absorbs idle trucks.
		v.absorb = append(v.absorb, v.m.AddContinuous(0, fleet))
		for i := 1; i < n; i++ {
			v.arcs[arcKey{depot, i, day}] = v.m.AddBinary()
			v.arcs[arcKey{i, depot, day}] = v.m.AddBinary()
		}
		for i := 1; i < n; i++ {
			for _, list := range cands.top[i] {
				for rank, j := range list {
					if rank >= o.cfg.TopK[stage] {
						break
					}
					v.arcs[arcKey{i, j, day}] = v.m.AddBinary()
				}
			}
			for rank, j := range cands.rnd[day][i] {
				if rank >= o.cfg.RandomConnect[stage] {
					break
				}
				if _, dup := v.arcs[arcKey{i, j, day}]; !dup {
					v.arcs[arcKey{i, j, day}] = v.m.AddBinary()
				}
			}
		}
	}

	o.addFlowConstraints(g, v)
	o.applyObjective(g, v)
	return v
}

func (o *Optimizer) addFlowConstraints(g *graph, v *variant) {
	n := len(g.nodes)
	maxTour := float64(o.cfg.MaxTour)

	// Two flow quantities per arc, one accruing at deficit nodes, one at
	// surplus nodes. Each is capped by maxTour on active arcs, which bounds
	// tour size and, through the conservation constraints below, eliminates
	// cycles not touching the depot.
	flowD := make(map[arcKey]int, len(v.arcs))
	flowS := make(map[arcKey]int, len(v.arcs))
	for day := 0; day < v.horizon; day++ {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				k := arcKey{i, j, day}
				x, ok := v.arcs[k]
				if !ok {
					continue
				}
				fd := v.m.AddContinuous(0, maxTour)
				fs := v.m.AddContinuous(0, maxTour)
				flowD[k] = fd
				flowS[k] = fs
				v.m.AddConstr([]milp.Term{{Var: fd, Coef: 1}, {Var: x, Coef: -maxTour}}, milp.LE, 0)
				v.m.AddConstr([]milp.Term{{Var: fs, Coef: 1}, {Var: x, Coef: -maxTour}}, milp.LE, 0)
			}
		}
	}

	for day := 0; day < v.horizon; day++ {
		// Depot degree: exactly the fleet size, idle trucks absorbed by the
		// self-loop.
		depOut := []milp.Term{{Var: v.absorb[day], Coef: 1}}
		depIn := []milp.Term{{Var: v.absorb[day], Coef: 1}}
		for i := 1; i < n; i++ {
			if x, ok := v.arcs[arcKey{depot, i, day}]; ok {
				depOut = append(depOut, milp.Term{Var: x, Coef: 1})
			}
			if x, ok := v.arcs[arcKey{i, depot, day}]; ok {
				depIn = append(depIn, milp.Term{Var: x, Coef: 1})
			}
		}
		v.m.AddConstr(depOut, milp.EQ, float64(o.cfg.Fleet))
		v.m.AddConstr(depIn, milp.EQ, float64(o.cfg.Fleet))

		for i := 1; i < n; i++ {
			var out, inc []milp.Term
			var fdNet, fsNet []milp.Term
			for j := 0; j < n; j++ {
				if x, ok := v.arcs[arcKey{i, j, day}]; ok {
					out = append(out, milp.Term{Var: x, Coef: 1})
					fdNet = append(fdNet, milp.Term{Var: flowD[arcKey{i, j, day}], Coef: -1})
					fsNet = append(fsNet, milp.Term{Var: flowS[arcKey{i, j, day}], Coef: -1})
				}
				if x, ok := v.arcs[arcKey{j, i, day}]; ok {
					inc = append(inc, milp.Term{Var: x, Coef: 1})
					fdNet = append(fdNet, milp.Term{Var: flowD[arcKey{j, i, day}], Coef: 1})
					fsNet = append(fsNet, milp.Term{Var: flowS[arcKey{j, i, day}], Coef: 1})
				}
			}

			// In-degree equals out-degree equals the day's required visits.
			balance := append(append([]milp.Term{}, out...), negate(inc)...)
			v.m.AddConstr(balance, milp.EQ, 0)
			dinj := v.cv.Dinj[g.nodes[i].group][day]
			visit := append(append([]milp.Term{}, out...), milp.Term{Var: dinj, Coef: -1})
			v.m.AddConstr(visit, milp.EQ, 0)

			// The matching flow must drop by the node requirement when the
			// tour passes through.
			if g.nodes[i].typ == nodeDeficit {
				fdNet = append(fdNet, milp.Term{Var: dinj, Coef: -1})
				v.m.AddConstr(fdNet, milp.GE, 0)
				v.m.AddConstr(fsNet, milp.GE, 0)
			} else {
				fsNet = append(fsNet, milp.Term{Var: dinj, Coef: -1})
				v.m.AddConstr(fsNet, milp.GE, 0)
				v.m.AddConstr(fdNet, milp.GE, 0)
			}
		}
	}
}

// applyObjective maximizes success first, then penalizes redundant same-type
// travel, then total distance.
func (o *Optimizer) applyObjective(g *graph, v *variant) {
	for _, s := range v.cv.Score {
		v.m.AddObjCoef(s, o.cfg.ScoreWeight)
	}
	for _, days := range v.cv.Dinj {
		for _, d := range days {
			v.m.AddObjCoef(d, -1)
		}
	}
	for k, x := range v.arcs {
		if k.i == depot || k.j == depot {
			continue
		}
		d := g.dist[k.i][k.j]
		coef := -o.cfg.DistWeight * d
		if g.nodes[k.i].typ == g.nodes[k.j].typ {
			coef -= d
		}
		v.m.AddObjCoef(x, coef)
	}
}

// warmStart copies the previous variant's rounded incumbent onto the shared
// arc variables of the next one.
func warmStart(prev *variant, prevSol milp.Solution, next *variant) map[int]float64 {
	hint := make(map[int]float64, len(next.arcs))
	for k, nv := range next.arcs {
		if pv, ok := prev.arcs[k]; ok {
			hint[nv] = math.Round(prevSol.Value(pv))
		} else {
			hint[nv] = 0
		}
	}
	return hint
}

func negate(terms []milp.Term) []milp.Term {
	out := make([]milp.Term, len(terms))
	for i, t := range terms {
		out[i] = milp.Term{Var: t.Var, Coef: -t.Coef}
	}
	return out
}

// sampleInput keeps a random station share and truncates frontier patterns
// to the reduced horizon. This is the documented capacity-degradation path,
// not a silent approximation: callers see Reduced set on the solution.
func (o *Optimizer) sampleInput(in Input, horizon int) Input {
	frac := o.cfg.FallbackFraction
	if frac <= 0 || frac > 1 {
		frac = 0.5
	}
	keep := int(math.Ceil(frac * float64(len(in.Frontiers))))
	idx := append([]int(nil), o.rng.Perm(len(in.Frontiers))[:keep]...)
	sort.Ints(idx)

	out := Input{Horizon: horizon, Dist: in.Dist}
	for _, i := range idx {
		fr := in.Frontiers[i]
		out.Frontiers = append(out.Frontiers, model.Frontier{
			Station: fr.Station,
			Sign:    fr.Sign,
			Low:     truncatePatterns(fr.Low, horizon),
			High:    truncatePatterns(fr.High, horizon),
		})
	}
	return out
}

func truncatePatterns(ps []model.Pattern, horizon int) []model.Pattern {
	seen := map[string]bool{}
	var out []model.Pattern
	for _, p := range ps {
		t := p.Truncate(horizon)
		if !seen[t.String()] {
			seen[t.String()] = true
			out = append(out, t)
		}
	}
	return out
}

