package route

import (
	"sort"

	"github.com/velib-tools/rebalance/core/milp"
	"github.com/velib-tools/rebalance/core/model"
)

// extractPlans reads the thresholded injection pattern and success flag per
// station out of the incumbent.
func (o *Optimizer) extractPlans(in Input, v *variant, sol milp.Solution) []model.RoutePlan {
	plans := make([]model.RoutePlan, len(in.Frontiers))
	for g, fr := range in.Frontiers {
		pat := make(model.Pattern, in.Horizon)
		for n, id := range v.cv.Dinj[g] {
			if sol.Value(id) > o.cfg.RoundThreshold {
				pat[n] = 1
			}
		}
		score := sol.Value(v.cv.Score[g])
		plans[g] = model.RoutePlan{
			Station: fr.Station,
			Sign:    fr.Sign,
			Pattern: pat,
			Score:   score,
			Success: score > o.cfg.RoundThreshold,
		}
	}
	return plans
}

// extractTours walks the selected arcs from the depot, one closed walk per
// truck per day.
func (o *Optimizer) extractTours(g *graph, v *variant, sol milp.Solution) []model.Tour {
	var tours []model.Tour
	for day := 0; day < v.horizon; day++ {
		succ := make(map[int][]int)
		for k, x := range v.arcs {
			if k.day != day || sol.Value(x) < 0.5 {
				continue
			}
			succ[k.i] = append(succ[k.i], k.j)
		}
		for _, list := range succ {
			sort.Ints(list)
		}

		truck := 0
		for len(succ[depot]) > 0 {
			next := succ[depot][0]
			succ[depot] = succ[depot][1:]
			tour := model.Tour{Day: day, Truck: truck}
			cur := next
			// The walk is bounded: each selected arc is consumed once.
			for steps := 0; cur != depot && steps <= len(g.nodes)*2; steps++ {
				tour.Stations = append(tour.Stations, g.nodes[cur].station)
				outs := succ[cur]
				if len(outs) == 0 {
					o.log.Warnf("day %d: open walk at node %d, dropping tail", day, cur)
					break
				}
				succ[cur] = outs[1:]
				cur = outs[0]
			}
			tours = append(tours, tour)
			truck++
		}
	}
	return tours
}
