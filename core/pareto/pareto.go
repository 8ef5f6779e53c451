// Package pareto filters evaluated regulation patterns down to the two
// boundary sets the optimizer actually needs: the minimal and maximal good
// patterns per station and regime under bitwise dominance.
package pareto

import (
	"sort"

	"github.com/velib-tools/rebalance/core/logger"
	"github.com/velib-tools/rebalance/core/model"
)

// Filter extracts dominance frontiers from simulation records.
type Filter struct {
	// EmptyThreshold is the minimum acceptable max fill ratio: below it the
	// station runs too empty to serve demand.
	EmptyThreshold float64
	// FullThreshold is the maximum acceptable min fill ratio: above it the
	// station saturates.
	FullThreshold float64

	Log logger.Logger
}

// Result carries the per-station frontiers plus the stations that need no
// intervention at all.
type Result struct {
	Frontiers []model.Frontier
	// Autopass lists stations whose all-zero pattern is already good; they
	// are excluded from the frontiers entirely.
	Autopass []string
}

func (f Filter) good(r model.SimulationRecord) bool {
	return r.Feasible && r.MaxRatio >= f.EmptyThreshold && r.MinRatio <= f.FullThreshold
}

// Frontiers computes the dominance frontiers over the good patterns of each
// (station, sign) group. An empty good set for a group is a business outcome,
// not an error: the group is simply absent from the result.
func (f Filter) Frontiers(records []model.SimulationRecord) Result {
	autopass := map[string]bool{}
	for _, r := range records {
		if r.Pattern.IsZero() && f.good(r) {
			autopass[r.Station] = true
		}
	}

	type groupKey struct {
		station string
		sign    model.Sign
	}
	var order []groupKey
	groups := map[groupKey]map[string]model.Pattern{}
	for _, r := range records {
		if autopass[r.Station] || !f.good(r) {
			continue
		}
		k := groupKey{r.Station, r.Sign}
		g, ok := groups[k]
		if !ok {
			g = map[string]model.Pattern{}
			groups[k] = g
			order = append(order, k)
		}
		g[r.Pattern.String()] = r.Pattern
	}

	// The dominance relations are precomputed once over every distinct good
	// pattern and reused across groups sharing pattern strings.
	distinct := map[string]model.Pattern{}
	for _, g := range groups {
		for s, p := range g {
			distinct[s] = p
		}
	}
	below, above := partialOrders(distinct)

	res := Result{}
	for st := range autopass {
		res.Autopass = append(res.Autopass, st)
	}
	sort.Strings(res.Autopass)
	for _, k := range order {
		g := groups[k]
		fr := model.Frontier{Station: k.station, Sign: k.sign}
		for s, p := range g {
			if !intersects(below[s], g) {
				fr.Low = append(fr.Low, p)
			}
			if !intersects(above[s], g) {
				fr.High = append(fr.High, p)
			}
		}
		sortPatterns(fr.Low)
		sortPatterns(fr.High)
		res.Frontiers = append(res.Frontiers, fr)
	}

	if f.Log != nil {
		if n := len(res.Autopass); n > 0 {
			f.Log.Infof("%d stations need no regulation (autopass)", n)
		}
		f.Log.Infof("frontiers extracted for %d station/sign groups", len(res.Frontiers))
	}
	return res
}

// partialOrders maps every pattern string to the set of distinct patterns
// strictly below it (componentwise <=, not equal) and strictly above it.
func partialOrders(distinct map[string]model.Pattern) (below, above map[string][]string) {
	below = make(map[string][]string, len(distinct))
	above = make(map[string][]string, len(distinct))
	for s, p := range distinct {
		for t, q := range distinct {
			if t == s {
				continue
			}
			if q.DominatedBy(p) {
				below[s] = append(below[s], t)
			}
			if p.DominatedBy(q) {
				above[s] = append(above[s], t)
			}
		}
	}
	return below, above
}

func intersects(set []string, g map[string]model.Pattern) bool {
	for _, s := range set {
		if _, ok := g[s]; ok {
			return true
		}
	}
	return false
}

func sortPatterns(ps []model.Pattern) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].String() < ps[j].String() })
}
