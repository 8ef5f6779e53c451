package route

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/velib-tools/rebalance/core/geo"
	"github.com/velib-tools/rebalance/core/model"
)

const depot = 0

type nodeType int

const (
	nodeDepot nodeType = iota
	nodeDeficit
	nodeSurplus
)

type node struct {
	typ     nodeType
	station string
	group   int // frontier index, -1 for the depot
}

// graph is the unified routing graph: depot at index 0, then one node per
// deficit station and one per surplus station. dist carries the same-type
// penalty folded in; depot rows and columns are zero.
type graph struct {
	nodes []node
	dist  [][]float64
}

func signType(s model.Sign) nodeType {
	if s == model.SignDeficit {
		return nodeDeficit
	}
	return nodeSurplus
}

func buildGraph(frontiers []model.Frontier, m *geo.Matrix, samePenalty float64) (*graph, error) {
	g := &graph{nodes: []node{{typ: nodeDepot, group: -1}}}
	for _, sign := range model.Signs {
		for gi, fr := range frontiers {
			if fr.Sign != sign {
				continue
			}
			g.nodes = append(g.nodes, node{typ: signType(sign), station: fr.Station, group: gi})
		}
	}

	n := len(g.nodes)
	g.dist = make([][]float64, n)
	for i := range g.dist {
		g.dist[i] = make([]float64, n)
	}
	for i := 1; i < n; i++ {
		for j := 1; j < n; j++ {
			if i == j {
				continue
			}
			d, err := m.Between(g.nodes[i].station, g.nodes[j].station)
			if err != nil {
				return nil, fmt.Errorf("routing graph: %w", err)
			}
			if g.nodes[i].typ == g.nodes[j].typ {
				d += samePenalty
			}
			g.dist[i][j] = d
		}
	}
	return g, nil
}

// candidates holds, per node, the distance-sorted neighbor lists split by
// type, and per day a bounded random sample of the farther nodes kept for
// connectivity. The random samples are drawn once and shared by every ladder
// variant so that denser variants strictly extend sparser ones.
type candidates struct {
	top [][][]int // [node][list] nearest neighbors, list 0 other-type, 1 same-type
	rnd [][][]int // [day][node] random long-range sample
}

func buildCandidates(g *graph, horizon, maxTop, maxRnd int, rng *rand.Rand) *candidates {
	n := len(g.nodes)
	c := &candidates{
		top: make([][][]int, n),
		rnd: make([][][]int, horizon),
	}
	rest := make([][]int, n)
	for i := 1; i < n; i++ {
		var diff, same []int
		for j := 1; j < n; j++ {
			if j == i {
				continue
			}
			if g.nodes[i].typ == g.nodes[j].typ {
				same = append(same, j)
			} else {
				diff = append(diff, j)
			}
		}
		byDist := func(list []int) {
			sort.Slice(list, func(a, b int) bool { return g.dist[i][list[a]] < g.dist[i][list[b]] })
		}
		byDist(diff)
		byDist(same)
		c.top[i] = make([][]int, 0, 2)
		for _, list := range [][]int{diff, same} {
			k := min(maxTop, len(list))
			c.top[i] = append(c.top[i], list[:k])
			rest[i] = append(rest[i], list[k:]...)
		}
	}
	for d := 0; d < horizon; d++ {
		c.rnd[d] = make([][]int, n)
		for i := 1; i < n; i++ {
			c.rnd[d][i] = sample(rest[i], maxRnd, rng)
		}
	}
	return c
}

func sample(list []int, k int, rng *rand.Rand) []int {
	if k >= len(list) {
		out := make([]int, len(list))
		copy(out, list)
		return out
	}
	perm := rng.Perm(len(list))
	out := make([]int, k)
	for i := 0; i < k; i++ {
		out[i] = list[perm[i]]
	}
	return out
}
