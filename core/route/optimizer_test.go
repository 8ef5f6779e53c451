package route

import (
	"testing"
	"time"

	"github.com/velib-tools/rebalance/core/geo"
	"github.com/velib-tools/rebalance/core/logger"
	"github.com/velib-tools/rebalance/core/milp"
	"github.com/velib-tools/rebalance/core/model"
)

type nopLog struct{}

func (nopLog) Debugf(string, ...any) {}
func (nopLog) Infof(string, ...any)  {}
func (nopLog) Warnf(string, ...any)  {}
func (nopLog) Errorf(string, ...any) {}

var _ logger.Logger = nopLog{}

func pat(s string) model.Pattern {
	p, err := model.ParsePattern(s, len(s))
	if err != nil {
		panic(err)
	}
	return p
}

func testMatrix(t *testing.T, ids ...string) *geo.Matrix {
	t.Helper()
	pts := make([]geo.Point, len(ids))
	for i := range ids {
		pts[i] = geo.Point{Lat: 48.85 + 0.01*float64(i), Lon: 2.35 + 0.01*float64(i)}
	}
	m, err := geo.NewMatrix(ids, pts)
	if err != nil {
		t.Fatalf("matrix: %v", err)
	}
	return m
}

func testConfig() Config {
	return Config{
		Fleet:            1,
		MaxTour:          10,
		TopK:             []int{3},
		RandomConnect:    []int{0},
		StageTime:        []time.Duration{5 * time.Second},
		DayTime:          time.Second,
		DayRounds:        0,
		PairTime:         time.Second,
		PairRounds:       0,
		SamePenalty:      5,
		DayCap:           15,
		ScoreWeight:      10,
		DistWeight:       0.3,
		RoundThreshold:   0.5,
		FallbackFraction: 0.5,
		Seed:             1,
	}
}

func TestSolveEmptyInstance(t *testing.T) {
	o := New(testConfig(), nopLog{})
	sol, err := o.Solve(Input{Horizon: 2, Dist: testMatrix(t)})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if sol.Status != milp.StatusOptimal || len(sol.Plans) != 0 {
		t.Fatalf("got %+v", sol)
	}
}

func TestSolveSmallInstance(t *testing.T) {
	// One deficit and one surplus station, both pinned to a day-0 visit.
	frontiers := []model.Frontier{
		{Station: "a", Sign: model.SignDeficit, Low: []model.Pattern{pat("10")}, High: []model.Pattern{pat("10")}},
		{Station: "b", Sign: model.SignSurplus, Low: []model.Pattern{pat("10")}, High: []model.Pattern{pat("10")}},
	}
	o := New(testConfig(), nopLog{})
	sol, err := o.Solve(Input{Frontiers: frontiers, Horizon: 2, Dist: testMatrix(t, "a", "b")})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if sol.Status != milp.StatusOptimal && sol.Status != milp.StatusTimeLimit {
		t.Fatalf("status: %s", sol.Status)
	}
	if sol.Reduced {
		t.Fatalf("small instance took the fallback path")
	}
	if len(sol.Plans) != 2 {
		t.Fatalf("got %d plans", len(sol.Plans))
	}
	for _, p := range sol.Plans {
		if !p.Success {
			t.Fatalf("station %s not served: %+v", p.Station, p)
		}
		if p.Pattern.String() != "10" {
			t.Fatalf("station %s pattern: got %s want 10", p.Station, p.Pattern)
		}
	}

	// With one truck, everything rides a single day-0 tour through both
	// stations.
	perDay := map[int]int{}
	visited := map[string]bool{}
	for _, tour := range sol.Tours {
		perDay[tour.Day]++
		if len(tour.Stations) > o.cfg.MaxTour {
			t.Fatalf("tour longer than MaxTour: %v", tour.Stations)
		}
		for _, s := range tour.Stations {
			visited[s] = true
		}
	}
	for day, n := range perDay {
		if n > o.cfg.Fleet {
			t.Fatalf("day %d runs %d tours with a fleet of %d", day, n, o.cfg.Fleet)
		}
	}
	if !visited["a"] || !visited["b"] {
		t.Fatalf("planned stations missing from tours: %v", sol.Tours)
	}
}

func TestSolveIdleTruckAbsorbed(t *testing.T) {
	// With more trucks than work, the depot self-loop soaks up the slack and
	// the degree constraints stay satisfiable.
	frontiers := []model.Frontier{
		{Station: "a", Sign: model.SignDeficit, Low: []model.Pattern{pat("10")}, High: []model.Pattern{pat("10")}},
		{Station: "b", Sign: model.SignSurplus, Low: []model.Pattern{pat("10")}, High: []model.Pattern{pat("10")}},
	}
	cfg := testConfig()
	cfg.Fleet = 3
	o := New(cfg, nopLog{})
	sol, err := o.Solve(Input{Frontiers: frontiers, Horizon: 2, Dist: testMatrix(t, "a", "b")})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if sol.Status != milp.StatusOptimal && sol.Status != milp.StatusTimeLimit {
		t.Fatalf("status: %s", sol.Status)
	}
	for _, p := range sol.Plans {
		if !p.Success {
			t.Fatalf("station %s not served: %+v", p.Station, p)
		}
	}
	perDay := map[int]int{}
	for _, tour := range sol.Tours {
		perDay[tour.Day]++
	}
	for day, n := range perDay {
		if n > cfg.Fleet {
			t.Fatalf("day %d runs %d tours with a fleet of %d", day, n, cfg.Fleet)
		}
	}
}

func TestSolveFallbackOnSizeExceeded(t *testing.T) {
	frontiers := []model.Frontier{
		{Station: "a", Sign: model.SignDeficit, Low: []model.Pattern{pat("10")}, High: []model.Pattern{pat("11")}},
		{Station: "b", Sign: model.SignSurplus, Low: []model.Pattern{pat("01")}, High: []model.Pattern{pat("11")}},
	}
	cfg := testConfig()
	cfg.SizeLimit = 3 // nothing fits
	o := New(cfg, nopLog{})
	sol, err := o.Solve(Input{Frontiers: frontiers, Horizon: 2, Dist: testMatrix(t, "a", "b")})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if !sol.Reduced {
		t.Fatalf("fallback path not taken")
	}
	if sol.Status != milp.StatusSizeExceeded {
		t.Fatalf("status: %s", sol.Status)
	}
	if sol.Horizon != 1 {
		t.Fatalf("final attempt horizon: got %d want 1", sol.Horizon)
	}
}

func TestSampleInputTruncatesAndDedupes(t *testing.T) {
	frontiers := []model.Frontier{
		{Station: "a", Sign: model.SignDeficit,
			Low:  []model.Pattern{pat("10"), pat("11")},
			High: []model.Pattern{pat("11")}},
		{Station: "b", Sign: model.SignSurplus,
			Low:  []model.Pattern{pat("01")},
			High: []model.Pattern{pat("01"), pat("11")}},
	}
	cfg := testConfig()
	cfg.FallbackFraction = 1
	o := New(cfg, nopLog{})
	out := o.sampleInput(Input{Frontiers: frontiers, Horizon: 2}, 1)

	if len(out.Frontiers) != 2 || out.Horizon != 1 {
		t.Fatalf("got %d frontiers, horizon %d", len(out.Frontiers), out.Horizon)
	}
	// Truncating {10, 11} to one day collapses both onto "1".
	if len(out.Frontiers[0].Low) != 1 || out.Frontiers[0].Low[0].String() != "1" {
		t.Fatalf("low: %v", out.Frontiers[0].Low)
	}
	// {01, 11} truncates to the distinct pair {0, 1}.
	if len(out.Frontiers[1].High) != 2 {
		t.Fatalf("high: %v", out.Frontiers[1].High)
	}
}

func TestSampleInputKeepsFraction(t *testing.T) {
	var frontiers []model.Frontier
	for _, id := range []string{"a", "b", "c", "d"} {
		frontiers = append(frontiers, model.Frontier{
			Station: id, Sign: model.SignDeficit, Low: []model.Pattern{pat("1")}, High: []model.Pattern{pat("1")},
		})
	}
	o := New(testConfig(), nopLog{})
	out := o.sampleInput(Input{Frontiers: frontiers, Horizon: 1}, 1)
	if len(out.Frontiers) != 2 {
		t.Fatalf("got %d frontiers, want 2", len(out.Frontiers))
	}
}

func TestBuildGraphSameTypePenalty(t *testing.T) {
	frontiers := []model.Frontier{
		{Station: "a", Sign: model.SignDeficit},
		{Station: "b", Sign: model.SignDeficit},
		{Station: "c", Sign: model.SignSurplus},
	}
	g, err := buildGraph(frontiers, testMatrix(t, "a", "b", "c"), 5)
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	if len(g.nodes) != 4 {
		t.Fatalf("got %d nodes", len(g.nodes))
	}
	// a and b share a type; a and c do not.
	var ai, bi, ci int
	for i, nd := range g.nodes {
		switch nd.station {
		case "a":
			ai = i
		case "b":
			bi = i
		case "c":
			ci = i
		}
	}
	raw, err := testMatrix(t, "a", "b", "c").Between("a", "b")
	if err != nil {
		t.Fatalf("between: %v", err)
	}
	if g.dist[ai][bi] != raw+5 {
		t.Fatalf("same-type distance: got %v want %v", g.dist[ai][bi], raw+5)
	}
	rawAC, _ := testMatrix(t, "a", "b", "c").Between("a", "c")
	if g.dist[ai][ci] != rawAC {
		t.Fatalf("cross-type distance: got %v want %v", g.dist[ai][ci], rawAC)
	}
	for i := range g.nodes {
		if g.dist[depot][i] != 0 || g.dist[i][depot] != 0 {
			t.Fatalf("depot distances must be zero")
		}
	}
}
