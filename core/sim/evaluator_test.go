package sim

import (
	"testing"

	"github.com/velib-tools/rebalance/core/model"
)

func testStation(id string) model.Station {
	return model.Station{
		ID:       id,
		Capacity: 20,
		Start:    10,
		Demand:   [][]float64{{0, 0}, {0, 0}},
	}
}

func TestEvaluateEnumeratesAllPatterns(t *testing.T) {
	e := Evaluator{
		Horizon:      2,
		Magnitude:    5,
		Tolerance:    4,
		ServiceHours: []int{1},
		TotalDays:    2,
		Workers:      2,
	}
	stations := []model.Station{testStation("a"), testStation("b")}

	records, err := e.Evaluate(stations)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	wantLen := len(model.Signs) * len(stations) * 4
	if len(records) != wantLen {
		t.Fatalf("got %d records, want %d", len(records), wantLen)
	}

	// Deterministic grouping: sign-major, then station input order, then
	// pattern index.
	idx := 0
	for _, sign := range model.Signs {
		for _, st := range stations {
			for p := 0; p < 4; p++ {
				r := records[idx]
				if r.Sign != sign || r.Station != st.ID || !r.Pattern.Equal(model.PatternFromIndex(p, 2)) {
					t.Fatalf("record %d: got (%s,%s,%s)", idx, r.Station, r.Sign, r.Pattern)
				}
				idx++
			}
		}
	}
}

func TestEvaluateDeterministicAcrossWorkerCounts(t *testing.T) {
	stations := []model.Station{testStation("a"), testStation("b"), testStation("c")}
	base := Evaluator{Horizon: 2, Magnitude: 5, Tolerance: 4, ServiceHours: []int{1}, TotalDays: 2}

	one := base
	one.Workers = 1
	many := base
	many.Workers = 8
	// Unset worker count falls back to GOMAXPROCS and must still evaluate.
	auto := base

	if _, err := auto.Evaluate(stations); err != nil {
		t.Fatalf("evaluate with default workers: %v", err)
	}

	r1, err := one.Evaluate(stations)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	r8, err := many.Evaluate(stations)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(r1) != len(r8) {
		t.Fatalf("lengths differ: %d vs %d", len(r1), len(r8))
	}
	for i := range r1 {
		a, b := r1[i], r8[i]
		if a.Station != b.Station || a.Sign != b.Sign || !a.Pattern.Equal(b.Pattern) ||
			a.Feasible != b.Feasible || a.MinRatio != b.MinRatio || a.MaxRatio != b.MaxRatio {
			t.Fatalf("record %d differs: %+v vs %+v", i, a, b)
		}
	}
}

func TestEvaluateRatios(t *testing.T) {
	// Flat trajectory at 10 over 2 days of 20 capacity: weekly average per
	// service hour is (10+10)/2 = 10, ratio 0.5.
	e := Evaluator{Horizon: 2, Magnitude: 5, Tolerance: 4, ServiceHours: []int{1, 2}, TotalDays: 2}
	records, err := e.Evaluate([]model.Station{testStation("a")})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	var zero *model.SimulationRecord
	for i := range records {
		if records[i].Sign == model.SignDeficit && records[i].Pattern.IsZero() {
			zero = &records[i]
			break
		}
	}
	if zero == nil {
		t.Fatalf("zero pattern record missing")
	}
	if zero.MinRatio != 0.5 || zero.MaxRatio != 0.5 {
		t.Fatalf("ratios: got [%v, %v], want [0.5, 0.5]", zero.MinRatio, zero.MaxRatio)
	}
	if !zero.Feasible {
		t.Fatalf("zero pattern must be feasible")
	}
}

func TestEvaluateBlendsPastServiceSums(t *testing.T) {
	st := testStation("a")
	st.PastServiceSums = []float64{40} // two past days at stock 20
	e := Evaluator{Horizon: 2, Magnitude: 5, Tolerance: 4, ServiceHours: []int{1}, TotalDays: 4}

	records, err := e.Evaluate([]model.Station{st})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	// (40 + 10 + 10) / 4 days / 20 capacity = 0.75
	r := records[0]
	if !r.Pattern.IsZero() {
		t.Fatalf("first record must be the zero pattern")
	}
	if r.MinRatio != 0.75 || r.MaxRatio != 0.75 {
		t.Fatalf("blended ratios: got [%v, %v], want [0.75, 0.75]", r.MinRatio, r.MaxRatio)
	}
}

func TestEvaluateRejectsBadHorizon(t *testing.T) {
	e := Evaluator{Horizon: 0}
	if _, err := e.Evaluate([]model.Station{testStation("a")}); err == nil {
		t.Fatalf("horizon 0 accepted")
	}
	e.Horizon = 17
	if _, err := e.Evaluate([]model.Station{testStation("a")}); err == nil {
		t.Fatalf("horizon 17 accepted")
	}
}
