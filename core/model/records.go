package model

// SimulationRecord is the outcome of simulating one candidate pattern for one
// station under one regime.
type SimulationRecord struct {
	Station  string
	Sign     Sign
	Pattern  Pattern
	Feasible bool
	MinRatio float64
	MaxRatio float64
}

// Frontier bounds the optimizer's choice for one station and regime: Low
// holds the minimal good patterns, High the maximal ones, under bitwise
// dominance. Both sets are antichains.
type Frontier struct {
	Station string
	Sign    Sign
	Low     []Pattern
	High    []Pattern
}

// VisitPlan is the per-station outcome of the visit-planning optimization.
type VisitPlan struct {
	Station string
	Sign    Sign
	Pattern Pattern
	Score   float64
	Success bool
}

// RoutePlan is the per-station outcome of the combined visit and routing
// optimization.
type RoutePlan struct {
	Station string
	Sign    Sign
	Pattern Pattern
	Score   float64
	Success bool
}

// Tour is a depot-rooted closed walk for one truck on one day, stations in
// visiting order.
type Tour struct {
	Day      int
	Truck    int
	Stations []string
}
