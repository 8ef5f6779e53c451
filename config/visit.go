package config

import "fmt"

// VisitConfig parameterizes the theoretical visit planner.
type VisitConfig struct {
	// DayCap is the per-day fleet injection cap per regime.
	DayCap int `json:"day_cap"`
	// ScoreWeight and VisitWeight are the objective importances of success
	// and of each injection.
	ScoreWeight float64 `json:"score_weight"`
	VisitWeight float64 `json:"visit_weight"`
	// RoundThreshold binarizes relaxed decision values on extraction.
	RoundThreshold float64 `json:"round_threshold"`
	// TimeLimitSeconds bounds the solve.
	TimeLimitSeconds float64 `json:"time_limit_seconds"`
	// SizeLimit is the solver variable ceiling.
	SizeLimit int `json:"size_limit"`
}

func (c *VisitConfig) SetDefaults() {
	if c.DayCap <= 0 {
		c.DayCap = 15
	}
	if c.ScoreWeight == 0 {
		c.ScoreWeight = 20
	}
	if c.VisitWeight == 0 {
		c.VisitWeight = 5
	}
	if c.RoundThreshold == 0 {
		c.RoundThreshold = 0.5
	}
	if c.TimeLimitSeconds == 0 {
		c.TimeLimitSeconds = 60
	}
	if c.SizeLimit == 0 {
		c.SizeLimit = 200000
	}
}

func (c VisitConfig) Validate() error {
	if c.RoundThreshold <= 0 || c.RoundThreshold >= 1 {
		return fmt.Errorf("round_threshold must lie in (0,1)")
	}
	if c.TimeLimitSeconds <= 0 {
		return fmt.Errorf("time_limit_seconds must be positive")
	}
	return nil
}
