package config

import (
	"fmt"
	"time"
)

// RoutingConfig parameterizes the combined visit and routing optimizer.
type RoutingConfig struct {
	// Mode selects the solve profile: "best" or "fast". Fast shrinks the
	// first stage budget and the paired-day refinement rounds.
	Mode string `json:"mode"`
	// Fleet is the number of trucks available per day.
	Fleet int `json:"fleet"`
	// MaxTour is the maximum number of stations in one tour.
	MaxTour int `json:"max_tour"`
	// TopK, RandomConnect and StageTimeSeconds define the solve ladder;
	// all three must have the same length.
	TopK             []int     `json:"top_k"`
	RandomConnect    []int     `json:"random_connect"`
	StageTimeSeconds []float64 `json:"stage_time_seconds"`

	DayTimeSeconds  float64 `json:"day_time_seconds"`
	DayRounds       int     `json:"day_rounds"`
	PairTimeSeconds float64 `json:"pair_time_seconds"`
	PairRounds      int     `json:"pair_rounds"`

	SamePenalty    float64 `json:"same_penalty"`
	DayCap         int     `json:"day_cap"`
	ScoreWeight    float64 `json:"score_weight"`
	DistWeight     float64 `json:"dist_weight"`
	RoundThreshold float64 `json:"round_threshold"`
	SizeLimit      int     `json:"size_limit"`

	// FallbackFraction is the station share kept when a size-exceeded or
	// infeasible instance is retried at reduced scope.
	FallbackFraction float64 `json:"fallback_fraction"`
	Seed             int64   `json:"seed"`
}

func (c *RoutingConfig) SetDefaults() {
	if c.Mode == "" {
		c.Mode = "best"
	}
	if c.Fleet <= 0 {
		c.Fleet = 4
	}
	if c.MaxTour <= 0 {
		c.MaxTour = 10
	}
	if len(c.TopK) == 0 {
		c.TopK = []int{5, 10, 20}
	}
	if len(c.RandomConnect) == 0 {
		c.RandomConnect = []int{5, 10, 10}
	}
	if len(c.StageTimeSeconds) == 0 {
		c.StageTimeSeconds = make([]float64, len(c.TopK))
		for i := range c.StageTimeSeconds {
			c.StageTimeSeconds[i] = 60
		}
		if c.Mode == "best" {
			c.StageTimeSeconds[0] = 120
		}
	}
	if c.DayTimeSeconds == 0 {
		c.DayTimeSeconds = 10
	}
	if c.DayRounds == 0 {
		c.DayRounds = 1
	}
	if c.PairTimeSeconds == 0 {
		c.PairTimeSeconds = 15
	}
	if c.PairRounds == 0 {
		c.PairRounds = 5
		if c.Mode == "fast" {
			c.PairRounds = 3
		}
	}
	if c.SamePenalty == 0 {
		c.SamePenalty = 5
	}
	if c.DayCap <= 0 {
		c.DayCap = 15
	}
	if c.ScoreWeight == 0 {
		c.ScoreWeight = 10
	}
	if c.DistWeight == 0 {
		c.DistWeight = 0.3
	}
	if c.RoundThreshold == 0 {
		c.RoundThreshold = 0.5
	}
	if c.SizeLimit == 0 {
		c.SizeLimit = 200000
	}
	if c.FallbackFraction == 0 {
		c.FallbackFraction = 0.5
	}
}

func (c RoutingConfig) Validate() error {
	if c.Mode != "best" && c.Mode != "fast" {
		return fmt.Errorf("unknown routing mode %q", c.Mode)
	}
	if len(c.TopK) != len(c.RandomConnect) || len(c.TopK) != len(c.StageTimeSeconds) {
		return fmt.Errorf("top_k, random_connect and stage_time_seconds must have equal length")
	}
	for i := 1; i < len(c.TopK); i++ {
		if c.TopK[i] < c.TopK[i-1] {
			return fmt.Errorf("top_k ladder must be non-decreasing")
		}
	}
	if c.RoundThreshold <= 0 || c.RoundThreshold >= 1 {
		return fmt.Errorf("round_threshold must lie in (0,1)")
	}
	if c.FallbackFraction <= 0 || c.FallbackFraction > 1 {
		return fmt.Errorf("fallback_fraction must lie in (0,1]")
	}
	return nil
}

// StageTimes converts the per-stage second budgets to durations.
func (c RoutingConfig) StageTimes() []time.Duration {
	out := make([]time.Duration, len(c.StageTimeSeconds))
	for i, s := range c.StageTimeSeconds {
		out[i] = time.Duration(s * float64(time.Second))
	}
	return out
}
