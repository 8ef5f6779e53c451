package config

import "fmt"

// SimConfig parameterizes the stock simulation.
type SimConfig struct {
	// Magnitude is the stock adjustment of one regulation event.
	Magnitude float64 `json:"magnitude"`
	// Tolerance widens the capacity window before a pattern is rejected.
	Tolerance float64 `json:"tolerance"`
	// Band is the half-width of the stabilization corridor around the
	// historical trajectory.
	Band float64 `json:"band"`
	// Workers bounds the simulation worker pool. Zero means GOMAXPROCS.
	Workers int `json:"workers"`
}

func (c *SimConfig) SetDefaults() {
	if c.Magnitude == 0 {
		c.Magnitude = 15
	}
	if c.Tolerance == 0 {
		c.Tolerance = 4
	}
	if c.Band == 0 {
		c.Band = 3
	}
}

func (c SimConfig) Validate() error {
	if c.Magnitude <= 0 {
		return fmt.Errorf("magnitude must be positive")
	}
	if c.Tolerance < 0 || c.Band < 0 {
		return fmt.Errorf("tolerance and band must be non-negative")
	}
	return nil
}

// FrontierConfig holds the service-level acceptance thresholds.
type FrontierConfig struct {
	// EmptyThreshold is the minimum max fill ratio: below it the station
	// runs too empty.
	EmptyThreshold float64 `json:"empty_threshold"`
	// FullThreshold is the maximum min fill ratio: above it the station
	// saturates.
	FullThreshold float64 `json:"full_threshold"`
}

func (c *FrontierConfig) SetDefaults() {
	if c.EmptyThreshold == 0 {
		c.EmptyThreshold = 0.22
	}
	if c.FullThreshold == 0 {
		c.FullThreshold = 0.66
	}
}

func (c FrontierConfig) Validate() error {
	if c.EmptyThreshold < 0 || c.EmptyThreshold > 1 ||
		c.FullThreshold < 0 || c.FullThreshold > 1 {
		return fmt.Errorf("thresholds must lie in [0,1]")
	}
	if c.EmptyThreshold > c.FullThreshold {
		return fmt.Errorf("empty_threshold above full_threshold")
	}
	return nil
}
