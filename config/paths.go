package config

import (
	"fmt"
	"path/filepath"
)

// PathsConfig locates the CSV artifacts exchanged between stages.
type PathsConfig struct {
	// InputDir holds the upstream demand reconstruction and metadata.
	InputDir string `json:"input_dir"`
	// OutputDir receives the stage outputs.
	OutputDir string `json:"output_dir"`
	// ProcessDir holds the station membership state.
	ProcessDir string `json:"process_dir"`

	// SeriesFile is the per-station time-series file under InputDir.
	SeriesFile string `json:"series_file"`
	// CoordsFile is the station coordinates file under InputDir.
	CoordsFile string `json:"coords_file"`
}

func (c *PathsConfig) SetDefaults() {
	if c.InputDir == "" {
		c.InputDir = "data/input"
	}
	if c.OutputDir == "" {
		c.OutputDir = "data/output"
	}
	if c.ProcessDir == "" {
		c.ProcessDir = "data/process"
	}
	if c.SeriesFile == "" {
		c.SeriesFile = "forecast.csv"
	}
	if c.CoordsFile == "" {
		c.CoordsFile = "stations.csv"
	}
}

func (c PathsConfig) Validate() error {
	if c.InputDir == "" || c.OutputDir == "" {
		return fmt.Errorf("input_dir and output_dir are required")
	}
	return nil
}

// Series is the full path of the time-series file.
func (c PathsConfig) Series() string { return filepath.Join(c.InputDir, c.SeriesFile) }

// Coords is the full path of the coordinates file.
func (c PathsConfig) Coords() string { return filepath.Join(c.InputDir, c.CoordsFile) }

// Records is the evaluated-pattern table path.
func (c PathsConfig) Records() string { return filepath.Join(c.OutputDir, "records.csv") }

// Frontiers is the frontier table path.
func (c PathsConfig) Frontiers() string { return filepath.Join(c.OutputDir, "frontiers.csv") }

// VisitPlans is the theoretical plan table path.
func (c PathsConfig) VisitPlans() string { return filepath.Join(c.OutputDir, "visit_plans.csv") }

// RoutePlans is the final routing outcome table path.
func (c PathsConfig) RoutePlans() string { return filepath.Join(c.OutputDir, "route_plans.csv") }

// Tours is the per-truck tour table path.
func (c PathsConfig) Tours() string { return filepath.Join(c.OutputDir, "tours.csv") }
