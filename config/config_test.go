package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
run:
  current_day: 2
paths:
  input_dir: /data/in
  output_dir: /data/out
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Run.WeekDays != 7 || cfg.Run.Horizon() != 5 {
		t.Fatalf("run: %+v", cfg.Run)
	}
	if cfg.Simulation.Magnitude != 15 || cfg.Simulation.Band != 3 {
		t.Fatalf("simulation: %+v", cfg.Simulation)
	}
	if cfg.Frontier.EmptyThreshold != 0.22 || cfg.Frontier.FullThreshold != 0.66 {
		t.Fatalf("frontier: %+v", cfg.Frontier)
	}
	if cfg.Routing.Mode != "best" || cfg.Routing.StageTimeSeconds[0] != 120 {
		t.Fatalf("routing: %+v", cfg.Routing)
	}
	if len(cfg.Routing.TopK) != len(cfg.Routing.RandomConnect) {
		t.Fatalf("ladder: %+v", cfg.Routing)
	}
	if cfg.Paths.Series() != "/data/in/forecast.csv" {
		t.Fatalf("paths: %s", cfg.Paths.Series())
	}
}

func TestLoadFastModeShrinksBudgets(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
routing:
  mode: fast
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Routing.StageTimeSeconds[0] != 60 {
		t.Fatalf("fast stage budget: %v", cfg.Routing.StageTimeSeconds)
	}
	if cfg.Routing.PairRounds != 3 {
		t.Fatalf("fast pair rounds: %d", cfg.Routing.PairRounds)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []string{
		"run:\n  current_day: 9\n",
		"routing:\n  mode: turbo\n",
		"frontier:\n  empty_threshold: 0.9\n  full_threshold: 0.3\n",
		"routing:\n  fallback_fraction: 2\n",
	}
	for _, c := range cases {
		path := writeConfig(t, "config.yaml", c)
		if _, err := Load(path); err == nil {
			t.Errorf("config accepted: %q", c)
		}
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	path := writeConfig(t, "config.toml", "x = 1\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("unsupported format accepted")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
routing:
  fleet: 2
`)
	t.Setenv("K_ROUTING__FLEET", "6")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Routing.Fleet != 6 {
		t.Fatalf("env override ignored: %d", cfg.Routing.Fleet)
	}
}

func TestRunServiceSteps(t *testing.T) {
	c := RunConfig{WeekDays: 7, StepsPerHour: 3, ServiceHours: []int{7, 12}}
	steps := c.ServiceSteps()
	if steps[0] != 21 || steps[1] != 36 {
		t.Fatalf("steps: %v", steps)
	}
	if c.StepsPerDay() != 72 {
		t.Fatalf("steps per day: %d", c.StepsPerDay())
	}
}
