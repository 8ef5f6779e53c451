// Package config loads and validates the planner configuration.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/velib-tools/rebalance/infra/mqtt"
)

type Config struct {
	Run        RunConfig      `json:"run"`
	Simulation SimConfig      `json:"simulation"`
	Frontier   FrontierConfig `json:"frontier"`
	Visit      VisitConfig    `json:"visit"`
	Routing    RoutingConfig  `json:"routing"`
	Paths      PathsConfig    `json:"paths"`
	Metrics    MetricsConfig  `json:"metrics"`
	MQTT       MQTTConfig     `json:"mqtt"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides. The provider delimiter must match the
	// koanf instance so the rewritten keys land in the nested tree.
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies fallback values on every sub-config.
func (c *Config) SetDefaults() {
	c.Run.SetDefaults()
	c.Simulation.SetDefaults()
	c.Frontier.SetDefaults()
	c.Visit.SetDefaults()
	c.Routing.SetDefaults()
	c.Paths.SetDefaults()
}

// Validate checks every sub-config.
func (c *Config) Validate() error {
	if err := c.Run.Validate(); err != nil {
		return err
	}
	if err := c.Simulation.Validate(); err != nil {
		return err
	}
	if err := c.Frontier.Validate(); err != nil {
		return err
	}
	if err := c.Visit.Validate(); err != nil {
		return err
	}
	if err := c.Routing.Validate(); err != nil {
		return err
	}
	return c.Paths.Validate()
}

// MQTTConfig wires the optional route publication.
type MQTTConfig struct {
	Enabled bool        `json:"enabled"`
	Client  mqtt.Config `json:"client"`
}

// MetricsConfig selects the sinks stage results are recorded to.
type MetricsConfig struct {
	PromEnabled   bool   `json:"prom_enabled"`
	PromAddr      string `json:"prom_addr"`
	InfluxEnabled bool   `json:"influx_enabled"`
	InfluxURL     string `json:"influx_url"`
	InfluxToken   string `json:"influx_token"`
	InfluxOrg     string `json:"influx_org"`
	InfluxBucket  string `json:"influx_bucket"`
}
