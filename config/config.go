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

	"github.com/tpgship/tpgsim/core/base"
	"github.com/tpgship/tpgsim/core/energy"
	"github.com/tpgship/tpgsim/core/forecast"
	"github.com/tpgship/tpgsim/core/metrics"
	"github.com/tpgship/tpgsim/core/ship"
	"github.com/tpgship/tpgsim/core/sim"
	"github.com/tpgship/tpgsim/core/target"
)

// Position is a [lat, lon] pair as written in config files.
type Position []float64

// Validate checks the pair has exactly two elements.
func (p Position) Validate() error {
	if len(p) != 2 {
		return fmt.Errorf("position must be [lat, lon], got %d elements", len(p))
	}
	return nil
}

// Lat returns the latitude element.
func (p Position) Lat() float64 { return p[0] }

// Lon returns the longitude element.
func (p Position) Lon() float64 { return p[1] }

// ShipConfig groups the generation ship sections.
type ShipConfig struct {
	StandbyPosition Position      `json:"standby_position"`
	Policy          ship.Config   `json:"policy"`
	Energy          energy.Config `json:"energy"`
}

// BaseConfig wraps the storage base section with its position pair.
type BaseConfig struct {
	Position Position    `json:"position"`
	Base     base.Config `json:"base"`
}

// SupportConfig wraps a support ship section with its supply base position.
type SupportConfig struct {
	SupplyPosition Position           `json:"supply_base_position"`
	Ship           base.SupportConfig `json:"ship"`
}

// WindConfig points at the monthly wind grid files.
type WindConfig struct {
	// Dir holds one CSV per month, named YYYY-MM.csv. Empty means calm.
	Dir string `json:"dir"`
}

// OutputConfig defines where run artifacts are written.
type OutputConfig struct {
	Dir string `json:"dir"`
}

// SetDefaults applies sane defaults.
func (c *OutputConfig) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "output"
	}
}

// Config is the root configuration document.
type Config struct {
	Sim          sim.Config      `json:"sim"`
	Forecaster   forecast.Config `json:"forecaster"`
	Target       target.Config   `json:"target"`
	TrackFile    string          `json:"track_file"`
	Ship         ShipConfig      `json:"ship"`
	StorageBase  BaseConfig      `json:"storage_base"`
	SupportShip1 SupportConfig   `json:"support_ship_1"`
	SupportShip2 SupportConfig   `json:"support_ship_2"`
	Wind         WindConfig      `json:"wind"`
	Output       OutputConfig    `json:"output"`
	Metrics      metrics.Config  `json:"metrics"`
}

// Load reads the configuration file, applies K_ environment overrides and
// validates every section.
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
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.Sim.SetDefaults()
	c.Forecaster.SetDefaults()
	c.Target.SetDefaults()
	c.Ship.Policy.SetDefaults()
	c.Ship.Energy.SetDefaults()
	c.StorageBase.Base.SetDefaults()
	c.Output.SetDefaults()
	c.Metrics.SetDefaults()

	// Position pairs are the authoritative coordinates; copy them into the
	// component configs.
	if len(c.Ship.StandbyPosition) == 2 {
		c.Ship.Policy.InitialLat = c.Ship.StandbyPosition.Lat()
		c.Ship.Policy.InitialLon = c.Ship.StandbyPosition.Lon()
	}
	if len(c.StorageBase.Position) == 2 {
		c.StorageBase.Base.Lat = c.StorageBase.Position.Lat()
		c.StorageBase.Base.Lon = c.StorageBase.Position.Lon()
	}
	if len(c.SupportShip1.SupplyPosition) == 2 {
		c.SupportShip1.Ship.SupplyLat = c.SupportShip1.SupplyPosition.Lat()
		c.SupportShip1.Ship.SupplyLon = c.SupportShip1.SupplyPosition.Lon()
	}
	if len(c.SupportShip2.SupplyPosition) == 2 {
		c.SupportShip2.Ship.SupplyLat = c.SupportShip2.SupplyPosition.Lat()
		c.SupportShip2.Ship.SupplyLon = c.SupportShip2.SupplyPosition.Lon()
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if c.TrackFile == "" {
		return fmt.Errorf("track_file is required")
	}
	if err := c.Sim.Validate(); err != nil {
		return fmt.Errorf("sim: %w", err)
	}
	if err := c.Forecaster.Validate(); err != nil {
		return fmt.Errorf("forecaster: %w", err)
	}
	if err := c.Target.Validate(); err != nil {
		return fmt.Errorf("target: %w", err)
	}
	if err := c.Ship.StandbyPosition.Validate(); err != nil {
		return fmt.Errorf("ship.standby_position: %w", err)
	}
	if err := c.Ship.Policy.Validate(); err != nil {
		return fmt.Errorf("ship.policy: %w", err)
	}
	if err := c.Ship.Energy.Validate(); err != nil {
		return fmt.Errorf("ship.energy: %w", err)
	}
	if err := c.StorageBase.Position.Validate(); err != nil {
		return fmt.Errorf("storage_base.position: %w", err)
	}
	if err := c.StorageBase.Base.Validate(); err != nil {
		return fmt.Errorf("storage_base: %w", err)
	}
	for i, sc := range []SupportConfig{c.SupportShip1, c.SupportShip2} {
		if err := sc.SupplyPosition.Validate(); err != nil {
			return fmt.Errorf("support_ship_%d.supply_base_position: %w", i+1, err)
		}
		if err := sc.Ship.Validate(); err != nil {
			return fmt.Errorf("support_ship_%d: %w", i+1, err)
		}
	}
	return nil
}
