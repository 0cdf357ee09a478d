package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bowers/nest-simulator/internal/adapters/node"
	"github.com/bowers/nest-simulator/internal/simtime"
)

type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Probe      ProbeConfig      `yaml:"probe"`
	Nodes      []node.Config    `yaml:"nodes"`
	Recorder   RecorderConfig   `yaml:"recorder"`
	Timescale  TimescaleConfig  `yaml:"timescale"`
	Redis      RedisConfig      `yaml:"redis"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Log        LogConfig        `yaml:"log"`
}

type SimulationConfig struct {
	ResolutionMs  float64 `yaml:"resolution_ms"`
	StepsPerSlice int     `yaml:"steps_per_slice"`
	Slices        int     `yaml:"slices"`
}

type ProbeConfig struct {
	Label      string   `yaml:"label"`
	IntervalMs float64  `yaml:"interval_ms"`
	RecordFrom []string `yaml:"record_from"`
	StartMs    float64  `yaml:"start_ms"`
	StopMs     float64  `yaml:"stop_ms"`
}

type RecorderConfig struct {
	Dir        string `yaml:"dir"`
	Accumulate bool   `yaml:"accumulate"`
	ToFile     bool   `yaml:"to_file"`
}

type TimescaleConfig struct {
	ConnString string `yaml:"conn_string"`
	Table      string `yaml:"table"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Simulation.ResolutionMs == 0 {
		c.Simulation.ResolutionMs = 0.1
	}
	if c.Simulation.StepsPerSlice == 0 {
		c.Simulation.StepsPerSlice = 10
	}
	if c.Simulation.Slices == 0 {
		c.Simulation.Slices = 100
	}
	if c.Probe.Label == "" {
		c.Probe.Label = "multimeter"
	}
	if c.Probe.IntervalMs == 0 {
		c.Probe.IntervalMs = 1.0
	}
	if len(c.Probe.RecordFrom) == 0 {
		c.Probe.RecordFrom = []string{"V_m"}
	}
	if c.Probe.StopMs == 0 {
		// record until the end of the run
		c.Probe.StopMs = float64(c.Simulation.Slices*c.Simulation.StepsPerSlice) * c.Simulation.ResolutionMs
	}
	if c.Recorder.Dir == "" {
		c.Recorder.Dir = "./data/recordings"
	}
	if c.Timescale.Table == "" {
		c.Timescale.Table = "samples"
	}
	if c.Redis.Channel == "" {
		c.Redis.Channel = "nest:datasets"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	// Every node runs on the simulation grid.
	for i := range c.Nodes {
		c.Nodes[i].Resolution = simtime.Resolution(c.Simulation.ResolutionMs)
		if c.Nodes[i].Label == "" {
			c.Nodes[i].Label = fmt.Sprintf("lif-%d", i)
		}
		c.Nodes[i].ApplyDefaults()
	}
}

func (c *Config) Validate() error {
	if c.Simulation.ResolutionMs <= 0 || math.IsInf(c.Simulation.ResolutionMs, 1) {
		return fmt.Errorf("simulation.resolution_ms must be > 0")
	}
	if c.Simulation.StepsPerSlice <= 0 {
		return fmt.Errorf("simulation.steps_per_slice must be > 0")
	}
	if c.Simulation.Slices <= 0 {
		return fmt.Errorf("simulation.slices must be > 0")
	}
	if c.Probe.IntervalMs < c.Simulation.ResolutionMs {
		return fmt.Errorf("probe.interval_ms must be at least simulation.resolution_ms")
	}
	if c.Probe.StartMs < 0 || c.Probe.StopMs < c.Probe.StartMs {
		return fmt.Errorf("probe recording window [start_ms, stop_ms] is inverted")
	}
	for i := range c.Nodes {
		if err := c.Nodes[i].Validate(); err != nil {
			return fmt.Errorf("nodes[%d]: %w", i, err)
		}
	}
	return nil
}

// TimescaleEnabled reports whether a sink connection was configured; the
// export targets are optional, unlike the core simulation settings.
func (c *Config) TimescaleEnabled() bool { return c.Timescale.ConnString != "" }

func (c *Config) RedisEnabled() bool { return c.Redis.Addr != "" }
