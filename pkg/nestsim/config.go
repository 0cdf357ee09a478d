package nestsim

import (
	"github.com/bowers/nest-simulator/internal/adapters/node"
	"github.com/bowers/nest-simulator/internal/app/config"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// SimulationConfig sets the time grid: resolution, slice length, run length.
	SimulationConfig = config.SimulationConfig
	// ProbeConfig configures the multimeter.
	ProbeConfig = config.ProbeConfig
	// NodeConfig describes one simulated neuron target.
	NodeConfig = node.Config
	// RecorderConfig configures the device-logging backend.
	RecorderConfig = config.RecorderConfig
	// TimescaleConfig configures the dataset sink.
	TimescaleConfig = config.TimescaleConfig
	// RedisConfig configures the dataset publisher.
	RedisConfig = config.RedisConfig
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
	// LogConfig configures logrus output.
	LogConfig = config.LogConfig
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}
