package nestsimulator

import (
	base "github.com/bowers/nest-simulator/pkg/nestsim"
)

// Re-exported errors for convenience.
var (
	ErrLocked                = base.ErrLocked
	ErrIntervalTooShort      = base.ErrIntervalTooShort
	ErrIntervalNotMultiple   = base.ErrIntervalNotMultiple
	ErrChannelExporterClosed = base.ErrChannelExporterClosed
)

// Type aliases so consumers can import github.com/bowers/nest-simulator directly.
type (
	Config           = base.Config
	SimulationConfig = base.SimulationConfig
	ProbeConfig      = base.ProbeConfig
	NodeConfig       = base.NodeConfig
	RecorderConfig   = base.RecorderConfig
	TimescaleConfig  = base.TimescaleConfig
	RedisConfig      = base.RedisConfig
	MetricsConfig    = base.MetricsConfig
	LogConfig        = base.LogConfig

	Experiment       = base.Experiment
	ExperimentOption = base.ExperimentOption
	InstrumentOption = base.InstrumentOption
	CollectOption    = base.CollectOption
	SimRuntime       = base.SimRuntime
	RuntimeOption    = base.RuntimeOption
	SimDispatcher    = base.SimDispatcher

	Multimeter       = base.Multimeter
	ProbeSettings    = base.ProbeSettings
	LIFNeuron        = base.LIFNeuron
	Dataset          = base.Dataset
	SamplingRequest  = base.SamplingRequest
	DataLoggingReply = base.DataLoggingReply
	ReplyRecord      = base.ReplyRecord
	DatasetSink      = base.DatasetSink

	Target        = base.Target
	Receptor      = base.Receptor
	Dispatcher    = base.Dispatcher
	Recorder      = base.Recorder
	Exporter      = base.Exporter
	Observability = base.Observability
	Field         = base.Field
	Resolution    = base.Resolution
	Timestamp     = base.Timestamp
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

// Experiment builder helpers.
func Setup(path string, opts ...ExperimentOption) (*Experiment, error) {
	return base.Setup(path, opts...)
}

func FromConfig(cfg *Config, opts ...ExperimentOption) (*Experiment, error) {
	return base.FromConfig(cfg, opts...)
}

func WithExperimentOptions(opts ...RuntimeOption) ExperimentOption {
	return base.WithExperimentOptions(opts...)
}

func InstrumentTargets(targets ...Target) InstrumentOption {
	return base.InstrumentTargets(targets...)
}

func InstrumentDispatcher(d SimDispatcher) InstrumentOption {
	return base.InstrumentDispatcher(d)
}

func InstrumentRecorder(r Recorder) InstrumentOption {
	return base.InstrumentRecorder(r)
}

func InstrumentObservability(obs Observability) InstrumentOption {
	return base.InstrumentObservability(obs)
}

func CollectExporter(e Exporter) CollectOption {
	return base.CollectExporter(e)
}

func CollectCallback(name string, fn DatasetSink) CollectOption {
	return base.CollectCallback(name, fn)
}

// Runtime and options.
func NewSimRuntime(cfg *Config, opts ...RuntimeOption) (*SimRuntime, error) {
	return base.NewSimRuntime(cfg, opts...)
}

func WithDispatcher(d SimDispatcher) RuntimeOption {
	return base.WithDispatcher(d)
}

func WithRecorder(r Recorder) RuntimeOption {
	return base.WithRecorder(r)
}

func WithObservability(obs Observability) RuntimeOption {
	return base.WithObservability(obs)
}

func WithTargets(targets ...Target) RuntimeOption {
	return base.WithTargets(targets...)
}

func WithExporter(e Exporter) RuntimeOption {
	return base.WithExporter(e)
}

// Exporter adapters.
func NewCallbackExporter(name string, fn DatasetSink) Exporter {
	return base.NewCallbackExporter(name, fn)
}

func NewChannelExporter(name string, buffer int) (Exporter, <-chan *Dataset, func()) {
	return base.NewChannelExporter(name, buffer)
}
