package nestsim

import (
	"context"
	"fmt"
)

// Experiment is a convenience builder: Setup → Instrument → Collect, without
// touching the underlying wiring.
type Experiment struct {
	cfg  *Config
	opts []RuntimeOption
}

// ExperimentOption mutates the Experiment after configuration is loaded.
type ExperimentOption func(*Experiment)

// InstrumentOption configures the probe/target side of the simulation.
type InstrumentOption func(*Experiment)

// CollectOption configures the export side and builds the runtime.
type CollectOption func(*Experiment)

// Setup loads YAML from disk, applies ExperimentOption values, and returns an
// Experiment builder.
func Setup(path string, opts ...ExperimentOption) (*Experiment, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return FromConfig(cfg, opts...)
}

// FromConfig bootstraps an Experiment from an in-memory Config.
func FromConfig(cfg *Config, opts ...ExperimentOption) (*Experiment, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	e := &Experiment{cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e, nil
}

// Config returns the underlying configuration so callers can tweak it before
// building a runtime.
func (e *Experiment) Config() *Config {
	if e == nil {
		return nil
	}
	return e.cfg
}

// Options appends raw RuntimeOption values for advanced scenarios.
func (e *Experiment) Options(opts ...RuntimeOption) *Experiment {
	if e == nil {
		return nil
	}
	e.appendOptions(opts...)
	return e
}

// Instrument records probe-side overrides (targets, dispatcher, recorder,
// observability).
func (e *Experiment) Instrument(opts ...InstrumentOption) *Experiment {
	if e == nil {
		return nil
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Collect records export-side overrides and builds a SimRuntime ready to run.
func (e *Experiment) Collect(opts ...CollectOption) (*SimRuntime, error) {
	if e == nil {
		return nil, fmt.Errorf("experiment is nil")
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return NewSimRuntime(e.cfg, e.opts...)
}

// Run is a shortcut for Collect + runtime.Run.
func (e *Experiment) Run(ctx context.Context, opts ...CollectOption) error {
	rt, err := e.Collect(opts...)
	if err != nil {
		return err
	}
	return rt.Run(ctx)
}

// WithExperimentOptions appends RuntimeOption values during Setup.
func WithExperimentOptions(opts ...RuntimeOption) ExperimentOption {
	return func(e *Experiment) {
		if e != nil {
			e.appendOptions(opts...)
		}
	}
}

// InstrumentTargets replaces the configured neurons with custom targets.
func InstrumentTargets(targets ...Target) InstrumentOption {
	return func(e *Experiment) {
		if e != nil && len(targets) > 0 {
			e.appendOptions(WithTargets(targets...))
		}
	}
}

// InstrumentDispatcher swaps the in-memory event router.
func InstrumentDispatcher(d SimDispatcher) InstrumentOption {
	return func(e *Experiment) {
		if e != nil && d != nil {
			e.appendOptions(WithDispatcher(d))
		}
	}
}

// InstrumentRecorder lets callers bring their own device-logging backend.
func InstrumentRecorder(r Recorder) InstrumentOption {
	return func(e *Experiment) {
		if e != nil && r != nil {
			e.appendOptions(WithRecorder(r))
		}
	}
}

// InstrumentObservability overrides the default Prometheus-based stack.
func InstrumentObservability(obs Observability) InstrumentOption {
	return func(e *Experiment) {
		if e != nil && obs != nil {
			e.appendOptions(WithObservability(obs))
		}
	}
}

// CollectExporter appends a dataset exporter.
func CollectExporter(exp Exporter) CollectOption {
	return func(e *Experiment) {
		if e != nil && exp != nil {
			e.appendOptions(WithExporter(exp))
		}
	}
}

// CollectCallback installs an exporter built from a simple callback function.
func CollectCallback(name string, fn DatasetSink) CollectOption {
	return func(e *Experiment) {
		if e != nil {
			e.appendOptions(WithExporter(NewCallbackExporter(name, fn)))
		}
	}
}

func (e *Experiment) appendOptions(opts ...RuntimeOption) {
	for _, opt := range opts {
		if opt != nil {
			e.opts = append(e.opts, opt)
		}
	}
}
