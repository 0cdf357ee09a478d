package nestsim

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/bowers/nest-simulator/internal/adapters/dispatch"
	"github.com/bowers/nest-simulator/internal/adapters/export"
	"github.com/bowers/nest-simulator/internal/adapters/node"
	"github.com/bowers/nest-simulator/internal/adapters/observability"
	"github.com/bowers/nest-simulator/internal/adapters/recorder"
	"github.com/bowers/nest-simulator/internal/adapters/sink"
	"github.com/bowers/nest-simulator/internal/app/sim"
	"github.com/bowers/nest-simulator/internal/ports"
	"github.com/bowers/nest-simulator/internal/probe"
	"github.com/bowers/nest-simulator/internal/simtime"
)

// SimDispatcher combines request routing with the between-slice delivery hook
// the scheduler drives.
type SimDispatcher interface {
	Dispatcher
	DeliverPending() int
}

// RuntimeOption customizes the dependencies used by SimRuntime.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	dispatcher    SimDispatcher
	recorder      Recorder
	observability Observability
	targets       []Target
	exporters     []Exporter
}

// WithDispatcher injects a custom event router.
func WithDispatcher(d SimDispatcher) RuntimeOption {
	return func(o *runtimeOverrides) { o.dispatcher = d }
}

// WithRecorder injects a custom device-logging backend.
func WithRecorder(r Recorder) RuntimeOption {
	return func(o *runtimeOverrides) { o.recorder = r }
}

// WithObservability plugs in a custom metrics/logging backend.
func WithObservability(obs Observability) RuntimeOption {
	return func(o *runtimeOverrides) { o.observability = obs }
}

// WithTargets replaces the neurons built from configuration with
// caller-provided targets.
func WithTargets(targets ...Target) RuntimeOption {
	return func(o *runtimeOverrides) { o.targets = append(o.targets, targets...) }
}

// WithExporter appends a dataset exporter alongside any configured ones.
func WithExporter(e Exporter) RuntimeOption {
	return func(o *runtimeOverrides) {
		if e != nil {
			o.exporters = append(o.exporters, e)
		}
	}
}

// SimRuntime wires probe, targets, dispatcher and scheduler into a runnable
// simulation and ships the resulting dataset to the configured exporters.
type SimRuntime struct {
	cfg *Config
	log *logrus.Logger
	obs Observability

	dispatcher SimDispatcher
	recorder   Recorder
	meter      *Multimeter
	targets    []Target
	sched      *sim.Scheduler
	exporters  []Exporter

	db         *sql.DB
	redisPub   *export.RedisPublisher
	fileRec    *recorder.FileRecorder
	metricsSrv *http.Server
}

// NewSimRuntime bootstraps the default adapters (in-memory dispatcher, memory
// or file recorder, LIF neurons from configuration, Prometheus observability,
// Timescale/Redis exporters when configured). RuntimeOption values override
// any dependency.
func NewSimRuntime(cfg *Config, opts ...RuntimeOption) (*SimRuntime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	log := newLogger(cfg.Log)

	obs := overrides.observability
	if obs == nil {
		obs = observability.NewPromObs(log)
	}

	d := overrides.dispatcher
	if d == nil {
		d = dispatch.NewMemDispatch()
	}

	rt := &SimRuntime{cfg: cfg, log: log, obs: obs, dispatcher: d}

	rec := overrides.recorder
	if rec == nil {
		if cfg.Recorder.ToFile {
			fileRec, err := recorder.NewFileRecorder(cfg.Recorder.Dir, cfg.Probe.Label)
			if err != nil {
				return nil, err
			}
			rt.fileRec = fileRec
			rec = fileRec
		} else {
			rec = recorder.NewMemRecorder(cfg.Recorder.Accumulate)
		}
	}
	rt.recorder = rec

	res := simtime.Resolution(cfg.Simulation.ResolutionMs)
	meter, err := probe.NewMultimeter(probe.Config{
		Resolution: res,
		IntervalMs: cfg.Probe.IntervalMs,
		RecordFrom: cfg.Probe.RecordFrom,
		Label:      cfg.Probe.Label,
	}, d, rec, obs)
	if err != nil {
		return nil, err
	}
	rt.meter = meter

	targets := overrides.targets
	if len(targets) == 0 {
		for i := range cfg.Nodes {
			n, err := node.New(cfg.Nodes[i])
			if err != nil {
				return nil, fmt.Errorf("nodes[%d]: %w", i, err)
			}
			targets = append(targets, n)
		}
	}
	if len(targets) == 0 {
		n, err := node.New(node.Config{Resolution: res})
		if err != nil {
			return nil, err
		}
		targets = append(targets, n)
	}
	rt.targets = targets

	var bound int
	for _, t := range targets {
		if r := meter.BindTarget(t); r != ports.InvalidReceptor {
			bound++
		} else {
			obs.LogError("target_rejected_connection", nil, Field{Key: "target", Value: t.ID().String()})
		}
	}
	if bound == 0 {
		return nil, fmt.Errorf("no target accepted the sampler connection")
	}

	meter.Calibrate(
		simtime.Timestamp(cfg.Probe.StartMs).Steps(res),
		simtime.Timestamp(cfg.Probe.StopMs).Steps(res),
	)

	sched, err := sim.NewScheduler(res, cfg.Simulation.StepsPerSlice, d, obs)
	if err != nil {
		return nil, err
	}
	sched.Add(meter)
	for _, t := range targets {
		if s, ok := t.(sim.Steppable); ok {
			sched.Add(s)
		}
	}
	rt.sched = sched

	exporters := overrides.exporters
	if cfg.TimescaleEnabled() {
		db, err := sql.Open("postgres", cfg.Timescale.ConnString)
		if err != nil {
			return nil, err
		}
		rt.db = db
		exporters = append(exporters, sink.NewTimescaleSink(db, cfg.Timescale.Table))
	}
	if cfg.RedisEnabled() {
		pub, err := export.NewRedisPublisher(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.Channel, cfg.Redis.DB, log)
		if err != nil {
			return nil, err
		}
		rt.redisPub = pub
		exporters = append(exporters, pub)
	}
	rt.exporters = exporters

	return rt, nil
}

// Probe exposes the multimeter for direct inspection.
func (rt *SimRuntime) Probe() *Multimeter { return rt.meter }

// Run executes the configured number of slices, exports the materialized
// dataset, and shuts the runtime down.
func (rt *SimRuntime) Run(ctx context.Context) error {
	rt.startMetrics()

	runErr := rt.sched.RunSlices(ctx, rt.cfg.Simulation.Slices)
	if runErr == nil {
		rt.exportDataset()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Join(runErr, rt.Shutdown(shutdownCtx))
}

func (rt *SimRuntime) exportDataset() {
	if len(rt.exporters) == 0 {
		return
	}
	ds := rt.meter.Dataset()
	for _, e := range rt.exporters {
		if err := e.Export(ds); err != nil {
			rt.obs.LogError("dataset_export_failed", err, Field{Key: "exporter", Value: e.Name()})
			continue
		}
		rt.obs.LogInfo("dataset_exported",
			Field{Key: "exporter", Value: e.Name()},
			Field{Key: "samples", Value: rt.meter.Len()})
	}
}

// Shutdown stops the metrics server and closes export connections and the
// file recorder.
func (rt *SimRuntime) Shutdown(ctx context.Context) error {
	var errs []error

	if rt.metricsSrv != nil {
		if err := rt.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
		rt.metricsSrv = nil
	}
	if rt.fileRec != nil {
		if err := rt.fileRec.Close(); err != nil {
			errs = append(errs, err)
		}
		rt.fileRec = nil
	}
	if rt.db != nil {
		if err := rt.db.Close(); err != nil {
			errs = append(errs, err)
		}
		rt.db = nil
	}
	if rt.redisPub != nil {
		if err := rt.redisPub.Close(); err != nil {
			errs = append(errs, err)
		}
		rt.redisPub = nil
	}

	return errors.Join(errs...)
}

func (rt *SimRuntime) startMetrics() {
	if rt.cfg.Metrics.Addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	rt.metricsSrv = &http.Server{
		Addr:    rt.cfg.Metrics.Addr,
		Handler: mux,
	}

	srv := rt.metricsSrv
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.log.WithError(err).Error("metrics server exited")
		}
	}()
}

func newLogger(cfg LogConfig) *logrus.Logger {
	log := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.Level); err == nil {
		log.SetLevel(lvl)
	}
	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}
