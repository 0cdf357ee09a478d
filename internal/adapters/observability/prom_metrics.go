package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/bowers/nest-simulator/internal/ports"
	"github.com/bowers/nest-simulator/internal/probe"
)

// PromObs backs the Observability port with Prometheus metrics and logrus.
type PromObs struct {
	log      *logrus.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

func NewPromObs(log *logrus.Logger) *PromObs {
	requests := prometheus.NewCounter(prometheus.CounterOpts{
		Name: probe.MetricRequestsSent,
		Help: "Sampling requests broadcast to targets.",
	})
	recorded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: probe.MetricSamplesStored,
		Help: "Samples appended to the probe dataset.",
	})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: probe.MetricRecordsSkipped,
		Help: "Reply records dropped because they fell outside the activation window.",
	})
	datasetLen := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: probe.MetricDatasetLength,
		Help: "Current number of samples held by the probe.",
	})
	handleLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    probe.MetricHandleLatency,
		Help:    "Time spent consuming one reply batch.",
		Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
	})

	prometheus.MustRegister(requests, recorded, skipped, datasetLen, handleLatency)

	if log == nil {
		log = logrus.New()
	}

	return &PromObs{
		log: log,
		counters: map[string]prometheus.Counter{
			probe.MetricRequestsSent:   requests,
			probe.MetricSamplesStored:  recorded,
			probe.MetricRecordsSkipped: skipped,
		},
		gauges: map[string]prometheus.Gauge{
			probe.MetricDatasetLength: datasetLen,
		},
		histos: map[string]prometheus.Observer{
			probe.MetricHandleLatency: handleLatency,
		},
	}
}

func (p *PromObs) fields(fields []ports.Field) logrus.Fields {
	out := make(logrus.Fields, len(fields))
	for _, f := range fields {
		out[f.Key] = f.Value
	}
	return out
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	p.log.WithFields(p.fields(fields)).Info(msg)
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	p.log.WithFields(p.fields(fields)).WithError(err).Error(msg)
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	p.log.WithFields(p.fields(fields)).WithError(err).WithField("severity", "critical").Error(msg)
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

var _ ports.Observability = (*PromObs)(nil)
