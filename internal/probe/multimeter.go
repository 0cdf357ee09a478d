package probe

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/bowers/nest-simulator/internal/domain"
	"github.com/bowers/nest-simulator/internal/ports"
	"github.com/bowers/nest-simulator/internal/simtime"
)

// Metric names emitted through the Observability port.
const (
	MetricRequestsSent   = "probe_requests_sent_total"
	MetricSamplesStored  = "probe_samples_recorded_total"
	MetricRecordsSkipped = "probe_records_skipped_total"
	MetricDatasetLength  = "probe_dataset_length"
	MetricHandleLatency  = "probe_reply_handle_seconds"
)

// Config holds the construction-time settings of a Multimeter. Interval and
// RecordFrom can still be changed through the validated setters until the
// device is connected to its first target.
type Config struct {
	Resolution simtime.Resolution
	IntervalMs float64
	RecordFrom []string
	Label      string

	// Prototype marks a non-materialized model instance; prototypes probe
	// connections but never go live.
	Prototype bool
}

func (c *Config) applyDefaults() {
	if c.Resolution == 0 {
		c.Resolution = 0.1
	}
	if c.IntervalMs == 0 {
		c.IntervalMs = 1.0
	}
	if c.Label == "" {
		c.Label = "multimeter"
	}
}

// Multimeter periodically asks its connected targets to report named state
// variables and assembles the replies into a time-ordered dataset. It is
// driven entirely by external scheduler callbacks: Update once per slice,
// Handle once per incoming reply batch. Neither may be invoked concurrently
// with the other for the same instance.
type Multimeter struct {
	id        uuid.UUID
	label     string
	res       simtime.Resolution
	prototype bool

	dispatcher ports.Dispatcher
	recorder   ports.Recorder
	obs        ports.Observability

	interval   simtime.Interval
	recordFrom []string

	hasTargets bool

	newRequestPending bool
	sliceStart        int

	tMin, tMax int64

	data [][]float64
}

// NewMultimeter validates cfg and builds a disconnected device with an empty
// dataset. The dispatcher is required; recorder and observability fall back to
// no-ops when nil.
func NewMultimeter(cfg Config, d ports.Dispatcher, rec ports.Recorder, obs ports.Observability) (*Multimeter, error) {
	cfg.applyDefaults()
	if d == nil {
		return nil, fmt.Errorf("multimeter: dispatcher is required")
	}
	if !cfg.Resolution.Valid() {
		return nil, fmt.Errorf("multimeter: invalid resolution %g", cfg.Resolution.Ms())
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	if obs == nil {
		obs = nopObs{}
	}

	m := &Multimeter{
		id:         uuid.New(),
		label:      cfg.Label,
		res:        cfg.Resolution,
		prototype:  cfg.Prototype,
		dispatcher: d,
		recorder:   rec,
		obs:        obs,
	}
	if err := m.SetInterval(cfg.IntervalMs); err != nil {
		return nil, err
	}
	if err := m.SetRecordFrom(cfg.RecordFrom); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Multimeter) ID() uuid.UUID { return m.id }

func (m *Multimeter) Label() string { return m.label }

// HasTargets reports whether at least one target accepted a connection.
func (m *Multimeter) HasTargets() bool { return m.hasTargets }

// SetInterval changes the sampling interval, given in milliseconds. The value
// is snapped to the nearest exact step multiple; values that are not a clean
// multiple of the resolution within 10x machine epsilon are rejected rather
// than silently rounded.
func (m *Multimeter) SetInterval(ms float64) error {
	if m.hasTargets {
		return &ConfigurationError{Op: "set interval", Err: ErrLocked}
	}
	// Non-finite values slip through the ordered comparisons below.
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return &ConfigurationError{Op: "set interval", Err: ErrIntervalNotMultiple}
	}
	if ms < m.res.Ms() {
		return &ConfigurationError{Op: "set interval", Err: ErrIntervalTooShort}
	}

	snapped, _ := simtime.SnapToStep(ms, m.res)
	eps := math.Nextafter(1, 2) - 1
	if math.Abs(1-snapped/ms) > 10*eps {
		return &ConfigurationError{Op: "set interval", Err: ErrIntervalNotMultiple}
	}

	m.interval = simtime.Interval(snapped)
	return nil
}

// SetRecordFrom replaces the list of recorded variables wholesale. Duplicate
// names are permitted and yield duplicate output channels.
func (m *Multimeter) SetRecordFrom(names []string) error {
	if m.hasTargets {
		return &ConfigurationError{Op: "set record_from", Err: ErrLocked}
	}
	m.recordFrom = append([]string(nil), names...)
	return nil
}

// Configuration returns the current interval in milliseconds and a copy of
// the recorded-variable list.
func (m *Multimeter) Configuration() (float64, []string) {
	return m.interval.Ms(), append([]string(nil), m.recordFrom...)
}

func (m *Multimeter) request() domain.SamplingRequest {
	return domain.SamplingRequest{
		SenderID:  m.id,
		Interval:  m.interval,
		Variables: append([]string(nil), m.recordFrom...),
	}
}

// BindTarget performs the connection test against a target. If the target
// accepts (returns a valid receptor) and this device is not a prototype, the
// connection is registered with the dispatcher and the configuration locks.
func (m *Multimeter) BindTarget(t ports.Target) ports.Receptor {
	r := t.ConnectSampler(m.request())
	if r == ports.InvalidReceptor || m.prototype {
		return r
	}
	m.hasTargets = true
	m.dispatcher.Connect(m, t)
	return r
}

// Calibrate resets the per-slice protocol state and installs the activation
// window (tMin, tMax], both in discrete steps. The dataset is untouched.
func (m *Multimeter) Calibrate(tMin, tMax int64) {
	m.tMin = tMin
	m.tMax = tMax
	m.newRequestPending = false
	m.sliceStart = 0
}

// Update is the once-per-slice scheduler callback. Only the first sub-step of
// a slice does anything, and the very first slice of a run never emits a
// request: there is nothing to request yet. Emission is fire-and-forget;
// replies come back through Handle.
func (m *Multimeter) Update(origin simtime.Timestamp, from, to int) {
	if origin.Steps(m.res) == 0 || from != 0 {
		return
	}

	// A request only counts as "real" if somebody can answer it and there is
	// something to record; the broadcast itself goes out regardless.
	m.newRequestPending = m.hasTargets && len(m.recordFrom) > 0
	m.sliceStart = len(m.data)

	m.dispatcher.Broadcast(m.request())
	m.obs.IncCounter(MetricRequestsSent, 1)
}

// Handle consumes one reply batch. The batch ends at the first record with a
// non-finite timestamp; records outside the activation window are counted as
// skipped, everything else is stamped, forwarded to the recorder and appended
// to the dataset in arrival order.
func (m *Multimeter) Handle(reply *domain.DataLoggingReply) {
	start := time.Now()
	newSlice := m.newRequestPending

	var recorded, skipped int
	for i := range reply.Records {
		rec := &reply.Records[i]
		if !rec.Timestamp.IsFinite() {
			break
		}
		if !m.IsActive(rec.Timestamp) {
			skipped++
			continue
		}

		reply.Stamp = rec.Timestamp
		m.recorder.Record(rec.Timestamp, rec.Values, newSlice)

		vals := make([]float64, len(rec.Values))
		copy(vals, rec.Values)
		m.data = append(m.data, vals)
		recorded++
	}

	// The first incoming reply consumed the new-slice status; any further
	// batches in this slice are continuations.
	m.newRequestPending = false

	if recorded > 0 {
		m.obs.IncCounter(MetricSamplesStored, float64(recorded))
	}
	if skipped > 0 {
		m.obs.IncCounter(MetricRecordsSkipped, float64(skipped))
	}
	m.obs.SetGauge(MetricDatasetLength, float64(len(m.data)))
	m.obs.ObserveLatency(MetricHandleLatency, time.Since(start).Seconds())
}

// IsActive reports whether a timestamp falls inside the activation window.
func (m *Multimeter) IsActive(ts simtime.Timestamp) bool {
	stamp := ts.Steps(m.res)
	return m.tMin < stamp && stamp <= m.tMax
}

// Len returns the number of recorded samples.
func (m *Multimeter) Len() int { return len(m.data) }

// SliceStart returns the dataset index at which the current slice began.
func (m *Multimeter) SliceStart() int { return m.sliceStart }

// DataByVariable reorganizes the dataset into one series per recorded
// variable, one entry per recorded sample. A name listed more than once in
// record_from concatenates its columns into the shared series. A sample
// shorter than the variable list means the configuration lock was bypassed;
// that is a defect, not a recoverable condition.
func (m *Multimeter) DataByVariable() map[string][]float64 {
	out := make(map[string][]float64, len(m.recordFrom))
	for v, name := range m.recordFrom {
		series := out[name]
		if series == nil {
			series = make([]float64, 0, len(m.data))
		}
		for i, sample := range m.data {
			if v >= len(sample) {
				panic(fmt.Sprintf("multimeter %s: sample %d has %d values, variable index %d out of range", m.label, i, len(sample), v))
			}
			series = append(series, sample[v])
		}
		out[name] = series
	}
	return out
}

// Dataset packages the read-out for exporters.
func (m *Multimeter) Dataset() *domain.Dataset {
	return &domain.Dataset{
		DeviceID:  m.label,
		Interval:  m.interval,
		Variables: append([]string(nil), m.recordFrom...),
		Series:    m.DataByVariable(),
	}
}

// Reset discards all recorded history. Configuration and connections persist.
func (m *Multimeter) Reset() {
	m.data = nil
	m.newRequestPending = false
	m.sliceStart = 0
}

// Clone copies the configuration into a fresh, materialized device with no
// connections and no recorded history, regardless of the source's state.
func (m *Multimeter) Clone() *Multimeter {
	return &Multimeter{
		id:         uuid.New(),
		label:      m.label,
		res:        m.res,
		dispatcher: m.dispatcher,
		recorder:   m.recorder,
		obs:        m.obs,
		interval:   m.interval,
		recordFrom: append([]string(nil), m.recordFrom...),
	}
}

var _ ports.ReplyHandler = (*Multimeter)(nil)

type nopRecorder struct{}

func (nopRecorder) Record(simtime.Timestamp, []float64, bool) {}

type nopObs struct{}

func (nopObs) LogInfo(string, ...ports.Field)            {}
func (nopObs) LogError(string, error, ...ports.Field)    {}
func (nopObs) LogCritical(string, error, ...ports.Field) {}
func (nopObs) IncCounter(string, float64)                {}
func (nopObs) ObserveLatency(string, float64)            {}
func (nopObs) SetGauge(string, float64)                  {}
