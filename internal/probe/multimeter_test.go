package probe

import (
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/bowers/nest-simulator/internal/domain"
	"github.com/bowers/nest-simulator/internal/ports"
	"github.com/bowers/nest-simulator/internal/simtime"
)

func newTestMeter(t *testing.T, cfg Config) (*Multimeter, *stubDispatcher, *captureRecorder) {
	t.Helper()
	d := &stubDispatcher{}
	rec := &captureRecorder{}
	m, err := NewMultimeter(cfg, d, rec, nil)
	if err != nil {
		t.Fatalf("NewMultimeter: %v", err)
	}
	return m, d, rec
}

func TestSetIntervalRoundTrip(t *testing.T) {
	cases := []struct {
		res simtime.Resolution
		ms  float64
	}{
		{1.0, 5.0},
		{0.1, 1.0},
		{0.1, 2.0},
		{0.5, 1.5},
	}
	for _, c := range cases {
		m, _, _ := newTestMeter(t, Config{Resolution: c.res})
		if err := m.SetInterval(c.ms); err != nil {
			t.Fatalf("SetInterval(%g) at res %g: %v", c.ms, c.res.Ms(), err)
		}
		if got, _ := m.Configuration(); got != c.ms {
			t.Fatalf("round trip failed: set %g, got %g", c.ms, got)
		}
	}
}

func TestSetIntervalRejectsBadValues(t *testing.T) {
	m, _, _ := newTestMeter(t, Config{Resolution: 1.0})

	err := m.SetInterval(0.5)
	if !errors.Is(err, ErrIntervalTooShort) {
		t.Fatalf("expected interval-too-short, got %v", err)
	}

	err = m.SetInterval(1.3)
	if !errors.Is(err, ErrIntervalNotMultiple) {
		t.Fatalf("expected interval-not-a-multiple, got %v", err)
	}

	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigurationError, got %T", err)
	}

	// Rejected changes must leave the prior interval intact.
	if got, _ := m.Configuration(); got != 1.0 {
		t.Fatalf("expected interval to stay at default 1.0, got %g", got)
	}
}

func TestSetIntervalRejectsNonFiniteValues(t *testing.T) {
	m, _, _ := newTestMeter(t, Config{Resolution: 1.0})

	for _, ms := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		err := m.SetInterval(ms)
		if err == nil {
			t.Fatalf("SetInterval(%g) must be rejected", ms)
		}
		var cfgErr *ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("SetInterval(%g): expected *ConfigurationError, got %T", ms, err)
		}
		if got, _ := m.Configuration(); got != 1.0 {
			t.Fatalf("SetInterval(%g) changed the committed interval to %g", ms, got)
		}
	}
}

func TestConfigurationLocksAfterConnection(t *testing.T) {
	m, d, _ := newTestMeter(t, Config{Resolution: 1.0, IntervalMs: 2.0, RecordFrom: []string{"V_m"}})

	tgt := &stubTarget{id: uuid.New(), accept: true}
	if r := m.BindTarget(tgt); r == ports.InvalidReceptor {
		t.Fatalf("expected target to accept the connection")
	}
	if !m.HasTargets() {
		t.Fatalf("expected hasTargets after successful bind")
	}
	if d.connects != 1 {
		t.Fatalf("expected one dispatcher connect, got %d", d.connects)
	}

	if err := m.SetInterval(4.0); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected locked error for SetInterval, got %v", err)
	}
	if err := m.SetRecordFrom([]string{"I_syn"}); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected locked error for SetRecordFrom, got %v", err)
	}

	interval, names := m.Configuration()
	if interval != 2.0 || len(names) != 1 || names[0] != "V_m" {
		t.Fatalf("configuration changed despite lock: %g %v", interval, names)
	}
}

func TestRejectedTargetDoesNotLock(t *testing.T) {
	m, d, _ := newTestMeter(t, Config{Resolution: 1.0})

	tgt := &stubTarget{id: uuid.New(), accept: false}
	if r := m.BindTarget(tgt); r != ports.InvalidReceptor {
		t.Fatalf("expected rejection, got receptor %d", r)
	}
	if m.HasTargets() || d.connects != 0 {
		t.Fatalf("rejected connection must not mark the device live")
	}
}

func TestPrototypeNeverGoesLive(t *testing.T) {
	m, d, _ := newTestMeter(t, Config{Resolution: 1.0, Prototype: true})

	tgt := &stubTarget{id: uuid.New(), accept: true}
	if r := m.BindTarget(tgt); r == ports.InvalidReceptor {
		t.Fatalf("prototype connection test should still report the receptor")
	}
	if m.HasTargets() || d.connects != 0 {
		t.Fatalf("prototype must not register connections")
	}
}

func TestUpdateSkipsFirstSliceAndNonZeroSubStep(t *testing.T) {
	m, d, _ := newTestMeter(t, Config{Resolution: 1.0, RecordFrom: []string{"V_m"}})

	m.Update(simtime.FromSteps(0, 1.0), 0, 10)
	if len(d.requests) != 0 {
		t.Fatalf("first slice must never emit a request")
	}

	m.Update(simtime.FromSteps(10, 1.0), 3, 10)
	if len(d.requests) != 0 {
		t.Fatalf("non-zero sub-step must be a no-op")
	}

	m.Update(simtime.FromSteps(10, 1.0), 0, 10)
	if len(d.requests) != 1 {
		t.Fatalf("expected exactly one request, got %d", len(d.requests))
	}
	req := d.requests[0]
	if req.Interval.Ms() != 1.0 || len(req.Variables) != 1 || req.Variables[0] != "V_m" {
		t.Fatalf("request does not carry current configuration: %+v", req)
	}
}

func TestUpdateBroadcastsEvenWithEmptyConfiguration(t *testing.T) {
	m, d, _ := newTestMeter(t, Config{Resolution: 1.0})

	m.Update(simtime.FromSteps(10, 1.0), 0, 10)
	if len(d.requests) != 1 {
		t.Fatalf("empty configuration still broadcasts a request object")
	}
	if m.newRequestPending {
		t.Fatalf("request with no targets and no variables must not be pending")
	}
}

func TestHandleFiltersByActivationWindow(t *testing.T) {
	m, _, _ := newTestMeter(t, Config{Resolution: 1.0, RecordFrom: []string{"x"}})
	m.Calibrate(5, 10)

	reply := &domain.DataLoggingReply{Records: []domain.ReplyRecord{
		{Timestamp: simtime.FromSteps(3, 1.0), Values: []float64{1}},
		{Timestamp: simtime.FromSteps(6, 1.0), Values: []float64{2}},
		{Timestamp: simtime.FromSteps(10, 1.0), Values: []float64{3}},
		{Timestamp: simtime.FromSteps(11, 1.0), Values: []float64{4}},
	}}
	m.Handle(reply)

	if m.Len() != 2 {
		t.Fatalf("expected 2 recorded samples, got %d", m.Len())
	}
	if m.data[0][0] != 2 || m.data[1][0] != 3 {
		t.Fatalf("expected samples at steps 6 and 10, got %v", m.data)
	}
	if reply.Stamp != simtime.FromSteps(10, 1.0) {
		t.Fatalf("expected stamp of last recorded point, got %s", reply.Stamp)
	}
}

func TestHandleStopsAtSentinel(t *testing.T) {
	m, _, _ := newTestMeter(t, Config{Resolution: 1.0, RecordFrom: []string{"x"}})
	m.Calibrate(0, 100)

	reply := &domain.DataLoggingReply{Records: []domain.ReplyRecord{
		{Timestamp: simtime.FromSteps(6, 1.0), Values: []float64{1}},
		{Timestamp: simtime.Sentinel()},
		{Timestamp: simtime.FromSteps(7, 1.0), Values: []float64{2}},
	}}
	m.Handle(reply)

	if m.Len() != 1 {
		t.Fatalf("records after the sentinel must not be recorded, got %d samples", m.Len())
	}
}

func TestHandleForwardsNewSliceFlag(t *testing.T) {
	m, _, rec := newTestMeter(t, Config{Resolution: 1.0, RecordFrom: []string{"x"}})
	m.Calibrate(0, 100)

	tgt := &stubTarget{id: uuid.New(), accept: true}
	m.BindTarget(tgt)
	m.Update(simtime.FromSteps(10, 1.0), 0, 10)

	first := &domain.DataLoggingReply{Records: []domain.ReplyRecord{
		{Timestamp: simtime.FromSteps(6, 1.0), Values: []float64{1}},
		{Timestamp: simtime.FromSteps(7, 1.0), Values: []float64{2}},
	}}
	second := &domain.DataLoggingReply{Records: []domain.ReplyRecord{
		{Timestamp: simtime.FromSteps(8, 1.0), Values: []float64{3}},
	}}
	m.Handle(first)
	m.Handle(second)

	if len(rec.entries) != 3 {
		t.Fatalf("expected 3 recorder entries, got %d", len(rec.entries))
	}
	if !rec.entries[0].newSlice || !rec.entries[1].newSlice {
		t.Fatalf("all records of the first reply carry the new-slice flag")
	}
	if rec.entries[2].newSlice {
		t.Fatalf("replies after the first are continuations")
	}
}

func TestDataByVariable(t *testing.T) {
	m, _, _ := newTestMeter(t, Config{Resolution: 1.0, RecordFrom: []string{"V_m", "I_syn"}})
	m.Calibrate(0, 100)

	m.Handle(&domain.DataLoggingReply{Records: []domain.ReplyRecord{
		{Timestamp: simtime.FromSteps(1, 1.0), Values: []float64{1.0, 2.0}},
		{Timestamp: simtime.FromSteps(2, 1.0), Values: []float64{3.0, 4.0}},
	}})

	out := m.DataByVariable()
	vm, ok := out["V_m"]
	if !ok || len(vm) != 2 || vm[0] != 1.0 || vm[1] != 3.0 {
		t.Fatalf("unexpected V_m series: %v", vm)
	}
	isyn := out["I_syn"]
	if len(isyn) != 2 || isyn[0] != 2.0 || isyn[1] != 4.0 {
		t.Fatalf("unexpected I_syn series: %v", isyn)
	}
}

func TestDataByVariableConcatenatesDuplicateNames(t *testing.T) {
	m, _, _ := newTestMeter(t, Config{Resolution: 1.0, RecordFrom: []string{"V_m", "V_m"}})
	m.Calibrate(0, 100)

	m.Handle(&domain.DataLoggingReply{Records: []domain.ReplyRecord{
		{Timestamp: simtime.FromSteps(1, 1.0), Values: []float64{1.0, 2.0}},
		{Timestamp: simtime.FromSteps(2, 1.0), Values: []float64{3.0, 4.0}},
	}})

	out := m.DataByVariable()
	if len(out) != 1 {
		t.Fatalf("duplicate names share one output channel, got %d", len(out))
	}
	// First column in full, then the second.
	want := []float64{1.0, 3.0, 2.0, 4.0}
	vm := out["V_m"]
	if len(vm) != len(want) {
		t.Fatalf("expected %d concatenated entries, got %v", len(want), vm)
	}
	for i := range want {
		if vm[i] != want[i] {
			t.Fatalf("unexpected concatenated series %v, want %v", vm, want)
		}
	}
}

func TestDataByVariablePanicsOnShortSample(t *testing.T) {
	m, _, _ := newTestMeter(t, Config{Resolution: 1.0, RecordFrom: []string{"a", "b"}})
	m.data = append(m.data, []float64{1.0}) // bypassed lock; internal defect

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on sample/variable-count mismatch")
		}
	}()
	m.DataByVariable()
}

func TestCloneResetsStateKeepsConfiguration(t *testing.T) {
	m, _, _ := newTestMeter(t, Config{Resolution: 1.0, IntervalMs: 3.0, RecordFrom: []string{"V_m"}})
	m.Calibrate(0, 100)
	m.BindTarget(&stubTarget{id: uuid.New(), accept: true})
	m.Handle(&domain.DataLoggingReply{Records: []domain.ReplyRecord{
		{Timestamp: simtime.FromSteps(1, 1.0), Values: []float64{7}},
	}})

	c := m.Clone()
	if c.HasTargets() {
		t.Fatalf("clone must start disconnected")
	}
	if c.Len() != 0 {
		t.Fatalf("clone must start with an empty dataset, got %d samples", c.Len())
	}
	if c.ID() == m.ID() {
		t.Fatalf("clone must get a fresh identity")
	}

	iv, names := c.Configuration()
	if iv != 3.0 || len(names) != 1 || names[0] != "V_m" {
		t.Fatalf("clone configuration differs: %g %v", iv, names)
	}

	// Clone is mutable again.
	if err := c.SetInterval(5.0); err != nil {
		t.Fatalf("clone should accept configuration changes: %v", err)
	}
}

func TestResetClearsDataset(t *testing.T) {
	m, _, _ := newTestMeter(t, Config{Resolution: 1.0, RecordFrom: []string{"x"}})
	m.Calibrate(0, 100)
	m.Handle(&domain.DataLoggingReply{Records: []domain.ReplyRecord{
		{Timestamp: simtime.FromSteps(1, 1.0), Values: []float64{7}},
	}})

	m.Reset()
	if m.Len() != 0 {
		t.Fatalf("expected empty dataset after reset")
	}
}

type stubDispatcher struct {
	connects int
	requests []domain.SamplingRequest
}

func (d *stubDispatcher) Connect(ports.ReplyHandler, ports.Target) { d.connects++ }

func (d *stubDispatcher) Broadcast(req domain.SamplingRequest) {
	d.requests = append(d.requests, req)
}

type stubTarget struct {
	id     uuid.UUID
	accept bool
}

func (t *stubTarget) ID() uuid.UUID { return t.id }

func (t *stubTarget) ConnectSampler(domain.SamplingRequest) ports.Receptor {
	if t.accept {
		return 0
	}
	return ports.InvalidReceptor
}

func (t *stubTarget) CollectReply(domain.SamplingRequest) *domain.DataLoggingReply { return nil }

type recordedEntry struct {
	stamp    simtime.Timestamp
	values   []float64
	newSlice bool
}

type captureRecorder struct {
	entries []recordedEntry
}

func (r *captureRecorder) Record(stamp simtime.Timestamp, values []float64, newSlice bool) {
	r.entries = append(r.entries, recordedEntry{stamp: stamp, values: values, newSlice: newSlice})
}
