package node

import (
	"errors"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/bowers/nest-simulator/internal/domain"
	"github.com/bowers/nest-simulator/internal/ports"
	"github.com/bowers/nest-simulator/internal/simtime"
)

// Config captures the parameters of a leaky integrate-and-fire neuron.
// Millivolts, picofarads, picoamperes, milliseconds.
type Config struct {
	Label      string             `yaml:"label"`
	Resolution simtime.Resolution `yaml:"resolution_ms"`
	TauMs      float64            `yaml:"tau_m_ms"`
	TauSynMs   float64            `yaml:"tau_syn_ms"`
	CmPF       float64            `yaml:"c_m_pf"`
	EL         float64            `yaml:"e_l_mv"`
	VTh        float64            `yaml:"v_th_mv"`
	VReset     float64            `yaml:"v_reset_mv"`
	IE         float64            `yaml:"i_e_pa"`
}

func (c *Config) ApplyDefaults() {
	if c.Label == "" {
		c.Label = "lif"
	}
	if c.Resolution == 0 {
		c.Resolution = 0.1
	}
	if c.TauMs == 0 {
		c.TauMs = 10.0
	}
	if c.TauSynMs == 0 {
		c.TauSynMs = 2.0
	}
	if c.CmPF == 0 {
		c.CmPF = 250.0
	}
	if c.EL == 0 {
		c.EL = -70.0
	}
	if c.VTh == 0 {
		c.VTh = -55.0
	}
	if c.VReset == 0 {
		c.VReset = c.EL
	}
}

func (c *Config) Validate() error {
	if !c.Resolution.Valid() {
		return errors.New("resolution must be > 0")
	}
	if c.TauMs <= 0 || c.TauSynMs <= 0 {
		return errors.New("time constants must be > 0")
	}
	if c.CmPF <= 0 {
		return errors.New("membrane capacitance must be > 0")
	}
	if c.VTh <= c.VReset {
		return errors.New("threshold must be above reset potential")
	}
	return nil
}

// LIFNeuron is a sampleable target: it integrates its membrane potential step
// by step and, for every connected sampler, buffers the requested variables at
// the sampler's interval. A sampling request drains the buffer into a
// sentinel-terminated reply.
type LIFNeuron struct {
	id  uuid.UUID
	cfg Config

	mu    sync.Mutex
	vm    float64
	iSyn  float64
	conns map[uuid.UUID]*samplerConn
	vars  map[string]func() float64
}

type samplerConn struct {
	receptor      ports.Receptor
	variables     []string
	intervalSteps int64
	buf           []domain.ReplyRecord
}

func New(cfg Config) (*LIFNeuron, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := &LIFNeuron{
		id:    uuid.New(),
		cfg:   cfg,
		vm:    cfg.EL,
		conns: make(map[uuid.UUID]*samplerConn),
	}
	n.vars = map[string]func() float64{
		"V_m":   func() float64 { return n.vm },
		"I_syn": func() float64 { return n.iSyn },
	}
	return n, nil
}

func (n *LIFNeuron) ID() uuid.UUID { return n.id }

func (n *LIFNeuron) Label() string { return n.cfg.Label }

// Vm returns the current membrane potential.
func (n *LIFNeuron) Vm() float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.vm
}

// InjectSynapticCurrent adds an instantaneous synaptic current contribution
// that then decays with tau_syn.
func (n *LIFNeuron) InjectSynapticCurrent(pa float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.iSyn += pa
}

// ConnectSampler accepts the connection if every requested variable is known
// here and the interval resolves to at least one step. The returned receptor
// identifies this sampler's buffer.
func (n *LIFNeuron) ConnectSampler(req domain.SamplingRequest) ports.Receptor {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, name := range req.Variables {
		if _, ok := n.vars[name]; !ok {
			return ports.InvalidReceptor
		}
	}
	steps := req.Interval.Steps(n.cfg.Resolution)
	if steps < 1 {
		return ports.InvalidReceptor
	}

	conn := &samplerConn{
		receptor:      ports.Receptor(len(n.conns)),
		variables:     append([]string(nil), req.Variables...),
		intervalSteps: steps,
	}
	n.conns[req.SenderID] = conn
	return conn.receptor
}

// Update advances the membrane dynamics through the sub-steps of a slice and
// buffers recording points for every connected sampler.
func (n *LIFNeuron) Update(origin simtime.Timestamp, from, to int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	h := n.cfg.Resolution.Ms()
	base := origin.Steps(n.cfg.Resolution)
	synDecay := math.Exp(-h / n.cfg.TauSynMs)

	for step := from; step < to; step++ {
		n.vm += (h / n.cfg.TauMs) * (n.cfg.EL - n.vm)
		n.vm += (h / n.cfg.CmPF) * (n.cfg.IE + n.iSyn)
		n.iSyn *= synDecay

		if n.vm >= n.cfg.VTh {
			n.vm = n.cfg.VReset
		}

		abs := base + int64(step) + 1 // state is valid at the end of the step
		for _, conn := range n.conns {
			if abs%conn.intervalSteps != 0 {
				continue
			}
			values := make([]float64, len(conn.variables))
			for i, name := range conn.variables {
				values[i] = n.vars[name]()
			}
			conn.buf = append(conn.buf, domain.ReplyRecord{
				Timestamp: simtime.FromSteps(abs, n.cfg.Resolution),
				Values:    values,
			})
		}
	}
}

// CollectReply drains the buffer of the requesting sampler into a reply batch
// terminated by the sentinel timestamp. Unknown samplers get nothing.
func (n *LIFNeuron) CollectReply(req domain.SamplingRequest) *domain.DataLoggingReply {
	n.mu.Lock()
	defer n.mu.Unlock()

	conn, ok := n.conns[req.SenderID]
	if !ok {
		return nil
	}

	records := make([]domain.ReplyRecord, 0, len(conn.buf)+1)
	records = append(records, conn.buf...)
	records = append(records, domain.ReplyRecord{Timestamp: simtime.Sentinel()})
	conn.buf = conn.buf[:0]

	return &domain.DataLoggingReply{
		SenderID: n.id,
		Records:  records,
	}
}

var _ ports.Target = (*LIFNeuron)(nil)
