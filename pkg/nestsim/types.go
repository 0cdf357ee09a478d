package nestsim

import (
	"github.com/bowers/nest-simulator/internal/adapters/node"
	"github.com/bowers/nest-simulator/internal/domain"
	"github.com/bowers/nest-simulator/internal/ports"
	"github.com/bowers/nest-simulator/internal/probe"
	"github.com/bowers/nest-simulator/internal/simtime"
)

// Multimeter is the sampling probe at the center of the runtime.
type Multimeter = probe.Multimeter

// ProbeSettings are the construction-time settings of a Multimeter.
type ProbeSettings = probe.Config

// LIFNeuron is the built-in sampleable neuron model.
type LIFNeuron = node.LIFNeuron

// Dataset is the materialized per-variable read-out handed to exporters.
type Dataset = domain.Dataset

// SamplingRequest is the broadcast request carried to targets.
type SamplingRequest = domain.SamplingRequest

// DataLoggingReply is a target's sentinel-terminated answer.
type DataLoggingReply = domain.DataLoggingReply

// ReplyRecord is one (timestamp, values) point inside a reply.
type ReplyRecord = domain.ReplyRecord

// Target is any node that answers sampling requests.
type Target = ports.Target

// Receptor identifies the port a target accepted a connection on.
type Receptor = ports.Receptor

// Dispatcher routes broadcast requests and their replies.
type Dispatcher = ports.Dispatcher

// Recorder is the raw device-logging backend.
type Recorder = ports.Recorder

// Exporter persists materialized datasets downstream.
type Exporter = ports.Exporter

// Observability emits metrics and structured logs.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

// Resolution is the simulation step length in milliseconds.
type Resolution = simtime.Resolution

// Timestamp is a point in simulated time.
type Timestamp = simtime.Timestamp

// Configuration-validation sentinels surfaced by the probe's setters.
var (
	ErrLocked              = probe.ErrLocked
	ErrIntervalTooShort    = probe.ErrIntervalTooShort
	ErrIntervalNotMultiple = probe.ErrIntervalNotMultiple
)
