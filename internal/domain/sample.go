package domain

import (
	"github.com/google/uuid"

	"github.com/bowers/nest-simulator/internal/simtime"
)

// SamplingRequest is broadcast by a sampling device to its targets once per
// time slice. It carries everything a target needs to schedule its own
// recording: how often to sample and which state variables to report.
type SamplingRequest struct {
	SenderID  uuid.UUID        `json:"sender_id"`
	Interval  simtime.Interval `json:"interval_ms"`
	Variables []string         `json:"variables"`
}

// ReplyRecord is one recorded point inside a reply batch: the simulated time
// at which the target sampled itself and the values of the requested
// variables, in request order.
type ReplyRecord struct {
	Timestamp simtime.Timestamp `json:"ts"`
	Values    []float64         `json:"values"`
}

// DataLoggingReply is a target's answer to a SamplingRequest. Records is
// terminated by the first entry whose timestamp is not finite; anything after
// that entry is padding and must not be read.
type DataLoggingReply struct {
	SenderID uuid.UUID         `json:"sender_id"`
	Stamp    simtime.Timestamp `json:"stamp"`
	Records  []ReplyRecord     `json:"records"`
}

// Dataset is the materialized read-out of a sampling device: one series per
// recorded variable, all of equal length, in recording order.
type Dataset struct {
	DeviceID  string               `json:"device_id"`
	Interval  simtime.Interval     `json:"interval_ms"`
	Variables []string             `json:"variables"`
	Series    map[string][]float64 `json:"series"`
}
