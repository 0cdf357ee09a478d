package simtime

import (
	"fmt"
	"math"
)

// Resolution is the simulation step length in milliseconds. All discrete
// timestamps are integer multiples of it.
type Resolution float64

func (r Resolution) Ms() float64 { return float64(r) }

func (r Resolution) Valid() bool { return r > 0 && !math.IsInf(float64(r), 1) }

// Timestamp is a point in simulated time, in milliseconds. Non-finite values
// act as sentinels marking the end of a reply batch.
type Timestamp float64

// Sentinel returns the non-finite timestamp that terminates reply batches.
func Sentinel() Timestamp { return Timestamp(math.NaN()) }

func (t Timestamp) Ms() float64 { return float64(t) }

func (t Timestamp) IsFinite() bool {
	f := float64(t)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Steps converts the timestamp to a discrete step count at the given
// resolution, rounding to the nearest step.
func (t Timestamp) Steps(res Resolution) int64 {
	return int64(math.Round(float64(t) / float64(res)))
}

// FromSteps builds the timestamp at an exact step count.
func FromSteps(steps int64, res Resolution) Timestamp {
	return Timestamp(float64(steps) * float64(res))
}

// Interval is a sampling period in milliseconds.
type Interval float64

func (i Interval) Ms() float64 { return float64(i) }

func (i Interval) Steps(res Resolution) int64 {
	return int64(math.Round(float64(i) / float64(res)))
}

// SnapToStep rounds ms to the nearest integer multiple of res and reports the
// step count alongside the snapped value.
func SnapToStep(ms float64, res Resolution) (float64, int64) {
	steps := int64(math.Round(ms / float64(res)))
	return float64(steps) * float64(res), steps
}

func (t Timestamp) String() string {
	if !t.IsFinite() {
		return "sentinel"
	}
	return fmt.Sprintf("%gms", float64(t))
}
