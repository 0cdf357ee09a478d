package ports

import "github.com/bowers/nest-simulator/internal/simtime"

// Recorder is the external device-logging service a sampling device delegates
// raw samples to. newSlice marks the first reply batch of a fresh time slice
// so accumulating backends know when to start a new block rather than append.
type Recorder interface {
	Record(stamp simtime.Timestamp, values []float64, newSlice bool)
}
