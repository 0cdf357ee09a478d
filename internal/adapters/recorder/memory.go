package recorder

import (
	"sync"

	"github.com/bowers/nest-simulator/internal/ports"
	"github.com/bowers/nest-simulator/internal/simtime"
)

// Entry is one recorded point as seen by the logging backend.
type Entry struct {
	Stamp  simtime.Timestamp
	Values []float64
}

// MemRecorder keeps recorded points in memory. In accumulate mode, the first
// reply batch of a slice opens a new block and later batches add their values
// into the block's entries at matching timestamps, which sums contributions
// from multiple targets sampled at the same points.
type MemRecorder struct {
	mu         sync.Mutex
	accumulate bool

	entries    []Entry
	blockStart int
	lastNew    bool
}

func NewMemRecorder(accumulate bool) *MemRecorder {
	return &MemRecorder{accumulate: accumulate}
}

func (r *MemRecorder) Record(stamp simtime.Timestamp, values []float64, newSlice bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if newSlice && !r.lastNew {
		r.blockStart = len(r.entries)
	}
	r.lastNew = newSlice

	if r.accumulate && !newSlice {
		for i := r.blockStart; i < len(r.entries); i++ {
			if r.entries[i].Stamp == stamp {
				for j := range values {
					if j < len(r.entries[i].Values) {
						r.entries[i].Values[j] += values[j]
					}
				}
				return
			}
		}
	}

	vals := make([]float64, len(values))
	copy(vals, values)
	r.entries = append(r.entries, Entry{Stamp: stamp, Values: vals})
}

func (r *MemRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Snapshot returns a copy of everything recorded so far.
func (r *MemRecorder) Snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *MemRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
	r.blockStart = 0
	r.lastNew = false
}

var _ ports.Recorder = (*MemRecorder)(nil)
