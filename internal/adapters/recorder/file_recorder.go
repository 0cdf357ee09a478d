package recorder

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/bowers/nest-simulator/internal/ports"
	"github.com/bowers/nest-simulator/internal/simtime"
)

// FileRecorder appends recorded points to a tab-separated .dat file, one line
// per point: timestamp in milliseconds followed by the variable values. Slice
// boundaries (newSlice) are marked by a blank line so plotting tools can treat
// slices as separate blocks.
type FileRecorder struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	writer  *bufio.Writer
	wrote   bool
	lastNew bool
	err     error
}

func NewFileRecorder(dir, label string) (*FileRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, label+".dat")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileRecorder{
		path:   path,
		file:   f,
		writer: bufio.NewWriterSize(f, 1<<16),
	}, nil
}

func (r *FileRecorder) Path() string { return r.path }

func (r *FileRecorder) Record(stamp simtime.Timestamp, values []float64, newSlice bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}

	// All records of a slice's first reply batch carry newSlice; only the
	// transition opens a new block.
	if newSlice && !r.lastNew && r.wrote {
		if err := r.writer.WriteByte('\n'); err != nil {
			r.err = err
			return
		}
	}
	r.lastNew = newSlice

	if _, err := r.writer.WriteString(strconv.FormatFloat(stamp.Ms(), 'g', -1, 64)); err != nil {
		r.err = err
		return
	}
	for _, v := range values {
		if _, err := fmt.Fprintf(r.writer, "\t%g", v); err != nil {
			r.err = err
			return
		}
	}
	if err := r.writer.WriteByte('\n'); err != nil {
		r.err = err
		return
	}
	r.wrote = true
}

// Flush pushes buffered lines to disk and reports the first write error seen.
func (r *FileRecorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.writer.Flush(); err != nil && r.err == nil {
		r.err = err
	}
	return r.err
}

func (r *FileRecorder) Close() error {
	flushErr := r.Flush()
	r.mu.Lock()
	defer r.mu.Unlock()
	return errors.Join(flushErr, r.file.Close())
}

var _ ports.Recorder = (*FileRecorder)(nil)
