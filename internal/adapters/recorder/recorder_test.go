package recorder

import (
	"os"
	"strings"
	"testing"

	"github.com/bowers/nest-simulator/internal/simtime"
)

func TestMemRecorderAppendOnly(t *testing.T) {
	r := NewMemRecorder(false)

	r.Record(simtime.Timestamp(1.0), []float64{1}, true)
	r.Record(simtime.Timestamp(2.0), []float64{2}, true)
	r.Record(simtime.Timestamp(1.0), []float64{3}, false)

	if r.Len() != 3 {
		t.Fatalf("non-accumulating recorder must append every record, got %d", r.Len())
	}
}

func TestMemRecorderAccumulatesContinuations(t *testing.T) {
	r := NewMemRecorder(true)

	// First reply of the slice opens a new block.
	r.Record(simtime.Timestamp(1.0), []float64{10}, true)
	r.Record(simtime.Timestamp(2.0), []float64{20}, true)
	// Continuation from a second target at the same time points.
	r.Record(simtime.Timestamp(1.0), []float64{1}, false)
	r.Record(simtime.Timestamp(2.0), []float64{2}, false)

	got := r.Snapshot()
	if len(got) != 2 {
		t.Fatalf("expected 2 accumulated entries, got %d", len(got))
	}
	if got[0].Values[0] != 11 || got[1].Values[0] != 22 {
		t.Fatalf("expected summed values 11 and 22, got %v %v", got[0].Values, got[1].Values)
	}
}

func TestMemRecorderNewSliceStartsFreshBlock(t *testing.T) {
	r := NewMemRecorder(true)

	r.Record(simtime.Timestamp(1.0), []float64{10}, true)
	r.Record(simtime.Timestamp(1.0), []float64{5}, false)
	// Next slice: same timestamp must not accumulate into the old block.
	r.Record(simtime.Timestamp(1.0), []float64{7}, true)

	got := r.Snapshot()
	if len(got) != 2 {
		t.Fatalf("expected 2 entries across 2 blocks, got %d", len(got))
	}
	if got[0].Values[0] != 15 || got[1].Values[0] != 7 {
		t.Fatalf("unexpected block contents: %v %v", got[0].Values, got[1].Values)
	}
}

func TestFileRecorderWritesAndSeparatesSlices(t *testing.T) {
	dir := t.TempDir()

	r, err := NewFileRecorder(dir, "multimeter")
	if err != nil {
		t.Fatalf("NewFileRecorder: %v", err)
	}

	// First batch of a slice: every record carries the new-slice flag.
	r.Record(simtime.Timestamp(1.0), []float64{-70.0, 0.5}, true)
	r.Record(simtime.Timestamp(2.0), []float64{-69.5, 0.25}, true)
	// Continuation batch, then the next slice's first batch.
	r.Record(simtime.Timestamp(2.0), []float64{-69.2, 0.2}, false)
	r.Record(simtime.Timestamp(3.0), []float64{-69.0, 0.125}, true)

	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	raw, err := os.ReadFile(r.Path())
	if err != nil {
		t.Fatalf("read dat file: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 4 data lines and 1 blank separator, got %d: %q", len(lines), lines)
	}
	if lines[0] != "1\t-70\t0.5" {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if lines[1] != "2\t-69.5\t0.25" {
		t.Fatalf("consecutive first-batch records must not be separated, got %q", lines[1])
	}
	if lines[3] != "" {
		t.Fatalf("expected blank line before new slice, got %q", lines[3])
	}
}
