package nestsim

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bowers/nest-simulator/internal/domain"
)

// ErrChannelExporterClosed is returned when a channel exporter is written to
// after being closed.
var ErrChannelExporterClosed = errors.New("nestsim: channel exporter closed")

// DatasetSink is invoked with each materialized dataset.
type DatasetSink func(*Dataset) error

// NewCallbackExporter adapts a DatasetSink into a full Exporter so callers can
// plug arbitrary functions without defining structs.
func NewCallbackExporter(name string, fn DatasetSink) Exporter {
	if name == "" {
		name = "callback"
	}
	return &callbackExporter{name: name, fn: fn}
}

// NewChannelExporter exposes datasets via a channel; it returns the exporter,
// the read-only channel, and a close function the caller should invoke during
// shutdown.
func NewChannelExporter(name string, buffer int) (Exporter, <-chan *Dataset, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan *Dataset, buffer)
	e := &channelExporter{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return e, ch, func() { e.close() }
}

type callbackExporter struct {
	name string
	fn   DatasetSink
}

func (e *callbackExporter) Export(ds *domain.Dataset) error {
	if e.fn == nil {
		return fmt.Errorf("callback exporter %q: nil handler", e.name)
	}
	if ds == nil {
		return nil
	}
	return e.fn(ds)
}

func (e *callbackExporter) Name() string { return e.name }

type channelExporter struct {
	name   string
	ch     chan *Dataset
	closed chan struct{}
	once   sync.Once
}

func (e *channelExporter) Export(ds *domain.Dataset) error {
	select {
	case <-e.closed:
		return ErrChannelExporterClosed
	default:
	}

	if ds == nil {
		return nil
	}

	select {
	case <-e.closed:
		return ErrChannelExporterClosed
	case e.ch <- ds:
		return nil
	}
}

func (e *channelExporter) Name() string { return e.name }

func (e *channelExporter) close() {
	e.once.Do(func() {
		close(e.closed)
		close(e.ch)
	})
}
