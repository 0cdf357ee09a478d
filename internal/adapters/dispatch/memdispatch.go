package dispatch

import (
	"sync"

	"github.com/google/uuid"

	"github.com/bowers/nest-simulator/internal/domain"
	"github.com/bowers/nest-simulator/internal/ports"
)

// MemDispatch is an in-process event router. Broadcasts are buffered in FIFO
// order and handed to the connected targets on the next delivery cycle; each
// target's reply is routed straight back to the sender's handler. This is the
// delivery model of a single-process simulation: requests go out during a
// slice, replies come back before the next one starts.
type MemDispatch struct {
	mu       sync.Mutex
	edges    map[uuid.UUID][]ports.Target
	handlers map[uuid.UUID]ports.ReplyHandler
	pending  []domain.SamplingRequest
}

func NewMemDispatch() *MemDispatch {
	return &MemDispatch{
		edges:    make(map[uuid.UUID][]ports.Target),
		handlers: make(map[uuid.UUID]ports.ReplyHandler),
	}
}

func (d *MemDispatch) Connect(from ports.ReplyHandler, target ports.Target) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.edges[from.ID()] = append(d.edges[from.ID()], target)
	d.handlers[from.ID()] = from
}

func (d *MemDispatch) Broadcast(req domain.SamplingRequest) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = append(d.pending, req)
}

// Pending returns the number of undelivered broadcasts.
func (d *MemDispatch) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// DeliverPending drains the broadcast buffer, collects a reply from every
// connected target and routes it back to the sender. Targets with nothing to
// report may return nil replies; those are dropped. Returns the number of
// replies delivered.
func (d *MemDispatch) DeliverPending() int {
	d.mu.Lock()
	batch := d.pending
	d.pending = nil
	d.mu.Unlock()

	var delivered int
	for _, req := range batch {
		d.mu.Lock()
		targets := append([]ports.Target(nil), d.edges[req.SenderID]...)
		handler := d.handlers[req.SenderID]
		d.mu.Unlock()

		if handler == nil {
			continue
		}
		for _, t := range targets {
			reply := t.CollectReply(req)
			if reply == nil {
				continue
			}
			handler.Handle(reply)
			delivered++
		}
	}
	return delivered
}

var _ ports.Dispatcher = (*MemDispatch)(nil)
