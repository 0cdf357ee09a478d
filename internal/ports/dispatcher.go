package ports

import (
	"github.com/google/uuid"

	"github.com/bowers/nest-simulator/internal/domain"
)

// ReplyHandler receives reply batches routed back from targets.
type ReplyHandler interface {
	ID() uuid.UUID
	Handle(reply *domain.DataLoggingReply)
}

// Dispatcher is the simulation's event-delivery mechanism as seen by a
// sampling device: it remembers who is connected to whom and routes broadcast
// requests and their replies. Broadcast is fire-and-forget; replies arrive
// through the handler on the same or a later delivery cycle.
type Dispatcher interface {
	Connect(from ReplyHandler, target Target)
	Broadcast(req domain.SamplingRequest)
}
