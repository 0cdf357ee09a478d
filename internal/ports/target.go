package ports

import (
	"github.com/google/uuid"

	"github.com/bowers/nest-simulator/internal/domain"
)

// Receptor identifies the port on which a target accepted a sampler
// connection. InvalidReceptor means the connection was refused.
type Receptor int

const InvalidReceptor Receptor = -1

// Target is any node that can answer sampling requests.
type Target interface {
	ID() uuid.UUID

	// ConnectSampler is the connection test: the target inspects the request
	// (interval, variable names) and returns a valid receptor if it can serve
	// it, InvalidReceptor otherwise.
	ConnectSampler(req domain.SamplingRequest) Receptor

	// CollectReply drains the data buffered since the previous request into a
	// sentinel-terminated reply batch. A target with nothing to report may
	// return nil.
	CollectReply(req domain.SamplingRequest) *domain.DataLoggingReply
}
