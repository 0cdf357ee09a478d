package sim

import (
	"context"
	"fmt"

	"github.com/bowers/nest-simulator/internal/ports"
	"github.com/bowers/nest-simulator/internal/simtime"
)

// Steppable is anything the scheduler advances through a slice, sub-step
// range [from, to).
type Steppable interface {
	Update(origin simtime.Timestamp, from, to int)
}

// Delivering drains buffered events between slices.
type Delivering interface {
	DeliverPending() int
}

// Scheduler advances simulated time in slices: every registered node is
// updated through the slice's sub-steps, then the dispatcher exchanges the
// events produced along the way. Nodes are updated in registration order, so
// devices that broadcast requests should be registered before the targets
// that answer them.
type Scheduler struct {
	res           simtime.Resolution
	stepsPerSlice int
	nodes         []Steppable
	dispatch      Delivering
	obs           ports.Observability

	clock int64
}

func NewScheduler(res simtime.Resolution, stepsPerSlice int, d Delivering, obs ports.Observability) (*Scheduler, error) {
	if !res.Valid() {
		return nil, fmt.Errorf("scheduler: invalid resolution %g", res.Ms())
	}
	if stepsPerSlice <= 0 {
		return nil, fmt.Errorf("scheduler: steps per slice must be > 0")
	}
	if d == nil {
		return nil, fmt.Errorf("scheduler: dispatcher is required")
	}
	return &Scheduler{res: res, stepsPerSlice: stepsPerSlice, dispatch: d, obs: obs}, nil
}

func (s *Scheduler) Add(n Steppable) {
	s.nodes = append(s.nodes, n)
}

// Clock returns the origin of the next slice.
func (s *Scheduler) Clock() simtime.Timestamp {
	return simtime.FromSteps(s.clock, s.res)
}

// StepsPerSlice exposes the slice length in steps.
func (s *Scheduler) StepsPerSlice() int { return s.stepsPerSlice }

// RunSlices advances n slices, checking for cancellation between slices. A
// slice executes to completion once started.
func (s *Scheduler) RunSlices(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		origin := simtime.FromSteps(s.clock, s.res)
		for _, node := range s.nodes {
			node.Update(origin, 0, s.stepsPerSlice)
		}

		delivered := s.dispatch.DeliverPending()
		if s.obs != nil && delivered > 0 {
			s.obs.LogInfo("slice_exchange",
				ports.Field{Key: "origin", Value: origin.String()},
				ports.Field{Key: "replies", Value: delivered})
		}

		s.clock += int64(s.stepsPerSlice)
	}
	return nil
}
