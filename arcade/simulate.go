package arcade

import (
	"context"
	"errors"

	"github.com/smallnest/pixelgraph/schemas"
)

// Simulate runs runner between a SIMULATION_START and a SIMULATION_END
// event. A failure the runner did not report itself is published as a
// system ERROR. The returned error is the runner's.
func Simulate(ctx context.Context, runner Runner, input string, em *Emitter) error {
	if err := em.SimulationStart(ctx, input); err != nil {
		return err
	}

	err := runner.Run(ctx, input, em)

	// the closing events are sent even when ctx is cancelled
	endCtx := context.WithoutCancel(ctx)
	status := StatusCompleted
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), ctx.Err() != nil:
		status = StatusCancelled
	default:
		status = StatusFailed
		if !em.Errored() {
			if perr := em.Error(endCtx, schemas.SystemAgentID, err); perr != nil {
				return errors.Join(err, perr)
			}
		}
	}

	if perr := em.SimulationEnd(endCtx, status); perr != nil {
		return errors.Join(err, perr)
	}
	return err
}
