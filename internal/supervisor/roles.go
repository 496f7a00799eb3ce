package supervisor

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ancillary-agi/snakearena/internal/config"
	"github.com/ancillary-agi/snakearena/internal/state"
	"github.com/ancillary-agi/snakearena/internal/ticksim"
	"github.com/ancillary-agi/snakearena/internal/worker"
)

// runWorkerLoop wires a worker.Worker to the inherited listener fd and
// runs its event loop until ctx is cancelled. SelectTimeout is left at
// zero so worker.New applies its own 50ms default; it is not a configurable
// tunable, unlike the tick interval.
//
// ListenerFD is used directly as a raw integer rather than wrapped in an
// *os.File: os.NewFile installs a GC finalizer that closes the fd once the
// wrapper becomes unreachable, which would intermittently invalidate this
// worker's own epoll-registered socket out from under it.
func runWorkerLoop(ctx context.Context, cfg config.Config, workerID int, st *state.State, log zerolog.Logger) error {
	w, err := worker.New(worker.Config{
		ID:            workerID,
		ClientTimeout: cfg.ClientTimeout,
		MaxPayload:    cfg.MaxPayload,
	}, st, ListenerFD, log)
	if err != nil {
		return err
	}
	w.Run(ctx)
	return nil
}

func runTickLoop(ctx context.Context, cfg config.Config, st *state.State, log zerolog.Logger) error {
	ticksim.Run(ctx, st, cfg.TickInterval, log)
	return nil
}
