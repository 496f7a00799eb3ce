// Package ticksim runs the fixed-cadence simulation advance in its own
// process: a time.Timer re-armed after each tick plus a select over the
// context's done channel, driving
// per-tick collision/food resolution across every active slot.
package ticksim

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ancillary-agi/snakearena/internal/state"
)

// DefaultInterval is the default tick cadence.
const DefaultInterval = 200 * time.Millisecond

// Run advances st on a fixed cadence until ctx is cancelled. The cadence
// is soft: it sleeps for interval between ticks and makes no attempt to
// compensate for drift.
func Run(ctx context.Context, st *state.State, interval time.Duration, log zerolog.Logger) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()

	log.Info().Dur("interval", interval).Msg("tick simulator started")

	var ticks uint64
	for {
		select {
		case <-ctx.Done():
			log.Info().Uint64("ticks", ticks).Msg("tick simulator stopping")
			return
		case <-timer.C:
			st.AdvanceTick()
			ticks++
			if ticks%300 == 0 { // roughly once a minute at the default cadence
				log.Debug().Uint64("ticks", ticks).Uint64("version", st.PeekVersion()).Msg("tick heartbeat")
			}
			timer.Reset(interval)
		}
	}
}
