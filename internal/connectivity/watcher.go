// Package connectivity probes the remote store's health endpoint and
// reports online/offline transitions. The probe cadence is fixed while
// online and backs off exponentially while offline so a dead remote is not
// hammered.
package connectivity

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/trackline/trackline/internal/remotestore"
)

const probeTimeout = 5 * time.Second

// Watcher drives periodic health probes. It assumes online until the first
// probe says otherwise.
type Watcher struct {
	log      zerolog.Logger
	remote   remotestore.API
	interval time.Duration
	onChange func(online bool)
}

// New constructs a watcher; onChange fires on every state transition.
func New(remote remotestore.API, interval time.Duration, onChange func(online bool), log zerolog.Logger) *Watcher {
	return &Watcher{
		log:      log.With().Str("component", "connectivity").Logger(),
		remote:   remote,
		interval: interval,
		onChange: onChange,
	}
}

// Run probes until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	online := true
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = w.interval
	bo.MaxInterval = 10 * w.interval
	bo.MaxElapsedTime = 0

	for {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := w.remote.Ping(probeCtx)
		cancel()
		if ctx.Err() != nil {
			return
		}

		nowOnline := err == nil
		if nowOnline != online {
			online = nowOnline
			if online {
				bo.Reset()
				w.log.Info().Msg("remote reachable")
			} else {
				w.log.Warn().Err(err).Msg("remote unreachable")
			}
			w.onChange(online)
		}

		wait := w.interval
		if !online {
			wait = bo.NextBackOff()
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}
