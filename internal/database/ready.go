package database

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const (
	readyAttempts = 5
	pingTimeout   = 5 * time.Second
)

// readyBackoff is the wait before the first retry; it doubles after each.
var readyBackoff = 500 * time.Millisecond

// waitReady retries ping with exponential backoff until it succeeds or the
// attempts run out.
func waitReady(ctx context.Context, log zerolog.Logger, ping func(context.Context) error) error {
	wait := readyBackoff
	var err error
	for attempt := 1; attempt <= readyAttempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err = ping(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		if attempt == readyAttempts {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", wait).Msg("Dependency not ready")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	return err
}
