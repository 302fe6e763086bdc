// Package retry re-runs transiently failing calls.
package retry

import (
	"context"
	"time"
)

// Do calls f up to attempts times, sleeping delay between failures. It
// returns the last error, or ctx's error if the context ends first.
func Do(ctx context.Context, attempts int, delay time.Duration, f func() error) error {
	var err error

	for i := 0; i < attempts; i++ {
		if err = f(); err == nil {
			return nil
		}

		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return err
}
