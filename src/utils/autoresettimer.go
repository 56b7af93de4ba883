package utils

import (
	"context"
	"time"
)

/*
Fires on C every dur, measured from when the previous tick was received, so
slow consumers never get a burst of queued ticks. C is closed once ctx is done.
*/
type AutoResetTimer struct {
	C chan struct{}
}

func MakeAutoResetTimer(ctx context.Context, dur time.Duration, triggerImmediately bool) *AutoResetTimer {
	res := &AutoResetTimer{
		C: make(chan struct{}),
	}

	go func() {
		defer close(res.C)

		tick := func() bool {
			select {
			case res.C <- struct{}{}:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if triggerImmediately && !tick() {
			return
		}

		timer := time.NewTimer(dur)
		defer timer.Stop()
		for {
			select {
			case <-timer.C:
				if !tick() {
					return
				}
				timer.Reset(dur)
			case <-ctx.Done():
				return
			}
		}
	}()

	return res
}
