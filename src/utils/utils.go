package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"git.collab.network/collab/src/oops"
)

// Returns the provided value, or a default value if the input was zero.
func OrDefault[T comparable](v T, def T) T {
	var zero T
	if v == zero {
		return def
	} else {
		return v
	}
}

func P[T any](v T) *T {
	return &v
}

// Dereferences p, returning the zero value for nil.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

func IntClamp(min, t, max int) int {
	if t < min {
		return min
	}
	if t > max {
		return max
	}
	return t
}

/*
Recover a panic and convert it to a returned error. Call it like so:

	func MyFunc() (err error) {
		defer utils.RecoverPanicAsError(&err)
	}

If an error was already present, it is kept as the wrapped error so that
errors.Is still finds it, and the panic value goes into the message.
*/
func RecoverPanicAsError(err *error) {
	if r := recover(); r != nil {
		if *err != nil {
			*err = oops.New(*err, "panic recovered as error: %v", r)
			return
		}

		var recoveredErr error
		if rerr, ok := r.(error); ok {
			recoveredErr = rerr
		} else {
			recoveredErr = fmt.Errorf("panic with value: %v", r)
		}
		*err = oops.New(recoveredErr, "panic recovered as error")
	}
}

var ErrSleepInterrupted = errors.New("sleep interrupted by context cancellation")

func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ErrSleepInterrupted
	case <-timer.C:
		return nil
	}
}
