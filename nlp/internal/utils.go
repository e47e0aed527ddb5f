package internal

import (
	"time"

	"github.com/avast/retry-go"
)

const (
	SHORT_DELAY = 10 * time.Millisecond
	LONG_DELAY  = 2 * time.Second
)

// RetryOnFail runs original_func up to attempts times and returns the last result and error.
// attempts below 1 is treated as a single try.
func RetryOnFail[T any](original_func func() (T, error), attempts uint, delay time.Duration) (T, error) {
	var res T
	var err error
	if attempts < 1 {
		attempts = 1
	}
	retry.Do(
		func() error {
			res, err = original_func()
			return err
		},
		retry.Delay(delay),
		retry.Attempts(attempts),
	)
	return res, err
}
