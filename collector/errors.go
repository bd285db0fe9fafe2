package collector

import (
	"errors"
	"fmt"
)

// ErrStaleCycle is returned by Refresh when a newer cycle was started before this one finished
var ErrStaleCycle = errors.New("refresh cycle superseded by a newer one")

// AggregateFetchError means the cycle was abandoned before every city reported,
// so no results were produced. Individual city failures never produce it.
type AggregateFetchError struct {
	Err error
}

func (e *AggregateFetchError) Error() string {
	return fmt.Sprintf("multi-city fetch failed: %v", e.Err)
}

func (e *AggregateFetchError) Unwrap() error {
	return e.Err
}

// panicError carries a value recovered from a fetch goroutine
type panicError struct {
	city  string
	value interface{}
}

func (e *panicError) Error() string {
	return fmt.Sprintf("fetch for %q panicked: %v", e.city, e.value)
}
