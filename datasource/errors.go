package datasource

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedStatus is wrapped when the provider answers with a non-2xx status
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrMalformedResponse is wrapped when a response body cannot be decoded or violates the schema
	ErrMalformedResponse = errors.New("malformed response")
)

// Resource names used in FetchError
const (
	ResourceCurrent  = "weather"
	ResourceForecast = "forecast"
)

// FetchError reports a failed fetch for a single city
type FetchError struct {
	City     string
	Resource string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s for %q: %v", e.Resource, e.City, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError wraps err with the city and resource it was fetched for
func NewFetchError(city, resource string, err error) *FetchError {
	return &FetchError{City: city, Resource: resource, Err: err}
}
