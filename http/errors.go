package http //nolint:revive // intentional naming for domain clarity

import (
	"errors"
	"fmt"
	nethttp "net/http"
)

// Sentinel errors for retrieval.
var (
	// ErrRetrieval is matched by every *RetrievalError.
	ErrRetrieval = errors.New("http: retrieval failed")

	// ErrNotFound is matched by a *RetrievalError carrying status 404.
	ErrNotFound = errors.New("http: not found")

	// ErrBodyConsumption is matched by every *BodyConsumptionError.
	ErrBodyConsumption = errors.New("http: body consumption failed")

	// ErrBodyTooLarge is returned when a body exceeds the configured limit.
	ErrBodyTooLarge = errors.New("http: body exceeds limit")
)

// RetrievalError reports that a request could not be completed or that the
// server answered with a non-success status.
type RetrievalError struct {
	Locator    string
	StatusCode int    // zero when no response was received
	Status     string // e.g. "500 Internal Server Error"
	Err        error  // transport cause, nil for status failures
}

func (e *RetrievalError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("retrieve %s: unexpected status %s", e.Locator, e.Status)
	}
	return fmt.Sprintf("retrieve %s: %v", e.Locator, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// Is reports ErrRetrieval for every retrieval failure and ErrNotFound for 404s.
func (e *RetrievalError) Is(target error) bool {
	switch target {
	case ErrRetrieval:
		return true
	case ErrNotFound:
		return e.StatusCode == nethttp.StatusNotFound
	}
	return false
}

// BodyConsumptionError reports that the response body could not be read in full.
type BodyConsumptionError struct {
	Locator string
	Err     error
}

func (e *BodyConsumptionError) Error() string {
	return fmt.Sprintf("read body of %s: %v", e.Locator, e.Err)
}

func (e *BodyConsumptionError) Unwrap() error {
	return e.Err
}

func (e *BodyConsumptionError) Is(target error) bool {
	return target == ErrBodyConsumption
}
