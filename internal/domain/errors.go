package domain

import (
	"errors"
	"fmt"
)

// ErrDegenerateWeights is returned when every factor weight is zero, which
// makes the weighted composite undefined. The caller must supply a fallback
// (e.g. equal weights) or surface the error; the engine does not guess.
var ErrDegenerateWeights = errors.New("all factor weights are zero")

// ValidationError reports a malformed input field. Validation happens before
// any climatology fetch and is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// SourceUnavailableError wraps a failed climatology fetch. Fatal for a point
// request; recoverable per-sample inside a region request.
type SourceUnavailableError struct {
	Coord Coordinate
	Day   CalendarDay
	Err   error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("climatology source unavailable for (%.4f, %.4f) %02d-%02d: %v",
		e.Coord.Lat, e.Coord.Lon, e.Day.Month, e.Day.Day, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// NoClimatologyError means the source answered but holds no record for the
// coordinate (open ocean cells, polar gaps). Callers handle it gracefully;
// it is not a transport failure.
type NoClimatologyError struct {
	Coord Coordinate
	Day   CalendarDay
}

func (e *NoClimatologyError) Error() string {
	return fmt.Sprintf("no climatology available for (%.4f, %.4f) %02d-%02d",
		e.Coord.Lat, e.Coord.Lon, e.Day.Month, e.Day.Day)
}

// InsufficientSamplesError means a region request produced zero successful
// samples, either because no interior points could be generated or because
// every per-sample fetch failed.
type InsufficientSamplesError struct {
	Requested int
	Generated int
	Succeeded int
}

func (e *InsufficientSamplesError) Error() string {
	return fmt.Sprintf("insufficient samples: requested %d, generated %d, succeeded %d",
		e.Requested, e.Generated, e.Succeeded)
}
