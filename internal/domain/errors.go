package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input records.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks queries for an absent group or benchmark.
	ErrNotFound = errors.New("not found")
	// ErrEmptySeries is returned when strict rendering has no points.
	ErrEmptySeries = errors.New("empty series")
)

// ValidationError describes which field of a record was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError names the missing group and, when set, benchmark.
type NotFoundError struct {
	Group     string
	Benchmark string
}

func (e *NotFoundError) Error() string {
	if e.Benchmark == "" {
		return fmt.Sprintf("group %q not found", e.Group)
	}
	return fmt.Sprintf("benchmark %q not found in group %q", e.Benchmark, e.Group)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// EmptySeriesError is returned by strict rendering when no point was produced.
type EmptySeriesError struct {
	Group string
}

func (e *EmptySeriesError) Error() string {
	if e.Group == "" {
		return "no benchmark points to render"
	}
	return fmt.Sprintf("no benchmark points to render for group %q", e.Group)
}

func (e *EmptySeriesError) Is(target error) bool {
	return target == ErrEmptySeries
}
