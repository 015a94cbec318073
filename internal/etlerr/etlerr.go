// Package etlerr defines the error classes shared by every pipeline stage.
//
// Each class is a sentinel value so callers can branch with errors.Is without
// string matching, while stages keep wrapping context with fmt.Errorf and %w.
// The classes map one-to-one onto failure domains:
//
//   - ErrInvalidArgument:     bad generation or load parameters
//   - ErrNotFound:            input file does not exist
//   - ErrIOFailure:           file could not be created, written, or read
//   - ErrUnsupportedFormat:   unknown file encoding
//   - ErrSchema:              required columns missing from a record set
//   - ErrConnectionFailure:   the relational store is unreachable
//   - ErrConstraintViolation: a row violates the target table schema
//   - ErrAlreadyExists:       table already holds data under fail-if-exists
package etlerr

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrNotFound            = errors.New("not found")
	ErrIOFailure           = errors.New("io failure")
	ErrUnsupportedFormat   = errors.New("unsupported format")
	ErrSchema              = errors.New("schema mismatch")
	ErrConnectionFailure   = errors.New("store unreachable")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrAlreadyExists       = errors.New("already exists")
)

// Wrap attaches a formatted message to a class so that both the message and
// the class survive unwrapping: errors.Is(Wrap(ErrNotFound, ...), ErrNotFound)
// holds.
func Wrap(class error, format string, a ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, a...), class)
}

// Code returns a short machine-readable label for err's class, or "internal"
// when err belongs to none. Used for metric labels and operator-facing logs.
func Code(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrIOFailure):
		return "io_failure"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrSchema):
		return "schema_error"
	case errors.Is(err, ErrConnectionFailure):
		return "connection_failure"
	case errors.Is(err, ErrConstraintViolation):
		return "constraint_violation"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	default:
		return "internal"
	}
}
