package memory

import (
	"github.com/pkg/errors"
)

// Status is the closed set of result codes surfaced by the memory
// subsystem. Every error returned by this package carries one; recover it
// with StatusOf.
type Status int

//go:generate go tool enumer -type=Status -output=gen_status_enumer.go status.go

const (
	// NoError means the operation succeeded.
	NoError Status = iota

	// BadData flags malformed or incompatible input: bad offsets, role
	// duplication, dimension conflicts, out-of-range frequencies, invalid
	// descriptors.
	BadData

	// BadState flags a call sequencing error, e.g. mutating a finished
	// descriptor or allocating from an unfinished one.
	BadState

	// OpFailed flags a driver-side failure or an operation the subsystem
	// cannot perform, e.g. allocating with unknown dimensions.
	OpFailed

	// OutOfMemory flags a failed host allocation.
	OutOfMemory

	// Unmappable flags a host segment that could not be mapped.
	Unmappable

	// UnexpectedNull flags a missing resource where one was required,
	// e.g. a file descriptor that could not be duplicated.
	UnexpectedNull
)

// statusError attaches a Status to an error. All errors crossing the
// public boundary of this package are statusErrors; lower-layer failures
// are converted before surfacing.
type statusError struct {
	status Status
	err    error
}

func (e *statusError) Error() string { return e.err.Error() }
func (e *statusError) Unwrap() error { return e.err }

// StatusOf returns the result code carried by err: NoError for nil, and
// OpFailed for errors that did not originate in this package.
func StatusOf(err error) Status {
	if err == nil {
		return NoError
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.status
	}
	return OpFailed
}

// withStatus attaches status to an existing error, keeping its chain.
func withStatus(status Status, err error) error {
	if err == nil {
		return nil
	}
	return &statusError{status: status, err: err}
}

func badDataf(format string, args ...any) error {
	return &statusError{status: BadData, err: errors.Errorf(format, args...)}
}

func badStatef(format string, args ...any) error {
	return &statusError{status: BadState, err: errors.Errorf(format, args...)}
}

func opFailedf(format string, args ...any) error {
	return &statusError{status: OpFailed, err: errors.Errorf(format, args...)}
}

func unexpectedNullf(format string, args ...any) error {
	return &statusError{status: UnexpectedNull, err: errors.Errorf(format, args...)}
}
