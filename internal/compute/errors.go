package compute

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfMemory is returned when an allocation would exceed the
	// device memory budget.
	ErrOutOfMemory = errors.New("compute: out of device memory")

	// ErrDeviceClosed is returned by operations on a closed device.
	ErrDeviceClosed = errors.New("compute: device closed")
)

// FaultError reports a failure while executing dispatched work.
type FaultError struct {
	Label string // dispatch label, e.g. "kernel/bayer4x4" or "diffusion/even"
	Index int    // work item that failed, -1 if unknown
	Cause any
}

func (e *FaultError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("compute: fault in %s[%d]: %v", e.Label, e.Index, e.Cause)
	}
	return fmt.Sprintf("compute: fault in %s: %v", e.Label, e.Cause)
}

// Unwrap exposes an underlying error cause, if any.
func (e *FaultError) Unwrap() error {
	if err, ok := e.Cause.(error); ok {
		return err
	}
	return nil
}
