package render

import (
	"context"
	"errors"
	"fmt"

	"github.com/AnyUserName/ditherkit/internal/compute"
)

// Sentinel errors returned by Render. Callers test them with errors.Is.
var (
	// ErrInput means the source image or the parameters are unusable.
	ErrInput = errors.New("render: invalid input")
	// ErrResourceExhausted means the device could not allocate buffers.
	ErrResourceExhausted = errors.New("render: resources exhausted")
	// ErrDeviceFault means the compute backend failed while executing.
	ErrDeviceFault = errors.New("render: device fault")
	// ErrCancelled means the render was abandoned through its context.
	ErrCancelled = errors.New("render: cancelled")
)

// classify maps a device or context error onto a render sentinel while
// keeping the cause in the chain.
func classify(stage string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w: %w", stage, ErrCancelled, err)
	case errors.Is(err, compute.ErrOutOfMemory):
		return fmt.Errorf("%s: %w: %w", stage, ErrResourceExhausted, err)
	case errors.Is(err, ErrInput), errors.Is(err, ErrResourceExhausted),
		errors.Is(err, ErrDeviceFault), errors.Is(err, ErrCancelled):
		return fmt.Errorf("%s: %w", stage, err)
	default:
		return fmt.Errorf("%s: %w: %w", stage, ErrDeviceFault, err)
	}
}
