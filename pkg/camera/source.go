package camera

import (
	"errors"
	"fmt"
	"image"
)

// Sentinel errors for common conditions.
var (
	// ErrUnavailable is returned when no camera hardware is present.
	ErrUnavailable = errors.New("camera: device unavailable")

	// ErrClosed is returned when capturing from a closed source.
	ErrClosed = errors.New("camera: source closed")

	// ErrEmptyFrame is returned when the driver delivers no pixels.
	ErrEmptyFrame = errors.New("camera: empty frame")
)

// Error wraps a camera failure with the operation that caused it.
type Error struct {
	Op  string // "open" or "capture"
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("camera %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Source is the interface for frame acquisition backends.
// Implementations own the underlying device; exactly one capture may be
// in flight at a time.
type Source interface {
	// Capture reads one frame from the device.
	Capture() (image.Image, error)

	// Resolution returns the configured frame dimensions.
	Resolution() (width, height int)

	// Close releases hardware resources. Idempotent.
	Close() error
}

// unavailable is a Source standing in for absent camera hardware.
// Every capture fails; the detection loop keeps running and records
// the error on each cycle instead of crashing.
type unavailable struct {
	cfg Config
}

// Unavailable returns a Source whose captures always fail with
// ErrUnavailable. Sessions fall back to it when Open fails so the rest
// of the pipeline stays constructible.
func Unavailable(cfg Config) Source {
	return &unavailable{cfg: cfg}
}

func (u *unavailable) Capture() (image.Image, error) {
	return nil, &Error{Op: "capture", Err: ErrUnavailable}
}

func (u *unavailable) Resolution() (int, int) {
	return u.cfg.Width, u.cfg.Height
}

func (u *unavailable) Close() error {
	return nil
}
