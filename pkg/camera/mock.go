package camera

import (
	"image"
	"sync"
)

// Mock implements Source for testing.
type Mock struct {
	// CaptureFunc is called when Capture is invoked.
	CaptureFunc func() (image.Image, error)

	// CloseFunc is called when Close is invoked (first call only).
	CloseFunc func() error

	// Width and Height are reported by Resolution.
	Width, Height int

	mu       sync.Mutex
	captures int
	closes   int
}

// NewMock creates a mock source that returns a solid gray frame of the
// given dimensions on every capture.
func NewMock(width, height int) *Mock {
	return &Mock{
		Width:  width,
		Height: height,
		CaptureFunc: func() (image.Image, error) {
			img := image.NewRGBA(image.Rect(0, 0, width, height))
			for i := range img.Pix {
				img.Pix[i] = 128
			}
			return img, nil
		},
	}
}

// Capture calls CaptureFunc and records the call.
func (m *Mock) Capture() (image.Image, error) {
	m.mu.Lock()
	m.captures++
	m.mu.Unlock()
	if m.CaptureFunc != nil {
		return m.CaptureFunc()
	}
	return nil, &Error{Op: "capture", Err: ErrUnavailable}
}

// Resolution returns the configured mock dimensions.
func (m *Mock) Resolution() (int, int) {
	return m.Width, m.Height
}

// Close records the call and invokes CloseFunc the first time only,
// matching the idempotence contract of real sources.
func (m *Mock) Close() error {
	m.mu.Lock()
	m.closes++
	first := m.closes == 1
	m.mu.Unlock()
	if first && m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Captures returns how many times Capture was called.
func (m *Mock) Captures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.captures
}

// Closes returns how many times Close was called.
func (m *Mock) Closes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}
