package classify

import (
	"sync"

	"github.com/openadas/go-signcam/pkg/gtsrb"
)

// Mock implements Classifier for testing.
type Mock struct {
	// InferFunc is called when Infer is invoked.
	InferFunc func(tensor []float32) ([]float32, error)

	// Size is reported by InputSize.
	Size int

	// Classes is reported by NumClasses.
	Classes int

	// Path is reported by ModelPath.
	Path string

	mu     sync.Mutex
	infers int
	closes int
}

// NewMock creates a mock classifier returning a flat low-confidence
// vector. Override InferFunc to simulate detections.
func NewMock() *Mock {
	return &Mock{
		Size:    224,
		Classes: gtsrb.NumClasses,
		Path:    "models/mock.onnx",
		InferFunc: func(tensor []float32) ([]float32, error) {
			out := make([]float32, gtsrb.NumClasses)
			for i := range out {
				out[i] = 0.01
			}
			return out, nil
		},
	}
}

// FixedVector returns an InferFunc that always yields the given
// confidence vector.
func FixedVector(confidences []float32) func([]float32) ([]float32, error) {
	return func([]float32) ([]float32, error) {
		out := make([]float32, len(confidences))
		copy(out, confidences)
		return out, nil
	}
}

// Infer calls InferFunc and records the call.
func (m *Mock) Infer(tensor []float32) ([]float32, error) {
	m.mu.Lock()
	m.infers++
	m.mu.Unlock()
	if m.InferFunc != nil {
		return m.InferFunc(tensor)
	}
	return nil, &ModelError{Op: "infer", Path: m.Path, Err: ErrNotLoaded}
}

// InputSize returns the configured mock input size.
func (m *Mock) InputSize() int {
	return m.Size
}

// NumClasses returns the configured mock class count.
func (m *Mock) NumClasses() int {
	return m.Classes
}

// ModelPath returns the configured mock model path.
func (m *Mock) ModelPath() string {
	return m.Path
}

// Close records the call.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes++
	return nil
}

// Infers returns how many times Infer was called.
func (m *Mock) Infers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.infers
}
