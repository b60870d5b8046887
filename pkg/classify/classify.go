// Package classify runs traffic sign classification over a fixed
// 43-class GTSRB model. The model is treated as an opaque function from
// a normalized image tensor to a per-class confidence vector.
package classify

import (
	"errors"
	"fmt"

	"github.com/openadas/go-signcam/pkg/gtsrb"
)

// Sentinel errors for common conditions.
var (
	// ErrNotLoaded is returned when inference runs on a closed classifier.
	ErrNotLoaded = errors.New("classify: model not loaded")

	// ErrShapeMismatch is returned when the input tensor does not match
	// the model's expected input size.
	ErrShapeMismatch = errors.New("classify: input shape mismatch")
)

// ModelError wraps a model load or inference failure.
type ModelError struct {
	Op   string // "load" or "infer"
	Path string // model file path
	Err  error
}

// Error implements the error interface.
func (e *ModelError) Error() string {
	return fmt.Sprintf("classify %s [%s]: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ModelError) Unwrap() error {
	return e.Err
}

// Classifier is the interface for inference backends. Implementations
// are stateless across inferences: no call observes the effects of a
// previous one.
type Classifier interface {
	// Infer runs one inference and returns the per-class confidence
	// vector, one score per gtsrb class.
	Infer(tensor []float32) ([]float32, error)

	// InputSize returns the square input dimension the model expects.
	InputSize() int

	// NumClasses returns the length of the confidence vector.
	NumClasses() int

	// ModelPath identifies the loaded model file.
	ModelPath() string

	// Close releases the inference runtime. Idempotent.
	Close() error
}

// Config holds classifier configuration.
type Config struct {
	// ModelPath is the ONNX model file.
	ModelPath string

	// InputSize is the square input dimension (pixels).
	InputSize int

	// NumClasses is the expected output vector length.
	NumClasses int
}

// DefaultConfig returns production defaults for the GTSRB model.
func DefaultConfig() Config {
	return Config{
		ModelPath:  "models/gtsrb.onnx",
		InputSize:  224,
		NumClasses: gtsrb.NumClasses,
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.ModelPath == "" {
		return errors.New("classify: model path required")
	}
	if c.InputSize <= 0 {
		return errors.New("classify: input size must be positive")
	}
	if c.NumClasses <= 0 {
		return errors.New("classify: class count must be positive")
	}
	return nil
}
