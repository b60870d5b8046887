package classify

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/openadas/go-signcam/internal/log"
	"github.com/openadas/go-signcam/pkg/preprocess"
)

// ONNXClassifier runs the GTSRB model through ONNX Runtime with
// preallocated input/output tensors. One inference at a time; the Run
// call is serialized by the caller (the detection loop is single
// threaded).
type ONNXClassifier struct {
	cfg Config

	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	closed  bool
}

// New loads the model and allocates the inference session. Load
// failures are fatal to startup, so errors here abort the caller.
func New(cfg Config) (*ONNXClassifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &ModelError{Op: "load", Path: cfg.ModelPath, Err: err}
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, &ModelError{Op: "load", Path: cfg.ModelPath, Err: err}
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return nil, &ModelError{Op: "load", Path: cfg.ModelPath, Err: err}
	}

	inputShape := ort.NewShape(1, int64(cfg.InputSize), int64(cfg.InputSize), preprocess.Channels)
	outputShape := ort.NewShape(1, int64(cfg.NumClasses))

	input, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, &ModelError{Op: "load", Path: cfg.ModelPath, Err: err}
	}
	output, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		input.Destroy()
		return nil, &ModelError{Op: "load", Path: cfg.ModelPath, Err: err}
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, &ModelError{Op: "load", Path: cfg.ModelPath, Err: err}
	}
	defer options.Destroy()
	options.SetIntraOpNumThreads(runtime.NumCPU())
	options.SetInterOpNumThreads(runtime.NumCPU())

	session, err := ort.NewAdvancedSession(cfg.ModelPath,
		[]string{"input"}, []string{"output"},
		[]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output},
		options)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, &ModelError{Op: "load", Path: cfg.ModelPath, Err: err}
	}

	log.Info("model loaded",
		"path", cfg.ModelPath,
		"input_shape", []int64(inputShape),
		"output_shape", []int64(outputShape))

	return &ONNXClassifier{
		cfg:     cfg,
		session: session,
		input:   input,
		output:  output,
	}, nil
}

// Infer runs one inference. The confidence vector is copied out of the
// runtime's output buffer so later inferences cannot mutate it.
func (c *ONNXClassifier) Infer(tensor []float32) ([]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, &ModelError{Op: "infer", Path: c.cfg.ModelPath, Err: ErrNotLoaded}
	}

	expected := c.cfg.InputSize * c.cfg.InputSize * preprocess.Channels
	if len(tensor) != expected {
		return nil, &ModelError{
			Op:   "infer",
			Path: c.cfg.ModelPath,
			Err:  fmt.Errorf("%w: got %d values, want %d", ErrShapeMismatch, len(tensor), expected),
		}
	}

	copy(c.input.GetData(), tensor)
	if err := c.session.Run(); err != nil {
		return nil, &ModelError{Op: "infer", Path: c.cfg.ModelPath, Err: err}
	}

	confidences := make([]float32, c.cfg.NumClasses)
	copy(confidences, c.output.GetData())
	return confidences, nil
}

// InputSize returns the square input dimension the model expects.
func (c *ONNXClassifier) InputSize() int {
	return c.cfg.InputSize
}

// NumClasses returns the length of the confidence vector.
func (c *ONNXClassifier) NumClasses() int {
	return c.cfg.NumClasses
}

// ModelPath identifies the loaded model file.
func (c *ONNXClassifier) ModelPath() string {
	return c.cfg.ModelPath
}

// Close destroys the session and tensors. Safe to call twice.
func (c *ONNXClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	c.input.Destroy()
	c.output.Destroy()
	c.session.Destroy()
	ort.DestroyEnvironment()
	return nil
}
