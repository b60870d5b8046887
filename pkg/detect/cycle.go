package detect

import (
	"time"

	"github.com/openadas/go-signcam/pkg/camera"
	"github.com/openadas/go-signcam/pkg/classify"
	"github.com/openadas/go-signcam/pkg/preprocess"
)

// Cycle runs one capture -> preprocess -> infer -> decide iteration.
// A failing stage ends the cycle with an error-bearing Result; it never
// panics or propagates, so one bad frame cannot take down a session.
type Cycle struct {
	Source     camera.Source
	Classifier classify.Classifier
	Threshold  float64
}

// modelInfo snapshots the classifier metadata attached to each Result.
func (c *Cycle) modelInfo() ModelInfo {
	size := c.Classifier.InputSize()
	return ModelInfo{
		ModelPath:           c.Classifier.ModelPath(),
		ConfidenceThreshold: c.Threshold,
		InputShape:          []int{1, size, size, preprocess.Channels},
		TotalClasses:        c.Classifier.NumClasses(),
	}
}

// Run executes one timed detection attempt.
func (c *Cycle) Run() Result {
	w, h := c.Source.Resolution()
	res := Result{
		Timestamp:  time.Now(),
		Resolution: [2]int{w, h},
		Model:      c.modelInfo(),
	}

	captureStart := time.Now()
	frame, err := c.Source.Capture()
	if err != nil {
		res.FailedStage = StageCapture
		res.Err = err
		return res
	}
	res.Timings.Capture = time.Since(captureStart)
	res.Timings.Completed = 1

	preprocessStart := time.Now()
	tensor, err := preprocess.Prepare(frame, c.Classifier.InputSize())
	if err != nil {
		res.FailedStage = StagePreprocess
		res.Err = err
		return res
	}
	res.Timings.Preprocess = time.Since(preprocessStart)
	res.Timings.Completed = 2

	inferStart := time.Now()
	confidences, err := c.Classifier.Infer(tensor)
	if err != nil {
		res.FailedStage = StageInference
		res.Err = err
		return res
	}
	res.Timings.Inference = time.Since(inferStart)
	res.Timings.Completed = 3

	res.Detected, res.Primary, res.TopPredictions = decide(confidences, c.Threshold)
	return res
}
