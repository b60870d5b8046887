// Package detect composes frame acquisition, preprocessing and
// classification into timed detection cycles, and drives them in a
// cancellable session loop with aggregation and persistence.
package detect

import (
	"encoding/json"
	"math"
	"time"
)

// Stage identifies a pipeline stage inside one cycle.
type Stage string

// Pipeline stages, in execution order.
const (
	StageCapture    Stage = "capture"
	StagePreprocess Stage = "preprocess"
	StageInference  Stage = "inference"
)

// Detection is one candidate match from a confidence vector.
type Detection struct {
	ClassID    int     `json:"class_id"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// ModelInfo describes the model a result was produced with.
type ModelInfo struct {
	ModelPath           string  `json:"model_path"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	InputShape          []int   `json:"input_shape"`
	TotalClasses        int     `json:"total_classes"`
}

// Timings carries per-stage durations for one cycle. Completed counts
// how many stages finished in order, so a cycle that failed during
// inference still reports capture and preprocess times.
type Timings struct {
	Capture    time.Duration
	Preprocess time.Duration
	Inference  time.Duration
	Completed  int
}

// Total is the sum of all completed stage durations.
func (t Timings) Total() time.Duration {
	return t.Capture + t.Preprocess + t.Inference
}

// Result is the outcome of a single detection cycle. Immutable once
// constructed.
type Result struct {
	Timestamp time.Time
	Timings   Timings

	Detected       bool
	Primary        *Detection
	TopPredictions []Detection

	// FailedStage and Err are set when the cycle did not complete.
	FailedStage Stage
	Err         error

	Resolution [2]int
	Model      ModelInfo
}

// Ok reports whether the cycle completed without error.
func (r Result) Ok() bool {
	return r.Err == nil
}

// millis converts a duration to milliseconds rounded to 2 decimals,
// matching the persisted schema.
func millis(d time.Duration) float64 {
	return math.Round(d.Seconds()*1000*100) / 100
}

// round2 rounds to 2 decimals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

type resultJSON struct {
	Timestamp      string      `json:"timestamp"`
	CaptureMS      *float64    `json:"capture_time_ms,omitempty"`
	PreprocessMS   *float64    `json:"preprocess_time_ms,omitempty"`
	InferenceMS    *float64    `json:"inference_time_ms,omitempty"`
	TotalMS        *float64    `json:"total_time_ms,omitempty"`
	Detected       bool        `json:"detected"`
	Resolution     []int       `json:"camera_resolution,omitempty"`
	Primary        *Detection  `json:"primary_detection"`
	TopPredictions []Detection `json:"top_predictions"`
	Model          *ModelInfo  `json:"model_info,omitempty"`
	Error          string      `json:"error,omitempty"`
	FailedStage    string      `json:"failed_stage,omitempty"`
}

// MarshalJSON renders the per-cycle schema: stage timings in rounded
// milliseconds for stages that completed, primary_detection null when
// absent, error text only on failed cycles.
func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{
		Timestamp: r.Timestamp.Format(time.RFC3339Nano),
		Detected:  r.Detected,
	}

	if r.Timings.Completed >= 1 {
		v := millis(r.Timings.Capture)
		out.CaptureMS = &v
	}
	if r.Timings.Completed >= 2 {
		v := millis(r.Timings.Preprocess)
		out.PreprocessMS = &v
	}
	if r.Timings.Completed >= 3 {
		v := millis(r.Timings.Inference)
		out.InferenceMS = &v
		total := millis(r.Timings.Total())
		out.TotalMS = &total
	}

	if r.Err != nil {
		out.Error = r.Err.Error()
		out.FailedStage = string(r.FailedStage)
		return json.Marshal(out)
	}

	out.Resolution = []int{r.Resolution[0], r.Resolution[1]}
	out.Primary = r.Primary
	out.TopPredictions = r.TopPredictions
	if out.TopPredictions == nil {
		out.TopPredictions = []Detection{}
	}
	model := r.Model
	out.Model = &model
	return json.Marshal(out)
}
