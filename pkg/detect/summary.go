package detect

import (
	"encoding/json"
	"fmt"
	"time"
)

// Summary aggregates one session's results.
type Summary struct {
	SessionID string

	Total      int
	Successful int
	Failed     int

	// SuccessRate is Successful/Total as a percentage, 2 decimals,
	// 0 when no cycles ran.
	SuccessRate float64

	// Mean stage durations in ms across cycles where the stage completed.
	AvgCaptureMS   float64
	AvgInferenceMS float64
	AvgTotalMS     float64

	Resolution [2]int
	Interval   time.Duration
	Timestamp  time.Time
}

type summaryJSON struct {
	SessionID      string  `json:"session_id,omitempty"`
	Total          int     `json:"total_detections"`
	Successful     int     `json:"successful_detections"`
	Failed         int     `json:"failed_detections"`
	SuccessRate    float64 `json:"success_rate"`
	AvgCaptureMS   float64 `json:"average_capture_time_ms"`
	AvgInferenceMS float64 `json:"average_inference_time_ms"`
	AvgTotalMS     float64 `json:"average_total_time_ms"`
	Resolution     []int   `json:"camera_resolution"`
	IntervalS      float64 `json:"detection_interval_s"`
	Timestamp      string  `json:"session_timestamp"`
}

// MarshalJSON renders the detection_summary schema.
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(summaryJSON{
		SessionID:      s.SessionID,
		Total:          s.Total,
		Successful:     s.Successful,
		Failed:         s.Failed,
		SuccessRate:    s.SuccessRate,
		AvgCaptureMS:   s.AvgCaptureMS,
		AvgInferenceMS: s.AvgInferenceMS,
		AvgTotalMS:     s.AvgTotalMS,
		Resolution:     []int{s.Resolution[0], s.Resolution[1]},
		IntervalS:      s.Interval.Seconds(),
		Timestamp:      s.Timestamp.Format(time.RFC3339Nano),
	})
}

// String renders the human-readable summary block printed at the end
// of a run.
func (s Summary) String() string {
	return fmt.Sprintf("cycles=%d detected=%d failed=%d success_rate=%.2f%% avg_total=%.1fms",
		s.Total, s.Successful, s.Failed, s.SuccessRate, s.AvgTotalMS)
}

// summarize computes session statistics from recorded results.
func summarize(id string, results []Result, resolution [2]int, interval time.Duration, now time.Time) Summary {
	sum := Summary{
		SessionID:  id,
		Total:      len(results),
		Resolution: resolution,
		Interval:   interval,
		Timestamp:  now,
	}

	var captureMS, inferMS, totalMS float64
	var captured, inferred int
	for _, r := range results {
		if r.Detected {
			sum.Successful++
		}
		if r.Timings.Completed >= 1 {
			captureMS += millis(r.Timings.Capture)
			captured++
		}
		if r.Timings.Completed >= 3 {
			inferMS += millis(r.Timings.Inference)
			totalMS += millis(r.Timings.Total())
			inferred++
		}
	}
	sum.Failed = sum.Total - sum.Successful

	if sum.Total > 0 {
		sum.SuccessRate = round2(float64(sum.Successful) / float64(sum.Total) * 100)
	}
	if captured > 0 {
		sum.AvgCaptureMS = round2(captureMS / float64(captured))
	}
	if inferred > 0 {
		sum.AvgInferenceMS = round2(inferMS / float64(inferred))
		sum.AvgTotalMS = round2(totalMS / float64(inferred))
	}
	return sum
}
