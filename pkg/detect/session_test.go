package detect

import (
	"context"
	"encoding/json"
	"errors"
	goimage "image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/openadas/go-signcam/pkg/camera"
	"github.com/openadas/go-signcam/pkg/classify"
)

// runWithMockClock starts the session on a goroutine and advances the
// mock clock in interval steps until Run returns.
func runWithMockClock(t *testing.T, s *Session, mock *clock.Mock, step time.Duration) *Summary {
	t.Helper()

	type outcome struct {
		sum *Summary
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		sum, err := s.Run(context.Background())
		done <- outcome{sum, err}
	}()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case o := <-done:
			if o.err != nil {
				t.Fatalf("Run: %v", o.err)
			}
			return o.sum
		case <-deadline:
			t.Fatal("session did not finish")
		default:
			// Give the loop goroutine time to reach the timer wait
			// before moving the clock.
			time.Sleep(50 * time.Millisecond)
			mock.Add(step)
		}
	}
}

func newTestSession(t *testing.T, cfg SessionConfig, src camera.Source, cls classify.Classifier) (*Session, *clock.Mock) {
	t.Helper()
	s, err := NewSession(cfg, src, cls)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	mock := clock.NewMock()
	s.clk = mock
	return s, mock
}

func TestSessionDurationBoundsCycles(t *testing.T) {
	cls := classify.NewMock()
	cls.InferFunc = classify.FixedVector(stopVector())
	src := camera.NewMock(1920, 1080)

	cfg := SessionConfig{
		Threshold: 0.3,
		Interval:  time.Second,
		Duration:  3 * time.Second,
		Persist:   false,
	}
	s, mock := newTestSession(t, cfg, src, cls)

	sum := runWithMockClock(t, s, mock, time.Second)

	if sum.Total != 3 {
		t.Errorf("total cycles: got %d, want 3", sum.Total)
	}
	if sum.Successful != 3 {
		t.Errorf("successful: got %d, want 3", sum.Successful)
	}
	if sum.SuccessRate != 100 {
		t.Errorf("success rate: got %.2f, want 100", sum.SuccessRate)
	}
	if s.State() != StateDone {
		t.Errorf("state: got %v, want StateDone", s.State())
	}
	if src.Closes() == 0 {
		t.Error("source was not closed at finalization")
	}
}

func TestSessionCancellation(t *testing.T) {
	cls := classify.NewMock()
	src := camera.NewMock(640, 480)

	cfg := SessionConfig{
		Threshold: 0.3,
		Interval:  time.Hour, // the test cancels during the wait
		Persist:   false,
	}
	s, err := NewSession(cfg, src, cls)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	type outcome struct {
		sum *Summary
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		sum, err := s.Run(ctx)
		done <- outcome{sum, err}
	}()

	// Let the first cycle complete and the loop park on the interval
	// wait, then cancel.
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case o := <-done:
		if o.err != nil {
			t.Fatalf("Run: %v", o.err)
		}
		if o.sum.Total != 1 {
			t.Errorf("total cycles: got %d, want 1", o.sum.Total)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("cancellation did not stop the session")
	}

	if src.Closes() == 0 {
		t.Error("source was not closed after cancellation")
	}

	// A finished session is single use.
	if _, err := s.Run(context.Background()); !errors.Is(err, ErrSessionDone) {
		t.Errorf("rerun: got %v, want ErrSessionDone", err)
	}
}

func TestSessionSurvivesCameraFailures(t *testing.T) {
	cls := classify.NewMock()
	src := camera.Unavailable(camera.DefaultConfig())

	cfg := SessionConfig{
		Threshold: 0.3,
		Interval:  time.Second,
		Duration:  3 * time.Second,
		Persist:   false,
	}
	s, mock := newTestSession(t, cfg, src, cls)

	sum := runWithMockClock(t, s, mock, time.Second)

	if sum.Total != 3 {
		t.Errorf("total cycles: got %d, want 3 (capture errors must not end the loop)", sum.Total)
	}
	if sum.Successful != 0 {
		t.Errorf("successful: got %d, want 0", sum.Successful)
	}
	if sum.SuccessRate != 0 {
		t.Errorf("success rate: got %.2f, want 0", sum.SuccessRate)
	}
	for i, r := range s.Results() {
		if r.Err == nil {
			t.Errorf("cycle %d: expected capture error", i)
		}
		if r.Detected {
			t.Errorf("cycle %d: errored cycle reported a detection", i)
		}
	}
}

func TestSessionEndsOnTornDownSource(t *testing.T) {
	cls := classify.NewMock()
	cls.InferFunc = classify.FixedVector(stopVector())

	// The source delivers one good frame, then reports it was closed.
	grab := camera.NewMock(640, 480).CaptureFunc
	calls := 0
	src := camera.NewMock(640, 480)
	src.CaptureFunc = func() (goimage.Image, error) {
		calls++
		if calls > 1 {
			return nil, &camera.Error{Op: "capture", Err: camera.ErrClosed}
		}
		return grab()
	}

	cfg := SessionConfig{
		Threshold: 0.3,
		Interval:  time.Second,
		Duration:  10 * time.Second,
		Persist:   false,
	}
	s, mock := newTestSession(t, cfg, src, cls)

	sum := runWithMockClock(t, s, mock, time.Second)

	// Cycle 1 succeeds, cycle 2 hits the torn-down source and ends the
	// session well before the duration bound.
	if sum.Total != 2 {
		t.Errorf("total cycles: got %d, want 2", sum.Total)
	}
	if s.State() != StateDone {
		t.Errorf("state: got %v, want StateDone", s.State())
	}
}

func TestSessionPersistsResults(t *testing.T) {
	cls := classify.NewMock()
	cls.InferFunc = classify.FixedVector(stopVector())
	src := camera.NewMock(1920, 1080)

	dir := t.TempDir()
	cfg := SessionConfig{
		Threshold: 0.3,
		Interval:  time.Second,
		Duration:  time.Second, // exactly one cycle
		Persist:   true,
		OutputDir: dir,
	}
	s, mock := newTestSession(t, cfg, src, cls)

	sum := runWithMockClock(t, s, mock, time.Second)
	if sum.Total != 1 {
		t.Fatalf("total cycles: got %d, want 1", sum.Total)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "signcam_detection_*.json"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("session file: got %v (err %v), want one match", matches, err)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read session file: %v", err)
	}
	var doc struct {
		DetectionSummary map[string]any   `json:"detection_summary"`
		Detections       []map[string]any `json:"detections"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal session file: %v", err)
	}
	if got := doc.DetectionSummary["total_detections"]; got != float64(1) {
		t.Errorf("total_detections: got %v, want 1", got)
	}
	if got := doc.DetectionSummary["success_rate"]; got != float64(100) {
		t.Errorf("success_rate: got %v, want 100", got)
	}
	if len(doc.Detections) != 1 {
		t.Fatalf("detections: got %d entries, want 1", len(doc.Detections))
	}
	primary, ok := doc.Detections[0]["primary_detection"].(map[string]any)
	if !ok {
		t.Fatalf("primary_detection: got %v", doc.Detections[0]["primary_detection"])
	}
	if primary["label"] != "Stop" {
		t.Errorf("primary label: got %v, want Stop", primary["label"])
	}
}
