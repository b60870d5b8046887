package detect

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/openadas/go-signcam/internal/log"
	"github.com/openadas/go-signcam/pkg/camera"
	"github.com/openadas/go-signcam/pkg/classify"
)

// ErrSessionDone is returned when Run is called on a finished session.
// Sessions are single-use; build a fresh one for another run.
var ErrSessionDone = errors.New("detect: session already done")

// ErrSessionRunning is returned when Run is called concurrently.
var ErrSessionRunning = errors.New("detect: session already running")

// State is the session lifecycle state.
type State int

// Session states, in lifecycle order.
const (
	StateIdle State = iota
	StateRunning
	StateFinalizing
	StateDone
)

// SessionConfig holds the knobs for one continuous detection run.
type SessionConfig struct {
	// Threshold is the confidence bound in [0, 1]; fixed for the
	// session's lifetime.
	Threshold float64

	// Interval is the wait between cycle starts.
	Interval time.Duration

	// Duration bounds the whole run; 0 means run until cancelled.
	Duration time.Duration

	// Persist writes the session JSON at the end of the run.
	Persist bool

	// OutputDir receives the persisted session file.
	OutputDir string
}

// DefaultSessionConfig returns the standard run configuration:
// threshold 0.3, one cycle per second, unbounded, persisted.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Threshold: 0.3,
		Interval:  time.Second,
		Persist:   true,
		OutputDir: "output",
	}
}

// Validate checks that the config values are usable.
func (c *SessionConfig) Validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return errors.New("detect: threshold must be in [0, 1]")
	}
	if c.Interval <= 0 {
		return errors.New("detect: interval must be positive")
	}
	if c.Duration < 0 {
		return errors.New("detect: duration must not be negative")
	}
	return nil
}

// Session drives repeated detection cycles on an interval. One cycle
// runs at a time; capture and inference are never concurrent. The
// session owns the camera source and closes it when the run ends, no
// matter how the run ends.
type Session struct {
	ID  string
	cfg SessionConfig

	cycle Cycle
	clk   clock.Clock

	// OnResult is invoked after every cycle with its Result. Display
	// clients hang off this hook; it runs on the loop goroutine, so it
	// must be quick.
	OnResult func(Result)

	mu        sync.Mutex
	state     State
	results   []Result
	started   time.Time
	successes int
}

// NewSession builds a session over an opened source and loaded
// classifier. The source may be camera.Unavailable; every cycle then
// records a capture error and the loop keeps going.
func NewSession(cfg SessionConfig, src camera.Source, cls classify.Classifier) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Session{
		ID:  uuid.NewString(),
		cfg: cfg,
		cycle: Cycle{
			Source:     src,
			Classifier: cls,
			Threshold:  cfg.Threshold,
		},
		clk:   clock.New(),
		state: StateIdle,
	}, nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Results returns a copy of the results recorded so far.
func (s *Session) Results() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Result, len(s.results))
	copy(out, s.results)
	return out
}

// Run executes the detection loop until the configured duration
// elapses, the context is cancelled, or the camera source is torn
// down. It always finalizes: the summary is computed, persisted when
// configured, and the source is closed. The summary is returned even
// when persistence fails.
func (s *Session) Run(ctx context.Context) (*Summary, error) {
	s.mu.Lock()
	switch s.state {
	case StateDone:
		s.mu.Unlock()
		return nil, ErrSessionDone
	case StateRunning, StateFinalizing:
		s.mu.Unlock()
		return nil, ErrSessionRunning
	}
	s.state = StateRunning
	s.started = s.clk.Now()
	s.mu.Unlock()

	logger := log.With("session", s.ID)
	logger.Info("detection started",
		"threshold", s.cfg.Threshold,
		"interval", s.cfg.Interval,
		"duration", s.cfg.Duration,
		"persist", s.cfg.Persist)

	for {
		if ctx.Err() != nil {
			logger.Info("detection cancelled")
			break
		}
		// Duration is checked at the top of the loop only; a cycle in
		// progress always completes.
		if s.cfg.Duration > 0 && s.clk.Since(s.started) >= s.cfg.Duration {
			logger.Info("duration elapsed")
			break
		}

		res := s.cycle.Run()
		s.record(res, logger)

		if fatalCapture(res) {
			logger.Error("camera torn down, ending session")
			break
		}

		if !s.wait(ctx) {
			logger.Info("detection cancelled")
			break
		}
	}

	return s.finalize(logger)
}

// record appends a result, updates counters and emits the per-cycle
// progress line.
func (s *Session) record(res Result, logger *slog.Logger) {
	s.mu.Lock()
	s.results = append(s.results, res)
	n := len(s.results)
	if res.Detected {
		s.successes++
	}
	cb := s.OnResult
	s.mu.Unlock()

	switch {
	case res.Err != nil:
		logger.Warn("cycle failed",
			"cycle", n,
			"stage", string(res.FailedStage),
			"error", res.Err)
	case res.Detected:
		logger.Info("sign detected",
			"cycle", n,
			"label", res.Primary.Label,
			"confidence", res.Primary.Confidence,
			"total_ms", millis(res.Timings.Total()))
	default:
		logger.Info("no detection",
			"cycle", n,
			"total_ms", millis(res.Timings.Total()))
	}

	if cb != nil {
		cb(res)
	}
}

// wait blocks for the configured interval. It is the cancellation
// point: a stop observed here prevents the next cycle from starting.
// Returns false when the context was cancelled.
func (s *Session) wait(ctx context.Context) bool {
	t := s.clk.Timer(s.cfg.Interval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// fatalCapture reports whether a cycle failed because the source was
// torn down. Transient capture errors, including absent hardware, keep
// the loop running; only an explicitly closed source ends it.
func fatalCapture(res Result) bool {
	return res.FailedStage == StageCapture && errors.Is(res.Err, camera.ErrClosed)
}

// finalize computes the summary, persists when configured and releases
// the camera. Runs exactly once per session.
func (s *Session) finalize(logger *slog.Logger) (*Summary, error) {
	s.mu.Lock()
	s.state = StateFinalizing
	results := s.results
	s.mu.Unlock()

	w, h := s.cycle.Source.Resolution()
	sum := summarize(s.ID, results, [2]int{w, h}, s.cfg.Interval, time.Now())

	if s.cfg.Persist {
		path := SessionPath(s.cfg.OutputDir, time.Now())
		if err := Save(path, sum, results); err != nil {
			// Reported, not re-raised: the in-memory summary stands.
			logger.Error("persist failed", "error", err)
		} else {
			logger.Info("results saved", "path", path)
		}
	}

	if err := s.cycle.Source.Close(); err != nil {
		logger.Warn("camera close failed", "error", err)
	}

	s.mu.Lock()
	s.state = StateDone
	s.mu.Unlock()

	logger.Info("session finished", "summary", sum.String())
	return &sum, nil
}
