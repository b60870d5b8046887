package detect

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PersistError wraps a failure to write session results to disk.
// Persistence failures are reported, never re-raised: the in-memory
// summary is still valid.
type PersistError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *PersistError) Error() string {
	return fmt.Sprintf("detect: persist to %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *PersistError) Unwrap() error {
	return e.Err
}

// sessionFile is the persisted session schema.
type sessionFile struct {
	DetectionSummary Summary  `json:"detection_summary"`
	Detections       []Result `json:"detections"`
}

// SessionPath returns the timestamped output path for a session that
// ended at t.
func SessionPath(dir string, t time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("signcam_detection_%s.json", t.Format("20060102_150405")))
}

// Save writes the session summary and per-cycle results as one JSON
// document at path, creating the parent directory if needed.
func Save(path string, summary Summary, results []Result) error {
	if results == nil {
		results = []Result{}
	}
	doc := sessionFile{
		DetectionSummary: summary,
		Detections:       results,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &PersistError{Path: path, Err: err}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &PersistError{Path: path, Err: err}
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &PersistError{Path: path, Err: err}
	}
	return nil
}
