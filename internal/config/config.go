// Package config provides configuration helpers for go-signcam commands.
package config

import "os"

// Defaults shared by all commands.
const (
	DefaultModelPath           = "models/gtsrb.onnx"
	DefaultConfidenceThreshold = 0.3
	DefaultDetectionInterval   = 1.0 // seconds
	DefaultOutputDir           = "output"
)

// ModelPath returns the model path from the SIGNCAM_MODEL env var.
// Falls back to the provided default if not set.
func ModelPath(fallback string) string {
	if p := os.Getenv("SIGNCAM_MODEL"); p != "" {
		return p
	}
	return fallback
}

// OutputDir returns the output directory from the SIGNCAM_OUTPUT env var.
// Falls back to the provided default if not set.
func OutputDir(fallback string) string {
	if d := os.Getenv("SIGNCAM_OUTPUT"); d != "" {
		return d
	}
	return fallback
}

// LogLevel returns the log level from the SIGNCAM_LOG env var or "info".
func LogLevel() string {
	if l := os.Getenv("SIGNCAM_LOG"); l != "" {
		return l
	}
	return "info"
}
