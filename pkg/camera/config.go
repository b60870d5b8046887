// Package camera provides frame acquisition from the vehicle's
// wide-angle camera. Auto white balance and auto exposure are requested
// as hints only; a driver that ignores them is tolerated.
package camera

import "fmt"

// Config holds camera acquisition parameters.
type Config struct {
	// Device is the V4L2 device index (0 = first camera).
	Device int `json:"device"`

	// Resolution in pixels.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Framerate is the target FPS hint.
	Framerate int `json:"framerate"`

	// AutoWhiteBalance requests AWB from the driver.
	AutoWhiteBalance bool `json:"auto_white_balance"`

	// AutoExposure requests AE from the driver.
	AutoExposure bool `json:"auto_exposure"`

	// WarmupFrames are read and discarded after open so AWB/AE settle
	// before the first real capture.
	WarmupFrames int `json:"warmup_frames"`
}

// DefaultConfig returns the recommended configuration for the fisheye
// dash camera: 1080p at 30 FPS with auto white balance and exposure.
func DefaultConfig() Config {
	return Config{
		Device:           0,
		Width:            1920,
		Height:           1080,
		Framerate:        30,
		AutoWhiteBalance: true,
		AutoExposure:     true,
		WarmupFrames:     3,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Device < 0 {
		errors = append(errors, "device must be >= 0")
	}
	if c.Width < 160 || c.Width > 4608 {
		errors = append(errors, "width must be between 160 and 4608")
	}
	if c.Height < 120 || c.Height > 2592 {
		errors = append(errors, "height must be between 120 and 2592")
	}
	if c.Framerate < 1 || c.Framerate > 120 {
		errors = append(errors, "framerate must be between 1 and 120")
	}
	if c.WarmupFrames < 0 || c.WarmupFrames > 30 {
		errors = append(errors, "warmup_frames must be between 0 and 30")
	}

	return errors
}

// String returns the resolution in WxH form.
func (c Config) String() string {
	return fmt.Sprintf("%dx%d@%dfps", c.Width, c.Height, c.Framerate)
}
