package camera

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/openadas/go-signcam/internal/log"
)

// GoCVSource captures frames from a V4L2 device through OpenCV.
type GoCVSource struct {
	cfg Config

	mu     sync.Mutex
	cap    *gocv.VideoCapture
	frame  gocv.Mat
	closed bool
}

// Open opens the camera device and applies the configured acquisition
// parameters. Resolution, framerate, AWB and AE are submitted as hints;
// failures to apply them are logged, not fatal.
func Open(cfg Config) (*GoCVSource, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, &Error{Op: "open", Err: fmt.Errorf("invalid config: %v", errs)}
	}

	cap, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, &Error{Op: "open", Err: err}
	}
	if !cap.IsOpened() {
		cap.Close()
		return nil, &Error{Op: "open", Err: ErrUnavailable}
	}

	cap.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	cap.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	cap.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	if cfg.AutoWhiteBalance {
		cap.Set(gocv.VideoCaptureAutoWB, 1)
	}
	if cfg.AutoExposure {
		// V4L2 convention: 3 = aperture priority (auto), 1 = manual.
		cap.Set(gocv.VideoCaptureAutoExposure, 3)
	}

	s := &GoCVSource{
		cfg:   cfg,
		cap:   cap,
		frame: gocv.NewMat(),
	}

	// Let AWB/AE settle before the first real capture.
	for i := 0; i < cfg.WarmupFrames; i++ {
		s.cap.Read(&s.frame)
	}

	actualW := int(cap.Get(gocv.VideoCaptureFrameWidth))
	actualH := int(cap.Get(gocv.VideoCaptureFrameHeight))
	log.Info("camera opened",
		"device", cfg.Device,
		"requested", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"actual", fmt.Sprintf("%dx%d", actualW, actualH))
	if actualW > 0 && actualH > 0 {
		s.cfg.Width = actualW
		s.cfg.Height = actualH
	}

	return s, nil
}

// Capture reads one frame and returns it as an image.Image. The pixel
// data is copied out of the reused OpenCV buffer, so the returned image
// does not alias the next capture.
func (s *GoCVSource) Capture() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, &Error{Op: "capture", Err: ErrClosed}
	}
	if ok := s.cap.Read(&s.frame); !ok {
		return nil, &Error{Op: "capture", Err: fmt.Errorf("read from device %d failed", s.cfg.Device)}
	}
	if s.frame.Empty() {
		return nil, &Error{Op: "capture", Err: ErrEmptyFrame}
	}

	img, err := s.frame.ToImage()
	if err != nil {
		return nil, &Error{Op: "capture", Err: err}
	}
	return img, nil
}

// Resolution returns the frame dimensions the device settled on.
func (s *GoCVSource) Resolution() (int, int) {
	return s.cfg.Width, s.cfg.Height
}

// Close releases the device and pixel buffers. Safe to call more than
// once, including after a failed capture.
func (s *GoCVSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	s.frame.Close()
	if err := s.cap.Close(); err != nil {
		return &Error{Op: "close", Err: err}
	}
	log.Info("camera released", "device", s.cfg.Device)
	return nil
}
