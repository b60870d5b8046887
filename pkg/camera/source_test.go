package camera

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", modify: func(c *Config) {}},
		{name: "negative device", modify: func(c *Config) { c.Device = -1 }, wantErr: true},
		{name: "tiny width", modify: func(c *Config) { c.Width = 10 }, wantErr: true},
		{name: "huge height", modify: func(c *Config) { c.Height = 9000 }, wantErr: true},
		{name: "zero framerate", modify: func(c *Config) { c.Framerate = 0 }, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			errs := cfg.Validate()
			if tc.wantErr && len(errs) == 0 {
				t.Error("expected validation errors, got none")
			}
			if !tc.wantErr && len(errs) > 0 {
				t.Errorf("unexpected validation errors: %v", errs)
			}
		})
	}
}

func TestUnavailableSource(t *testing.T) {
	src := Unavailable(DefaultConfig())

	_, err := src.Capture()
	if err == nil {
		t.Fatal("expected capture error from unavailable source")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}

	var camErr *Error
	if !errors.As(err, &camErr) {
		t.Fatalf("expected *camera.Error, got %T", err)
	}
	if camErr.Op != "capture" {
		t.Errorf("Op: got %q, want %q", camErr.Op, "capture")
	}

	w, h := src.Resolution()
	if w != 1920 || h != 1080 {
		t.Errorf("Resolution: got %dx%d, want 1920x1080", w, h)
	}
}

func TestCloseIdempotent(t *testing.T) {
	closeCalls := 0
	m := NewMock(640, 480)
	m.CloseFunc = func() error {
		closeCalls++
		return nil
	}

	if err := m.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if closeCalls != 1 {
		t.Errorf("underlying close ran %d times, want 1", closeCalls)
	}
	if m.Closes() != 2 {
		t.Errorf("recorded %d close calls, want 2", m.Closes())
	}

	src := Unavailable(DefaultConfig())
	if err := src.Close(); err != nil {
		t.Fatalf("unavailable close: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("unavailable second close: %v", err)
	}
}

func TestMockCapture(t *testing.T) {
	m := NewMock(320, 240)

	img, err := m.Capture()
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 320 || b.Dy() != 240 {
		t.Errorf("frame size: got %dx%d, want 320x240", b.Dx(), b.Dy())
	}
	if m.Captures() != 1 {
		t.Errorf("recorded %d captures, want 1", m.Captures())
	}
}
