package preprocess

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func solidFrame(w, h int, c color.NRGBA) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestCenterSquare(t *testing.T) {
	tests := []struct {
		name       string
		w, h       int
		expectSide int
	}{
		{name: "landscape crops to height", w: 1920, h: 1080, expectSide: 1080},
		{name: "portrait crops to width", w: 480, h: 640, expectSide: 480},
		{name: "square unchanged", w: 512, h: 512, expectSide: 512},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			img := solidFrame(tc.w, tc.h, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
			out := CenterSquare(img)
			b := out.Bounds()
			if b.Dx() != tc.expectSide || b.Dy() != tc.expectSide {
				t.Errorf("got %dx%d, want %dx%d", b.Dx(), b.Dy(), tc.expectSide, tc.expectSide)
			}
		})
	}
}

func TestPrepareShape(t *testing.T) {
	tests := []struct {
		name   string
		w, h   int
		target int
	}{
		{name: "landscape", w: 1920, h: 1080, target: 224},
		{name: "portrait", w: 1080, h: 1920, target: 224},
		{name: "square", w: 500, h: 500, target: 224},
		{name: "smaller than target", w: 64, h: 48, target: 224},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			img := solidFrame(tc.w, tc.h, color.NRGBA{R: 255, G: 128, B: 0, A: 255})
			tensor, err := Prepare(img, tc.target)
			if err != nil {
				t.Fatalf("Prepare: %v", err)
			}
			want := tc.target * tc.target * Channels
			if len(tensor) != want {
				t.Errorf("tensor length: got %d, want %d", len(tensor), want)
			}
		})
	}
}

func TestPrepareNormalization(t *testing.T) {
	// A pure white frame must map every value to 1.0, a pure black
	// frame to 0.0.
	white, err := Prepare(solidFrame(100, 100, color.NRGBA{R: 255, G: 255, B: 255, A: 255}), 32)
	if err != nil {
		t.Fatalf("Prepare white: %v", err)
	}
	for i, v := range white {
		if v != 1.0 {
			t.Fatalf("white tensor[%d] = %f, want 1.0", i, v)
		}
	}

	black, err := Prepare(solidFrame(100, 100, color.NRGBA{A: 255}), 32)
	if err != nil {
		t.Fatalf("Prepare black: %v", err)
	}
	for i, v := range black {
		if v != 0.0 {
			t.Fatalf("black tensor[%d] = %f, want 0.0", i, v)
		}
	}
}

func TestPrepareRange(t *testing.T) {
	img := solidFrame(300, 200, color.NRGBA{R: 13, G: 200, B: 77, A: 255})
	tensor, err := Prepare(img, 64)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	for i, v := range tensor {
		if v < 0 || v > 1 {
			t.Fatalf("tensor[%d] = %f outside [0, 1]", i, v)
		}
	}
}

func TestPrepareErrors(t *testing.T) {
	if _, err := Prepare(nil, 224); !errors.Is(err, ErrNilFrame) {
		t.Errorf("nil frame: got %v, want ErrNilFrame", err)
	}
	empty := image.NewNRGBA(image.Rect(0, 0, 0, 0))
	if _, err := Prepare(empty, 224); !errors.Is(err, ErrNilFrame) {
		t.Errorf("empty frame: got %v, want ErrNilFrame", err)
	}
	img := solidFrame(10, 10, color.NRGBA{A: 255})
	if _, err := Prepare(img, 0); !errors.Is(err, ErrBadTarget) {
		t.Errorf("zero target: got %v, want ErrBadTarget", err)
	}
}
