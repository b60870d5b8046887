// Package preprocess turns raw camera frames into normalized model
// input tensors.
//
// The camera carries a wide-angle (fisheye) lens; a centered square
// crop keeps the least-distorted zone of the frame without paying for
// full dewarping.
package preprocess

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Sentinel errors.
var (
	// ErrNilFrame is returned when the input frame is nil or empty.
	ErrNilFrame = errors.New("preprocess: nil or empty frame")

	// ErrBadTarget is returned for a non-positive target size.
	ErrBadTarget = errors.New("preprocess: target size must be positive")
)

// Channels is the number of color channels the model expects.
const Channels = 3

// CenterSquare crops the frame to a centered square whose side is the
// shorter dimension. Square frames pass through unchanged.
func CenterSquare(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == h {
		return img
	}
	side := w
	if h < w {
		side = h
	}
	return imaging.CropCenter(img, side, side)
}

// Prepare converts a raw frame into a single-element batch tensor:
// centered square crop, resize to target x target, RGB float32 in
// [0, 1], H x W x C layout. The returned slice shares no memory with
// the input frame.
func Prepare(frame image.Image, target int) ([]float32, error) {
	if target <= 0 {
		return nil, ErrBadTarget
	}
	if frame == nil {
		return nil, ErrNilFrame
	}
	b := frame.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrNilFrame, b.Dx(), b.Dy())
	}

	square := CenterSquare(frame)
	resized := imaging.Resize(square, target, target, imaging.Linear)

	tensor := make([]float32, target*target*Channels)
	i := 0
	for y := 0; y < target; y++ {
		for x := 0; x < target; x++ {
			c := resized.NRGBAAt(x, y)
			tensor[i] = float32(c.R) / 255.0
			tensor[i+1] = float32(c.G) / 255.0
			tensor[i+2] = float32(c.B) / 255.0
			i += Channels
		}
	}
	return tensor, nil
}
