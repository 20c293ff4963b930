package analyzer

import (
	"image"
	"image/draw"

	apperrors "go-fog-detector/internal/errors"
)

// Normalize converts an input image into a single-channel 8-bit intensity
// buffer of identical dimensions. Multi-channel inputs are converted with the
// standard ITU-R BT.601 luma weighting (the stdlib gray color model), which
// both the single-shot and streaming paths share so thresholds calibrated on
// one apply to the other. The returned buffer never aliases the input, so
// the original frame can be retained for display.
//
// The only failure is a decode error for a malformed frame (nil image or
// zero dimensions); it is always surfaced, never recovered silently.
func Normalize(img image.Image) (*image.Gray, error) {
	if img == nil {
		return nil, apperrors.NewDecodeError("image is nil", nil)
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, apperrors.NewDecodeError("image has zero dimensions", nil)
	}

	gray := image.NewGray(bounds)
	if src, ok := img.(*image.Gray); ok {
		// Already single-channel: copy the pixel rows as-is. Row-wise copy
		// handles sub-images whose stride exceeds their width.
		for y := 0; y < bounds.Dy(); y++ {
			srcRow := src.Pix[y*src.Stride : y*src.Stride+bounds.Dx()]
			dstRow := gray.Pix[y*gray.Stride : y*gray.Stride+bounds.Dx()]
			copy(dstRow, srcRow)
		}
		return gray, nil
	}
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)
	return gray, nil
}
