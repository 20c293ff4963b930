package stream

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// downscale shrinks a frame to the fixed target width, preserving aspect
// ratio. Frames already at or below the target pass through untouched;
// upscaling would add no information and only cost time.
func downscale(img image.Image, targetWidth int) image.Image {
	bounds := img.Bounds()
	if targetWidth <= 0 || bounds.Dx() <= targetWidth {
		return img
	}

	aspect := float64(bounds.Dy()) / float64(bounds.Dx())
	targetHeight := int(float64(targetWidth)*aspect + 0.5)
	if targetHeight < 1 {
		targetHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
	return dst
}
