package analyzer

import (
	"image"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// SharpnessExtractor computes the Laplacian-variance sharpness score of a
// normalized frame. High variance means plenty of high-frequency edge
// content; fog scatters light and flattens those edges, pulling the score
// down.
type SharpnessExtractor struct {
	slicePool sync.Pool
}

// NewSharpnessExtractor creates a sharpness extractor.
func NewSharpnessExtractor() *SharpnessExtractor {
	return &SharpnessExtractor{
		slicePool: sync.Pool{
			New: func() interface{} {
				return make([]float64, 0, 1024)
			},
		},
	}
}

// Score applies the discrete Laplacian kernel [0,1,0; 1,-4,1; 0,1,0] to every
// pixel and returns the population variance (divisor = pixel count) of the
// responses. Border pixels use replicate extension: coordinates outside the
// grid clamp to the nearest edge pixel, so every pixel contributes one
// response. A flat frame yields exactly 0.
func (se *SharpnessExtractor) Score(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return 0
	}

	data := se.slicePool.Get().([]float64)
	defer se.slicePool.Put(data[:0])
	if cap(data) < width*height {
		data = make([]float64, 0, width*height)
	}

	at := func(x, y int) float64 {
		if x < 0 {
			x = 0
		} else if x >= width {
			x = width - 1
		}
		if y < 0 {
			y = 0
		} else if y >= height {
			y = height - 1
		}
		return float64(gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			center := at(x, y)
			response := at(x, y-1) + at(x, y+1) + at(x-1, y) + at(x+1, y) - 4*center
			data = append(data, response)
		}
	}

	return stat.PopVariance(data, nil)
}
