package analyzer

import (
	"image"

	"gonum.org/v1/gonum/stat"
)

// HistogramBins is the number of equal-width intensity bins spanning the
// normalized 0-255 range.
const HistogramBins = 256

// ContrastExtractor computes the intensity histogram of a normalized frame
// and the population standard deviation of its bin counts. A washed-out,
// low-contrast frame concentrates its pixels in few bins, which keeps the
// inter-bin dispersion low; a frame with full tonal spread distributes mass
// unevenly and scores high.
type ContrastExtractor struct{}

// NewContrastExtractor creates a contrast extractor.
func NewContrastExtractor() *ContrastExtractor {
	return &ContrastExtractor{}
}

// Histogram returns the 256-bin pixel count histogram and the population
// standard deviation over the bin counts. The bin sequence is carried
// through to the result for diagnostic and visualization use.
func (ce *ContrastExtractor) Histogram(gray *image.Gray) ([]float64, float64) {
	bins := make([]float64, HistogramBins)
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	for y := 0; y < height; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+width]
		for _, v := range row {
			bins[v]++
		}
	}

	return bins, stat.PopStdDev(bins, nil)
}
