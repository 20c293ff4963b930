package analyzer

import (
	"image"
	"math"
	"testing"
)

func TestHistogram_BinCountAndMass(t *testing.T) {
	ce := NewContrastExtractor()
	img := flatGray(16, 16, 42)

	bins, _ := ce.Histogram(img)
	if len(bins) != HistogramBins {
		t.Fatalf("Expected %d bins, got %d", HistogramBins, len(bins))
	}

	total := 0.0
	for _, b := range bins {
		total += b
	}
	if total != 256 {
		t.Errorf("Expected histogram mass to equal pixel count 256, got %g", total)
	}
	if bins[42] != 256 {
		t.Errorf("Expected all 256 pixels in bin 42, got %g", bins[42])
	}
}

func TestHistogram_FlatImageClosedForm(t *testing.T) {
	ce := NewContrastExtractor()

	// A flat 16x16 image puts all 256 pixels in one bin. With mean 1 the
	// population variance is (255*1 + 255^2)/256 = 255.
	_, stdDev := ce.Histogram(flatGray(16, 16, 200))
	want := math.Sqrt(255)
	if math.Abs(stdDev-want) > 1e-9 {
		t.Errorf("Expected std dev %g, got %g", want, stdDev)
	}
}

func TestHistogram_UniformSpreadIsZero(t *testing.T) {
	ce := NewContrastExtractor()

	// One column per intensity: every bin holds exactly 256 pixels, so the
	// inter-bin dispersion is zero.
	img := image.NewGray(image.Rect(0, 0, 256, 256))
	for y := 0; y < 256; y++ {
		for x := 0; x < 256; x++ {
			img.Pix[y*img.Stride+x] = uint8(x)
		}
	}

	_, stdDev := ce.Histogram(img)
	if stdDev != 0 {
		t.Errorf("Expected std dev 0 for a perfectly uniform histogram, got %g", stdDev)
	}
}

func TestHistogram_TwoValueSplit(t *testing.T) {
	ce := NewContrastExtractor()

	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for y := 16; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Pix[y*img.Stride+x] = 255
		}
	}

	bins, stdDev := ce.Histogram(img)
	if bins[0] != 512 || bins[255] != 512 {
		t.Fatalf("Expected 512 pixels in bins 0 and 255, got %g and %g", bins[0], bins[255])
	}

	// mean = 1024/256 = 4; variance = (2*(512-4)^2 + 254*16)/256.
	want := math.Sqrt((2*508*508 + 254*16) / 256.0)
	if math.Abs(stdDev-want) > 1e-9 {
		t.Errorf("Expected std dev %g, got %g", want, stdDev)
	}
}

func TestHistogram_SubImageIgnoresOutsidePixels(t *testing.T) {
	ce := NewContrastExtractor()

	base := flatGray(20, 20, 10)
	// Paint the region outside the crop a different value.
	for y := 0; y < 20; y++ {
		for x := 0; x < 5; x++ {
			base.Pix[y*base.Stride+x] = 250
		}
	}
	sub := base.SubImage(image.Rect(5, 0, 20, 20)).(*image.Gray)

	bins, _ := ce.Histogram(sub)
	if bins[250] != 0 {
		t.Errorf("Expected no pixels from outside the crop, got %g in bin 250", bins[250])
	}
	if bins[10] != 300 {
		t.Errorf("Expected 300 cropped pixels in bin 10, got %g", bins[10])
	}
}
