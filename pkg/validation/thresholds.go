// Package validation holds request-level validation helpers shared by the
// transport layer and the services.
package validation

import (
	"fmt"
	"math"
)

// MaxUploadPixels caps the pixel count of an uploaded image. Anything larger
// is rejected before analysis to bound memory and processing time.
const MaxUploadPixels = 64 * 1024 * 1024

// ValidateThreshold checks a single classification threshold supplied by a
// client. Thresholds must be positive finite reals.
func ValidateThreshold(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%s must be a finite number", name)
	}
	if value <= 0 {
		return fmt.Errorf("%s must be positive (got %g)", name, value)
	}
	return nil
}

// ValidateImageBounds rejects degenerate or oversized image dimensions.
func ValidateImageBounds(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("image has invalid dimensions %dx%d", width, height)
	}
	if width*height > MaxUploadPixels {
		return fmt.Errorf("image is too large (%dx%d exceeds %d pixels)", width, height, MaxUploadPixels)
	}
	return nil
}
