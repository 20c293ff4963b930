package analyzer

import (
	"fmt"
	"math"
	"time"

	"go-fog-detector/pkg/models"
)

// FeatureScores holds the two scalar features computed from one normalized
// frame. Both are non-negative; there is no hidden state behind them.
type FeatureScores struct {
	Sharpness float64
	Contrast  float64
}

// ThresholdConfig carries the base classification thresholds for one
// invocation. The heavy sub-thresholds are derived, not configurable, so
// Heavy is always strictly more restrictive than Light.
type ThresholdConfig struct {
	Sharpness float64
	Contrast  float64
}

const (
	heavySharpnessDivisor = 2.5
	heavyContrastDivisor  = 2.0
)

// HeavySharpness returns the derived heavy-fog sharpness threshold.
func (t ThresholdConfig) HeavySharpness() float64 {
	return t.Sharpness / heavySharpnessDivisor
}

// HeavyContrast returns the derived heavy-fog contrast threshold.
func (t ThresholdConfig) HeavyContrast() float64 {
	return t.Contrast / heavyContrastDivisor
}

// Validate rejects non-positive or non-finite thresholds.
func (t ThresholdConfig) Validate() error {
	if !(t.Sharpness > 0) || math.IsInf(t.Sharpness, 0) {
		return fmt.Errorf("sharpness threshold must be a positive finite number (got %g)", t.Sharpness)
	}
	if !(t.Contrast > 0) || math.IsInf(t.Contrast, 0) {
		return fmt.Errorf("contrast threshold must be a positive finite number (got %g)", t.Contrast)
	}
	return nil
}

// Intensity is the severity tier of fog-like degradation.
type Intensity string

const (
	IntensityClear Intensity = "Clear"
	IntensityLight Intensity = "Light"
	IntensityHeavy Intensity = "Heavy"
)

// Classification is the outcome of the tiered classifier for one frame.
type Classification struct {
	Intensity   Intensity
	FogDetected bool
	Advice      string
	Message     string
}

// Assessment is the complete result of analyzing one frame. It is assembled
// once and never mutated afterwards.
type Assessment struct {
	Scores         FeatureScores
	Histogram      []float64
	Classification Classification
	Thresholds     ThresholdConfig
	Timestamp      time.Time
}

// Response converts the assessment into the externally visible record.
func (a Assessment) Response() models.FogDetectionResponse {
	return models.FogDetectionResponse{
		LaplacianVariance:      a.Scores.Sharpness,
		HistogramStdDev:        a.Scores.Contrast,
		FogDetected:            a.Classification.FogDetected,
		Intensity:              string(a.Classification.Intensity),
		Advice:                 a.Classification.Advice,
		Message:                a.Classification.Message,
		Timestamp:              a.Timestamp.UTC().Format(time.RFC3339),
		LaplacianThresholdUsed: a.Thresholds.Sharpness,
		StdDevThresholdUsed:    a.Thresholds.Contrast,
		Histogram:              a.Histogram,
	}
}
