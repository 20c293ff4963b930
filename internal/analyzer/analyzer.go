package analyzer

import (
	"image"
	"sync"
	"time"
)

// FogAnalyzer runs the full frame analysis pipeline: normalization, feature
// extraction and classification. Implementations are safe for concurrent use;
// all per-frame state is caller-owned.
type FogAnalyzer interface {
	Analyze(img image.Image, thresholds ThresholdConfig) (Assessment, error)
	Close() error
}

type fogAnalyzer struct {
	pool      *WorkerPool
	sharpness *SharpnessExtractor
	contrast  *ContrastExtractor
}

// NewFogAnalyzer creates an analyzer with a shared worker pool for the two
// feature extractors.
func NewFogAnalyzer() FogAnalyzer {
	pool := NewWorkerPool(0) // default CPU count
	pool.Start()

	return &fogAnalyzer{
		pool:      pool,
		sharpness: NewSharpnessExtractor(),
		contrast:  NewContrastExtractor(),
	}
}

// Analyze normalizes the frame, extracts both features concurrently and
// classifies the result. The only error is an upstream decode failure from
// normalization.
func (fa *fogAnalyzer) Analyze(img image.Image, thresholds ThresholdConfig) (Assessment, error) {
	gray, err := Normalize(img)
	if err != nil {
		return Assessment{}, err
	}

	var (
		wg         sync.WaitGroup
		sharpness  float64
		histogram  []float64
		contrastSD float64
	)

	wg.Add(2)
	fa.pool.Submit(func() {
		defer wg.Done()
		sharpness = fa.sharpness.Score(gray)
	})
	fa.pool.Submit(func() {
		defer wg.Done()
		histogram, contrastSD = fa.contrast.Histogram(gray)
	})
	wg.Wait()

	scores := FeatureScores{Sharpness: sharpness, Contrast: contrastSD}

	return Assessment{
		Scores:         scores,
		Histogram:      histogram,
		Classification: Classify(scores, thresholds),
		Thresholds:     thresholds,
		Timestamp:      time.Now().UTC(),
	}, nil
}

// Close releases the worker pool.
func (fa *fogAnalyzer) Close() error {
	fa.pool.Close()
	return nil
}
