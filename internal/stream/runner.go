package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"go-fog-detector/internal/analyzer"
	apperrors "go-fog-detector/internal/errors"
	"go-fog-detector/internal/logger"
	"go-fog-detector/pkg/models"
)

// State is the lifecycle state of a processing loop.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopping
	StateStopped
)

// String returns a readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// RunnerConfig carries the loop settings fixed at start.
type RunnerConfig struct {
	// ResizeWidth is the fixed downscale target for throughput.
	ResizeWidth int

	// Interval is the frame sampling interval.
	Interval time.Duration

	// Thresholds is the initial classification configuration; it may be
	// replaced between iterations via SetThresholds.
	Thresholds analyzer.ThresholdConfig
}

// Runner drives the repeated acquire-normalize-extract-classify-publish
// loop over a frame source. One runner owns its source exclusively for its
// entire running lifetime and publishes results in strict acquisition
// order. Runners are not restartable: once stopped, a fresh runner (and a
// fresh capture resource) is required.
type Runner struct {
	source     FrameSource
	analyzer   analyzer.FogAnalyzer
	publisher  Publisher
	cfg        RunnerConfig
	thresholds atomic.Value // analyzer.ThresholdConfig
	state      atomic.Int32
	lastUpdate atomic.Value // models.StreamUpdate
	releaseSrc sync.Once
}

// NewRunner acquires the capture resource and prepares the loop. An
// acquisition failure is fatal: it is returned and the loop never starts.
func NewRunner(open SourceOpener, fogAnalyzer analyzer.FogAnalyzer, publisher Publisher, cfg RunnerConfig) (*Runner, error) {
	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, apperrors.NewValidationError("invalid stream thresholds", err)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 200 * time.Millisecond
	}

	source, err := open()
	if err != nil {
		return nil, err
	}

	r := &Runner{
		source:    source,
		analyzer:  fogAnalyzer,
		publisher: publisher,
		cfg:       cfg,
	}
	r.thresholds.Store(cfg.Thresholds)
	r.state.Store(int32(StateIdle))
	return r, nil
}

// State returns the current lifecycle state.
func (r *Runner) State() State {
	return State(r.state.Load())
}

// SetThresholds replaces the classification thresholds. The loop reads the
// value once at each iteration start, so an update takes effect on the next
// frame, never mid-iteration. Invalid values are rejected.
func (r *Runner) SetThresholds(t analyzer.ThresholdConfig) error {
	if err := t.Validate(); err != nil {
		return apperrors.NewValidationError("invalid stream thresholds", err)
	}
	r.thresholds.Store(t)
	return nil
}

// Thresholds returns the thresholds currently in effect.
func (r *Runner) Thresholds() analyzer.ThresholdConfig {
	return r.thresholds.Load().(analyzer.ThresholdConfig)
}

// LastUpdate returns the most recently published update, if any.
func (r *Runner) LastUpdate() (models.StreamUpdate, bool) {
	v := r.lastUpdate.Load()
	if v == nil {
		return models.StreamUpdate{}, false
	}
	return v.(models.StreamUpdate), true
}

// Close releases the capture resource without running the loop. Run releases
// it itself; either way the release happens exactly once.
func (r *Runner) Close() error {
	var err error
	r.releaseSrc.Do(func() {
		err = r.source.Close()
	})
	return err
}

// Run drives the processing loop until the context is cancelled or
// acquisition fails unrecoverably. Cancellation is cooperative: it is
// observed at iteration boundaries only, so an in-flight iteration always
// finishes publishing before the capture resource is released. The resource
// is released exactly once on every exit path.
func (r *Runner) Run(ctx context.Context) error {
	if !r.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return apperrors.NewConflictError("stream loop already started; create a new runner", nil)
	}
	defer func() {
		r.state.Store(int32(StateStopping))
		if err := r.Close(); err != nil {
			logger.WithError(err).Warn("Failed to release capture resource")
		}
		r.state.Store(int32(StateStopped))
	}()

	logger.WithFields(logrus.Fields{
		"interval":     r.cfg.Interval,
		"resize_width": r.cfg.ResizeWidth,
	}).Info("Stream processing loop started")

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Stream processing loop cancelled")
			return nil
		case <-ticker.C:
		}

		frame, err := r.source.Next()
		if errors.Is(err, ErrNoFrame) {
			logger.Debug("No frame ready, skipping iteration")
			continue
		}
		if err != nil {
			logger.WithError(err).Error("Frame acquisition failed, stopping loop")
			return apperrors.NewAcquisitionError("frame acquisition failed", err)
		}

		r.processFrame(frame)
	}
}

// processFrame runs one full pipeline iteration. Analysis failures halt the
// current iteration only, never the loop.
func (r *Runner) processFrame(frame Frame) {
	thresholds := r.Thresholds()

	resized := downscale(frame.Image, r.cfg.ResizeWidth)
	assessment, err := r.analyzer.Analyze(resized, thresholds)
	if err != nil {
		logger.WithError(err).WithField("frame_index", frame.Index).
			Error("Frame analysis failed, skipping frame")
		return
	}

	bounds := resized.Bounds()
	update := models.StreamUpdate{
		Result: assessment.Response(),
		StatusText: fmt.Sprintf("%s (Laplacian Variance: %.2f / Threshold: %.2f)",
			assessment.Classification.Message, assessment.Scores.Sharpness, thresholds.Sharpness),
		FrameIndex:  frame.Index,
		FrameWidth:  bounds.Dx(),
		FrameHeight: bounds.Dy(),
	}

	r.lastUpdate.Store(update)
	r.publisher.Publish(update)
}
