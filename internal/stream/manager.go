package stream

import (
	"context"
	"sync"
	"time"

	"go-fog-detector/internal/analyzer"
	apperrors "go-fog-detector/internal/errors"
	"go-fog-detector/internal/logger"
	"go-fog-detector/pkg/models"
)

// RunnerFactory builds a fresh runner, acquiring a fresh capture resource.
type RunnerFactory func() (*Runner, error)

// Manager exposes start/stop control over a single live stream. Restarting
// after a stop builds a new runner; a stopped runner is never reused.
type Manager struct {
	mu      sync.Mutex
	factory RunnerFactory
	runner  *Runner
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewManager creates a stream manager around a runner factory.
func NewManager(factory RunnerFactory) *Manager {
	return &Manager{factory: factory}
}

// Start acquires the capture resource and launches the processing loop.
// An acquisition failure is reported to the caller and nothing starts.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// A launched loop counts as active until its done channel closes, even
	// if the goroutine has not reached Running yet. Keying on the runner
	// state here would let a rapid second Start slip past the guard and
	// orphan the first capture resource.
	if m.done != nil {
		select {
		case <-m.done:
		default:
			return apperrors.NewConflictError("stream is already running", nil)
		}
	}

	runner, err := m.factory()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	m.runner = runner
	m.cancel = cancel
	m.done = done

	go func() {
		defer close(done)
		if err := runner.Run(ctx); err != nil {
			logger.WithError(err).Error("Stream loop exited with error")
		}
	}()
	return nil
}

// Stop requests cooperative cancellation and waits for the loop to release
// its capture resource. The in-flight iteration always completes first.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.runner == nil || m.runner.State() == StateStopped {
		return apperrors.NewConflictError("stream is not running", nil)
	}

	m.cancel()

	select {
	case <-m.done:
	case <-time.After(30 * time.Second):
		logger.Warn("Stream shutdown is taking unusually long")
		<-m.done
	}
	return nil
}

// SetThresholds forwards a threshold update to the running loop.
func (m *Manager) SetThresholds(sharpness, contrast float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.runner == nil || m.runner.State() != StateRunning {
		return apperrors.NewConflictError("stream is not running", nil)
	}
	return m.runner.SetThresholds(analyzer.ThresholdConfig{Sharpness: sharpness, Contrast: contrast})
}

// Status reports the current loop state and, when available, the last
// published result.
func (m *Manager) Status() (string, *models.StreamUpdate) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.runner == nil {
		return StateIdle.String(), nil
	}
	state := m.runner.State().String()
	if update, ok := m.runner.LastUpdate(); ok {
		return state, &update
	}
	return state, nil
}

// Shutdown stops the stream if one is running. Used on process exit.
func (m *Manager) Shutdown() {
	if err := m.Stop(); err != nil && !apperrors.IsType(err, apperrors.ErrorTypeConflict) {
		logger.WithError(err).Warn("Failed to stop stream during shutdown")
	}
}
