package stream

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go-fog-detector/internal/analyzer"
	apperrors "go-fog-detector/internal/errors"
	"go-fog-detector/pkg/models"
)

// fakeSource serves synthetic frames and records how it was used.
type fakeSource struct {
	mu         sync.Mutex
	index      int64
	missEvery  int   // every Nth call reports a transient miss
	failAfter  int64 // after this many frames, Next fails hard (0 = never)
	calls      int
	closeCount int32
}

func (s *fakeSource) Next() (Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.missEvery > 0 && s.calls%s.missEvery == 0 {
		return Frame{}, ErrNoFrame
	}
	if s.failAfter > 0 && s.index >= s.failAfter {
		return Frame{}, errors.New("capture device unplugged")
	}

	s.index++
	img := image.NewGray(image.Rect(0, 0, 32, 24))
	for i := range img.Pix {
		img.Pix[i] = uint8((i + int(s.index)) % 256)
	}
	return Frame{Image: img, Index: s.index, Timestamp: time.Now()}, nil
}

func (s *fakeSource) Close() error {
	atomic.AddInt32(&s.closeCount, 1)
	return nil
}

func (s *fakeSource) closes() int32 {
	return atomic.LoadInt32(&s.closeCount)
}

// collectingPublisher records updates and optionally cancels the loop once
// enough have arrived. It also snapshots whether the source had been closed
// at publish time, to verify release ordering.
type collectingPublisher struct {
	mu          sync.Mutex
	updates     []models.StreamUpdate
	closedAtPub []int32
	source      *fakeSource
	cancelAt    int
	cancel      context.CancelFunc
}

func (p *collectingPublisher) Publish(update models.StreamUpdate) {
	p.mu.Lock()
	p.updates = append(p.updates, update)
	p.closedAtPub = append(p.closedAtPub, p.source.closes())
	n := len(p.updates)
	p.mu.Unlock()

	if p.cancelAt > 0 && n >= p.cancelAt {
		p.cancel()
	}
}

func (p *collectingPublisher) all() []models.StreamUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.StreamUpdate(nil), p.updates...)
}

func testThresholds() analyzer.ThresholdConfig {
	return analyzer.ThresholdConfig{Sharpness: 250, Contrast: 40}
}

func newTestRunner(t *testing.T, source *fakeSource, pub Publisher, cfg RunnerConfig) *Runner {
	t.Helper()
	fa := analyzer.NewFogAnalyzer()
	t.Cleanup(func() { fa.Close() })

	runner, err := NewRunner(func() (FrameSource, error) { return source, nil }, fa, pub, cfg)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	return runner
}

func TestRunner_PublishesInAcquisitionOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := &fakeSource{}
	pub := &collectingPublisher{source: source, cancelAt: 5, cancel: cancel}
	runner := newTestRunner(t, source, pub, RunnerConfig{
		Interval:   time.Millisecond,
		Thresholds: testThresholds(),
	})

	if err := runner.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	updates := pub.all()
	if len(updates) < 5 {
		t.Fatalf("Expected at least 5 published updates, got %d", len(updates))
	}
	for i := 1; i < len(updates); i++ {
		if updates[i].FrameIndex <= updates[i-1].FrameIndex {
			t.Fatalf("Frame order violated: index %d after %d", updates[i].FrameIndex, updates[i-1].FrameIndex)
		}
	}
	if runner.State() != StateStopped {
		t.Errorf("Expected state %v after Run, got %v", StateStopped, runner.State())
	}
}

func TestRunner_SourceReleasedOnceAfterLastPublish(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := &fakeSource{}
	pub := &collectingPublisher{source: source, cancelAt: 3, cancel: cancel}
	runner := newTestRunner(t, source, pub, RunnerConfig{
		Interval:   time.Millisecond,
		Thresholds: testThresholds(),
	})

	if err := runner.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := source.closes(); got != 1 {
		t.Errorf("Expected the source closed exactly once, got %d", got)
	}

	// Every publish must have happened before the source was released.
	pub.mu.Lock()
	defer pub.mu.Unlock()
	for i, closed := range pub.closedAtPub {
		if closed != 0 {
			t.Errorf("Update %d was published after the source was released", i)
		}
	}
}

func TestRunner_TransientMissSkipsIteration(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := &fakeSource{missEvery: 2}
	pub := &collectingPublisher{source: source, cancelAt: 4, cancel: cancel}
	runner := newTestRunner(t, source, pub, RunnerConfig{
		Interval:   time.Millisecond,
		Thresholds: testThresholds(),
	})

	if err := runner.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v, transient misses must not be fatal", err)
	}
	if len(pub.all()) < 4 {
		t.Errorf("Expected the loop to keep producing despite misses, got %d updates", len(pub.all()))
	}
}

func TestRunner_FatalAcquisitionStopsLoop(t *testing.T) {
	source := &fakeSource{failAfter: 2}
	pub := &collectingPublisher{source: source}
	runner := newTestRunner(t, source, pub, RunnerConfig{
		Interval:   time.Millisecond,
		Thresholds: testThresholds(),
	})

	err := runner.Run(context.Background())
	if err == nil {
		t.Fatal("Expected an acquisition error")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeAcquisition) {
		t.Errorf("Expected acquisition error type, got %v", err)
	}
	if got := source.closes(); got != 1 {
		t.Errorf("Expected the source closed exactly once, got %d", got)
	}
	if len(pub.all()) != 2 {
		t.Errorf("Expected 2 updates before the failure, got %d", len(pub.all()))
	}
	if runner.State() != StateStopped {
		t.Errorf("Expected state %v, got %v", StateStopped, runner.State())
	}
}

func TestRunner_NotRestartable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := &fakeSource{}
	pub := &collectingPublisher{source: source, cancelAt: 1, cancel: cancel}
	runner := newTestRunner(t, source, pub, RunnerConfig{
		Interval:   time.Millisecond,
		Thresholds: testThresholds(),
	})

	if err := runner.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	err := runner.Run(context.Background())
	if err == nil {
		t.Fatal("Expected a second Run to be rejected")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeConflict) {
		t.Errorf("Expected conflict error type, got %v", err)
	}
	if got := source.closes(); got != 1 {
		t.Errorf("Rejected restart must not release the source again, got %d closes", got)
	}
}

func TestRunner_OpenFailureIsFatal(t *testing.T) {
	fa := analyzer.NewFogAnalyzer()
	defer fa.Close()

	open := func() (FrameSource, error) {
		return nil, apperrors.NewAcquisitionError("camera busy", nil)
	}
	_, err := NewRunner(open, fa, &collectingPublisher{source: &fakeSource{}}, RunnerConfig{
		Thresholds: testThresholds(),
	})
	if err == nil {
		t.Fatal("Expected the open failure to be returned")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeAcquisition) {
		t.Errorf("Expected acquisition error type, got %v", err)
	}
}

func TestRunner_RejectsInvalidThresholds(t *testing.T) {
	fa := analyzer.NewFogAnalyzer()
	defer fa.Close()

	source := &fakeSource{}
	_, err := NewRunner(func() (FrameSource, error) { return source, nil }, fa,
		&collectingPublisher{source: source}, RunnerConfig{
			Thresholds: analyzer.ThresholdConfig{Sharpness: -1, Contrast: 40},
		})
	if err == nil {
		t.Fatal("Expected invalid thresholds to be rejected")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("Expected validation error type, got %v", err)
	}
	if source.closes() != 0 {
		t.Error("The source must not be opened when validation fails")
	}
}

func TestRunner_SetThresholds(t *testing.T) {
	source := &fakeSource{}
	runner := newTestRunner(t, source, &collectingPublisher{source: source}, RunnerConfig{
		Thresholds: testThresholds(),
	})
	defer runner.Close()

	next := analyzer.ThresholdConfig{Sharpness: 300, Contrast: 55}
	if err := runner.SetThresholds(next); err != nil {
		t.Fatalf("SetThresholds() error = %v", err)
	}
	if got := runner.Thresholds(); got != next {
		t.Errorf("Thresholds() = %+v, want %+v", got, next)
	}

	if err := runner.SetThresholds(analyzer.ThresholdConfig{Sharpness: 0, Contrast: 55}); err == nil {
		t.Fatal("Expected invalid thresholds to be rejected")
	}
	if got := runner.Thresholds(); got != next {
		t.Errorf("Rejected update must leave thresholds unchanged, got %+v", got)
	}
}

func TestRunner_LastUpdate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := &fakeSource{}
	pub := &collectingPublisher{source: source, cancelAt: 2, cancel: cancel}
	runner := newTestRunner(t, source, pub, RunnerConfig{
		Interval:   time.Millisecond,
		Thresholds: testThresholds(),
	})

	if _, ok := runner.LastUpdate(); ok {
		t.Error("Expected no last update before the loop runs")
	}

	if err := runner.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	last, ok := runner.LastUpdate()
	if !ok {
		t.Fatal("Expected a last update after publishing")
	}
	updates := pub.all()
	if last.FrameIndex != updates[len(updates)-1].FrameIndex {
		t.Errorf("LastUpdate frame %d does not match final published frame %d",
			last.FrameIndex, updates[len(updates)-1].FrameIndex)
	}
	if last.StatusText == "" {
		t.Error("Expected a populated status text")
	}
}

func TestRunner_DownscalesFrames(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := &fakeSource{}
	pub := &collectingPublisher{source: source, cancelAt: 1, cancel: cancel}
	runner := newTestRunner(t, source, pub, RunnerConfig{
		ResizeWidth: 16,
		Interval:    time.Millisecond,
		Thresholds:  testThresholds(),
	})

	if err := runner.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	updates := pub.all()
	if updates[0].FrameWidth != 16 {
		t.Errorf("Expected frames downscaled to width 16, got %d", updates[0].FrameWidth)
	}
	if updates[0].FrameHeight != 12 {
		t.Errorf("Expected aspect-preserving height 12, got %d", updates[0].FrameHeight)
	}
}
