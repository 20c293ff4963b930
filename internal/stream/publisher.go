package stream

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"go-fog-detector/internal/logger"
	"go-fog-detector/internal/repository"
	"go-fog-detector/pkg/models"
)

// Publisher is the display/consumer boundary of the processing loop. The
// loop publishes exactly one update per processed frame, in acquisition
// order; Publish must not retain the update past its return.
type Publisher interface {
	Publish(update models.StreamUpdate)
}

// LogPublisher writes each update to the structured log. Used by the
// headless CLI in place of a UI.
type LogPublisher struct{}

// NewLogPublisher creates a publisher that logs every frame result.
func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Publish(update models.StreamUpdate) {
	logger.WithFields(logrus.Fields{
		"frame_index":        update.FrameIndex,
		"laplacian_variance": update.Result.LaplacianVariance,
		"histogram_std_dev":  update.Result.HistogramStdDev,
		"intensity":          update.Result.Intensity,
		"fog_detected":       update.Result.FogDetected,
		"frame_size":         update.FrameWidth,
	}).Info(update.StatusText)
}

// RepositoryPublisher forwards each update to the detection sink. Failures
// are logged and swallowed; persistence never stalls the loop for long.
type RepositoryPublisher struct {
	detections repository.DetectionRepository
	timeout    time.Duration
}

// NewRepositoryPublisher creates a sink-backed publisher.
func NewRepositoryPublisher(detections repository.DetectionRepository, timeout time.Duration) *RepositoryPublisher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RepositoryPublisher{detections: detections, timeout: timeout}
}

func (p *RepositoryPublisher) Publish(update models.StreamUpdate) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.detections.SaveDetection(ctx, &update.Result); err != nil {
		logger.WithError(err).WithField("frame_index", update.FrameIndex).
			Warn("Failed to persist stream detection")
	}
}

// MultiPublisher fans one update out to several consumers, in order.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(update models.StreamUpdate) {
	for _, p := range m {
		p.Publish(update)
	}
}
