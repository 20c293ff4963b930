package container

import (
	"context"
	"net/http"
	"time"

	"go-fog-detector/internal/analyzer"
	"go-fog-detector/internal/config"
	"go-fog-detector/internal/logger"
	"go-fog-detector/internal/repository"
	"go-fog-detector/internal/service"
	"go-fog-detector/internal/storage"
	"go-fog-detector/internal/stream"
	"go-fog-detector/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config     *config.Config
	analyzer   analyzer.FogAnalyzer
	detections repository.DetectionRepository
	detector   service.FogDetectionService
	hub        *transport.Hub
	streams    *stream.Manager
	handler    http.Handler
}

// NewContainer builds the dependency graph from configuration.
func NewContainer(cfg *config.Config) (*Container, error) {
	logger.SetLevel(cfg.LogLevel)

	detections, err := newDetectionRepository(cfg)
	if err != nil {
		return nil, err
	}

	fogAnalyzer := analyzer.NewFogAnalyzer()
	decoder := storage.NewStdImageDecoder()
	fetcher := storage.NewHTTPImageFetcher(cfg.ImageFetchTimeout, cfg.MaxRequestBodySize)

	defaults := analyzer.ThresholdConfig{
		Sharpness: cfg.LaplacianThreshold,
		Contrast:  cfg.HistStdDevThreshold,
	}

	detector := service.NewFogDetectionService(decoder, fetcher, fogAnalyzer, detections, defaults)

	hub := transport.NewHub()
	publisher := stream.MultiPublisher{hub, stream.NewRepositoryPublisher(detections, 5*time.Second)}

	streams := stream.NewManager(func() (*stream.Runner, error) {
		return stream.NewRunner(
			stream.CameraOpener(cfg.CameraDevice),
			fogAnalyzer,
			publisher,
			stream.RunnerConfig{
				ResizeWidth: cfg.ResizeWidth,
				Interval:    cfg.FrameInterval,
				Thresholds:  defaults,
			},
		)
	})

	handler := transport.NewHandler(detector, streams, hub, cfg)

	return &Container{
		config:     cfg,
		analyzer:   fogAnalyzer,
		detections: detections,
		detector:   detector,
		hub:        hub,
		streams:    streams,
		handler:    handler,
	}, nil
}

// newDetectionRepository picks the configured result sink. With logging
// disabled the noop sink keeps the rest of the wiring uniform.
func newDetectionRepository(cfg *config.Config) (repository.DetectionRepository, error) {
	if !cfg.DetectionLogEnabled() {
		return repository.NewNoopDetectionRepository(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return repository.NewSQLDetectionRepository(ctx, cfg.DatabaseDSN)
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Streams returns the stream manager
func (c *Container) Streams() *stream.Manager {
	return c.streams
}

// Close releases long-lived resources in reverse dependency order.
func (c *Container) Close() {
	c.streams.Shutdown()
	if err := c.analyzer.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close analyzer")
	}
	if err := c.detections.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close detection repository")
	}
}
