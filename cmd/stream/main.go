// Command stream runs the fog detection loop against a live camera and
// logs one classification per frame. Intended for headless deployments
// where no HTTP frontend is attached.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"go-fog-detector/internal/analyzer"
	"go-fog-detector/internal/config"
	"go-fog-detector/internal/logger"
	"go-fog-detector/internal/repository"
	"go-fog-detector/internal/stream"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	logger.WithFields(logrus.Fields{
		"camera_device":  cfg.CameraDevice,
		"resize_width":   cfg.ResizeWidth,
		"frame_interval": cfg.FrameInterval,
	}).Info("Starting fog detection stream")

	fogAnalyzer := analyzer.NewFogAnalyzer()
	defer fogAnalyzer.Close()

	detections, err := newDetectionRepository(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open detection repository")
	}
	defer detections.Close()

	publisher := stream.MultiPublisher{
		stream.NewLogPublisher(),
		stream.NewRepositoryPublisher(detections, 5*time.Second),
	}

	runner, err := stream.NewRunner(
		stream.CameraOpener(cfg.CameraDevice),
		fogAnalyzer,
		publisher,
		stream.RunnerConfig{
			ResizeWidth: cfg.ResizeWidth,
			Interval:    cfg.FrameInterval,
			Thresholds: analyzer.ThresholdConfig{
				Sharpness: cfg.LaplacianThreshold,
				Contrast:  cfg.HistStdDevThreshold,
			},
		},
	)
	if err != nil {
		logger.WithError(err).Fatal("Failed to start stream")
	}

	// Cancel the loop on SIGINT/SIGTERM; the in-flight frame finishes first.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Received shutdown signal, stopping...")
		cancel()
	}()

	if err := runner.Run(ctx); err != nil {
		logger.WithError(err).Error("Stream loop failed")
		os.Exit(1)
	}

	logger.Info("Fog detection stream stopped")
}

func newDetectionRepository(cfg *config.Config) (repository.DetectionRepository, error) {
	if !cfg.DetectionLogEnabled() {
		return repository.NewNoopDetectionRepository(), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return repository.NewSQLDetectionRepository(ctx, cfg.DatabaseDSN)
}
