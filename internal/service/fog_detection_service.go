package service

import (
	"context"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"go-fog-detector/internal/analyzer"
	apperrors "go-fog-detector/internal/errors"
	"go-fog-detector/internal/logger"
	"go-fog-detector/internal/repository"
	"go-fog-detector/internal/storage"
	"go-fog-detector/pkg/models"
)

// FogDetectionService orchestrates single-shot analyses: decode, normalize,
// extract, classify, assemble the result. Safe for concurrent use; the
// engine holds no shared mutable state between invocations.
type FogDetectionService interface {
	// DetectFromBytes analyzes one uploaded image.
	DetectFromBytes(ctx context.Context, data []byte, thresholds analyzer.ThresholdConfig) (*models.FogDetectionResponse, error)

	// DetectFromURL fetches a remote image and analyzes it.
	DetectFromURL(ctx context.Context, imageURL string, thresholds analyzer.ThresholdConfig) (*models.FogDetectionResponse, error)

	// DefaultThresholds returns the configured threshold defaults.
	DefaultThresholds() analyzer.ThresholdConfig
}

type fogDetectionService struct {
	decoder    storage.ImageDecoder
	fetcher    storage.ImageFetcher
	analyzer   analyzer.FogAnalyzer
	detections repository.DetectionRepository
	defaults   analyzer.ThresholdConfig
}

// NewFogDetectionService creates the single-shot analysis service.
func NewFogDetectionService(
	decoder storage.ImageDecoder,
	fetcher storage.ImageFetcher,
	fogAnalyzer analyzer.FogAnalyzer,
	detections repository.DetectionRepository,
	defaults analyzer.ThresholdConfig,
) FogDetectionService {
	return &fogDetectionService{
		decoder:    decoder,
		fetcher:    fetcher,
		analyzer:   fogAnalyzer,
		detections: detections,
		defaults:   defaults,
	}
}

func (s *fogDetectionService) DefaultThresholds() analyzer.ThresholdConfig {
	return s.defaults
}

func (s *fogDetectionService) DetectFromBytes(ctx context.Context, data []byte, thresholds analyzer.ThresholdConfig) (*models.FogDetectionResponse, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, apperrors.NewValidationError("invalid thresholds", err)
	}

	img, err := s.decoder.Decode(data)
	if err != nil {
		return nil, err
	}

	assessment, err := s.analyzer.Analyze(img, thresholds)
	if err != nil {
		return nil, err
	}

	response := assessment.Response()
	s.logDetection(len(data), &response)
	s.recordDetection(&response)
	return &response, nil
}

func (s *fogDetectionService) DetectFromURL(ctx context.Context, imageURL string, thresholds analyzer.ThresholdConfig) (*models.FogDetectionResponse, error) {
	parsed, err := url.Parse(imageURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, apperrors.NewValidationError("invalid image URL", err)
	}

	data, err := s.fetcher.FetchImage(ctx, imageURL)
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to fetch image", err)
	}
	return s.DetectFromBytes(ctx, data, thresholds)
}

// logDetection emits the per-invocation structured record. Logging is
// observability only; it must never block or fail the response path.
func (s *fogDetectionService) logDetection(payloadSize int, rec *models.FogDetectionResponse) {
	logger.WithFields(logrus.Fields{
		"payload_bytes":       payloadSize,
		"laplacian_variance":  rec.LaplacianVariance,
		"histogram_std_dev":   rec.HistogramStdDev,
		"fog_detected":        rec.FogDetected,
		"intensity":           rec.Intensity,
		"laplacian_threshold": rec.LaplacianThresholdUsed,
		"std_dev_threshold":   rec.StdDevThresholdUsed,
	}).Info("Fog detection completed")
}

// recordDetection hands the result to the sink off the response path.
// Sink failures are logged and swallowed.
func (s *fogDetectionService) recordDetection(rec *models.FogDetectionResponse) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.detections.SaveDetection(ctx, rec); err != nil {
			logger.WithError(err).Warn("Failed to persist detection record")
		}
	}()
}
