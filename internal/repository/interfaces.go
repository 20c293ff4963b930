package repository

import (
	"context"

	"go-fog-detector/pkg/models"
)

// DetectionRepository is the result sink for classification records. It sits
// outside the analysis path: writes happen after the response is assembled
// and failures are never surfaced to callers.
type DetectionRepository interface {
	// SaveDetection persists one classification record.
	SaveDetection(ctx context.Context, rec *models.FogDetectionResponse) error

	// Close releases the underlying connection pool.
	Close() error
}
