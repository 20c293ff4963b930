package repository

import (
	"context"

	"go-fog-detector/pkg/models"
)

// NoopDetectionRepository discards all records. Used when detection logging
// is disabled.
type NoopDetectionRepository struct{}

// NewNoopDetectionRepository creates a sink that drops everything.
func NewNoopDetectionRepository() *NoopDetectionRepository {
	return &NoopDetectionRepository{}
}

func (r *NoopDetectionRepository) SaveDetection(ctx context.Context, rec *models.FogDetectionResponse) error {
	return nil
}

func (r *NoopDetectionRepository) Close() error {
	return nil
}
