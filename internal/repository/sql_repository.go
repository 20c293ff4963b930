package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"

	"go-fog-detector/pkg/models"
)

const detectionsSchema = `
CREATE TABLE IF NOT EXISTS fog_detections (
	id BIGSERIAL PRIMARY KEY,
	laplacian_variance DOUBLE PRECISION NOT NULL,
	histogram_std_dev DOUBLE PRECISION NOT NULL,
	fog_detected BOOLEAN NOT NULL,
	intensity TEXT NOT NULL,
	advice TEXT NOT NULL,
	laplacian_threshold DOUBLE PRECISION NOT NULL,
	std_dev_threshold DOUBLE PRECISION NOT NULL,
	detected_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_fog_detections_detected_at ON fog_detections(detected_at);
`

// SQLDetectionRepository persists detection records to Postgres through the
// pgx stdlib driver.
type SQLDetectionRepository struct {
	db *sql.DB
}

// NewSQLDetectionRepository opens the connection pool, verifies connectivity
// and ensures the detections table exists.
func NewSQLDetectionRepository(ctx context.Context, dsn string) (*SQLDetectionRepository, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, detectionsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create detections table: %w", err)
	}

	return &SQLDetectionRepository{db: db}, nil
}

// SaveDetection inserts one classification record. The histogram is not
// persisted; it is a per-frame diagnostic, not durable data.
func (r *SQLDetectionRepository) SaveDetection(ctx context.Context, rec *models.FogDetectionResponse) error {
	ts, err := time.Parse(time.RFC3339, rec.Timestamp)
	if err != nil {
		ts = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO fog_detections (
			laplacian_variance, histogram_std_dev, fog_detected, intensity,
			advice, laplacian_threshold, std_dev_threshold, detected_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.LaplacianVariance, rec.HistogramStdDev, rec.FogDetected, rec.Intensity,
		rec.Advice, rec.LaplacianThresholdUsed, rec.StdDevThresholdUsed, ts,
	)
	if err != nil {
		return fmt.Errorf("failed to insert detection: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (r *SQLDetectionRepository) Close() error {
	return r.db.Close()
}
