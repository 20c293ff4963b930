package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the full process configuration. It is read once at startup
// and never mutated afterwards.
type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	MaxRequestBodySize int64

	// Default classification thresholds; callers may override per request.
	LaplacianThreshold  float64
	HistStdDevThreshold float64

	// Streaming settings. CameraDevice is an index ("0") or a device path /
	// stream URL; ResizeWidth is the fixed downscale target for throughput.
	CameraDevice  string
	ResizeWidth   int
	FrameInterval time.Duration

	// Optional detection logging to a database. Disabled unless both the
	// flag is set and a DSN is supplied.
	DatabaseDSN        string
	EnableDetectionLog bool

	LogLevel string
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// DetectionLogEnabled reports whether results should be persisted.
func (c *Config) DetectionLogEnabled() bool {
	return c.EnableDetectionLog && c.DatabaseDSN != ""
}

// LoadFromEnv reads configuration from the environment, applying defaults
// for anything unset. A .env file in the working directory is honored when
// present.
func LoadFromEnv() (*Config, error) {
	// Missing .env is fine; the system environment is used as-is.
	_ = godotenv.Load()

	cfg := &Config{
		Host:                getEnvOrDefault("HOST", "0.0.0.0"),
		Port:                getEnvOrDefault("PORT", "8080"),
		RequestTimeout:      parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		ImageFetchTimeout:   parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		MaxRequestBodySize:  parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB
		LaplacianThreshold:  parseFloatOrDefault("LAPLACIAN_THRESHOLD", 250.0),
		HistStdDevThreshold: parseFloatOrDefault("HIST_STD_DEV_THRESHOLD", 40.0),
		CameraDevice:        getEnvOrDefault("CAMERA_DEVICE", "0"),
		ResizeWidth:         int(parseIntOrDefault("RESIZE_WIDTH", 640)),
		FrameInterval:       parseDurationOrDefault("FRAME_INTERVAL", 200*time.Millisecond),
		DatabaseDSN:         getEnvOrDefault("DATABASE_DSN", ""),
		EnableDetectionLog:  parseBoolOrDefault("ENABLE_DETECTION_LOG", false),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
	}

	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.ImageFetchTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s)",
			cfg.RequestTimeout, cfg.ImageFetchTimeout)
	}
	if cfg.LaplacianThreshold <= 0 || cfg.HistStdDevThreshold <= 0 {
		return nil, fmt.Errorf("thresholds must be > 0 (got laplacian=%g, std_dev=%g)",
			cfg.LaplacianThreshold, cfg.HistStdDevThreshold)
	}
	if cfg.ResizeWidth <= 0 {
		return nil, fmt.Errorf("RESIZE_WIDTH must be > 0 (got %d)", cfg.ResizeWidth)
	}
	if cfg.FrameInterval <= 0 {
		return nil, fmt.Errorf("FRAME_INTERVAL must be > 0 (got %s)", cfg.FrameInterval)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
