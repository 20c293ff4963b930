package transport

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-fog-detector/internal/analyzer"
	"go-fog-detector/internal/config"
	apperrors "go-fog-detector/internal/errors"
	"go-fog-detector/internal/logger"
	"go-fog-detector/internal/service"
	"go-fog-detector/internal/stream"
	"go-fog-detector/pkg/models"
	"go-fog-detector/pkg/validation"
)

// URLAnalysisRequest is the body of the analyze-by-URL operation.
type URLAnalysisRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// ThresholdUpdateRequest adjusts the live stream's thresholds.
type ThresholdUpdateRequest struct {
	LaplacianThreshold float64 `json:"laplacian_threshold" binding:"required"`
	StdDevThreshold    float64 `json:"std_dev_threshold" binding:"required"`
}

// NewHandler wires all HTTP routes.
func NewHandler(detector service.FogDetectionService, streams *stream.Manager, hub *Hub, cfg *config.Config) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestSizeLimiter(cfg.MaxRequestBodySize))

	r.GET("/health", healthCheck)
	r.POST("/detect-fog", detectFog(detector))
	r.POST("/detect-fog-url", detectFogURL(detector))

	r.POST("/stream/start", startStream(streams))
	r.POST("/stream/stop", stopStream(streams))
	r.GET("/stream/status", streamStatus(streams))
	r.PUT("/stream/thresholds", updateStreamThresholds(streams))
	r.GET("/ws", func(c *gin.Context) {
		hub.HandleConnection(c.Writer, c.Request)
	})

	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// detectFog analyzes one uploaded image file.
func detectFog(detector service.FogDetectionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		thresholds, err := parseThresholds(c, detector.DefaultThresholds())
		if err != nil {
			respondError(c, err)
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			respondError(c, apperrors.NewValidationError("missing image file in upload", err))
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, apperrors.NewValidationError("could not open uploaded file", err))
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			respondError(c, apperrors.NewValidationError("could not read uploaded file", err))
			return
		}

		result, err := detector.DetectFromBytes(c.Request.Context(), data, thresholds)
		if err != nil {
			respondError(c, err)
			return
		}

		logger.WithFields(logrus.Fields{
			"filename":           fileHeader.Filename,
			"size_bytes":         fileHeader.Size,
			"intensity":          result.Intensity,
			"processing_time_ms": time.Since(start).Milliseconds(),
			"ip":                 c.ClientIP(),
		}).Info("Fog detection request completed")

		c.JSON(http.StatusOK, result)
	}
}

// detectFogURL analyzes a remote image referenced by URL.
func detectFogURL(detector service.FogDetectionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		thresholds, err := parseThresholds(c, detector.DefaultThresholds())
		if err != nil {
			respondError(c, err)
			return
		}

		var req URLAnalysisRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, apperrors.NewValidationError("invalid request format", err))
			return
		}

		result, err := detector.DetectFromURL(c.Request.Context(), req.URL, thresholds)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func startStream(streams *stream.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := streams.Start(); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "started"})
	}
}

func stopStream(streams *stream.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := streams.Stop(); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "stopped"})
	}
}

func streamStatus(streams *stream.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, last := streams.Status()
		body := gin.H{"state": state}
		if last != nil {
			body["last_result"] = last
		}
		c.JSON(http.StatusOK, body)
	}
}

func updateStreamThresholds(streams *stream.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ThresholdUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, apperrors.NewValidationError("invalid request format", err))
			return
		}
		if err := streams.SetThresholds(req.LaplacianThreshold, req.StdDevThreshold); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "updated"})
	}
}

// parseThresholds reads the optional threshold query parameters, falling
// back to the configured defaults.
func parseThresholds(c *gin.Context, defaults analyzer.ThresholdConfig) (analyzer.ThresholdConfig, error) {
	thresholds := defaults

	if raw := c.Query("laplacian_threshold"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return thresholds, apperrors.NewValidationError("laplacian_threshold must be a number", err)
		}
		if err := validation.ValidateThreshold("laplacian_threshold", value); err != nil {
			return thresholds, apperrors.NewValidationError(err.Error(), nil)
		}
		thresholds.Sharpness = value
	}

	if raw := c.Query("std_dev_threshold"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return thresholds, apperrors.NewValidationError("std_dev_threshold must be a number", err)
		}
		if err := validation.ValidateThreshold("std_dev_threshold", value); err != nil {
			return thresholds, apperrors.NewValidationError(err.Error(), nil)
		}
		thresholds.Contrast = value
	}

	return thresholds, nil
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// respondError maps an error onto its HTTP status and logs it. Unknown
// errors surface as a generic server error; the process never crashes on a
// request failure.
func respondError(c *gin.Context, err error) {
	code := apperrors.GetStatusCode(err)

	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	message := "internal server error"
	if appErr, ok := err.(*apperrors.AppError); ok {
		message = appErr.Message
		if appErr.Cause != nil && code < http.StatusInternalServerError {
			message = fmt.Sprintf("%s: %v", appErr.Message, appErr.Cause)
		}
	}

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: message,
	})
}
