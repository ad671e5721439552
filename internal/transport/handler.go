package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-script-validator/internal/config"
	apperrors "go-script-validator/internal/errors"
	"go-script-validator/internal/logger"
	"go-script-validator/internal/observer"
	"go-script-validator/internal/service"
	"go-script-validator/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Version is reported by /health
const Version = "1.0.0"

// StatsProvider exposes processing counters
type StatsProvider interface {
	GetStats() observer.Stats
}

func NewHandler(svc service.ExtractionService, stats StatsProvider, cfg *config.Config) http.Handler {
	r := gin.New()

	// Add middleware
	r.Use(
		gin.Recovery(),
		requestLogger(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)
	r.POST("/extract", extractMetadata(svc, cfg))
	r.POST("/validate", validateMetadata(svc))
	r.GET("/stats", processingStats(stats))

	return r
}

func extractMetadata(svc service.ExtractionService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req models.ExtractRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"ip": c.ClientIP(),
			}).Error("Invalid request format")
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		upload := cfg.Store.Type != config.StoreNone
		if req.Upload != nil {
			upload = *req.Upload
		}

		record, err := svc.Process(ctx, service.ProcessRequest{
			Source: req.FilePath,
			Upload: upload,
		})
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && !apperrors.IsType(err, apperrors.ErrorTypeTimeout) {
				err = apperrors.NewTimeoutError("extraction timed out", err)
			}
			respondError(c, determineStatusCode(err), "extraction failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"request_id":         record.RequestID,
			"file_path":          req.FilePath,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
			"valid":              record.Validation.Valid,
			"degraded":           record.Degraded,
		}).Info("Extraction completed successfully")

		c.JSON(http.StatusOK, models.ExtractResponse{
			Status:       record.Status,
			RequestID:    record.RequestID,
			Metadata:     record.Metadata,
			Validation:   record.Validation,
			PDFCID:       record.PDFCID,
			PDFPath:      record.PDFPath,
			MetadataPath: record.MetadataPath,
			Timestamp:    record.Timestamp,
			Confidence:   record.Confidence,
			Degraded:     record.Degraded,
		})
	}
}

func validateMetadata(svc service.ExtractionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ValidateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}
		c.JSON(http.StatusOK, svc.ValidateMetadata(req))
	}
}

func processingStats(stats StatsProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, stats.GetStats())
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
		}).Debug("Request handled")
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err.Err), "request processing failed", err.Err)
		}
	}
}

func determineStatusCode(err error) int {
	// Check if it's a custom app error first
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	// Log the error with context
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
