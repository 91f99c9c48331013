package handler

import (
	"errors"
	"net/http"

	"tool-reconciliation-backend/internal/detection"

	"github.com/gin-gonic/gin"
)

type DetectionHandler struct {
	backend          detection.Backend
	remoteConfigured bool
	defaultThreshold float64
}

func NewDetectionHandler(backend detection.Backend, remoteConfigured bool, defaultThreshold float64) *DetectionHandler {
	if backend == nil {
		backend = detection.Unavailable{}
	}
	return &DetectionHandler{
		backend:          backend,
		remoteConfigured: remoteConfigured,
		defaultThreshold: defaultThreshold,
	}
}

type detectRequest struct {
	Image               string   `json:"image" binding:"required"`
	ConfidenceThreshold *float64 `json:"confidenceThreshold"`
}

// Detect runs detection directly, outside any operation. Failures surface as
// typed errors, never as fabricated results.
func (h *DetectionHandler) Detect(c *gin.Context) {
	var payload detectRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "detail": err.Error()})
		return
	}

	threshold := h.defaultThreshold
	if payload.ConfidenceThreshold != nil {
		threshold = *payload.ConfidenceThreshold
	}

	observations, err := h.backend.Detect(c.Request.Context(), payload.Image, threshold)
	if err != nil {
		switch {
		case errors.Is(err, detection.ErrUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no detection backend configured"})
		case errors.Is(err, detection.ErrInvalidImage):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image data"})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "detection failed"})
		}
		return
	}

	total := 0
	for _, obs := range observations {
		total += obs.Quantity
	}

	c.JSON(http.StatusOK, gin.H{
		"detectedTools": observations,
		"totalDetected": total,
	})
}

// Status reports whether a detection backend is usable.
func (h *DetectionHandler) Status(c *gin.Context) {
	_, unavailable := h.backend.(detection.Unavailable)
	c.JSON(http.StatusOK, gin.H{
		"detectionAvailable": !unavailable,
		"remoteConfigured":   h.remoteConfigured,
	})
}
