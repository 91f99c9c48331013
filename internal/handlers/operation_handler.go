package handler

import (
	"errors"
	"net/http"

	"tool-reconciliation-backend/internal/detection"
	"tool-reconciliation-backend/internal/repository"
	"tool-reconciliation-backend/internal/services/lifecycle"

	"github.com/gin-gonic/gin"
)

type OperationHandler struct {
	service *lifecycle.Service
}

func NewOperationHandler(s *lifecycle.Service) *OperationHandler {
	return &OperationHandler{service: s}
}

type startItemRequest struct {
	ToolID   *uint  `json:"toolId"`
	ToolName string `json:"toolName"`
	Quantity int    `json:"quantity"`
}

type startRequest struct {
	EngineerID   string             `json:"engineerId" binding:"required"`
	EngineerName string             `json:"engineerName"`
	Kind         string             `json:"kind" binding:"required,oneof=checkout checkin"`
	Items        []startItemRequest `json:"items"`
}

// Start begins a checkout or checkin operation and records its issued items.
func (h *OperationHandler) Start(c *gin.Context) {
	var payload startRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "detail": err.Error()})
		return
	}

	lines := make([]repository.ItemLine, 0, len(payload.Items))
	for _, item := range payload.Items {
		lines = append(lines, repository.ItemLine{
			ToolID:   item.ToolID,
			ToolName: item.ToolName,
			Quantity: item.Quantity,
		})
	}

	result, err := h.service.Start(lifecycle.StartInput{
		EngineerID:   payload.EngineerID,
		EngineerName: payload.EngineerName,
		Kind:         payload.Kind,
		Items:        lines,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start operation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionToken": result.SessionToken,
		"operationId":  result.OperationID,
		"itemsSaved":   result.ItemsSaved,
	})
}

type acceptedToolRequest struct {
	Name     string `json:"name" binding:"required"`
	Quantity int    `json:"quantity"`
}

type confirmRequest struct {
	SessionToken        string                `json:"sessionToken" binding:"required"`
	Image               string                `json:"image"`
	ConfidenceThreshold *float64              `json:"confidenceThreshold"`
	AcceptedTools       []acceptedToolRequest `json:"acceptedTools"`
}

// Confirm completes an operation and returns the reconciliation report.
func (h *OperationHandler) Confirm(c *gin.Context) {
	var payload confirmRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "detail": err.Error()})
		return
	}

	accepted := make([]lifecycle.AcceptedTool, 0, len(payload.AcceptedTools))
	for _, tool := range payload.AcceptedTools {
		accepted = append(accepted, lifecycle.AcceptedTool{Name: tool.Name, Quantity: tool.Quantity})
	}

	report, err := h.service.Confirm(c.Request.Context(), lifecycle.ConfirmInput{
		SessionToken:        payload.SessionToken,
		ImageBase64:         payload.Image,
		ConfidenceThreshold: payload.ConfidenceThreshold,
		AcceptedTools:       accepted,
	})
	if err != nil {
		status, message := confirmErrorStatus(err)
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, report)
}

func confirmErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, lifecycle.ErrOperationNotFound):
		return http.StatusNotFound, "operation not found"
	case errors.Is(err, lifecycle.ErrAlreadyCompleted):
		return http.StatusConflict, "operation already completed"
	case errors.Is(err, detection.ErrUnavailable):
		return http.StatusServiceUnavailable, "no detection backend configured"
	case errors.Is(err, detection.ErrInvalidImage):
		return http.StatusBadRequest, "invalid image data"
	case errors.Is(err, detection.ErrFailed):
		return http.StatusBadGateway, "detection failed"
	default:
		return http.StatusInternalServerError, "failed to confirm operation"
	}
}
