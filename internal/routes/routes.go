package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tool-reconciliation-backend/internal/config"
	"tool-reconciliation-backend/internal/detection"
	handler "tool-reconciliation-backend/internal/handlers"
	"tool-reconciliation-backend/internal/repository"
	"tool-reconciliation-backend/internal/services/lifecycle"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, backend detection.Backend, cfg config.DetectionConfig, log *logrus.Logger) {
	opRepo := repository.NewOperationRepository(db)
	itemRepo := repository.NewIssuedItemRepository(db)
	toolRepo := repository.NewToolRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	lifecycleService := lifecycle.NewService(
		opRepo,
		itemRepo,
		toolRepo,
		auditRepo,
		backend,
		log,
		cfg.DefaultThreshold,
	)

	opHandler := handler.NewOperationHandler(lifecycleService)
	detectionHandler := handler.NewDetectionHandler(backend, cfg.RemoteConfigured(), cfg.DefaultThreshold)

	api := r.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	ops := api.Group("/operations")
	ops.POST("/start", opHandler.Start)
	ops.POST("/confirm", opHandler.Confirm)

	det := api.Group("/detection")
	det.POST("/detect", detectionHandler.Detect)
	det.GET("/status", detectionHandler.Status)
}
