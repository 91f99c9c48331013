package main

import (
	"os"
	"time"

	"tool-reconciliation-backend/internal/config"
	"tool-reconciliation-backend/internal/detection"
	"tool-reconciliation-backend/internal/models"
	"tool-reconciliation-backend/internal/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, relying on system env")
	}

	db := config.InitDB()

	if err := db.AutoMigrate(
		&models.Tool{},
		&models.Operation{},
		&models.IssuedItem{},
		&models.OperationAuditLog{},
	); err != nil {
		log.WithError(err).Fatal("migration failed")
	}

	detectionCfg := config.LoadDetection()
	var remote detection.Backend
	if detectionCfg.RemoteConfigured() {
		remote = detection.NewRemoteBackend(detectionCfg.RemoteURL, detectionCfg.Timeout)
		log.WithField("url", detectionCfg.RemoteURL).Info("remote detection backend configured")
	} else {
		log.Warn("no detection backend configured")
	}
	// No local model adapter is wired in this deployment; without a remote
	// endpoint, detection requests fail with a typed unavailable error
	// instead of fabricated results.
	backend := detection.Select(remote, nil)

	r := gin.Default()
	// CORS config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, db, backend, detectionCfg, log)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}
