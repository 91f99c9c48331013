package repository

import (
	"tool-reconciliation-backend/internal/models"

	"gorm.io/gorm"
)

type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Record(entry *models.OperationAuditLog) error {
	return r.db.Create(entry).Error
}
