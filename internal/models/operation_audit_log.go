package models

import (
	"time"

	"gorm.io/datatypes"
)

type OperationAuditLog struct {
	ID          uint           `gorm:"primaryKey"`
	OperationID uint           `gorm:"index;not null"`
	Action      string         `gorm:"not null"`
	PerformedBy string
	Details     datatypes.JSON
	CreatedAt   time.Time      `gorm:"index"`
}
