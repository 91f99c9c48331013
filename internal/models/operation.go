package models

import (
	"time"

	"gorm.io/datatypes"
)

// Operation kinds.
const (
	KindCheckout = "checkout"
	KindCheckin  = "checkin"
)

// Operation statuses. The only legal transition is in_progress -> completed.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

type Operation struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	SessionToken string `gorm:"uniqueIndex;not null" json:"sessionToken"`
	EngineerID   string `gorm:"index;not null" json:"engineerId"`
	EngineerName string `json:"engineerName"`
	Kind         string `gorm:"index;not null" json:"kind"`
	Status       string `gorm:"index;not null" json:"status"`

	// Reconciliation results, written once at completion.
	TotalExpected int            `json:"totalExpected"`
	TotalDetected int            `json:"totalDetected"`
	TotalMissing  int            `json:"totalMissing"`
	DetectionUsed bool           `json:"detectionUsed"`
	ResultDetails datatypes.JSON `json:"resultDetails,omitempty"`

	CreatedAt   time.Time  `gorm:"index" json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}
