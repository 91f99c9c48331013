package models

import "time"

// IssuedItem is one inventory line of an operation. Either ToolID or ToolName
// must be set; multiple lines for the same tool are legal and are summed
// during reconciliation.
type IssuedItem struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OperationID uint   `gorm:"index;not null" json:"operationId"`
	ToolID      *uint  `gorm:"index" json:"toolId,omitempty"`
	ToolName    string `json:"toolName,omitempty"`
	Quantity    int    `gorm:"not null;default:1" json:"quantity"`

	CreatedAt time.Time `json:"createdAt"`
}
