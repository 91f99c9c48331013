package models

// Tool is a master record. Management of these rows happens elsewhere; the
// ledger only reads them to resolve issued-item references to display names.
type Tool struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"index;not null" json:"name"`
	SKU         string `gorm:"uniqueIndex" json:"sku"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `gorm:"default:true" json:"isActive"`
}
