package repository

import (
	"tool-reconciliation-backend/internal/models"

	"gorm.io/gorm"
)

type IssuedItemRepository struct {
	db *gorm.DB
}

func NewIssuedItemRepository(db *gorm.DB) *IssuedItemRepository {
	return &IssuedItemRepository{db: db}
}

// Record appends issued items to an already-started operation. Lines without
// a tool reference are skipped; the returned count is what was saved.
func (r *IssuedItemRepository) Record(operationID uint, lines []ItemLine) (int, error) {
	saved := 0
	for _, line := range lines {
		if !line.valid() {
			continue
		}
		qty := line.Quantity
		if qty == 0 {
			qty = 1
		}
		item := models.IssuedItem{
			OperationID: operationID,
			ToolID:      line.ToolID,
			ToolName:    line.ToolName,
			Quantity:    qty,
		}
		if err := r.db.Create(&item).Error; err != nil {
			return saved, err
		}
		saved++
	}
	return saved, nil
}

func (r *IssuedItemRepository) ItemsFor(operationID uint) ([]models.IssuedItem, error) {
	var items []models.IssuedItem
	err := r.db.Where("operation_id = ?", operationID).Order("id ASC").Find(&items).Error
	return items, err
}
