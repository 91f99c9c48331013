package repository

import (
	"tool-reconciliation-backend/internal/models"

	"gorm.io/gorm"
)

type ToolRepository struct {
	db *gorm.DB
}

func NewToolRepository(db *gorm.DB) *ToolRepository {
	return &ToolRepository{db: db}
}

// NamesByID resolves tool ids to registered display names. Unknown ids are
// simply absent from the result.
func (r *ToolRepository) NamesByID(ids []uint) (map[uint]string, error) {
	names := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	var tools []models.Tool
	if err := r.db.Where("id IN ?", ids).Find(&tools).Error; err != nil {
		return nil, err
	}
	for _, t := range tools {
		names[t.ID] = t.Name
	}
	return names, nil
}
