package repository

import (
	"errors"
	"time"

	"tool-reconciliation-backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a conditional update lost its race, e.g.
	// completing an operation that is no longer in_progress.
	ErrConflict = errors.New("operation state conflict")
)

// ItemLine is one issued-item input before validation. A line needs a tool
// reference (id or free-text name); quantity 0 means unspecified and defaults
// to 1.
type ItemLine struct {
	ToolID   *uint
	ToolName string
	Quantity int
}

func (l ItemLine) valid() bool {
	if l.ToolID == nil && l.ToolName == "" {
		return false
	}
	return l.Quantity >= 0
}

// CompletionResult carries the reconciliation totals persisted on the
// operation row when it flips to completed.
type CompletionResult struct {
	TotalExpected int
	TotalDetected int
	TotalMissing  int
	DetectionUsed bool
	Details       datatypes.JSON
}

type OperationRepository struct {
	db *gorm.DB
}

func NewOperationRepository(db *gorm.DB) *OperationRepository {
	return &OperationRepository{db: db}
}

func (r *OperationRepository) DB() *gorm.DB {
	return r.db
}

// StartWithItems creates the operation and its issued items in a single
// transaction, so a storage failure never leaves a half-started operation
// visible. Malformed lines are skipped, not fatal; the returned count is the
// number of lines actually saved.
func (r *OperationRepository) StartWithItems(op *models.Operation, lines []ItemLine) (int, error) {
	saved := 0
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(op).Error; err != nil {
			return err
		}
		for _, line := range lines {
			if !line.valid() {
				continue
			}
			qty := line.Quantity
			if qty == 0 {
				qty = 1
			}
			item := models.IssuedItem{
				OperationID: op.ID,
				ToolID:      line.ToolID,
				ToolName:    line.ToolName,
				Quantity:    qty,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			saved++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return saved, nil
}

func (r *OperationRepository) FindBySessionToken(token string) (*models.Operation, error) {
	var op models.Operation
	err := r.db.First(&op, "session_token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &op, nil
}

// MostRecentCheckout returns the engineer's checkout operation with the
// latest creation timestamp; ties are broken by highest id.
func (r *OperationRepository) MostRecentCheckout(engineerID string) (*models.Operation, error) {
	var op models.Operation
	err := r.db.
		Where("engineer_id = ? AND kind = ?", engineerID, models.KindCheckout).
		Order("created_at DESC, id DESC").
		First(&op).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &op, nil
}

// Complete flips the operation to completed with a compare-and-swap on the
// current status, so two concurrent confirmations cannot both succeed.
// Returns ErrConflict when the row was not in_progress anymore.
func (r *OperationRepository) Complete(id uint, result CompletionResult) error {
	now := time.Now()
	res := r.db.Model(&models.Operation{}).
		Where("id = ? AND status = ?", id, models.StatusInProgress).
		Updates(map[string]interface{}{
			"status":         models.StatusCompleted,
			"total_expected": result.TotalExpected,
			"total_detected": result.TotalDetected,
			"total_missing":  result.TotalMissing,
			"detection_used": result.DetectionUsed,
			"result_details": result.Details,
			"completed_at":   now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}
