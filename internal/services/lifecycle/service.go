package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tool-reconciliation-backend/internal/detection"
	"tool-reconciliation-backend/internal/models"
	"tool-reconciliation-backend/internal/repository"
	"tool-reconciliation-backend/internal/services/reconciliation"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrOperationNotFound means the session token matches no operation.
	ErrOperationNotFound = errors.New("operation not found")
	// ErrAlreadyCompleted means the operation was confirmed before; the
	// first report stands and no second one is produced.
	ErrAlreadyCompleted = errors.New("operation already completed")
	// ErrPersistence wraps storage failures during start or confirm.
	ErrPersistence = errors.New("persistence error")
)

// OperationStore is the slice of the ledger the lifecycle manager needs for
// operation rows.
type OperationStore interface {
	StartWithItems(op *models.Operation, lines []repository.ItemLine) (int, error)
	FindBySessionToken(token string) (*models.Operation, error)
	MostRecentCheckout(engineerID string) (*models.Operation, error)
	Complete(id uint, result repository.CompletionResult) error
}

// ItemStore reads the issued items of an operation.
type ItemStore interface {
	ItemsFor(operationID uint) ([]models.IssuedItem, error)
}

// ToolStore resolves tool ids to registered names.
type ToolStore interface {
	NamesByID(ids []uint) (map[uint]string, error)
}

// AuditStore records lifecycle transitions. Optional; audit failures are
// logged, never surfaced.
type AuditStore interface {
	Record(entry *models.OperationAuditLog) error
}

// Service owns the checkout/checkin state machine. All collaborators come in
// at construction so tests can substitute doubles.
type Service struct {
	ops     OperationStore
	items   ItemStore
	tools   ToolStore
	audit   AuditStore
	backend detection.Backend
	log     *logrus.Logger

	defaultThreshold float64
}

func NewService(
	ops OperationStore,
	items ItemStore,
	tools ToolStore,
	audit AuditStore,
	backend detection.Backend,
	log *logrus.Logger,
	defaultThreshold float64,
) *Service {
	if backend == nil {
		backend = detection.Unavailable{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		ops:              ops,
		items:            items,
		tools:            tools,
		audit:            audit,
		backend:          backend,
		log:              log,
		defaultThreshold: defaultThreshold,
	}
}

// StartInput describes a new checkout or checkin operation.
type StartInput struct {
	EngineerID   string
	EngineerName string
	Kind         string
	Items        []repository.ItemLine
}

// StartResult identifies the started operation.
type StartResult struct {
	SessionToken string
	OperationID  uint
	ItemsSaved   int
}

// Start creates the operation in_progress with a fresh session token and
// records its issued items. Either the whole start succeeds or nothing is
// visible as started.
func (s *Service) Start(input StartInput) (StartResult, error) {
	op := &models.Operation{
		SessionToken: uuid.NewString(),
		EngineerID:   input.EngineerID,
		EngineerName: input.EngineerName,
		Kind:         input.Kind,
		Status:       models.StatusInProgress,
	}

	saved, err := s.ops.StartWithItems(op, input.Items)
	if err != nil {
		s.log.WithError(err).WithField("engineer_id", input.EngineerID).
			Error("failed to start operation")
		return StartResult{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.recordAudit(op.ID, "start", input.EngineerID, map[string]interface{}{
		"kind":        input.Kind,
		"items_saved": saved,
	})

	s.log.WithFields(logrus.Fields{
		"session_token": op.SessionToken,
		"operation_id":  op.ID,
		"kind":          input.Kind,
	}).Info("operation started")

	return StartResult{
		SessionToken: op.SessionToken,
		OperationID:  op.ID,
		ItemsSaved:   saved,
	}, nil
}

// AcceptedTool is a manually accepted line supplied at confirm time.
type AcceptedTool struct {
	Name     string
	Quantity int
}

// ConfirmInput carries at most one way of establishing the accepted set:
// an image for the detection backend, or a manual list. With neither, the
// accepted set is empty and the report shows the full issued set as missing.
type ConfirmInput struct {
	SessionToken        string
	ImageBase64         string
	ConfidenceThreshold *float64
	AcceptedTools       []AcceptedTool
}

// Confirm completes the operation identified by the session token and
// returns the reconciliation report. The issued set comes from the same
// engineer's most recent checkout, so a checkin reconciles against the
// checkout that preceded it. On any detection failure the operation stays
// in_progress and no partial report is returned.
func (s *Service) Confirm(ctx context.Context, input ConfirmInput) (reconciliation.Report, error) {
	clog := s.log.WithField("session_token", input.SessionToken)

	op, err := s.ops.FindBySessionToken(input.SessionToken)
	if errors.Is(err, repository.ErrNotFound) {
		return reconciliation.Report{}, ErrOperationNotFound
	}
	if err != nil {
		clog.WithError(err).Error("session lookup failed")
		return reconciliation.Report{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if op.Status == models.StatusCompleted {
		return reconciliation.Report{}, ErrAlreadyCompleted
	}

	accepted, detectionUsed, err := s.resolveAccepted(ctx, input, clog)
	if err != nil {
		return reconciliation.Report{}, err
	}

	issued, toolNames, err := s.issuedForEngineer(op.EngineerID)
	if err != nil {
		clog.WithError(err).Error("loading issued items failed")
		return reconciliation.Report{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	report := reconciliation.Reconcile(issued, toolNames, accepted)
	report.OperationID = op.ID
	report.EngineerName = op.EngineerName
	report.DetectionUsed = detectionUsed

	details, _ := json.Marshal(report)
	err = s.ops.Complete(op.ID, repository.CompletionResult{
		TotalExpected: report.TotalIssued(),
		TotalDetected: report.TotalAccepted(),
		TotalMissing:  report.TotalMissing,
		DetectionUsed: detectionUsed,
		Details:       details,
	})
	if errors.Is(err, repository.ErrConflict) {
		// Lost the race against a concurrent confirm; its report stands.
		return reconciliation.Report{}, ErrAlreadyCompleted
	}
	if err != nil {
		clog.WithError(err).Error("completing operation failed")
		return reconciliation.Report{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.recordAudit(op.ID, "confirm", op.EngineerID, map[string]interface{}{
		"detection_used": detectionUsed,
		"total_missing":  report.TotalMissing,
		"verdict":        report.Message,
	})

	clog.WithFields(logrus.Fields{
		"operation_id":  op.ID,
		"total_missing": report.TotalMissing,
	}).Info("operation confirmed")

	return report, nil
}

// resolveAccepted determines the accepted-tools set: a supplied image goes
// through the detection backend, otherwise a manual list is taken verbatim
// with confidence fixed at 100, otherwise the set is empty.
func (s *Service) resolveAccepted(ctx context.Context, input ConfirmInput, clog *logrus.Entry) ([]detection.Observation, bool, error) {
	if input.ImageBase64 != "" {
		threshold := s.defaultThreshold
		if input.ConfidenceThreshold != nil {
			threshold = *input.ConfidenceThreshold
		}
		observations, err := s.backend.Detect(ctx, input.ImageBase64, threshold)
		if err != nil {
			clog.WithError(err).Warn("detection failed")
			return nil, false, err
		}
		return observations, true, nil
	}

	if len(input.AcceptedTools) > 0 {
		observations := make([]detection.Observation, 0, len(input.AcceptedTools))
		for _, tool := range input.AcceptedTools {
			qty := tool.Quantity
			if qty == 0 {
				qty = 1
			}
			observations = append(observations, detection.Observation{
				ClassName:  tool.Name,
				Confidence: 100,
				Quantity:   qty,
			})
		}
		return observations, false, nil
	}

	return nil, false, nil
}

// issuedForEngineer loads the issued set of the engineer's most recent
// checkout. With no prior checkout the issued set is empty, which makes the
// report trivially clean rather than an error.
func (s *Service) issuedForEngineer(engineerID string) ([]models.IssuedItem, map[uint]string, error) {
	checkout, err := s.ops.MostRecentCheckout(engineerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, map[uint]string{}, nil
	}
	if err != nil {
		return nil, nil, err
	}

	items, err := s.items.ItemsFor(checkout.ID)
	if err != nil {
		return nil, nil, err
	}

	var ids []uint
	for _, item := range items {
		if item.ToolID != nil {
			ids = append(ids, *item.ToolID)
		}
	}
	names, err := s.tools.NamesByID(ids)
	if err != nil {
		return nil, nil, err
	}
	return items, names, nil
}

func (s *Service) recordAudit(operationID uint, action, performedBy string, details map[string]interface{}) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(details)
	entry := &models.OperationAuditLog{
		OperationID: operationID,
		Action:      action,
		PerformedBy: performedBy,
		Details:     payload,
	}
	if err := s.audit.Record(entry); err != nil {
		s.log.WithError(err).WithField("operation_id", operationID).
			Warn("audit record failed")
	}
}
