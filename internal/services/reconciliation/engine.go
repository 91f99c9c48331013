package reconciliation

import (
	"fmt"
	"sort"

	"tool-reconciliation-backend/internal/detection"
	"tool-reconciliation-backend/internal/models"
)

// Verdict messages for the reconciliation report.
const (
	VerdictFullyReturned = "fully returned"
	VerdictDiscrepancy   = "discrepancy detected"
)

// Shortfall is one tool that came back short.
type Shortfall struct {
	Name     string `json:"name"`
	Issued   int    `json:"issued"`
	Returned int    `json:"returned"`
	Missing  int    `json:"missing"`
}

// Report is the outcome of comparing an issued set against an accepted set.
// It is derived data, never persisted as-is.
type Report struct {
	Message         string         `json:"message"`
	OperationID     uint           `json:"operationId"`
	EngineerName    string         `json:"engineerName"`
	IssuedSummary   map[string]int `json:"issuedSummary"`
	AcceptedSummary map[string]int `json:"acceptedSummary"`
	Missing         []Shortfall    `json:"missing"`
	TotalMissing    int            `json:"totalMissing"`
	DetectionUsed   bool           `json:"detectionUsed"`
}

// Reconcile compares issued items against accepted observations and reports
// per-tool shortfall. Items referencing a tool id resolve to the registered
// name via toolNames; an unresolvable id falls back to the line's free-text
// name, or a placeholder so the quantity is never silently dropped.
//
// Matching is exact name equality: no case folding, no whitespace
// normalization, no synonyms. Accepted tools that were never issued are
// ignored, not flagged. The result is a pure function of the inputs;
// shortfall entries are sorted by name so identical inputs yield identical
// reports.
func Reconcile(issued []models.IssuedItem, toolNames map[uint]string, accepted []detection.Observation) Report {
	issuedMap := make(map[string]int)
	for _, item := range issued {
		issuedMap[displayName(item, toolNames)] += item.Quantity
	}

	acceptedMap := make(map[string]int)
	for _, obs := range accepted {
		acceptedMap[obs.ClassName] += obs.Quantity
	}

	var missing []Shortfall
	totalMissing := 0
	for name, issuedQty := range issuedMap {
		acceptedQty := acceptedMap[name]
		if acceptedQty < issuedQty {
			missing = append(missing, Shortfall{
				Name:     name,
				Issued:   issuedQty,
				Returned: acceptedQty,
				Missing:  issuedQty - acceptedQty,
			})
			totalMissing += issuedQty - acceptedQty
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i].Name < missing[j].Name })

	message := VerdictFullyReturned
	if len(missing) > 0 {
		message = VerdictDiscrepancy
	}

	return Report{
		Message:         message,
		IssuedSummary:   issuedMap,
		AcceptedSummary: acceptedMap,
		Missing:         missing,
		TotalMissing:    totalMissing,
	}
}

// TotalIssued sums the issued quantities in a report.
func (r Report) TotalIssued() int {
	total := 0
	for _, qty := range r.IssuedSummary {
		total += qty
	}
	return total
}

// TotalAccepted sums the accepted quantities in a report.
func (r Report) TotalAccepted() int {
	total := 0
	for _, qty := range r.AcceptedSummary {
		total += qty
	}
	return total
}

func displayName(item models.IssuedItem, toolNames map[uint]string) string {
	if item.ToolID != nil {
		if name, ok := toolNames[*item.ToolID]; ok {
			return name
		}
	}
	if item.ToolName != "" {
		return item.ToolName
	}
	return fmt.Sprintf("tool #%d", derefID(item.ToolID))
}

func derefID(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}
