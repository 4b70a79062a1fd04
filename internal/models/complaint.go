// internal/models/complaint.go
package models

import "time"

// Complaint is a filed customer complaint.
type Complaint struct {
	CaseNumber string    `json:"caseNumber" db:"case_number"`
	SessionID  string    `json:"sessionId" db:"session_id"`
	Category   string    `json:"category" db:"category"`
	Severity   string    `json:"severity" db:"severity"`
	Summary    string    `json:"summary" db:"summary"`
	Status     string    `json:"status" db:"status"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

const (
	ComplaintCategoryBaggage = "baggage"
	ComplaintCategoryDelay   = "delay"
	ComplaintCategoryRefund  = "refund"
	ComplaintCategoryService = "service"
	ComplaintCategoryOther   = "other"

	SeverityLow    = "low"
	SeverityNormal = "normal"
	SeverityHigh   = "high"

	ComplaintStatusOpen = "open"
)
