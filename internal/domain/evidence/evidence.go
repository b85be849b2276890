package evidence

import (
	"time"

	"github.com/google/uuid"
)

// Evidence records are the operational data the rules engine and coverage
// calculators read: SOPs, checklist submissions, supplier certifications,
// CAPAs, and open audit findings. The engine consumes them read-only
// through the entity accessor.

// SOPStatus tracks the lifecycle of a standard operating procedure.
type SOPStatus string

const (
	SOPStatusDraft    SOPStatus = "draft"
	SOPStatusCurrent  SOPStatus = "current"
	SOPStatusExpired  SOPStatus = "expired"
	SOPStatusArchived SOPStatus = "archived"
)

// SOP is a standard operating procedure document tracked per facility.
type SOP struct {
	ID             uuid.UUID  `json:"id"`
	FacilityID     uuid.UUID  `json:"facility_id"`
	Title          string     `json:"title"`
	Module         string     `json:"module"`
	Status         SOPStatus  `json:"status"`
	EffectiveDate  time.Time  `json:"effective_date"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
	NextReviewDue  *time.Time `json:"next_review_due,omitempty"`
}

func (s *SOP) EntityID() string { return s.ID.String() }
func (s *SOP) Label() string    { return s.Title }

func (s *SOP) Field(path string) (interface{}, bool) {
	switch path {
	case "status":
		return string(s.Status), true
	case "module":
		return s.Module, true
	case "effective_date":
		return s.EffectiveDate, true
	case "last_reviewed_at":
		return s.LastReviewedAt, true
	case "next_review_due":
		return s.NextReviewDue, true
	default:
		return nil, false
	}
}

// ChecklistSubmission is one completed checklist against a template.
type ChecklistSubmission struct {
	ID           uuid.UUID `json:"id"`
	FacilityID   uuid.UUID `json:"facility_id"`
	TemplateID   uuid.UUID `json:"template_id"`
	TemplateName string    `json:"template_name"`
	Module       string    `json:"module"`
	SubmittedAt  time.Time `json:"submitted_at"`
	Complete     bool      `json:"complete"`
	FailedItems  int       `json:"failed_items"`
}

func (c *ChecklistSubmission) EntityID() string { return c.ID.String() }
func (c *ChecklistSubmission) Label() string    { return c.TemplateName }

func (c *ChecklistSubmission) Field(path string) (interface{}, bool) {
	switch path {
	case "module":
		return c.Module, true
	case "submitted_at":
		return c.SubmittedAt, true
	case "complete":
		return c.Complete, true
	case "failed_items":
		return c.FailedItems, true
	default:
		return nil, false
	}
}

// CertificationStatus tracks supplier certification lifecycle.
type CertificationStatus string

const (
	CertStatusActive  CertificationStatus = "active"
	CertStatusExpired CertificationStatus = "expired"
	CertStatusRevoked CertificationStatus = "revoked"
)

// SupplierCertification is a certificate held by one of a facility's
// suppliers (e.g. organic, GFSI).
type SupplierCertification struct {
	ID           uuid.UUID           `json:"id"`
	FacilityID   uuid.UUID           `json:"facility_id"`
	SupplierName string              `json:"supplier_name"`
	CertType     string              `json:"cert_type"`
	Status       CertificationStatus `json:"status"`
	IssuedAt     time.Time           `json:"issued_at"`
	ExpiryDate   time.Time           `json:"expiry_date"`
}

func (c *SupplierCertification) EntityID() string { return c.ID.String() }
func (c *SupplierCertification) Label() string    { return c.SupplierName + " " + c.CertType }

func (c *SupplierCertification) Field(path string) (interface{}, bool) {
	switch path {
	case "status":
		return string(c.Status), true
	case "cert_type":
		return c.CertType, true
	case "issued_at":
		return c.IssuedAt, true
	case "expiry_date":
		return c.ExpiryDate, true
	default:
		return nil, false
	}
}

// CAPAStatus tracks corrective/preventive action lifecycle.
type CAPAStatus string

const (
	CAPAStatusOpen       CAPAStatus = "open"
	CAPAStatusInProgress CAPAStatus = "in_progress"
	CAPAStatusClosed     CAPAStatus = "closed"
)

// CAPA is a corrective and preventive action raised against a finding.
type CAPA struct {
	ID          uuid.UUID  `json:"id"`
	FacilityID  uuid.UUID  `json:"facility_id"`
	FindingID   *uuid.UUID `json:"finding_id,omitempty"`
	Description string     `json:"description"`
	Status      CAPAStatus `json:"status"`
	DueDate     time.Time  `json:"due_date"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
}

func (c *CAPA) EntityID() string { return c.ID.String() }
func (c *CAPA) Label() string    { return c.Description }

func (c *CAPA) Field(path string) (interface{}, bool) {
	switch path {
	case "status":
		return string(c.Status), true
	case "due_date":
		return c.DueDate, true
	case "closed_at":
		return c.ClosedAt, true
	default:
		return nil, false
	}
}

// IsOpen reports whether the CAPA still needs action.
func (c *CAPA) IsOpen() bool {
	return c.Status != CAPAStatusClosed
}

// DaysOverdue returns how many whole days past due the CAPA is at the given
// time, zero when not overdue or already closed.
func (c *CAPA) DaysOverdue(now time.Time) int {
	if !c.IsOpen() {
		return 0
	}
	overdue := now.UTC().Sub(c.DueDate.UTC())
	if overdue <= 0 {
		return 0
	}
	return int(overdue.Hours() / 24)
}

// FindingStatus tracks audit finding lifecycle.
type FindingStatus string

const (
	FindingStatusOpen     FindingStatus = "open"
	FindingStatusResolved FindingStatus = "resolved"
)

// AuditFinding is an issue raised during an audit or simulation, tallied by
// severity in assessments and risk scoring.
type AuditFinding struct {
	ID          uuid.UUID     `json:"id"`
	FacilityID  uuid.UUID     `json:"facility_id"`
	Module      string        `json:"module"`
	Severity    string        `json:"severity"`
	Status      FindingStatus `json:"status"`
	Description string        `json:"description"`
	CreatedAt   time.Time     `json:"created_at"`
}

func (f *AuditFinding) IsOpen() bool {
	return f.Status == FindingStatusOpen
}
