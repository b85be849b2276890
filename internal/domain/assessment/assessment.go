package assessment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/audit"
)

// AssessmentType distinguishes how an assessment run was triggered.
type AssessmentType string

const (
	TypeScheduled AssessmentType = "scheduled"
	TypeManual    AssessmentType = "manual"
	TypeAuditRun  AssessmentType = "audit_run"
)

// ComplianceAssessment is one immutable, timestamped computation of a
// facility's overall compliance state. Derived, never hand-edited;
// re-running produces a new historical row.
type ComplianceAssessment struct {
	ID             uuid.UUID      `json:"id"`
	FacilityID     uuid.UUID      `json:"facility_id"`
	AssessmentDate time.Time      `json:"assessment_date"`
	Type           AssessmentType `json:"type"`
	Scope          string         `json:"scope,omitempty"`

	OverallScore float64            `json:"overall_score"`
	Grade        audit.Grade        `json:"grade"`
	ModuleScores map[string]float64 `json:"module_scores"`
	HasAutoFail  bool               `json:"has_auto_fail"`

	// Coverage percentages, always in [0, 100]. A zero denominator yields
	// 100 (vacuously compliant).
	SOPCoverage       float64 `json:"sop_coverage"`
	ChecklistCoverage float64 `json:"checklist_coverage"`
	AuditCoverage     float64 `json:"audit_coverage"`

	// FindingCounts is a rolling view of open findings by severity,
	// independent of this run's score.
	FindingCounts map[string]int `json:"finding_counts"`

	RulesPassed        int `json:"rules_passed"`
	RulesFailed        int `json:"rules_failed"`
	RulesNotApplicable int `json:"rules_not_applicable"`

	CreatedAt time.Time `json:"created_at"`
}

// PeriodType buckets trend snapshots.
type PeriodType string

const (
	PeriodDaily     PeriodType = "daily"
	PeriodWeekly    PeriodType = "weekly"
	PeriodMonthly   PeriodType = "monthly"
	PeriodQuarterly PeriodType = "quarterly"
)

func (p PeriodType) IsValid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodQuarterly:
		return true
	}
	return false
}

// ComplianceTrend is a denormalized, overwritable snapshot of assessment
// metrics keyed by (facility, period_type, period_start).
type ComplianceTrend struct {
	ID          uuid.UUID  `json:"id"`
	FacilityID  uuid.UUID  `json:"facility_id"`
	PeriodType  PeriodType `json:"period_type"`
	PeriodStart time.Time  `json:"period_start"`
	PeriodEnd   time.Time  `json:"period_end"`

	OverallScore      float64     `json:"overall_score"`
	Grade             audit.Grade `json:"grade"`
	SOPCoverage       float64     `json:"sop_coverage"`
	ChecklistCoverage float64     `json:"checklist_coverage"`
	AuditCoverage     float64     `json:"audit_coverage"`

	RulesPassed int `json:"rules_passed"`
	RulesFailed int `json:"rules_failed"`
	RulesTotal  int `json:"rules_total"`

	SnapshotAt time.Time `json:"snapshot_at"`
}

// NewCoverageRatio computes have/applicable as a percentage rounded half-up
// to two decimal places. Zero applicable requirements yield 100: absence of
// requirements is vacuous compliance, never an error. This is the single
// place the policy lives so call sites cannot diverge.
func NewCoverageRatio(have, applicable int) float64 {
	if applicable == 0 {
		return 100
	}
	if have < 0 {
		have = 0
	}
	if have > applicable {
		have = applicable
	}
	pct := decimal.NewFromInt(int64(have)).
		Div(decimal.NewFromInt(int64(applicable))).
		Mul(decimal.NewFromInt(100)).
		Round(2)
	f, _ := pct.Float64()
	return f
}
