package rules

import (
	"time"

	"github.com/google/uuid"
)

// Verdict is the outcome of evaluating one rule against a facility's
// evidence population.
type Verdict int

const (
	VerdictPass Verdict = iota
	VerdictFail
	VerdictNotApplicable
)

func (v Verdict) String() string {
	switch v {
	case VerdictPass:
		return "pass"
	case VerdictFail:
		return "fail"
	case VerdictNotApplicable:
		return "not_applicable"
	default:
		return "unknown"
	}
}

// RuleResult records one (rule, facility) evaluation. Results are created
// fresh on every engine run and never mutated; history is preserved by
// inserting new rows.
type RuleResult struct {
	ID           uuid.UUID  `json:"id"`
	RuleID       uuid.UUID  `json:"rule_id"`
	RuleCode     string     `json:"rule_code"`
	FacilityID   uuid.UUID  `json:"facility_id"`
	AssessmentID *uuid.UUID `json:"assessment_id,omitempty"`
	Verdict      Verdict    `json:"verdict"`
	Details      string     `json:"details,omitempty"`

	// FailedEntities names the records that caused a fail verdict, for
	// operator-facing detail text. Empty for pass/not_applicable.
	FailedEntities []string `json:"failed_entities,omitempty"`

	EvaluatedAt time.Time `json:"evaluated_at"`
}

// NewRuleResult creates a result row for one engine evaluation.
func NewRuleResult(rule *ComplianceRule, facilityID uuid.UUID, verdict Verdict, details string, evaluatedAt time.Time) *RuleResult {
	return &RuleResult{
		ID:          uuid.New(),
		RuleID:      rule.ID,
		RuleCode:    rule.RuleCode,
		FacilityID:  facilityID,
		Verdict:     verdict,
		Details:     details,
		EvaluatedAt: evaluatedAt,
	}
}
