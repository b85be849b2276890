package risk

import (
	"context"

	"github.com/google/uuid"

	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/assessment"
	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/evidence"
	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/rules"
)

// Service derives a risk level and contributing-factor list per facility
// (and per module with open findings) from current state. There is no
// incremental update path; every call recomputes wholesale.
type Service interface {
	Score(ctx context.Context, facilityID uuid.UUID) ([]*assessment.RiskScore, error)
}

// FindingRepository reads open audit findings.
type FindingRepository interface {
	GetOpenFindings(ctx context.Context, facilityID uuid.UUID) ([]*evidence.AuditFinding, error)
}

// CAPARepository reads open corrective actions.
type CAPARepository interface {
	GetOpenCAPAs(ctx context.Context, facilityID uuid.UUID) ([]*evidence.CAPA, error)
}

// RuleResultRepository reads the latest engine run's results.
type RuleResultRepository interface {
	GetLatestRunResults(ctx context.Context, facilityID uuid.UUID) ([]*rules.RuleResult, error)
}

// RiskWriter persists computed risk scores as whole-record inserts.
// Superseded rows stay as history.
type RiskWriter interface {
	SaveRiskScores(ctx context.Context, scores []*assessment.RiskScore) error
}

// Config holds the scoring weights and level cut points. Weights are
// configuration, not magic numbers buried in the calculation.
type Config struct {
	CriticalFindingWeight float64 `koanf:"critical_finding_weight"`
	MajorFindingWeight    float64 `koanf:"major_finding_weight"`
	MinorFindingWeight    float64 `koanf:"minor_finding_weight"`

	// Overdue CAPAs contribute per day overdue, capped so one ancient CAPA
	// cannot dominate the score.
	CAPAOverduePerDay float64 `koanf:"capa_overdue_per_day"`
	CAPAOverdueDayCap int     `koanf:"capa_overdue_day_cap"`

	FailedRuleWeight float64 `koanf:"failed_rule_weight"`

	// Level cut points: score >= CriticalThreshold is critical, and so on
	// down; below MediumThreshold is low.
	MediumThreshold   float64 `koanf:"medium_threshold"`
	HighThreshold     float64 `koanf:"high_threshold"`
	CriticalThreshold float64 `koanf:"critical_threshold"`
}

// DefaultConfig returns the stock weighting.
func DefaultConfig() Config {
	return Config{
		CriticalFindingWeight: 25,
		MajorFindingWeight:    10,
		MinorFindingWeight:    3,
		CAPAOverduePerDay:     0.5,
		CAPAOverdueDayCap:     60,
		FailedRuleWeight:      5,
		MediumThreshold:       20,
		HighThreshold:         50,
		CriticalThreshold:     80,
	}
}
