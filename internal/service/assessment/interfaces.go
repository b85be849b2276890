package assessment

import (
	"context"

	"github.com/google/uuid"

	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/assessment"
	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/evidence"
	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/rules"
)

// Service is the trigger boundary for compliance assessment runs: it
// combines rules engine output, audit scorer output, and evidence-coverage
// ratios into one ComplianceAssessment per facility per run.
type Service interface {
	Assess(ctx context.Context, facilityID uuid.UUID, opts AssessOptions) (*assessment.ComplianceAssessment, error)
}

// AssessOptions controls one assessment run. Persistence is explicit:
// computed records are only written when SaveAssessment is set.
type AssessOptions struct {
	// SimulationID includes audit scoring in the run. Nil runs
	// evidence-only.
	SimulationID *uuid.UUID
	// Module scopes the rules run; empty evaluates the full library.
	Module         string
	SaveAssessment bool
	Type           assessment.AssessmentType
	Scope          string
}

// CoverageRepository supplies the counts behind the three coverage ratios.
type CoverageRepository interface {
	// SOPCoverageCounts returns (SOPs with status current, SOPs applicable)
	// for the facility.
	SOPCoverageCounts(ctx context.Context, facilityID uuid.UUID) (current int, applicable int, err error)
	// ChecklistCoverageCounts returns (templates with a submission inside
	// their required frequency window, templates applicable).
	ChecklistCoverageCounts(ctx context.Context, facilityID uuid.UUID) (submitted int, applicable int, err error)
	// EnabledModules returns the facility's enabled-module set.
	EnabledModules(ctx context.Context, facilityID uuid.UUID) ([]string, error)
	// ModulesWithResponses returns the modules that have at least one
	// audit response for the facility.
	ModulesWithResponses(ctx context.Context, facilityID uuid.UUID) ([]string, error)
}

// FindingRepository reads open audit findings for the rolling severity
// tallies.
type FindingRepository interface {
	GetOpenFindings(ctx context.Context, facilityID uuid.UUID) ([]*evidence.AuditFinding, error)
}

// AssessmentWriter persists one run's derived rows as a unit: the
// assessment and its rule results commit together or not at all.
type AssessmentWriter interface {
	SaveRun(ctx context.Context, a *assessment.ComplianceAssessment, results []*rules.RuleResult) error
}

// AssessmentCache caches the latest persisted assessment per facility.
// Writes replace the previous entry, so the save path needs no separate
// invalidation step.
type AssessmentCache interface {
	SetLatest(ctx context.Context, a *assessment.ComplianceAssessment) error
}
