package rules

import (
	"context"

	"github.com/google/uuid"

	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/rules"
)

// Service runs the active rule library against a facility's evidence
// population and emits one result per (rule, facility) pair.
type Service interface {
	Run(ctx context.Context, facilityID uuid.UUID, opts RunOptions) ([]*rules.RuleResult, error)
}

// RuleRepository provides read-only access to the rule library. Rules are
// authored through an external admin surface and consumed here as data.
type RuleRepository interface {
	GetActiveRules(ctx context.Context) ([]*rules.ComplianceRule, error)
}

// EntityAccessor provides read-only queries against the record store for a
// rule's target entity population.
type EntityAccessor interface {
	GetEntities(ctx context.Context, facilityID uuid.UUID, entityType rules.EntityType) ([]rules.Entity, error)
}

// RunOptions scopes an engine run.
type RunOptions struct {
	// Module restricts the run to rules scoped to this module (rules with
	// no module scope always participate). Empty means all rules.
	Module string
}
