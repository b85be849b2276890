package trend

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/assessment"
	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/rules"
)

// Service snapshots assessment outputs into time-bucketed trend records
// for historical comparison. Gaps are explicit: a period with no
// assessment produces no row.
type Service interface {
	// Snapshot writes (or overwrites) the trend row for the given period.
	// Returns nil with no error when the window holds no assessment.
	Snapshot(ctx context.Context, facilityID uuid.UUID, periodType assessment.PeriodType, periodStart, periodEnd time.Time) (*assessment.ComplianceTrend, error)

	// RunScheduled takes the facility's monitoring config, and if its
	// next_run has elapsed, snapshots the current period and advances the
	// schedule. A facility with no config gets the default schedule seeded
	// instead. Returns nil when no snapshot was written.
	RunScheduled(ctx context.Context, facilityID uuid.UUID) (*assessment.ComplianceTrend, error)
}

// AssessmentReader reads historical assessments.
type AssessmentReader interface {
	GetLatestAssessmentInWindow(ctx context.Context, facilityID uuid.UUID, start, end time.Time) (*assessment.ComplianceAssessment, error)
}

// RuleResultReader reads rule results for an assessment run.
type RuleResultReader interface {
	GetResultsForAssessment(ctx context.Context, assessmentID uuid.UUID) ([]*rules.RuleResult, error)
}

// TrendWriter upserts trend rows keyed by (facility, period_type,
// period_start); re-snapshotting overwrites rather than duplicates.
type TrendWriter interface {
	UpsertTrend(ctx context.Context, t *assessment.ComplianceTrend) error
}

// MonitoringRepository reads, seeds, and advances snapshot schedules.
type MonitoringRepository interface {
	GetMonitoringConfig(ctx context.Context, facilityID uuid.UUID) (*assessment.MonitoringConfig, error)
	UpsertMonitoringConfig(ctx context.Context, cfg *assessment.MonitoringConfig) error
	UpdateNextRun(ctx context.Context, facilityID uuid.UUID, nextRun time.Time) error
}
