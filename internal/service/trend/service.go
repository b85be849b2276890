package trend

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/assessment"
	domainerrors "github.com/foodsafeworks/facility-compliance-backend/internal/domain/errors"
	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/rules"
)

// service implements the Service interface
type service struct {
	logger           *zap.Logger
	assessmentRepo   AssessmentReader
	resultRepo       RuleResultReader
	writer           TrendWriter
	monitoringRepo   MonitoringRepository
	defaultFrequency assessment.PeriodType
	clock            func() time.Time
}

// NewService creates a new trend recording service. defaultFrequency seeds
// the monitoring schedule for facilities that have none; an invalid value
// falls back to weekly.
func NewService(logger *zap.Logger, assessmentRepo AssessmentReader, resultRepo RuleResultReader, writer TrendWriter, monitoringRepo MonitoringRepository, defaultFrequency assessment.PeriodType) Service {
	if !defaultFrequency.IsValid() {
		defaultFrequency = assessment.PeriodWeekly
	}
	return &service{
		logger:           logger,
		assessmentRepo:   assessmentRepo,
		resultRepo:       resultRepo,
		writer:           writer,
		monitoringRepo:   monitoringRepo,
		defaultFrequency: defaultFrequency,
		clock:            time.Now,
	}
}

// NewServiceWithClock fixes the clock for deterministic scheduling tests.
func NewServiceWithClock(logger *zap.Logger, assessmentRepo AssessmentReader, resultRepo RuleResultReader, writer TrendWriter, monitoringRepo MonitoringRepository, defaultFrequency assessment.PeriodType, clock func() time.Time) Service {
	s := NewService(logger, assessmentRepo, resultRepo, writer, monitoringRepo, defaultFrequency).(*service)
	s.clock = clock
	return s
}

func (s *service) Snapshot(ctx context.Context, facilityID uuid.UUID, periodType assessment.PeriodType, periodStart, periodEnd time.Time) (*assessment.ComplianceTrend, error) {
	if facilityID == uuid.Nil {
		return nil, domainerrors.NewValidationError("INVALID_FACILITY_ID", "facility ID is required")
	}
	if !periodType.IsValid() {
		return nil, domainerrors.NewValidationError("INVALID_PERIOD_TYPE", "unknown period type")
	}
	if !periodStart.Before(periodEnd) {
		return nil, domainerrors.NewValidationError("INVALID_PERIOD", "period start must precede period end")
	}

	latest, err := s.assessmentRepo.GetLatestAssessmentInWindow(ctx, facilityID, periodStart, periodEnd)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to load assessments for period").WithCause(err)
	}
	if latest == nil {
		// No assessment in the window: gaps stay explicit, no row written.
		s.logger.Debug("no assessment in period, skipping trend row",
			zap.String("facility_id", facilityID.String()),
			zap.Time("period_start", periodStart),
		)
		return nil, nil
	}

	results, err := s.resultRepo.GetResultsForAssessment(ctx, latest.ID)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to load rule results for assessment").WithCause(err)
	}

	row := &assessment.ComplianceTrend{
		ID:                uuid.New(),
		FacilityID:        facilityID,
		PeriodType:        periodType,
		PeriodStart:       periodStart.UTC(),
		PeriodEnd:         periodEnd.UTC(),
		OverallScore:      latest.OverallScore,
		Grade:             latest.Grade,
		SOPCoverage:       latest.SOPCoverage,
		ChecklistCoverage: latest.ChecklistCoverage,
		AuditCoverage:     latest.AuditCoverage,
		SnapshotAt:        s.clock().UTC(),
	}
	for _, r := range results {
		row.RulesTotal++
		switch r.Verdict {
		case rules.VerdictPass:
			row.RulesPassed++
		case rules.VerdictFail:
			row.RulesFailed++
		}
	}

	if err := s.writer.UpsertTrend(ctx, row); err != nil {
		return nil, domainerrors.NewInternalError("failed to write trend row").WithCause(err)
	}

	s.logger.Info("trend snapshot written",
		zap.String("facility_id", facilityID.String()),
		zap.String("period_type", string(periodType)),
		zap.Time("period_start", row.PeriodStart),
	)
	return row, nil
}

// RunScheduled honors the monitoring schedule: nothing happens until
// next_run has elapsed. Manual Snapshot calls bypass the schedule but keep
// the one-row-per-period key.
func (s *service) RunScheduled(ctx context.Context, facilityID uuid.UUID) (*assessment.ComplianceTrend, error) {
	cfg, err := s.monitoringRepo.GetMonitoringConfig(ctx, facilityID)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to load monitoring config").WithCause(err)
	}

	now := s.clock().UTC()
	if cfg == nil {
		// First contact with this facility: seed the default schedule. The
		// first snapshot lands at the next period boundary.
		_, end := assessment.PeriodBounds(s.defaultFrequency, now)
		seed := &assessment.MonitoringConfig{
			FacilityID: facilityID,
			Frequency:  s.defaultFrequency,
			Enabled:    true,
			NextRun:    end,
		}
		if err := s.monitoringRepo.UpsertMonitoringConfig(ctx, seed); err != nil {
			return nil, domainerrors.NewInternalError("failed to seed monitoring config").WithCause(err)
		}
		s.logger.Info("seeded default monitoring schedule",
			zap.String("facility_id", facilityID.String()),
			zap.String("frequency", string(s.defaultFrequency)),
			zap.Time("next_run", end),
		)
		return nil, nil
	}

	if !cfg.Due(now) {
		return nil, nil
	}

	start, end := assessment.PeriodBounds(cfg.Frequency, now)
	row, err := s.Snapshot(ctx, facilityID, cfg.Frequency, start, end)
	if err != nil {
		return nil, err
	}

	// Advance the schedule even when the period was empty, so an empty
	// period is not retried until the next boundary.
	if err := s.monitoringRepo.UpdateNextRun(ctx, facilityID, end); err != nil {
		return nil, domainerrors.NewInternalError("failed to advance monitoring schedule").WithCause(err)
	}
	return row, nil
}
