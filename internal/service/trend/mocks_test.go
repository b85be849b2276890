package trend

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/assessment"
	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/rules"
)

type mockAssessmentReader struct {
	mock.Mock
}

func (m *mockAssessmentReader) GetLatestAssessmentInWindow(ctx context.Context, facilityID uuid.UUID, start, end time.Time) (*assessment.ComplianceAssessment, error) {
	args := m.Called(ctx, facilityID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assessment.ComplianceAssessment), args.Error(1)
}

type mockRuleResultReader struct {
	mock.Mock
}

func (m *mockRuleResultReader) GetResultsForAssessment(ctx context.Context, assessmentID uuid.UUID) ([]*rules.RuleResult, error) {
	args := m.Called(ctx, assessmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*rules.RuleResult), args.Error(1)
}

type mockTrendWriter struct {
	mock.Mock
}

func (m *mockTrendWriter) UpsertTrend(ctx context.Context, t *assessment.ComplianceTrend) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

type mockMonitoringRepository struct {
	mock.Mock
}

func (m *mockMonitoringRepository) GetMonitoringConfig(ctx context.Context, facilityID uuid.UUID) (*assessment.MonitoringConfig, error) {
	args := m.Called(ctx, facilityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assessment.MonitoringConfig), args.Error(1)
}

func (m *mockMonitoringRepository) UpsertMonitoringConfig(ctx context.Context, cfg *assessment.MonitoringConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

func (m *mockMonitoringRepository) UpdateNextRun(ctx context.Context, facilityID uuid.UUID, nextRun time.Time) error {
	args := m.Called(ctx, facilityID, nextRun)
	return args.Error(0)
}
