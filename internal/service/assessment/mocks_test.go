package assessment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/assessment"
	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/audit"
	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/evidence"
	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/rules"
	rulesvc "github.com/foodsafeworks/facility-compliance-backend/internal/service/rules"
)

type mockRulesEngine struct {
	mock.Mock
}

func (m *mockRulesEngine) Run(ctx context.Context, facilityID uuid.UUID, opts rulesvc.RunOptions) ([]*rules.RuleResult, error) {
	args := m.Called(ctx, facilityID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*rules.RuleResult), args.Error(1)
}

type mockAuditScorer struct {
	mock.Mock
}

func (m *mockAuditScorer) Score(ctx context.Context, simulationID uuid.UUID) (*audit.SimulationScore, error) {
	args := m.Called(ctx, simulationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*audit.SimulationScore), args.Error(1)
}

type mockRiskScorer struct {
	mock.Mock
}

func (m *mockRiskScorer) Score(ctx context.Context, facilityID uuid.UUID) ([]*assessment.RiskScore, error) {
	args := m.Called(ctx, facilityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*assessment.RiskScore), args.Error(1)
}

type mockTrendRecorder struct {
	mock.Mock
}

func (m *mockTrendRecorder) Snapshot(ctx context.Context, facilityID uuid.UUID, periodType assessment.PeriodType, periodStart, periodEnd time.Time) (*assessment.ComplianceTrend, error) {
	args := m.Called(ctx, facilityID, periodType, periodStart, periodEnd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assessment.ComplianceTrend), args.Error(1)
}

func (m *mockTrendRecorder) RunScheduled(ctx context.Context, facilityID uuid.UUID) (*assessment.ComplianceTrend, error) {
	args := m.Called(ctx, facilityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assessment.ComplianceTrend), args.Error(1)
}

type mockCoverageRepository struct {
	mock.Mock
}

func (m *mockCoverageRepository) SOPCoverageCounts(ctx context.Context, facilityID uuid.UUID) (int, int, error) {
	args := m.Called(ctx, facilityID)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *mockCoverageRepository) ChecklistCoverageCounts(ctx context.Context, facilityID uuid.UUID) (int, int, error) {
	args := m.Called(ctx, facilityID)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *mockCoverageRepository) EnabledModules(ctx context.Context, facilityID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, facilityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockCoverageRepository) ModulesWithResponses(ctx context.Context, facilityID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, facilityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type mockFindingRepository struct {
	mock.Mock
}

func (m *mockFindingRepository) GetOpenFindings(ctx context.Context, facilityID uuid.UUID) ([]*evidence.AuditFinding, error) {
	args := m.Called(ctx, facilityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*evidence.AuditFinding), args.Error(1)
}

type mockAssessmentWriter struct {
	mock.Mock
}

func (m *mockAssessmentWriter) SaveRun(ctx context.Context, a *assessment.ComplianceAssessment, results []*rules.RuleResult) error {
	args := m.Called(ctx, a, results)
	return args.Error(0)
}

type mockAssessmentCache struct {
	mock.Mock
}

func (m *mockAssessmentCache) SetLatest(ctx context.Context, a *assessment.ComplianceAssessment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}
