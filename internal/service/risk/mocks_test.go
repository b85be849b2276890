package risk

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/assessment"
	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/evidence"
	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/rules"
)

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

type mockCAPARepository struct {
	mock.Mock
}

func (m *mockCAPARepository) GetOpenCAPAs(ctx context.Context, facilityID uuid.UUID) ([]*evidence.CAPA, error) {
	args := m.Called(ctx, facilityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*evidence.CAPA), args.Error(1)
}

type mockRuleResultRepository struct {
	mock.Mock
}

func (m *mockRuleResultRepository) GetLatestRunResults(ctx context.Context, facilityID uuid.UUID) ([]*rules.RuleResult, error) {
	args := m.Called(ctx, facilityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*rules.RuleResult), args.Error(1)
}

type mockRiskWriter struct {
	mock.Mock
}

func (m *mockRiskWriter) SaveRiskScores(ctx context.Context, scores []*assessment.RiskScore) error {
	args := m.Called(ctx, scores)
	return args.Error(0)
}
