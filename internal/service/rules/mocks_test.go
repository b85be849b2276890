package rules

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/rules"
)

type mockRuleRepository struct {
	mock.Mock
}

func (m *mockRuleRepository) GetActiveRules(ctx context.Context) ([]*rules.ComplianceRule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*rules.ComplianceRule), args.Error(1)
}

type mockEntityAccessor struct {
	mock.Mock
}

func (m *mockEntityAccessor) GetEntities(ctx context.Context, facilityID uuid.UUID, entityType rules.EntityType) ([]rules.Entity, error) {
	args := m.Called(ctx, facilityID, entityType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]rules.Entity), args.Error(1)
}
