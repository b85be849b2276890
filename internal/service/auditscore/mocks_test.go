package auditscore

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/audit"
)

type mockSimulationRepository struct {
	mock.Mock
}

func (m *mockSimulationRepository) GetSimulation(ctx context.Context, simulationID uuid.UUID) (*audit.Simulation, error) {
	args := m.Called(ctx, simulationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*audit.Simulation), args.Error(1)
}

func (m *mockSimulationRepository) GetResponses(ctx context.Context, simulationID uuid.UUID) ([]*audit.Response, error) {
	args := m.Called(ctx, simulationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*audit.Response), args.Error(1)
}

type mockQuestionRepository struct {
	mock.Mock
}

func (m *mockQuestionRepository) GetQuestions(ctx context.Context) ([]*audit.Question, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*audit.Question), args.Error(1)
}
