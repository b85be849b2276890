package auditscore

import (
	"context"

	"github.com/google/uuid"

	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/audit"
)

// Service scores a completed audit simulation module-by-module with
// auto-fail semantics.
type Service interface {
	Score(ctx context.Context, simulationID uuid.UUID) (*audit.SimulationScore, error)
}

// SimulationRepository reads simulations and their responses.
type SimulationRepository interface {
	GetSimulation(ctx context.Context, simulationID uuid.UUID) (*audit.Simulation, error)
	GetResponses(ctx context.Context, simulationID uuid.UUID) ([]*audit.Response, error)
}

// QuestionRepository reads the static question catalog.
type QuestionRepository interface {
	GetQuestions(ctx context.Context) ([]*audit.Question, error)
}
