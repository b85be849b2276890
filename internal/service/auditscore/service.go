package auditscore

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/audit"
	domainerrors "github.com/foodsafeworks/facility-compliance-backend/internal/domain/errors"
)

// service implements the Service interface
type service struct {
	logger       *zap.Logger
	simRepo      SimulationRepository
	questionRepo QuestionRepository
}

// NewService creates a new audit scoring service.
func NewService(logger *zap.Logger, simRepo SimulationRepository, questionRepo QuestionRepository) Service {
	return &service{
		logger:       logger,
		simRepo:      simRepo,
		questionRepo: questionRepo,
	}
}

// Score fetches the simulation's responses joined to the question catalog
// and computes module subtotals, the points-weighted overall score, and the
// auto-fail flag. A simulation with zero responses yields an empty module
// map, not an error; callers inspect the result rather than catch.
func (s *service) Score(ctx context.Context, simulationID uuid.UUID) (*audit.SimulationScore, error) {
	if simulationID == uuid.Nil {
		return nil, domainerrors.NewValidationError("INVALID_SIMULATION_ID", "simulation ID is required")
	}

	sim, err := s.simRepo.GetSimulation(ctx, simulationID)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to load simulation").WithCause(err)
	}
	if sim == nil {
		return nil, domainerrors.ErrSimulationNotFound
	}

	responses, err := s.simRepo.GetResponses(ctx, simulationID)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to load simulation responses").WithCause(err)
	}

	questions, err := s.questionRepo.GetQuestions(ctx)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to load question catalog").WithCause(err)
	}

	score, err := audit.ScoreSimulation(simulationID, questions, responses)
	if err != nil {
		return nil, domainerrors.NewBusinessError("SCORING_FAILED", err.Error()).WithCause(err)
	}

	s.logger.Info("simulation scored",
		zap.String("simulation_id", simulationID.String()),
		zap.Float64("overall_percent", score.OverallPercent),
		zap.String("grade", string(score.OverallGrade)),
		zap.Bool("has_auto_fail", score.HasAutoFail),
	)
	return score, nil
}
