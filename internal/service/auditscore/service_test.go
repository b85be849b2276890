package auditscore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/audit"
	domainerrors "github.com/foodsafeworks/facility-compliance-backend/internal/domain/errors"
)

func TestScore_RejectsNilSimulationID(t *testing.T) {
	svc := NewService(zaptest.NewLogger(t), &mockSimulationRepository{}, &mockQuestionRepository{})

	_, err := svc.Score(context.Background(), uuid.Nil)
	require.Error(t, err)
	assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeValidation))
}

func TestScore_SimulationNotFound(t *testing.T) {
	simID := uuid.New()
	simRepo := &mockSimulationRepository{}
	simRepo.On("GetSimulation", mock.Anything, simID).Return(nil, nil)

	svc := NewService(zaptest.NewLogger(t), simRepo, &mockQuestionRepository{})
	_, err := svc.Score(context.Background(), simID)
	assert.ErrorIs(t, err, domainerrors.ErrSimulationNotFound)
}

func TestScore_ComputesSimulationScore(t *testing.T) {
	simID := uuid.New()
	sim := &audit.Simulation{ID: simID, FacilityID: uuid.New(), StartedAt: time.Now()}

	q1 := &audit.Question{ID: uuid.New(), Module: "haccp", Points: 10}
	q2 := &audit.Question{ID: uuid.New(), Module: "haccp", Points: 10, IsAutoFail: true}
	responses := []*audit.Response{
		{ID: uuid.New(), SimulationID: simID, QuestionID: q1.ID, Score: 9},
		{ID: uuid.New(), SimulationID: simID, QuestionID: q2.ID, Score: 10},
	}

	simRepo := &mockSimulationRepository{}
	simRepo.On("GetSimulation", mock.Anything, simID).Return(sim, nil)
	simRepo.On("GetResponses", mock.Anything, simID).Return(responses, nil)
	questionRepo := &mockQuestionRepository{}
	questionRepo.On("GetQuestions", mock.Anything).Return([]*audit.Question{q1, q2}, nil)

	score, err := NewService(zaptest.NewLogger(t), simRepo, questionRepo).Score(context.Background(), simID)
	require.NoError(t, err)

	assert.Equal(t, simID, score.SimulationID)
	assert.Equal(t, 95.0, score.OverallPercent)
	assert.Equal(t, audit.GradeA, score.OverallGrade)
	assert.False(t, score.HasAutoFail)
}

func TestScore_OrphanResponseIsBusinessError(t *testing.T) {
	simID := uuid.New()
	sim := &audit.Simulation{ID: simID, FacilityID: uuid.New(), StartedAt: time.Now()}
	orphan := &audit.Response{ID: uuid.New(), SimulationID: simID, QuestionID: uuid.New(), Score: 5}

	simRepo := &mockSimulationRepository{}
	simRepo.On("GetSimulation", mock.Anything, simID).Return(sim, nil)
	simRepo.On("GetResponses", mock.Anything, simID).Return([]*audit.Response{orphan}, nil)
	questionRepo := &mockQuestionRepository{}
	questionRepo.On("GetQuestions", mock.Anything).Return([]*audit.Question{}, nil)

	_, err := NewService(zaptest.NewLogger(t), simRepo, questionRepo).Score(context.Background(), simID)
	require.Error(t, err)
	assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeBusiness))
}

func TestScore_RepositoryFailureIsInternal(t *testing.T) {
	simID := uuid.New()
	simRepo := &mockSimulationRepository{}
	simRepo.On("GetSimulation", mock.Anything, simID).Return(nil, errors.New("timeout"))

	_, err := NewService(zaptest.NewLogger(t), simRepo, &mockQuestionRepository{}).Score(context.Background(), simID)
	require.Error(t, err)
	assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeInternal))
}
