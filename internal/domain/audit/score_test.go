package audit

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func question(module string, points int, autoFail bool) *Question {
	return &Question{
		ID:         uuid.New(),
		Module:     module,
		Text:       "test question",
		Points:     points,
		IsAutoFail: autoFail,
	}
}

func response(q *Question, score int) *Response {
	return &Response{
		ID:         uuid.New(),
		QuestionID: q.ID,
		Score:      score,
	}
}

func TestGradeForScore(t *testing.T) {
	tests := []struct {
		pct   float64
		grade Grade
	}{
		{100, GradeA},
		{90, GradeA},
		{89.99, GradeB},
		{80, GradeB},
		{70, GradeC},
		{60, GradeD},
		{59.99, GradeF},
		{0, GradeF},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.grade, GradeForScore(tt.pct), "pct %v", tt.pct)
	}
}

func TestScoreSimulation_PointsWeightedOverall(t *testing.T) {
	// haccp: 18/20, sanitation: 3/10. Overall is 21/30 = 70%, not the
	// 60% average of the two module percentages.
	q1 := question("haccp", 20, false)
	q2 := question("sanitation", 10, false)

	score, err := ScoreSimulation(uuid.New(),
		[]*Question{q1, q2},
		[]*Response{response(q1, 18), response(q2, 3)})
	require.NoError(t, err)

	assert.Equal(t, 70.0, score.OverallPercent)
	assert.Equal(t, GradeC, score.OverallGrade)
	assert.False(t, score.HasAutoFail)

	require.Len(t, score.ModuleScores, 2)
	assert.Equal(t, 90.0, score.ModuleScores["haccp"].Percent)
	assert.Equal(t, GradeA, score.ModuleScores["haccp"].Grade)
	assert.Equal(t, 30.0, score.ModuleScores["sanitation"].Percent)
	assert.Equal(t, GradeF, score.ModuleScores["sanitation"].Grade)
}

func TestScoreSimulation_AutoFailForcesF(t *testing.T) {
	// 29/30 would be an A, but the zero-scored auto-fail question forces
	// the module and the overall result to F.
	q1 := question("haccp", 20, false)
	q2 := question("haccp", 5, true)
	q3 := question("sanitation", 5, false)

	score, err := ScoreSimulation(uuid.New(),
		[]*Question{q1, q2, q3},
		[]*Response{response(q1, 20), response(q2, 0), response(q3, 5)})
	require.NoError(t, err)

	assert.True(t, score.HasAutoFail)
	assert.Equal(t, GradeF, score.OverallGrade)
	assert.True(t, score.ModuleScores["haccp"].HasAutoFail)
	assert.Equal(t, GradeF, score.ModuleScores["haccp"].Grade)

	// Unaffected module keeps its own grade.
	assert.False(t, score.ModuleScores["sanitation"].HasAutoFail)
	assert.Equal(t, GradeA, score.ModuleScores["sanitation"].Grade)
}

func TestScoreSimulation_AutoFailQuestionWithPartialScore(t *testing.T) {
	// An auto-fail question only triggers when scored exactly zero.
	q := question("haccp", 10, true)

	score, err := ScoreSimulation(uuid.New(),
		[]*Question{q}, []*Response{response(q, 1)})
	require.NoError(t, err)

	assert.False(t, score.HasAutoFail)
	assert.Equal(t, 10.0, score.OverallPercent)
}

func TestScoreSimulation_ZeroPointQuestionsExcluded(t *testing.T) {
	informational := question("haccp", 0, false)
	scored := question("haccp", 10, false)

	score, err := ScoreSimulation(uuid.New(),
		[]*Question{informational, scored},
		[]*Response{response(informational, 0), response(scored, 10)})
	require.NoError(t, err)

	assert.Equal(t, 100.0, score.OverallPercent)
	assert.Equal(t, 10, score.ModuleScores["haccp"].Total)
}

func TestScoreSimulation_NoResponses(t *testing.T) {
	score, err := ScoreSimulation(uuid.New(), []*Question{question("haccp", 10, false)}, nil)
	require.NoError(t, err)

	assert.Empty(t, score.ModuleScores)
	assert.Equal(t, 0.0, score.OverallPercent)
	assert.Equal(t, GradeF, score.OverallGrade)
}

func TestScoreSimulation_UnknownQuestion(t *testing.T) {
	orphan := &Response{ID: uuid.New(), QuestionID: uuid.New(), Score: 5}

	_, err := ScoreSimulation(uuid.New(), nil, []*Response{orphan})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown question")
}

func TestResponse_Validate(t *testing.T) {
	q := question("haccp", 10, false)

	assert.NoError(t, response(q, 0).Validate(q))
	assert.NoError(t, response(q, 10).Validate(q))

	err := response(q, 11).Validate(q)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	err = response(q, -1).Validate(q)
	assert.Error(t, err)

	other := question("haccp", 10, false)
	err = response(q, 5).Validate(other)
	assert.Error(t, err)
}

func TestRoundPercent(t *testing.T) {
	assert.Equal(t, 0.0, RoundPercent(5, 0))
	assert.Equal(t, 66.67, RoundPercent(2, 3))
	assert.Equal(t, 33.33, RoundPercent(1, 3))
	assert.Equal(t, 100.0, RoundPercent(10, 10))
	assert.Equal(t, 12.5, RoundPercent(1, 8))
}

func TestSimulationScore_Modules(t *testing.T) {
	s := &SimulationScore{ModuleScores: map[string]*ModuleScore{
		"sanitation": {}, "allergens": {}, "haccp": {},
	}}
	assert.Equal(t, []string{"allergens", "haccp", "sanitation"}, s.Modules())
}
