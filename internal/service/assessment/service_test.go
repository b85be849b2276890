package assessment

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/assessment"
	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/audit"
	domainerrors "github.com/foodsafeworks/facility-compliance-backend/internal/domain/errors"
	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/evidence"
	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/rules"
	rulesvc "github.com/foodsafeworks/facility-compliance-backend/internal/service/rules"
)

type aggregatorMocks struct {
	rulesEngine *mockRulesEngine
	auditScorer *mockAuditScorer
	riskScorer  *mockRiskScorer
	trends      *mockTrendRecorder
	coverage    *mockCoverageRepository
	findings    *mockFindingRepository
	writer      *mockAssessmentWriter
	cache       *mockAssessmentCache
}

func newAggregator(t *testing.T) (Service, *aggregatorMocks) {
	m := &aggregatorMocks{
		rulesEngine: &mockRulesEngine{},
		auditScorer: &mockAuditScorer{},
		riskScorer:  &mockRiskScorer{},
		trends:      &mockTrendRecorder{},
		coverage:    &mockCoverageRepository{},
		findings:    &mockFindingRepository{},
		writer:      &mockAssessmentWriter{},
		cache:       &mockAssessmentCache{},
	}
	svc := NewService(zaptest.NewLogger(t), m.rulesEngine, m.auditScorer,
		m.riskScorer, m.trends, m.coverage, m.findings, m.writer, m.cache,
		DefaultConfig())
	return svc, m
}

func (m *aggregatorMocks) expectCoverage(facilityID uuid.UUID) {
	m.coverage.On("SOPCoverageCounts", mock.Anything, facilityID).Return(8, 10, nil)
	m.coverage.On("ChecklistCoverageCounts", mock.Anything, facilityID).Return(3, 4, nil)
	m.coverage.On("EnabledModules", mock.Anything, facilityID).Return([]string{"haccp", "sanitation"}, nil)
	m.coverage.On("ModulesWithResponses", mock.Anything, facilityID).Return([]string{"haccp"}, nil)
	m.findings.On("GetOpenFindings", mock.Anything, facilityID).Return([]*evidence.AuditFinding{}, nil)
}

func passingResults(n, failing int) []*rules.RuleResult {
	out := make([]*rules.RuleResult, 0, n+failing)
	for i := 0; i < n; i++ {
		out = append(out, &rules.RuleResult{ID: uuid.New(), Verdict: rules.VerdictPass})
	}
	for i := 0; i < failing; i++ {
		out = append(out, &rules.RuleResult{ID: uuid.New(), Verdict: rules.VerdictFail})
	}
	return out
}

func TestAssess_RejectsNilFacility(t *testing.T) {
	svc, _ := newAggregator(t)
	_, err := svc.Assess(context.Background(), uuid.Nil, AssessOptions{})
	require.Error(t, err)
	assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeValidation))
}

func TestAssess_EvidenceOnlyRun(t *testing.T) {
	svc, m := newAggregator(t)
	facilityID := uuid.New()

	m.rulesEngine.On("Run", mock.Anything, facilityID, rulesvc.RunOptions{}).
		Return(passingResults(3, 1), nil)
	m.expectCoverage(facilityID)

	record, err := svc.Assess(context.Background(), facilityID, AssessOptions{})
	require.NoError(t, err)

	assert.Equal(t, 3, record.RulesPassed)
	assert.Equal(t, 1, record.RulesFailed)
	assert.Equal(t, 80.0, record.SOPCoverage)
	assert.Equal(t, 75.0, record.ChecklistCoverage)
	// One of two enabled modules has audit responses.
	assert.Equal(t, 50.0, record.AuditCoverage)
	assert.Equal(t, assessment.TypeManual, record.Type)

	// Rule compliance 75 at weight 0.25 plus mean coverage 68.33 at 0.25,
	// renormalized over 0.5: (75 + 68.33) / 2 = 71.67.
	assert.InDelta(t, 71.67, record.OverallScore, 0.01)
	assert.Equal(t, audit.GradeC, record.Grade)
	assert.False(t, record.HasAutoFail)

	// Nothing persisted without SaveAssessment.
	m.writer.AssertNotCalled(t, "SaveRun", mock.Anything, mock.Anything, mock.Anything)
	m.cache.AssertNotCalled(t, "SetLatest", mock.Anything, mock.Anything)
	m.riskScorer.AssertNotCalled(t, "Score", mock.Anything, mock.Anything)
}

func TestAssess_WithSimulationBlendsAuditScore(t *testing.T) {
	svc, m := newAggregator(t)
	facilityID := uuid.New()
	simID := uuid.New()

	m.rulesEngine.On("Run", mock.Anything, facilityID, rulesvc.RunOptions{}).
		Return(passingResults(4, 0), nil)
	m.auditScorer.On("Score", mock.Anything, simID).Return(&audit.SimulationScore{
		SimulationID: simID,
		ModuleScores: map[string]*audit.ModuleScore{
			"haccp": {Module: "haccp", Earned: 90, Total: 100, Percent: 90, Grade: audit.GradeA},
		},
		OverallPercent: 90,
		OverallGrade:   audit.GradeA,
	}, nil)
	m.expectCoverage(facilityID)

	record, err := svc.Assess(context.Background(), facilityID,
		AssessOptions{SimulationID: &simID})
	require.NoError(t, err)

	assert.Equal(t, 90.0, record.ModuleScores["haccp"])
	// 90*0.5 + 100*0.25 + 68.33*0.25 over full weight 1.0 = 87.08.
	assert.InDelta(t, 87.08, record.OverallScore, 0.01)
	assert.Equal(t, audit.GradeB, record.Grade)
}

func TestAssess_BlendWeightsComeFromConfig(t *testing.T) {
	m := &aggregatorMocks{
		rulesEngine: &mockRulesEngine{},
		auditScorer: &mockAuditScorer{},
		riskScorer:  &mockRiskScorer{},
		trends:      &mockTrendRecorder{},
		coverage:    &mockCoverageRepository{},
		findings:    &mockFindingRepository{},
		writer:      &mockAssessmentWriter{},
		cache:       &mockAssessmentCache{},
	}
	svc := NewService(zaptest.NewLogger(t), m.rulesEngine, m.auditScorer,
		m.riskScorer, m.trends, m.coverage, m.findings, m.writer, m.cache,
		Config{AuditWeight: 0.8, RuleWeight: 0.1, CoverageWeight: 0.1})
	facilityID := uuid.New()
	simID := uuid.New()

	m.rulesEngine.On("Run", mock.Anything, facilityID, rulesvc.RunOptions{}).
		Return(passingResults(4, 0), nil)
	m.auditScorer.On("Score", mock.Anything, simID).Return(&audit.SimulationScore{
		SimulationID: simID,
		ModuleScores: map[string]*audit.ModuleScore{
			"haccp": {Module: "haccp", Percent: 90, Grade: audit.GradeA},
		},
		OverallPercent: 90,
		OverallGrade:   audit.GradeA,
	}, nil)
	m.expectCoverage(facilityID)

	record, err := svc.Assess(context.Background(), facilityID,
		AssessOptions{SimulationID: &simID})
	require.NoError(t, err)

	// 90*0.8 + 100*0.1 + 68.33*0.1 = 88.83, not the default blend's 87.08.
	assert.InDelta(t, 88.83, record.OverallScore, 0.01)
}

func TestAssess_RepeatedRunsOnUnchangedDataAreStable(t *testing.T) {
	svc, m := newAggregator(t)
	facilityID := uuid.New()

	m.rulesEngine.On("Run", mock.Anything, facilityID, rulesvc.RunOptions{}).
		Return(passingResults(3, 1), nil)
	m.expectCoverage(facilityID)

	first, err := svc.Assess(context.Background(), facilityID, AssessOptions{})
	require.NoError(t, err)
	second, err := svc.Assess(context.Background(), facilityID, AssessOptions{})
	require.NoError(t, err)

	// Unchanged inputs produce the same derived values; only identity and
	// timestamps differ between runs.
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.OverallScore, second.OverallScore)
	assert.Equal(t, first.Grade, second.Grade)
	assert.Equal(t, first.SOPCoverage, second.SOPCoverage)
	assert.Equal(t, first.ChecklistCoverage, second.ChecklistCoverage)
	assert.Equal(t, first.AuditCoverage, second.AuditCoverage)
	assert.Equal(t, first.RulesPassed, second.RulesPassed)
	assert.Equal(t, first.RulesFailed, second.RulesFailed)
	assert.Equal(t, first.RulesNotApplicable, second.RulesNotApplicable)
	assert.Equal(t, first.FindingCounts, second.FindingCounts)
}

func TestAssess_AutoFailForcesGradeF(t *testing.T) {
	svc, m := newAggregator(t)
	facilityID := uuid.New()
	simID := uuid.New()

	m.rulesEngine.On("Run", mock.Anything, facilityID, rulesvc.RunOptions{}).
		Return(passingResults(4, 0), nil)
	m.auditScorer.On("Score", mock.Anything, simID).Return(&audit.SimulationScore{
		SimulationID: simID,
		ModuleScores: map[string]*audit.ModuleScore{
			"haccp": {Module: "haccp", Percent: 96, HasAutoFail: true, Grade: audit.GradeF},
		},
		OverallPercent: 96,
		OverallGrade:   audit.GradeF,
		HasAutoFail:    true,
	}, nil)
	m.expectCoverage(facilityID)

	record, err := svc.Assess(context.Background(), facilityID,
		AssessOptions{SimulationID: &simID})
	require.NoError(t, err)

	assert.True(t, record.HasAutoFail)
	assert.Equal(t, audit.GradeF, record.Grade)
	// The numeric score is still reported; only the grade is forced.
	assert.Greater(t, record.OverallScore, 60.0)
}

func TestAssess_SaveFlowPersistsAndCascades(t *testing.T) {
	svc, m := newAggregator(t)
	facilityID := uuid.New()
	results := passingResults(2, 0)

	m.rulesEngine.On("Run", mock.Anything, facilityID, rulesvc.RunOptions{}).Return(results, nil)
	m.expectCoverage(facilityID)
	m.writer.On("SaveRun", mock.Anything, mock.Anything, results).Return(nil)
	m.cache.On("SetLatest", mock.Anything, mock.Anything).Return(nil)
	m.riskScorer.On("Score", mock.Anything, facilityID).Return([]*assessment.RiskScore{}, nil)
	m.trends.On("RunScheduled", mock.Anything, facilityID).Return(nil, nil)

	record, err := svc.Assess(context.Background(), facilityID, AssessOptions{
		SaveAssessment: true,
		Type:           assessment.TypeScheduled,
	})
	require.NoError(t, err)

	// Results are stamped with the assessment ID before persisting.
	for _, r := range results {
		require.NotNil(t, r.AssessmentID)
		assert.Equal(t, record.ID, *r.AssessmentID)
	}
	m.writer.AssertExpectations(t)
	m.riskScorer.AssertExpectations(t)
	m.trends.AssertExpectations(t)
}

func TestAssess_CacheFailureIsNotFatal(t *testing.T) {
	svc, m := newAggregator(t)
	facilityID := uuid.New()

	m.rulesEngine.On("Run", mock.Anything, facilityID, rulesvc.RunOptions{}).
		Return(passingResults(1, 0), nil)
	m.expectCoverage(facilityID)
	m.writer.On("SaveRun", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	m.cache.On("SetLatest", mock.Anything, mock.Anything).Return(errors.New("redis down"))
	m.riskScorer.On("Score", mock.Anything, facilityID).Return([]*assessment.RiskScore{}, nil)
	m.trends.On("RunScheduled", mock.Anything, facilityID).Return(nil, nil)

	_, err := svc.Assess(context.Background(), facilityID, AssessOptions{SaveAssessment: true})
	assert.NoError(t, err)
}

func TestAssess_WriterFailureAbortsBeforeCascade(t *testing.T) {
	svc, m := newAggregator(t)
	facilityID := uuid.New()

	m.rulesEngine.On("Run", mock.Anything, facilityID, rulesvc.RunOptions{}).
		Return(passingResults(1, 0), nil)
	m.expectCoverage(facilityID)
	m.writer.On("SaveRun", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("constraint violation"))

	_, err := svc.Assess(context.Background(), facilityID, AssessOptions{SaveAssessment: true})
	require.Error(t, err)
	assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeInternal))
	m.riskScorer.AssertNotCalled(t, "Score", mock.Anything, mock.Anything)
	m.trends.AssertNotCalled(t, "RunScheduled", mock.Anything, mock.Anything)
}

func TestAssess_FindingCountsBySeverity(t *testing.T) {
	svc, m := newAggregator(t)
	facilityID := uuid.New()

	m.rulesEngine.On("Run", mock.Anything, facilityID, rulesvc.RunOptions{}).
		Return([]*rules.RuleResult{}, nil)
	m.coverage.On("SOPCoverageCounts", mock.Anything, facilityID).Return(0, 0, nil)
	m.coverage.On("ChecklistCoverageCounts", mock.Anything, facilityID).Return(0, 0, nil)
	m.coverage.On("EnabledModules", mock.Anything, facilityID).Return([]string{}, nil)
	m.coverage.On("ModulesWithResponses", mock.Anything, facilityID).Return([]string{}, nil)
	m.findings.On("GetOpenFindings", mock.Anything, facilityID).Return([]*evidence.AuditFinding{
		{Severity: "critical", Status: evidence.FindingStatusOpen},
		{Severity: "major", Status: evidence.FindingStatusOpen},
		{Severity: "major", Status: evidence.FindingStatusOpen},
		{Severity: "minor", Status: evidence.FindingStatusResolved},
	}, nil)

	record, err := svc.Assess(context.Background(), facilityID, AssessOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, record.FindingCounts["critical"])
	assert.Equal(t, 2, record.FindingCounts["major"])
	assert.Equal(t, 0, record.FindingCounts["minor"])

	// Zero denominators are vacuously compliant, so an empty facility
	// still yields a full coverage component.
	assert.Equal(t, 100.0, record.SOPCoverage)
	assert.Equal(t, 100.0, record.AuditCoverage)
}
