package assessment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/assessment"
	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/audit"
	domainerrors "github.com/foodsafeworks/facility-compliance-backend/internal/domain/errors"
	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/evidence"
	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/rules"
	auditsvc "github.com/foodsafeworks/facility-compliance-backend/internal/service/auditscore"
	risksvc "github.com/foodsafeworks/facility-compliance-backend/internal/service/risk"
	rulesvc "github.com/foodsafeworks/facility-compliance-backend/internal/service/rules"
	trendsvc "github.com/foodsafeworks/facility-compliance-backend/internal/service/trend"
)

// Config carries the component weights for the overall score. When a
// component is absent from a run (no simulation, no applicable rules) its
// weight is dropped and the rest renormalize.
type Config struct {
	AuditWeight    float64
	RuleWeight     float64
	CoverageWeight float64
}

// DefaultConfig returns the standard blend weights.
func DefaultConfig() Config {
	return Config{
		AuditWeight:    0.5,
		RuleWeight:     0.25,
		CoverageWeight: 0.25,
	}
}

// service implements the Service interface
type service struct {
	logger        *zap.Logger
	rulesEngine   rulesvc.Service
	auditScorer   auditsvc.Service
	riskScorer    risksvc.Service
	trendRecorder trendsvc.Service
	coverageRepo  CoverageRepository
	findingRepo   FindingRepository
	writer        AssessmentWriter
	cache         AssessmentCache
	config        Config
	clock         func() time.Time

	// Concurrent runs for the same facility are serialized so each run
	// reads a consistent snapshot and writes one new historical row.
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewService creates the compliance aggregator.
func NewService(
	logger *zap.Logger,
	rulesEngine rulesvc.Service,
	auditScorer auditsvc.Service,
	riskScorer risksvc.Service,
	trendRecorder trendsvc.Service,
	coverageRepo CoverageRepository,
	findingRepo FindingRepository,
	writer AssessmentWriter,
	cache AssessmentCache,
	config Config,
) Service {
	return &service{
		logger:        logger,
		rulesEngine:   rulesEngine,
		auditScorer:   auditScorer,
		riskScorer:    riskScorer,
		trendRecorder: trendRecorder,
		coverageRepo:  coverageRepo,
		findingRepo:   findingRepo,
		writer:        writer,
		cache:         cache,
		config:        config,
		clock:         time.Now,
		locks:         make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *service) facilityLock(facilityID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[facilityID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[facilityID] = lock
	}
	return lock
}

// Assess runs one single-pass assessment for the facility. Either the
// rules engine or the audit scorer may carry the run (evidence-only and
// score-only runs are both valid). Nothing is persisted unless
// opts.SaveAssessment is set, and a failed run writes nothing at all.
func (s *service) Assess(ctx context.Context, facilityID uuid.UUID, opts AssessOptions) (*assessment.ComplianceAssessment, error) {
	if facilityID == uuid.Nil {
		return nil, domainerrors.NewValidationError("INVALID_FACILITY_ID", "facility ID is required")
	}

	lock := s.facilityLock(facilityID)
	lock.Lock()
	defer lock.Unlock()

	start := s.clock()

	results, err := s.rulesEngine.Run(ctx, facilityID, rulesvc.RunOptions{Module: opts.Module})
	if err != nil {
		return nil, err
	}

	var simScore *audit.SimulationScore
	if opts.SimulationID != nil {
		simScore, err = s.auditScorer.Score(ctx, *opts.SimulationID)
		if err != nil {
			return nil, err
		}
	}

	sopCurrent, sopApplicable, err := s.coverageRepo.SOPCoverageCounts(ctx, facilityID)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to load SOP coverage counts").WithCause(err)
	}
	checklistDone, checklistApplicable, err := s.coverageRepo.ChecklistCoverageCounts(ctx, facilityID)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to load checklist coverage counts").WithCause(err)
	}
	enabledModules, err := s.coverageRepo.EnabledModules(ctx, facilityID)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to load enabled modules").WithCause(err)
	}
	respondedModules, err := s.coverageRepo.ModulesWithResponses(ctx, facilityID)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to load audited modules").WithCause(err)
	}

	findings, err := s.findingRepo.GetOpenFindings(ctx, facilityID)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to load open findings").WithCause(err)
	}

	record := s.buildAssessment(facilityID, opts, results, simScore,
		sopCurrent, sopApplicable, checklistDone, checklistApplicable,
		enabledModules, respondedModules, findings)

	if opts.SaveAssessment {
		for _, r := range results {
			id := record.ID
			r.AssessmentID = &id
		}
		if err := s.writer.SaveRun(ctx, record, results); err != nil {
			return nil, domainerrors.NewInternalError("failed to persist assessment run").WithCause(err)
		}
		if err := s.cache.SetLatest(ctx, record); err != nil {
			// Cache is best-effort; the committed row is the source of truth.
			s.logger.Warn("failed to cache latest assessment",
				zap.String("facility_id", facilityID.String()),
				zap.Error(err),
			)
		}

		if _, err := s.riskScorer.Score(ctx, facilityID); err != nil {
			return nil, err
		}
		if _, err := s.trendRecorder.RunScheduled(ctx, facilityID); err != nil {
			return nil, err
		}
	}

	observeRun(record, s.clock().Sub(start))
	s.logger.Info("assessment complete",
		zap.String("facility_id", facilityID.String()),
		zap.Float64("overall_score", record.OverallScore),
		zap.String("grade", string(record.Grade)),
		zap.Bool("has_auto_fail", record.HasAutoFail),
		zap.Bool("saved", opts.SaveAssessment),
	)
	return record, nil
}

func (s *service) buildAssessment(
	facilityID uuid.UUID,
	opts AssessOptions,
	results []*rules.RuleResult,
	simScore *audit.SimulationScore,
	sopCurrent, sopApplicable, checklistDone, checklistApplicable int,
	enabledModules, respondedModules []string,
	findings []*evidence.AuditFinding,
) *assessment.ComplianceAssessment {
	now := s.clock().UTC()

	record := &assessment.ComplianceAssessment{
		ID:             uuid.New(),
		FacilityID:     facilityID,
		AssessmentDate: now,
		Type:           opts.Type,
		Scope:          opts.Scope,
		ModuleScores:   make(map[string]float64),
		FindingCounts:  map[string]int{"critical": 0, "major": 0, "minor": 0},
		CreatedAt:      now,
	}
	if record.Type == "" {
		record.Type = assessment.TypeManual
	}

	for _, r := range results {
		switch r.Verdict {
		case rules.VerdictPass:
			record.RulesPassed++
		case rules.VerdictFail:
			record.RulesFailed++
		case rules.VerdictNotApplicable:
			record.RulesNotApplicable++
		}
	}

	record.SOPCoverage = assessment.NewCoverageRatio(sopCurrent, sopApplicable)
	record.ChecklistCoverage = assessment.NewCoverageRatio(checklistDone, checklistApplicable)

	covered := 0
	responded := make(map[string]bool, len(respondedModules))
	for _, m := range respondedModules {
		responded[m] = true
	}
	for _, m := range enabledModules {
		if responded[m] {
			covered++
		}
	}
	record.AuditCoverage = assessment.NewCoverageRatio(covered, len(enabledModules))

	for _, f := range findings {
		if !f.IsOpen() {
			continue
		}
		record.FindingCounts[f.Severity]++
	}

	if simScore != nil {
		record.HasAutoFail = simScore.HasAutoFail
		for module, ms := range simScore.ModuleScores {
			record.ModuleScores[module] = ms.Percent
		}
	}

	record.OverallScore = s.overallScore(record, simScore)
	if record.HasAutoFail {
		record.Grade = audit.GradeF
	} else {
		record.Grade = audit.GradeForScore(record.OverallScore)
	}
	return record
}

// overallScore blends the audit score, rule compliance rate, and mean
// coverage. Absent components drop out and the remaining weights
// renormalize, so an evidence-only run is still a total function.
func (s *service) overallScore(record *assessment.ComplianceAssessment, simScore *audit.SimulationScore) float64 {
	type component struct {
		value  float64
		weight float64
	}
	var parts []component

	if simScore != nil && len(simScore.ModuleScores) > 0 {
		parts = append(parts, component{simScore.OverallPercent, s.config.AuditWeight})
	}
	if applicable := record.RulesPassed + record.RulesFailed; applicable > 0 {
		parts = append(parts, component{assessment.NewCoverageRatio(record.RulesPassed, applicable), s.config.RuleWeight})
	}
	meanCoverage := (record.SOPCoverage + record.ChecklistCoverage + record.AuditCoverage) / 3
	parts = append(parts, component{meanCoverage, s.config.CoverageWeight})

	var weightedSum, totalWeight float64
	for _, p := range parts {
		weightedSum += p.value * p.weight
		totalWeight += p.weight
	}
	if totalWeight == 0 {
		return 0
	}
	score := decimal.NewFromFloat(weightedSum).
		Div(decimal.NewFromFloat(totalWeight)).
		Round(2)
	f, _ := score.Float64()
	return f
}
