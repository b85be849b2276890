package risk

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/assessment"
	domainerrors "github.com/foodsafeworks/facility-compliance-backend/internal/domain/errors"
	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/rules"
)

// service implements the Service interface
type service struct {
	logger      *zap.Logger
	findingRepo FindingRepository
	capaRepo    CAPARepository
	resultRepo  RuleResultRepository
	writer      RiskWriter
	config      Config
	clock       func() time.Time
}

// NewService creates a new risk scoring service.
func NewService(logger *zap.Logger, findingRepo FindingRepository, capaRepo CAPARepository, resultRepo RuleResultRepository, writer RiskWriter, config Config) Service {
	return &service{
		logger:      logger,
		findingRepo: findingRepo,
		capaRepo:    capaRepo,
		resultRepo:  resultRepo,
		writer:      writer,
		config:      config,
		clock:       time.Now,
	}
}

// Score computes one overall risk score plus one per module that has open
// findings, persists them, and returns them with factors ordered by
// contribution descending.
func (s *service) Score(ctx context.Context, facilityID uuid.UUID) ([]*assessment.RiskScore, error) {
	if facilityID == uuid.Nil {
		return nil, domainerrors.NewValidationError("INVALID_FACILITY_ID", "facility ID is required")
	}

	findings, err := s.findingRepo.GetOpenFindings(ctx, facilityID)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to load open findings").WithCause(err)
	}
	capas, err := s.capaRepo.GetOpenCAPAs(ctx, facilityID)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to load open CAPAs").WithCause(err)
	}
	results, err := s.resultRepo.GetLatestRunResults(ctx, facilityID)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to load rule results").WithCause(err)
	}

	now := s.clock().UTC()

	overall := &assessment.RiskScore{
		ID:           uuid.New(),
		FacilityID:   facilityID,
		CalculatedAt: now,
	}
	perModule := make(map[string]*assessment.RiskScore)

	for _, f := range findings {
		weight := s.findingWeight(f.Severity)
		factor := assessment.ContributingFactor{
			Kind:         "finding",
			Reference:    f.ID.String(),
			Description:  fmt.Sprintf("open %s finding: %s", f.Severity, f.Description),
			Contribution: weight,
		}
		overall.Score += weight
		overall.Factors = append(overall.Factors, factor)

		if f.Module != "" {
			ms := perModule[f.Module]
			if ms == nil {
				ms = &assessment.RiskScore{
					ID:           uuid.New(),
					FacilityID:   facilityID,
					Module:       f.Module,
					CalculatedAt: now,
				}
				perModule[f.Module] = ms
			}
			ms.Score += weight
			ms.Factors = append(ms.Factors, factor)
		}
	}

	for _, c := range capas {
		days := c.DaysOverdue(now)
		if days == 0 {
			continue
		}
		if days > s.config.CAPAOverdueDayCap {
			days = s.config.CAPAOverdueDayCap
		}
		weight := float64(days) * s.config.CAPAOverduePerDay
		overall.Score += weight
		overall.Factors = append(overall.Factors, assessment.ContributingFactor{
			Kind:         "capa",
			Reference:    c.ID.String(),
			Description:  fmt.Sprintf("CAPA %d days overdue: %s", c.DaysOverdue(now), c.Description),
			Contribution: weight,
		})
	}

	for _, r := range results {
		if r.Verdict != rules.VerdictFail {
			continue
		}
		overall.Score += s.config.FailedRuleWeight
		overall.Factors = append(overall.Factors, assessment.ContributingFactor{
			Kind:         "rule",
			Reference:    r.RuleCode,
			Description:  fmt.Sprintf("failed rule %s: %s", r.RuleCode, r.Details),
			Contribution: s.config.FailedRuleWeight,
		})
	}

	scores := []*assessment.RiskScore{overall}
	moduleNames := make([]string, 0, len(perModule))
	for name := range perModule {
		moduleNames = append(moduleNames, name)
	}
	sort.Strings(moduleNames)
	for _, name := range moduleNames {
		scores = append(scores, perModule[name])
	}

	for _, score := range scores {
		score.Level = s.levelFor(score.Score)
		score.Recommendation = recommendationFor(score.Level)
		score.SortFactors()
	}

	if err := s.writer.SaveRiskScores(ctx, scores); err != nil {
		return nil, domainerrors.NewInternalError("failed to save risk scores").WithCause(err)
	}

	s.logger.Info("risk scored",
		zap.String("facility_id", facilityID.String()),
		zap.Float64("overall_score", overall.Score),
		zap.String("level", string(overall.Level)),
		zap.Int("module_scores", len(perModule)),
	)
	return scores, nil
}

func (s *service) findingWeight(severity string) float64 {
	switch severity {
	case "critical":
		return s.config.CriticalFindingWeight
	case "major":
		return s.config.MajorFindingWeight
	default:
		return s.config.MinorFindingWeight
	}
}

func (s *service) levelFor(score float64) assessment.RiskLevel {
	switch {
	case score >= s.config.CriticalThreshold:
		return assessment.RiskCritical
	case score >= s.config.HighThreshold:
		return assessment.RiskHigh
	case score >= s.config.MediumThreshold:
		return assessment.RiskMedium
	default:
		return assessment.RiskLow
	}
}

func recommendationFor(level assessment.RiskLevel) string {
	switch level {
	case assessment.RiskCritical:
		return "Immediate corrective action required; escalate to facility leadership and schedule a follow-up audit."
	case assessment.RiskHigh:
		return "Prioritize open critical findings and overdue CAPAs this week."
	case assessment.RiskMedium:
		return "Review open findings and bring overdue CAPAs back on schedule."
	default:
		return "Maintain current monitoring cadence."
	}
}
