package rules

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainerrors "github.com/foodsafeworks/facility-compliance-backend/internal/domain/errors"
	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/rules"
)

// service implements the Service interface
type service struct {
	logger    *zap.Logger
	ruleRepo  RuleRepository
	accessor  EntityAccessor
	evaluator *rules.Evaluator
	clock     func() time.Time
}

// NewService creates a new rules engine service.
func NewService(logger *zap.Logger, ruleRepo RuleRepository, accessor EntityAccessor) Service {
	return &service{
		logger:    logger,
		ruleRepo:  ruleRepo,
		accessor:  accessor,
		evaluator: rules.NewEvaluator(),
		clock:     time.Now,
	}
}

// NewServiceWithClock creates a rules engine with a fixed clock for
// deterministic date-relative evaluation in tests.
func NewServiceWithClock(logger *zap.Logger, ruleRepo RuleRepository, accessor EntityAccessor, clock func() time.Time) Service {
	return &service{
		logger:    logger,
		ruleRepo:  ruleRepo,
		accessor:  accessor,
		evaluator: rules.NewEvaluator().WithClock(clock),
		clock:     clock,
	}
}

// Run evaluates every active rule against the facility's evidence
// population. Every rule produces exactly one result row so completeness is
// auditable; malformed rules yield not_applicable, never a silent skip.
func (s *service) Run(ctx context.Context, facilityID uuid.UUID, opts RunOptions) ([]*rules.RuleResult, error) {
	if facilityID == uuid.Nil {
		return nil, domainerrors.NewValidationError("INVALID_FACILITY_ID", "facility ID is required")
	}

	activeRules, err := s.ruleRepo.GetActiveRules(ctx)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to load active rules").WithCause(err)
	}

	now := s.clock().UTC()
	results := make([]*rules.RuleResult, 0, len(activeRules))

	// Populations are shared across rules targeting the same entity type
	// so a run reads each class once.
	populations := make(map[rules.EntityType][]rules.Entity)

	for _, rule := range activeRules {
		if opts.Module != "" && !rule.AppliesTo(opts.Module) {
			continue
		}

		if err := rule.Validate(); err != nil {
			s.logger.Warn("malformed rule, recording not_applicable",
				zap.String("rule_code", rule.RuleCode),
				zap.Error(err),
			)
			result := rules.NewRuleResult(rule, facilityID, rules.VerdictNotApplicable,
				fmt.Sprintf("malformed rule: %v", err), now)
			results = append(results, result)
			continue
		}

		population, ok := populations[rule.EntityType]
		if !ok {
			population, err = s.accessor.GetEntities(ctx, facilityID, rule.EntityType)
			if err != nil {
				return nil, domainerrors.NewInternalError(
					fmt.Sprintf("failed to load %s records", rule.EntityType)).WithCause(err)
			}
			populations[rule.EntityType] = population
		}

		results = append(results, s.evaluateRule(rule, facilityID, population, now))
	}

	s.logger.Info("rules run complete",
		zap.String("facility_id", facilityID.String()),
		zap.Int("results", len(results)),
	)
	return results, nil
}

// evaluateRule applies one rule to its population. All rows must pass for
// the rule to pass; a single non-compliant record fails the whole rule for
// the facility. An empty population (or one fully excluded by the filter)
// is not_applicable; absence of evidence is not itself a failure.
func (s *service) evaluateRule(rule *rules.ComplianceRule, facilityID uuid.UUID, population []rules.Entity, now time.Time) *rules.RuleResult {
	if len(population) == 0 {
		return rules.NewRuleResult(rule, facilityID, rules.VerdictNotApplicable,
			fmt.Sprintf("no %s records for facility", rule.EntityType), now)
	}

	var (
		failedLabels []string
		failedIDs    []string
		notes        []string
		evaluated    int
	)

	for _, entity := range population {
		eval := s.evaluator.Evaluate(rule.Condition, entity)
		switch eval.Outcome {
		case rules.OutcomeSkipped:
			continue
		case rules.OutcomeNotApplicable:
			notes = append(notes, eval.Note)
		case rules.OutcomeFail:
			evaluated++
			failedLabels = append(failedLabels, entity.Label())
			failedIDs = append(failedIDs, entity.EntityID())
		case rules.OutcomePass:
			evaluated++
		}
	}

	result := rules.NewRuleResult(rule, facilityID, rules.VerdictPass, "", now)

	switch {
	case len(failedIDs) > 0:
		result.Verdict = rules.VerdictFail
		result.FailedEntities = failedIDs
		result.Details = fmt.Sprintf("%d of %d records non-compliant: %s",
			len(failedIDs), evaluated, strings.Join(failedLabels, ", "))
	case evaluated == 0:
		// Every record was filtered out or could not be evaluated.
		result.Verdict = rules.VerdictNotApplicable
		if len(notes) > 0 {
			result.Details = strings.Join(notes, "; ")
		} else {
			result.Details = fmt.Sprintf("no %s records matched the rule filter", rule.EntityType)
		}
	default:
		result.Details = fmt.Sprintf("%d records compliant", evaluated)
		if len(notes) > 0 {
			result.Details += "; " + strings.Join(notes, "; ")
		}
	}

	return result
}
