package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/assessment"
	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/audit"
	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/rules"
)

// AssessmentRepository persists and reads assessment runs. All writes are
// whole-record inserts; assessments are append-only history.
type AssessmentRepository struct {
	db *pgxpool.Pool
}

// NewAssessmentRepository creates a new assessment repository
func NewAssessmentRepository(db *pgxpool.Pool) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// SaveRun inserts the assessment and its rule results in one transaction so
// a failed run leaves no partial output behind.
func (r *AssessmentRepository) SaveRun(ctx context.Context, a *assessment.ComplianceAssessment, results []*rules.RuleResult) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning run transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	moduleScores, err := json.Marshal(a.ModuleScores)
	if err != nil {
		return fmt.Errorf("encoding module scores: %w", err)
	}
	findingCounts, err := json.Marshal(a.FindingCounts)
	if err != nil {
		return fmt.Errorf("encoding finding counts: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO compliance_assessments
			(id, facility_id, assessment_date, type, scope, overall_score,
			 grade, module_scores, has_auto_fail, sop_coverage,
			 checklist_coverage, audit_coverage, finding_counts,
			 rules_passed, rules_failed, rules_not_applicable, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		a.ID, a.FacilityID, a.AssessmentDate, string(a.Type), a.Scope,
		a.OverallScore, string(a.Grade), moduleScores, a.HasAutoFail,
		a.SOPCoverage, a.ChecklistCoverage, a.AuditCoverage, findingCounts,
		a.RulesPassed, a.RulesFailed, a.RulesNotApplicable, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting assessment: %w", err)
	}

	for _, result := range results {
		_, err = tx.Exec(ctx, `
			INSERT INTO rule_results
				(id, rule_id, rule_code, facility_id, assessment_id,
				 verdict, details, failed_entities, evaluated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			result.ID, result.RuleID, result.RuleCode, result.FacilityID,
			result.AssessmentID, int(result.Verdict), result.Details,
			result.FailedEntities, result.EvaluatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting rule result %s: %w", result.RuleCode, err)
		}
	}

	return tx.Commit(ctx)
}

// GetLatestAssessmentInWindow returns the newest assessment inside
// [start, end), or nil when the window is empty.
func (r *AssessmentRepository) GetLatestAssessmentInWindow(ctx context.Context, facilityID uuid.UUID, start, end time.Time) (*assessment.ComplianceAssessment, error) {
	query := `
		SELECT id, facility_id, assessment_date, type, scope, overall_score,
		       grade, module_scores, has_auto_fail, sop_coverage,
		       checklist_coverage, audit_coverage, finding_counts,
		       rules_passed, rules_failed, rules_not_applicable, created_at
		FROM compliance_assessments
		WHERE facility_id = $1 AND assessment_date >= $2 AND assessment_date < $3
		ORDER BY assessment_date DESC
		LIMIT 1`

	return r.scanAssessment(r.db.QueryRow(ctx, query, facilityID, start, end))
}

// GetLatestAssessment returns the facility's newest assessment, or nil.
func (r *AssessmentRepository) GetLatestAssessment(ctx context.Context, facilityID uuid.UUID) (*assessment.ComplianceAssessment, error) {
	query := `
		SELECT id, facility_id, assessment_date, type, scope, overall_score,
		       grade, module_scores, has_auto_fail, sop_coverage,
		       checklist_coverage, audit_coverage, finding_counts,
		       rules_passed, rules_failed, rules_not_applicable, created_at
		FROM compliance_assessments
		WHERE facility_id = $1
		ORDER BY assessment_date DESC
		LIMIT 1`

	return r.scanAssessment(r.db.QueryRow(ctx, query, facilityID))
}

func (r *AssessmentRepository) scanAssessment(row pgx.Row) (*assessment.ComplianceAssessment, error) {
	var (
		a             assessment.ComplianceAssessment
		typ, grade    string
		moduleScores  []byte
		findingCounts []byte
	)
	err := row.Scan(
		&a.ID, &a.FacilityID, &a.AssessmentDate, &typ, &a.Scope,
		&a.OverallScore, &grade, &moduleScores, &a.HasAutoFail,
		&a.SOPCoverage, &a.ChecklistCoverage, &a.AuditCoverage,
		&findingCounts, &a.RulesPassed, &a.RulesFailed,
		&a.RulesNotApplicable, &a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning assessment: %w", err)
	}
	a.Type = assessment.AssessmentType(typ)
	a.Grade = audit.Grade(grade)
	if err := json.Unmarshal(moduleScores, &a.ModuleScores); err != nil {
		return nil, fmt.Errorf("decoding module scores: %w", err)
	}
	if err := json.Unmarshal(findingCounts, &a.FindingCounts); err != nil {
		return nil, fmt.Errorf("decoding finding counts: %w", err)
	}
	return &a, nil
}

// GetResultsForAssessment returns the rule results tied to one run.
func (r *AssessmentRepository) GetResultsForAssessment(ctx context.Context, assessmentID uuid.UUID) ([]*rules.RuleResult, error) {
	query := `
		SELECT id, rule_id, rule_code, facility_id, assessment_id,
		       verdict, details, failed_entities, evaluated_at
		FROM rule_results
		WHERE assessment_id = $1
		ORDER BY rule_code`

	rows, err := r.db.Query(ctx, query, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("querying rule results: %w", err)
	}
	defer rows.Close()
	return scanRuleResults(rows)
}

// GetLatestRunResults returns the rule results from the facility's most
// recent engine run.
func (r *AssessmentRepository) GetLatestRunResults(ctx context.Context, facilityID uuid.UUID) ([]*rules.RuleResult, error) {
	query := `
		SELECT id, rule_id, rule_code, facility_id, assessment_id,
		       verdict, details, failed_entities, evaluated_at
		FROM rule_results
		WHERE facility_id = $1
		  AND evaluated_at = (
			SELECT MAX(evaluated_at) FROM rule_results WHERE facility_id = $1
		  )
		ORDER BY rule_code`

	rows, err := r.db.Query(ctx, query, facilityID)
	if err != nil {
		return nil, fmt.Errorf("querying latest run results: %w", err)
	}
	defer rows.Close()
	return scanRuleResults(rows)
}

func scanRuleResults(rows pgx.Rows) ([]*rules.RuleResult, error) {
	var out []*rules.RuleResult
	for rows.Next() {
		var (
			result  rules.RuleResult
			verdict int
		)
		if err := rows.Scan(&result.ID, &result.RuleID, &result.RuleCode,
			&result.FacilityID, &result.AssessmentID, &verdict,
			&result.Details, &result.FailedEntities, &result.EvaluatedAt); err != nil {
			return nil, fmt.Errorf("scanning rule result: %w", err)
		}
		result.Verdict = rules.Verdict(verdict)
		out = append(out, &result)
	}
	return out, rows.Err()
}
