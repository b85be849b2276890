package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/assessment"
	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/audit"
)

// TrendRepository persists denormalized trend snapshots.
type TrendRepository struct {
	db *pgxpool.Pool
}

// NewTrendRepository creates a new trend repository
func NewTrendRepository(db *pgxpool.Pool) *TrendRepository {
	return &TrendRepository{db: db}
}

// UpsertTrend writes a snapshot, overwriting any existing row for the same
// (facility, period type, period start) bucket.
func (r *TrendRepository) UpsertTrend(ctx context.Context, trend *assessment.ComplianceTrend) error {
	query := `
		INSERT INTO compliance_trends
			(id, facility_id, period_type, period_start, period_end,
			 overall_score, grade, sop_coverage, checklist_coverage,
			 audit_coverage, rules_passed, rules_failed, rules_total,
			 snapshot_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (facility_id, period_type, period_start) DO UPDATE SET
			period_end = EXCLUDED.period_end,
			overall_score = EXCLUDED.overall_score,
			grade = EXCLUDED.grade,
			sop_coverage = EXCLUDED.sop_coverage,
			checklist_coverage = EXCLUDED.checklist_coverage,
			audit_coverage = EXCLUDED.audit_coverage,
			rules_passed = EXCLUDED.rules_passed,
			rules_failed = EXCLUDED.rules_failed,
			rules_total = EXCLUDED.rules_total,
			snapshot_at = EXCLUDED.snapshot_at`

	_, err := r.db.Exec(ctx, query,
		trend.ID, trend.FacilityID, string(trend.PeriodType), trend.PeriodStart,
		trend.PeriodEnd, trend.OverallScore, string(trend.Grade),
		trend.SOPCoverage, trend.ChecklistCoverage, trend.AuditCoverage,
		trend.RulesPassed, trend.RulesFailed, trend.RulesTotal, trend.SnapshotAt,
	)
	if err != nil {
		return fmt.Errorf("upserting trend: %w", err)
	}
	return nil
}

// GetTrends returns a facility's snapshots for one period type, oldest first.
func (r *TrendRepository) GetTrends(ctx context.Context, facilityID uuid.UUID, periodType assessment.PeriodType, limit int) ([]*assessment.ComplianceTrend, error) {
	query := `
		SELECT id, facility_id, period_type, period_start, period_end,
		       overall_score, grade, sop_coverage, checklist_coverage,
		       audit_coverage, rules_passed, rules_failed, rules_total,
		       snapshot_at
		FROM compliance_trends
		WHERE facility_id = $1 AND period_type = $2
		ORDER BY period_start DESC
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, facilityID, string(periodType), limit)
	if err != nil {
		return nil, fmt.Errorf("querying trends: %w", err)
	}
	defer rows.Close()

	var out []*assessment.ComplianceTrend
	for rows.Next() {
		t, err := scanTrend(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to oldest-first for charting.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// GetTrend returns the snapshot for one bucket, or nil when none exists.
func (r *TrendRepository) GetTrend(ctx context.Context, facilityID uuid.UUID, periodType assessment.PeriodType, periodStart time.Time) (*assessment.ComplianceTrend, error) {
	query := `
		SELECT id, facility_id, period_type, period_start, period_end,
		       overall_score, grade, sop_coverage, checklist_coverage,
		       audit_coverage, rules_passed, rules_failed, rules_total,
		       snapshot_at
		FROM compliance_trends
		WHERE facility_id = $1 AND period_type = $2 AND period_start = $3`

	rows, err := r.db.Query(ctx, query, facilityID, string(periodType), periodStart)
	if err != nil {
		return nil, fmt.Errorf("querying trend: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, nil
	}
	return scanTrend(rows)
}

func scanTrend(rows pgx.Rows) (*assessment.ComplianceTrend, error) {
	var (
		t          assessment.ComplianceTrend
		pt, gradeS string
	)
	if err := rows.Scan(&t.ID, &t.FacilityID, &pt, &t.PeriodStart, &t.PeriodEnd,
		&t.OverallScore, &gradeS, &t.SOPCoverage, &t.ChecklistCoverage,
		&t.AuditCoverage, &t.RulesPassed, &t.RulesFailed, &t.RulesTotal,
		&t.SnapshotAt); err != nil {
		return nil, fmt.Errorf("scanning trend: %w", err)
	}
	t.PeriodType = assessment.PeriodType(pt)
	t.Grade = audit.Grade(gradeS)
	return &t, nil
}
