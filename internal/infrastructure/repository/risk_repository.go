package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/assessment"
)

// RiskRepository persists computed risk scores. Each recomputation appends
// new rows; callers read the latest batch per facility.
type RiskRepository struct {
	db *pgxpool.Pool
}

// NewRiskRepository creates a new risk repository
func NewRiskRepository(db *pgxpool.Pool) *RiskRepository {
	return &RiskRepository{db: db}
}

// SaveRiskScores writes one run's overall and per-module scores together.
func (r *RiskRepository) SaveRiskScores(ctx context.Context, scores []*assessment.RiskScore) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning risk transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, score := range scores {
		factors, err := json.Marshal(score.Factors)
		if err != nil {
			return fmt.Errorf("encoding risk factors: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO risk_scores
				(id, facility_id, module, level, score, factors,
				 recommendation, calculated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			score.ID, score.FacilityID, score.Module, string(score.Level),
			score.Score, factors, score.Recommendation, score.CalculatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting risk score: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// GetLatestRiskScores returns the scores from the facility's most recent
// risk computation.
func (r *RiskRepository) GetLatestRiskScores(ctx context.Context, facilityID uuid.UUID) ([]*assessment.RiskScore, error) {
	query := `
		SELECT id, facility_id, module, level, score, factors,
		       recommendation, calculated_at
		FROM risk_scores
		WHERE facility_id = $1
		  AND calculated_at = (
			SELECT MAX(calculated_at) FROM risk_scores WHERE facility_id = $1
		  )
		ORDER BY module`

	rows, err := r.db.Query(ctx, query, facilityID)
	if err != nil {
		return nil, fmt.Errorf("querying risk scores: %w", err)
	}
	defer rows.Close()

	var out []*assessment.RiskScore
	for rows.Next() {
		var (
			score   assessment.RiskScore
			level   string
			factors []byte
		)
		if err := rows.Scan(&score.ID, &score.FacilityID, &score.Module,
			&level, &score.Score, &factors, &score.Recommendation,
			&score.CalculatedAt); err != nil {
			return nil, fmt.Errorf("scanning risk score: %w", err)
		}
		score.Level = assessment.RiskLevel(level)
		if err := json.Unmarshal(factors, &score.Factors); err != nil {
			return nil, fmt.Errorf("decoding risk factors: %w", err)
		}
		out = append(out, &score)
	}
	return out, rows.Err()
}
