package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/audit"
)

// AuditRepository reads audit simulations, responses, and the static
// question catalog.
type AuditRepository struct {
	db *pgxpool.Pool
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: db}
}

// GetSimulation returns nil when the simulation does not exist.
func (r *AuditRepository) GetSimulation(ctx context.Context, simulationID uuid.UUID) (*audit.Simulation, error) {
	var sim audit.Simulation
	query := `
		SELECT id, facility_id, started_at, completed_at
		FROM audit_simulations
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, simulationID).Scan(
		&sim.ID, &sim.FacilityID, &sim.StartedAt, &sim.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying simulation: %w", err)
	}
	return &sim, nil
}

// GetResponses returns the simulation's responses.
func (r *AuditRepository) GetResponses(ctx context.Context, simulationID uuid.UUID) ([]*audit.Response, error) {
	query := `
		SELECT id, simulation_id, question_id, score, evidence_ref, answered_at
		FROM audit_responses
		WHERE simulation_id = $1`

	rows, err := r.db.Query(ctx, query, simulationID)
	if err != nil {
		return nil, fmt.Errorf("querying responses: %w", err)
	}
	defer rows.Close()

	var out []*audit.Response
	for rows.Next() {
		var resp audit.Response
		if err := rows.Scan(&resp.ID, &resp.SimulationID, &resp.QuestionID,
			&resp.Score, &resp.EvidenceRef, &resp.AnsweredAt); err != nil {
			return nil, fmt.Errorf("scanning response: %w", err)
		}
		out = append(out, &resp)
	}
	return out, rows.Err()
}

// GetQuestions returns the full question catalog.
func (r *AuditRepository) GetQuestions(ctx context.Context) ([]*audit.Question, error) {
	query := `
		SELECT id, module, text, points, is_auto_fail, category, sort_order
		FROM audit_questions
		ORDER BY module, sort_order`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying questions: %w", err)
	}
	defer rows.Close()

	var out []*audit.Question
	for rows.Next() {
		var q audit.Question
		if err := rows.Scan(&q.ID, &q.Module, &q.Text, &q.Points,
			&q.IsAutoFail, &q.Category, &q.SortOrder); err != nil {
			return nil, fmt.Errorf("scanning question: %w", err)
		}
		out = append(out, &q)
	}
	return out, rows.Err()
}
