package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/audit"
	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/evidence"
	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/rules"
)

// EvidenceRepository is the entity accessor: read-only queries over the
// operational evidence the engine evaluates.
type EvidenceRepository struct {
	db *pgxpool.Pool
}

// NewEvidenceRepository creates a new evidence repository
func NewEvidenceRepository(db *pgxpool.Pool) *EvidenceRepository {
	return &EvidenceRepository{db: db}
}

// GetEntities returns the facility's population for one entity class.
func (r *EvidenceRepository) GetEntities(ctx context.Context, facilityID uuid.UUID, entityType rules.EntityType) ([]rules.Entity, error) {
	switch entityType {
	case rules.EntitySOP:
		sops, err := r.GetSOPs(ctx, facilityID)
		if err != nil {
			return nil, err
		}
		out := make([]rules.Entity, len(sops))
		for i, s := range sops {
			out[i] = s
		}
		return out, nil

	case rules.EntityChecklist:
		subs, err := r.GetChecklistSubmissions(ctx, facilityID)
		if err != nil {
			return nil, err
		}
		out := make([]rules.Entity, len(subs))
		for i, s := range subs {
			out[i] = s
		}
		return out, nil

	case rules.EntityCertification:
		certs, err := r.GetCertifications(ctx, facilityID)
		if err != nil {
			return nil, err
		}
		out := make([]rules.Entity, len(certs))
		for i, c := range certs {
			out[i] = c
		}
		return out, nil

	case rules.EntityCAPA:
		capas, err := r.GetCAPAs(ctx, facilityID)
		if err != nil {
			return nil, err
		}
		out := make([]rules.Entity, len(capas))
		for i, c := range capas {
			out[i] = c
		}
		return out, nil

	case rules.EntityAuditResponse:
		responses, err := r.getFacilityResponses(ctx, facilityID)
		if err != nil {
			return nil, err
		}
		out := make([]rules.Entity, len(responses))
		for i, resp := range responses {
			out[i] = resp
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown entity type %q", entityType)
	}
}

// GetSOPs returns all SOPs applicable to the facility.
func (r *EvidenceRepository) GetSOPs(ctx context.Context, facilityID uuid.UUID) ([]*evidence.SOP, error) {
	query := `
		SELECT id, facility_id, title, module, status, effective_date,
		       last_reviewed_at, next_review_due
		FROM sops
		WHERE facility_id = $1`

	rows, err := r.db.Query(ctx, query, facilityID)
	if err != nil {
		return nil, fmt.Errorf("querying sops: %w", err)
	}
	defer rows.Close()

	var out []*evidence.SOP
	for rows.Next() {
		var s evidence.SOP
		var status string
		if err := rows.Scan(&s.ID, &s.FacilityID, &s.Title, &s.Module, &status,
			&s.EffectiveDate, &s.LastReviewedAt, &s.NextReviewDue); err != nil {
			return nil, fmt.Errorf("scanning sop: %w", err)
		}
		s.Status = evidence.SOPStatus(status)
		out = append(out, &s)
	}
	return out, rows.Err()
}

// GetChecklistSubmissions returns the facility's checklist submissions.
func (r *EvidenceRepository) GetChecklistSubmissions(ctx context.Context, facilityID uuid.UUID) ([]*evidence.ChecklistSubmission, error) {
	query := `
		SELECT s.id, s.facility_id, s.template_id, t.name, s.module,
		       s.submitted_at, s.complete, s.failed_items
		FROM checklist_submissions s
		JOIN checklist_templates t ON t.id = s.template_id
		WHERE s.facility_id = $1`

	rows, err := r.db.Query(ctx, query, facilityID)
	if err != nil {
		return nil, fmt.Errorf("querying checklist submissions: %w", err)
	}
	defer rows.Close()

	var out []*evidence.ChecklistSubmission
	for rows.Next() {
		var s evidence.ChecklistSubmission
		if err := rows.Scan(&s.ID, &s.FacilityID, &s.TemplateID, &s.TemplateName,
			&s.Module, &s.SubmittedAt, &s.Complete, &s.FailedItems); err != nil {
			return nil, fmt.Errorf("scanning checklist submission: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// GetCertifications returns the facility's supplier certifications.
func (r *EvidenceRepository) GetCertifications(ctx context.Context, facilityID uuid.UUID) ([]*evidence.SupplierCertification, error) {
	query := `
		SELECT id, facility_id, supplier_name, cert_type, status, issued_at, expiry_date
		FROM supplier_certifications
		WHERE facility_id = $1`

	rows, err := r.db.Query(ctx, query, facilityID)
	if err != nil {
		return nil, fmt.Errorf("querying certifications: %w", err)
	}
	defer rows.Close()

	var out []*evidence.SupplierCertification
	for rows.Next() {
		var c evidence.SupplierCertification
		var status string
		if err := rows.Scan(&c.ID, &c.FacilityID, &c.SupplierName, &c.CertType,
			&status, &c.IssuedAt, &c.ExpiryDate); err != nil {
			return nil, fmt.Errorf("scanning certification: %w", err)
		}
		c.Status = evidence.CertificationStatus(status)
		out = append(out, &c)
	}
	return out, rows.Err()
}

// GetCAPAs returns all of the facility's CAPAs.
func (r *EvidenceRepository) GetCAPAs(ctx context.Context, facilityID uuid.UUID) ([]*evidence.CAPA, error) {
	return r.queryCAPAs(ctx,
		`SELECT id, facility_id, finding_id, description, status, due_date, closed_at
		 FROM capas WHERE facility_id = $1`, facilityID)
}

// GetOpenCAPAs returns CAPAs that still need action.
func (r *EvidenceRepository) GetOpenCAPAs(ctx context.Context, facilityID uuid.UUID) ([]*evidence.CAPA, error) {
	return r.queryCAPAs(ctx,
		`SELECT id, facility_id, finding_id, description, status, due_date, closed_at
		 FROM capas WHERE facility_id = $1 AND status <> 'closed'`, facilityID)
}

func (r *EvidenceRepository) queryCAPAs(ctx context.Context, query string, facilityID uuid.UUID) ([]*evidence.CAPA, error) {
	rows, err := r.db.Query(ctx, query, facilityID)
	if err != nil {
		return nil, fmt.Errorf("querying capas: %w", err)
	}
	defer rows.Close()

	var out []*evidence.CAPA
	for rows.Next() {
		var c evidence.CAPA
		var status string
		if err := rows.Scan(&c.ID, &c.FacilityID, &c.FindingID, &c.Description,
			&status, &c.DueDate, &c.ClosedAt); err != nil {
			return nil, fmt.Errorf("scanning capa: %w", err)
		}
		c.Status = evidence.CAPAStatus(status)
		out = append(out, &c)
	}
	return out, rows.Err()
}

// GetOpenFindings returns the facility's unresolved audit findings.
func (r *EvidenceRepository) GetOpenFindings(ctx context.Context, facilityID uuid.UUID) ([]*evidence.AuditFinding, error) {
	query := `
		SELECT id, facility_id, module, severity, status, description, created_at
		FROM audit_findings
		WHERE facility_id = $1 AND status = 'open'
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, facilityID)
	if err != nil {
		return nil, fmt.Errorf("querying findings: %w", err)
	}
	defer rows.Close()

	var out []*evidence.AuditFinding
	for rows.Next() {
		var f evidence.AuditFinding
		var status string
		if err := rows.Scan(&f.ID, &f.FacilityID, &f.Module, &f.Severity,
			&status, &f.Description, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning finding: %w", err)
		}
		f.Status = evidence.FindingStatus(status)
		out = append(out, &f)
	}
	return out, rows.Err()
}

func (r *EvidenceRepository) getFacilityResponses(ctx context.Context, facilityID uuid.UUID) ([]*audit.Response, error) {
	query := `
		SELECT r.id, r.simulation_id, r.question_id, r.score, r.evidence_ref, r.answered_at
		FROM audit_responses r
		JOIN audit_simulations s ON s.id = r.simulation_id
		WHERE s.facility_id = $1`

	rows, err := r.db.Query(ctx, query, facilityID)
	if err != nil {
		return nil, fmt.Errorf("querying facility responses: %w", err)
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

// SOPCoverageCounts returns (SOPs with status current, SOPs applicable).
func (r *EvidenceRepository) SOPCoverageCounts(ctx context.Context, facilityID uuid.UUID) (int, int, error) {
	var current, applicable int
	query := `
		SELECT COUNT(*) FILTER (WHERE status = 'current'), COUNT(*)
		FROM sops
		WHERE facility_id = $1 AND status <> 'archived'`
	if err := r.db.QueryRow(ctx, query, facilityID).Scan(&current, &applicable); err != nil {
		return 0, 0, fmt.Errorf("counting sop coverage: %w", err)
	}
	return current, applicable, nil
}

// ChecklistCoverageCounts returns (templates with a submission inside their
// required frequency window, templates applicable).
func (r *EvidenceRepository) ChecklistCoverageCounts(ctx context.Context, facilityID uuid.UUID) (int, int, error) {
	var submitted, applicable int
	query := `
		SELECT
			COUNT(*) FILTER (WHERE EXISTS (
				SELECT 1 FROM checklist_submissions s
				WHERE s.template_id = t.id
				  AND s.facility_id = t.facility_id
				  AND s.submitted_at >= NOW() - (t.frequency_days * INTERVAL '1 day')
			)),
			COUNT(*)
		FROM checklist_templates t
		WHERE t.facility_id = $1 AND t.active`
	if err := r.db.QueryRow(ctx, query, facilityID).Scan(&submitted, &applicable); err != nil {
		return 0, 0, fmt.Errorf("counting checklist coverage: %w", err)
	}
	return submitted, applicable, nil
}

// EnabledModules returns the facility's enabled-module set.
func (r *EvidenceRepository) EnabledModules(ctx context.Context, facilityID uuid.UUID) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT module FROM facility_modules WHERE facility_id = $1 ORDER BY module`, facilityID)
	if err != nil {
		return nil, fmt.Errorf("querying enabled modules: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

// ModulesWithResponses returns modules with at least one audit response.
func (r *EvidenceRepository) ModulesWithResponses(ctx context.Context, facilityID uuid.UUID) ([]string, error) {
	query := `
		SELECT DISTINCT q.module
		FROM audit_responses r
		JOIN audit_questions q ON q.id = r.question_id
		JOIN audit_simulations s ON s.id = r.simulation_id
		WHERE s.facility_id = $1
		ORDER BY q.module`

	rows, err := r.db.Query(ctx, query, facilityID)
	if err != nil {
		return nil, fmt.Errorf("querying audited modules: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

func scanStrings(rows pgx.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
