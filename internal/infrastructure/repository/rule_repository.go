package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/rules"
)

// RuleRepository reads the compliance rule library.
type RuleRepository struct {
	db *pgxpool.Pool
}

// NewRuleRepository creates a new rule repository
func NewRuleRepository(db *pgxpool.Pool) *RuleRepository {
	return &RuleRepository{db: db}
}

// GetActiveRules loads every active rule with its condition decoded.
func (r *RuleRepository) GetActiveRules(ctx context.Context) ([]*rules.ComplianceRule, error) {
	query := `
		SELECT id, rule_code, name, severity, module, status, entity_type,
		       condition, description, created_by, created_at, updated_at
		FROM compliance_rules
		WHERE status = $1
		ORDER BY rule_code`

	rows, err := r.db.Query(ctx, query, int(rules.RuleStatusActive))
	if err != nil {
		return nil, fmt.Errorf("querying active rules: %w", err)
	}
	defer rows.Close()

	var out []*rules.ComplianceRule
	for rows.Next() {
		var (
			rule          rules.ComplianceRule
			severity      int
			status        int
			entityType    string
			conditionJSON []byte
		)
		if err := rows.Scan(
			&rule.ID, &rule.RuleCode, &rule.Name, &severity, &rule.Module,
			&status, &entityType, &conditionJSON, &rule.Description,
			&rule.CreatedBy, &rule.CreatedAt, &rule.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning rule: %w", err)
		}
		rule.Severity = rules.Severity(severity)
		rule.Status = rules.RuleStatus(status)
		rule.EntityType = rules.EntityType(entityType)
		if err := json.Unmarshal(conditionJSON, &rule.Condition); err != nil {
			return nil, fmt.Errorf("decoding condition for rule %s: %w", rule.RuleCode, err)
		}
		out = append(out, &rule)
	}
	return out, rows.Err()
}

// InsertRule stores a new rule. Rules are immutable after creation except
// for activation toggling via SetRuleStatus.
func (r *RuleRepository) InsertRule(ctx context.Context, rule *rules.ComplianceRule) error {
	conditionJSON, err := json.Marshal(rule.Condition)
	if err != nil {
		return fmt.Errorf("encoding condition: %w", err)
	}

	query := `
		INSERT INTO compliance_rules
			(id, rule_code, name, severity, module, status, entity_type,
			 condition, description, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = r.db.Exec(ctx, query,
		rule.ID, rule.RuleCode, rule.Name, int(rule.Severity), rule.Module,
		int(rule.Status), string(rule.EntityType), conditionJSON,
		rule.Description, rule.CreatedBy, rule.CreatedAt, rule.UpdatedAt,
	)
	return err
}

// SetRuleStatus toggles activation for a rule.
func (r *RuleRepository) SetRuleStatus(ctx context.Context, ruleCode string, status rules.RuleStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE compliance_rules SET status = $1, updated_at = NOW() WHERE rule_code = $2`,
		int(status), ruleCode)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rule %s not found", ruleCode)
	}
	return nil
}
