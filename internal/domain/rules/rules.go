package rules

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ComplianceRule is a declarative, reusable condition evaluated against a
// class of evidence records to yield a compliance verdict. Rules are
// immutable once created except for activation toggling.
type ComplianceRule struct {
	ID       uuid.UUID  `json:"id"`
	RuleCode string     `json:"rule_code" validate:"required"`
	Name     string     `json:"name" validate:"required"`
	Severity Severity   `json:"severity"`
	Module   string     `json:"module,omitempty"`
	Status   RuleStatus `json:"status"`

	// Rule definition
	EntityType EntityType `json:"entity_type"`
	Condition  Condition  `json:"condition"`

	// Metadata
	Description string    `json:"description"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type RuleStatus int

const (
	RuleStatusDraft RuleStatus = iota
	RuleStatusActive
	RuleStatusInactive
)

func (s RuleStatus) String() string {
	switch s {
	case RuleStatusDraft:
		return "draft"
	case RuleStatusActive:
		return "active"
	case RuleStatusInactive:
		return "inactive"
	default:
		return "unknown"
	}
}

type Severity int

const (
	SeverityMinor Severity = iota
	SeverityMajor
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityMinor:
		return "minor"
	case SeverityMajor:
		return "major"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// EntityType names the class of evidence records a rule targets.
type EntityType string

const (
	EntitySOP            EntityType = "sop"
	EntityChecklist      EntityType = "checklist_submission"
	EntityCertification  EntityType = "certification"
	EntityCAPA           EntityType = "capa"
	EntityAuditResponse  EntityType = "audit_response"
)

// ValidEntityTypes lists every entity class the engine can query.
var ValidEntityTypes = []EntityType{
	EntitySOP,
	EntityChecklist,
	EntityCertification,
	EntityCAPA,
	EntityAuditResponse,
}

func (t EntityType) IsValid() bool {
	for _, v := range ValidEntityTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Operator is the fixed comparison set supported by rule conditions.
// Operators are validated at rule-load time so malformed rules surface
// before any evaluation run.
type Operator string

const (
	OpEquals        Operator = "equals"
	OpGte           Operator = "gte"
	OpLte           Operator = "lte"
	OpGt            Operator = "gt"
	OpLt            Operator = "lt"
	OpOlderThanDays Operator = "older_than_days"
	OpWithinDays    Operator = "within_days"
	OpNotExpired    Operator = "not_expired"
	OpNotPastDue    Operator = "not_past_due"
)

var validOperators = map[Operator]bool{
	OpEquals:        true,
	OpGte:           true,
	OpLte:           true,
	OpGt:            true,
	OpLt:            true,
	OpOlderThanDays: true,
	OpWithinDays:    true,
	OpNotExpired:    true,
	OpNotPastDue:    true,
}

// ParseOperator converts a stored operator string into an Operator.
func ParseOperator(s string) (Operator, error) {
	op := Operator(s)
	if !validOperators[op] {
		return "", fmt.Errorf("unknown operator: %q", s)
	}
	return op, nil
}

// Condition is the declarative predicate a rule applies to each record of
// its target entity type.
type Condition struct {
	Field    string      `json:"field" validate:"required"`
	Operator Operator    `json:"operator" validate:"required"`
	Value    interface{} `json:"value,omitempty"`
	Filter   *Filter     `json:"filter,omitempty"`
}

// Filter is a secondary equality predicate restricting which records
// qualify for the rule. Records that fail the filter are excluded from the
// rule's denominator entirely, not counted as failures.
type Filter struct {
	Field  string      `json:"field" validate:"required"`
	Equals interface{} `json:"equals"`
}

var validate = validator.New()

// NewComplianceRule creates a draft rule for the given entity type.
func NewComplianceRule(ruleCode, name string, entityType EntityType, cond Condition, severity Severity, createdBy uuid.UUID) *ComplianceRule {
	now := time.Now().UTC()
	return &ComplianceRule{
		ID:         uuid.New(),
		RuleCode:   ruleCode,
		Name:       name,
		Severity:   severity,
		Status:     RuleStatusDraft,
		EntityType: entityType,
		Condition:  cond,
		CreatedBy:  createdBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Validate validates the rule definition. Called at load time so malformed
// rules surface early rather than mid-run.
func (r *ComplianceRule) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid rule %s: %w", r.RuleCode, err)
	}
	if !r.EntityType.IsValid() {
		return fmt.Errorf("invalid rule %s: unknown entity type %q", r.RuleCode, r.EntityType)
	}
	if _, err := ParseOperator(string(r.Condition.Operator)); err != nil {
		return fmt.Errorf("invalid rule %s: %w", r.RuleCode, err)
	}
	if r.Condition.Filter != nil && r.Condition.Filter.Field == "" {
		return fmt.Errorf("invalid rule %s: filter field cannot be empty", r.RuleCode)
	}
	switch r.Condition.Operator {
	case OpNotExpired, OpNotPastDue:
		// Date-vs-now wrappers take no comparison value.
	default:
		if r.Condition.Value == nil {
			return fmt.Errorf("invalid rule %s: operator %s requires a comparison value", r.RuleCode, r.Condition.Operator)
		}
	}
	return nil
}

// Activate activates a compliance rule
func (r *ComplianceRule) Activate() error {
	if r.Status == RuleStatusActive {
		return fmt.Errorf("rule %s is already active", r.RuleCode)
	}
	if err := r.Validate(); err != nil {
		return fmt.Errorf("cannot activate invalid rule: %w", err)
	}
	r.Status = RuleStatusActive
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// Deactivate deactivates a compliance rule
func (r *ComplianceRule) Deactivate() error {
	if r.Status != RuleStatusActive {
		return fmt.Errorf("can only deactivate active rules")
	}
	r.Status = RuleStatusInactive
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// IsActive returns true if the rule participates in engine runs.
func (r *ComplianceRule) IsActive() bool {
	return r.Status == RuleStatusActive
}

// AppliesTo reports whether the rule is scoped to the given module. An
// empty rule module means the rule applies facility-wide.
func (r *ComplianceRule) AppliesTo(module string) bool {
	return r.Module == "" || r.Module == module
}
