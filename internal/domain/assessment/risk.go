package assessment

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// RiskLevel buckets a numeric risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// ContributingFactor names one finding, CAPA, or failed rule that drove a
// risk score, with its share of the total for explainability.
type ContributingFactor struct {
	Kind         string  `json:"kind"` // finding, capa, rule
	Reference    string  `json:"reference"`
	Description  string  `json:"description"`
	Contribution float64 `json:"contribution"`
}

// RiskScore is one facility's (optionally per-module) computed risk.
// Recomputed wholesale each run; superseded rows are historical, not
// deleted.
type RiskScore struct {
	ID             uuid.UUID            `json:"id"`
	FacilityID     uuid.UUID            `json:"facility_id"`
	Module         string               `json:"module,omitempty"`
	Level          RiskLevel            `json:"level"`
	Score          float64              `json:"score"`
	Factors        []ContributingFactor `json:"factors"`
	Recommendation string               `json:"recommendation"`
	CalculatedAt   time.Time            `json:"calculated_at"`
}

// SortFactors orders contributing factors by descending contribution, ties
// broken by reference for stable output.
func (r *RiskScore) SortFactors() {
	sort.SliceStable(r.Factors, func(i, j int) bool {
		if r.Factors[i].Contribution == r.Factors[j].Contribution {
			return r.Factors[i].Reference < r.Factors[j].Reference
		}
		return r.Factors[i].Contribution > r.Factors[j].Contribution
	})
}
