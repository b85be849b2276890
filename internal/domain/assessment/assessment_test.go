package assessment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewCoverageRatio(t *testing.T) {
	tests := []struct {
		name       string
		have       int
		applicable int
		want       float64
	}{
		{"full coverage", 10, 10, 100},
		{"partial rounds half up", 2, 3, 66.67},
		{"one third", 1, 3, 33.33},
		{"zero applicable is vacuously compliant", 0, 0, 100},
		{"zero of some", 0, 5, 0},
		{"negative have clamps to zero", -2, 5, 0},
		{"have above applicable clamps to full", 7, 5, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewCoverageRatio(tt.have, tt.applicable))
		})
	}
}

func TestPeriodTypeIsValid(t *testing.T) {
	for _, p := range []PeriodType{PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodQuarterly} {
		assert.True(t, p.IsValid())
	}
	assert.False(t, PeriodType("fortnightly").IsValid())
	assert.False(t, PeriodType("").IsValid())
}

func TestPeriodBounds(t *testing.T) {
	// Wednesday June 18 2025, mid-afternoon with a non-UTC zone.
	loc := time.FixedZone("UTC+5", 5*3600)
	at := time.Date(2025, 6, 18, 15, 30, 0, 0, loc)

	tests := []struct {
		periodType PeriodType
		start      time.Time
		end        time.Time
	}{
		{PeriodDaily,
			time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 6, 19, 0, 0, 0, 0, time.UTC)},
		{PeriodWeekly,
			time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 6, 23, 0, 0, 0, 0, time.UTC)},
		{PeriodMonthly,
			time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)},
		{PeriodQuarterly,
			time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(string(tt.periodType), func(t *testing.T) {
			start, end := PeriodBounds(tt.periodType, at)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}
}

func TestPeriodBounds_WeeklySundayBelongsToPriorMonday(t *testing.T) {
	sunday := time.Date(2025, 6, 22, 10, 0, 0, 0, time.UTC)
	start, end := PeriodBounds(PeriodWeekly, sunday)
	assert.Equal(t, time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 6, 23, 0, 0, 0, 0, time.UTC), end)
}

func TestMonitoringConfig_Due(t *testing.T) {
	next := time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC)
	cfg := &MonitoringConfig{Enabled: true, NextRun: next}

	assert.False(t, cfg.Due(next.Add(-time.Minute)))
	assert.True(t, cfg.Due(next))
	assert.True(t, cfg.Due(next.Add(time.Hour)))

	cfg.Enabled = false
	assert.False(t, cfg.Due(next.Add(time.Hour)))
}

func TestRiskScore_SortFactors(t *testing.T) {
	score := &RiskScore{Factors: []ContributingFactor{
		{Kind: "rule", Reference: "RULE-2", Contribution: 5},
		{Kind: "finding", Reference: "F-1", Contribution: 25},
		{Kind: "rule", Reference: "RULE-1", Contribution: 5},
		{Kind: "capa", Reference: "C-9", Contribution: 12},
	}}
	score.SortFactors()

	refs := make([]string, len(score.Factors))
	for i, f := range score.Factors {
		refs[i] = f.Reference
	}
	assert.Equal(t, []string{"F-1", "C-9", "RULE-1", "RULE-2"}, refs)
}
