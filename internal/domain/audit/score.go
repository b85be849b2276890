package audit

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Grade is the letter grade derived from a percentage score.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// gradeBand maps a minimum percentage to a grade. Ordered descending;
// anything below the last threshold is an F.
type gradeBand struct {
	min   float64
	grade Grade
}

var gradeBands = []gradeBand{
	{90, GradeA},
	{80, GradeB},
	{70, GradeC},
	{60, GradeD},
}

// GradeForScore maps a percentage in [0,100] to its letter grade.
func GradeForScore(pct float64) Grade {
	for _, band := range gradeBands {
		if pct >= band.min {
			return band.grade
		}
	}
	return GradeF
}

// ModuleScore is one module's subtotal within a simulation.
type ModuleScore struct {
	Module      string  `json:"module"`
	Earned      int     `json:"earned"`
	Total       int     `json:"total"`
	Percent     float64 `json:"percent"`
	HasAutoFail bool    `json:"has_auto_fail"`
	Grade       Grade   `json:"grade"`
}

// SimulationScore is the full scoring result for one audit simulation.
// HasAutoFail distinguishes "failed on critical item" from "failed on
// points": when set, the grade is forced to F even if the weighted
// percentage would otherwise pass.
type SimulationScore struct {
	SimulationID   uuid.UUID               `json:"simulation_id"`
	ModuleScores   map[string]*ModuleScore `json:"module_scores"`
	OverallPercent float64                 `json:"overall_percent"`
	OverallGrade   Grade                   `json:"overall_grade"`
	HasAutoFail    bool                    `json:"has_auto_fail"`
}

// Modules returns the scored module names in stable order.
func (s *SimulationScore) Modules() []string {
	names := make([]string, 0, len(s.ModuleScores))
	for name := range s.ModuleScores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ScoreSimulation computes per-module subtotals and the points-weighted
// overall score for one simulation's responses.
//
// A module with zero applicable points is excluded from both the module map
// and the weighted overall. The overall is sum(earned)/sum(total) across
// in-scope modules, not an average of module percentages, so small modules
// do not get overweighted. Any auto-fail question scored exactly zero flags
// its module and the overall result.
func ScoreSimulation(simulationID uuid.UUID, questions []*Question, responses []*Response) (*SimulationScore, error) {
	byQuestion := make(map[uuid.UUID]*Question, len(questions))
	for _, q := range questions {
		byQuestion[q.ID] = q
	}

	modules := make(map[string]*ModuleScore)
	var totalEarned, totalPoints int
	overallAutoFail := false

	for _, resp := range responses {
		q, ok := byQuestion[resp.QuestionID]
		if !ok {
			return nil, fmt.Errorf("response %s references unknown question %s", resp.ID, resp.QuestionID)
		}
		if err := resp.Validate(q); err != nil {
			return nil, err
		}
		if q.Points == 0 {
			continue
		}

		ms := modules[q.Module]
		if ms == nil {
			ms = &ModuleScore{Module: q.Module}
			modules[q.Module] = ms
		}
		ms.Earned += resp.Score
		ms.Total += q.Points

		if q.IsAutoFail && resp.Score == 0 {
			ms.HasAutoFail = true
			overallAutoFail = true
		}
	}

	for _, ms := range modules {
		ms.Percent = RoundPercent(ms.Earned, ms.Total)
		if ms.HasAutoFail {
			ms.Grade = GradeF
		} else {
			ms.Grade = GradeForScore(ms.Percent)
		}
		totalEarned += ms.Earned
		totalPoints += ms.Total
	}

	score := &SimulationScore{
		SimulationID:   simulationID,
		ModuleScores:   modules,
		OverallPercent: RoundPercent(totalEarned, totalPoints),
		HasAutoFail:    overallAutoFail,
	}
	if overallAutoFail {
		score.OverallGrade = GradeF
	} else {
		score.OverallGrade = GradeForScore(score.OverallPercent)
	}
	return score, nil
}

// RoundPercent computes earned/total as a percentage rounded half-up to two
// decimal places. A zero total yields 0, not a division error.
func RoundPercent(earned, total int) float64 {
	if total == 0 {
		return 0
	}
	pct := decimal.NewFromInt(int64(earned)).
		Div(decimal.NewFromInt(int64(total))).
		Mul(decimal.NewFromInt(100)).
		Round(2)
	f, _ := pct.Float64()
	return f
}
