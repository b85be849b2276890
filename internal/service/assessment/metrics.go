package assessment

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	domain "github.com/foodsafeworks/facility-compliance-backend/internal/domain/assessment"
)

var (
	assessmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fcb",
			Subsystem: "engine",
			Name:      "assessments_total",
			Help:      "Total number of assessment runs computed",
		},
		[]string{"grade", "auto_fail"},
	)

	assessmentDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fcb",
			Subsystem: "engine",
			Name:      "assessment_duration_seconds",
			Help:      "Assessment run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~32s
		},
	)

	rulesEvaluated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fcb",
			Subsystem: "engine",
			Name:      "rules_evaluated_total",
			Help:      "Total rule results produced across runs",
		},
	)
)

func observeRun(record *domain.ComplianceAssessment, elapsed time.Duration) {
	autoFail := "false"
	if record.HasAutoFail {
		autoFail = "true"
	}
	assessmentsTotal.WithLabelValues(string(record.Grade), autoFail).Inc()
	assessmentDuration.Observe(elapsed.Seconds())
	rulesEvaluated.Add(float64(record.RulesPassed + record.RulesFailed + record.RulesNotApplicable))
}
