package assessment

import (
	"time"

	"github.com/google/uuid"
)

// MonitoringConfig controls scheduled trend snapshots for a facility. The
// scheduler itself is an external collaborator; the engine only checks
// NextRun before a scheduled snapshot.
type MonitoringConfig struct {
	FacilityID uuid.UUID  `json:"facility_id"`
	Frequency  PeriodType `json:"frequency"`
	Enabled    bool       `json:"enabled"`
	NextRun    time.Time  `json:"next_run"`
}

// Due reports whether a scheduled snapshot may run at the given time.
func (m *MonitoringConfig) Due(now time.Time) bool {
	return m.Enabled && !now.Before(m.NextRun)
}

// PeriodBounds returns the bucket containing t for the given period type.
// Weekly periods start on Monday; all bounds are UTC midnight.
func PeriodBounds(periodType PeriodType, t time.Time) (start, end time.Time) {
	t = t.UTC()
	switch periodType {
	case PeriodDaily:
		start = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 0, 1)
	case PeriodWeekly:
		weekday := int(t.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		start = day.AddDate(0, 0, -(weekday - 1))
		end = start.AddDate(0, 0, 7)
	case PeriodMonthly:
		start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
	case PeriodQuarterly:
		quarterMonth := time.Month(((int(t.Month())-1)/3)*3 + 1)
		start = time.Date(t.Year(), quarterMonth, 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 3, 0)
	}
	return start, end
}
