package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/assessment"
)

// MonitoringRepository reads and advances per-facility snapshot schedules.
type MonitoringRepository struct {
	db *pgxpool.Pool
}

// NewMonitoringRepository creates a new monitoring repository
func NewMonitoringRepository(db *pgxpool.Pool) *MonitoringRepository {
	return &MonitoringRepository{db: db}
}

// GetMonitoringConfig returns nil when the facility has no schedule.
func (r *MonitoringRepository) GetMonitoringConfig(ctx context.Context, facilityID uuid.UUID) (*assessment.MonitoringConfig, error) {
	var (
		cfg       assessment.MonitoringConfig
		frequency string
	)
	query := `
		SELECT facility_id, frequency, enabled, next_run
		FROM monitoring_configs
		WHERE facility_id = $1`

	err := r.db.QueryRow(ctx, query, facilityID).Scan(
		&cfg.FacilityID, &frequency, &cfg.Enabled, &cfg.NextRun)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying monitoring config: %w", err)
	}
	cfg.Frequency = assessment.PeriodType(frequency)
	return &cfg, nil
}

// ListDueConfigs returns enabled schedules whose next run is at or before
// the given time.
func (r *MonitoringRepository) ListDueConfigs(ctx context.Context, now time.Time) ([]*assessment.MonitoringConfig, error) {
	query := `
		SELECT facility_id, frequency, enabled, next_run
		FROM monitoring_configs
		WHERE enabled AND next_run <= $1
		ORDER BY next_run`

	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("querying due monitoring configs: %w", err)
	}
	defer rows.Close()

	var out []*assessment.MonitoringConfig
	for rows.Next() {
		var (
			cfg       assessment.MonitoringConfig
			frequency string
		)
		if err := rows.Scan(&cfg.FacilityID, &frequency, &cfg.Enabled, &cfg.NextRun); err != nil {
			return nil, fmt.Errorf("scanning monitoring config: %w", err)
		}
		cfg.Frequency = assessment.PeriodType(frequency)
		out = append(out, &cfg)
	}
	return out, rows.Err()
}

// UpdateNextRun advances the schedule after a snapshot attempt.
func (r *MonitoringRepository) UpdateNextRun(ctx context.Context, facilityID uuid.UUID, nextRun time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE monitoring_configs SET next_run = $1 WHERE facility_id = $2`,
		nextRun, facilityID)
	if err != nil {
		return fmt.Errorf("updating next run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("monitoring config for facility %s not found", facilityID)
	}
	return nil
}

// UpsertMonitoringConfig creates or replaces a facility's schedule.
func (r *MonitoringRepository) UpsertMonitoringConfig(ctx context.Context, cfg *assessment.MonitoringConfig) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO monitoring_configs (facility_id, frequency, enabled, next_run)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (facility_id) DO UPDATE SET
			frequency = EXCLUDED.frequency,
			enabled = EXCLUDED.enabled,
			next_run = EXCLUDED.next_run`,
		cfg.FacilityID, string(cfg.Frequency), cfg.Enabled, cfg.NextRun)
	if err != nil {
		return fmt.Errorf("upserting monitoring config: %w", err)
	}
	return nil
}
