package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/assessment"
)

const latestAssessmentPrefix = "fcb:assessment:latest:"

// DefaultAssessmentTTL bounds staleness when invalidation is missed.
const DefaultAssessmentTTL = 15 * time.Minute

// AssessmentCache keeps each facility's latest persisted assessment in
// Redis so dashboards avoid hitting the assessment table on every read.
// Cache-aside with graceful degradation: misses and errors fall back to
// the database.
type AssessmentCache struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewAssessmentCache creates an assessment cache. A zero ttl uses
// DefaultAssessmentTTL.
func NewAssessmentCache(client *redis.Client, logger *zap.Logger, ttl time.Duration) (*AssessmentCache, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if ttl <= 0 {
		ttl = DefaultAssessmentTTL
	}
	return &AssessmentCache{client: client, logger: logger, ttl: ttl}, nil
}

// SetLatest stores the facility's newest assessment.
func (c *AssessmentCache) SetLatest(ctx context.Context, a *assessment.ComplianceAssessment) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encoding assessment: %w", err)
	}
	key := c.key(a.FacilityID)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("assessment cache set failed",
			zap.String("key", key), zap.Error(err))
		return fmt.Errorf("caching assessment: %w", err)
	}
	return nil
}

// GetLatest returns the cached assessment, or nil on a miss.
func (c *AssessmentCache) GetLatest(ctx context.Context, facilityID uuid.UUID) (*assessment.ComplianceAssessment, error) {
	data, err := c.client.Get(ctx, c.key(facilityID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cached assessment: %w", err)
	}

	var a assessment.ComplianceAssessment
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decoding cached assessment: %w", err)
	}
	return &a, nil
}

// Invalidate drops the facility's cached assessment.
func (c *AssessmentCache) Invalidate(ctx context.Context, facilityID uuid.UUID) error {
	if err := c.client.Del(ctx, c.key(facilityID)).Err(); err != nil {
		return fmt.Errorf("invalidating cached assessment: %w", err)
	}
	return nil
}

func (c *AssessmentCache) key(facilityID uuid.UUID) string {
	return latestAssessmentPrefix + facilityID.String()
}
