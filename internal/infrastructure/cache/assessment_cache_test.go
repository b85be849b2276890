package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/foodsafeworks/facility-compliance-backend/internal/domain/assessment"
)

func setupTestCache(t *testing.T) (*AssessmentCache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cache, err := NewAssessmentCache(client, zaptest.NewLogger(t), time.Minute)
	require.NoError(t, err)
	return cache, mr
}

func testAssessment(facilityID uuid.UUID) *assessment.ComplianceAssessment {
	return &assessment.ComplianceAssessment{
		ID:             uuid.New(),
		FacilityID:     facilityID,
		AssessmentDate: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Type:           assessment.TypeManual,
		OverallScore:   87.5,
		Grade:          "B",
		ModuleScores:   map[string]float64{"haccp": 92.31},
		FindingCounts:  map[string]int{"major": 2},
		RulesPassed:    8,
		RulesFailed:    1,
		CreatedAt:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNewAssessmentCache(t *testing.T) {
	t.Run("nil client", func(t *testing.T) {
		_, err := NewAssessmentCache(nil, zaptest.NewLogger(t), time.Minute)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "redis client is required")
	})

	t.Run("nil logger", func(t *testing.T) {
		client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
		defer client.Close()
		_, err := NewAssessmentCache(client, nil, time.Minute)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "logger is required")
	})

	t.Run("zero ttl uses default", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		defer mr.Close()
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer client.Close()

		cache, err := NewAssessmentCache(client, zaptest.NewLogger(t), 0)
		require.NoError(t, err)
		assert.Equal(t, DefaultAssessmentTTL, cache.ttl)
	})
}

func TestAssessmentCacheRoundTrip(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()
	facilityID := uuid.New()
	a := testAssessment(facilityID)

	require.NoError(t, cache.SetLatest(ctx, a))

	got, err := cache.GetLatest(ctx, facilityID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, a.OverallScore, got.OverallScore)
	assert.Equal(t, a.ModuleScores, got.ModuleScores)
	assert.Equal(t, a.FindingCounts, got.FindingCounts)
}

func TestAssessmentCacheMiss(t *testing.T) {
	cache, _ := setupTestCache(t)

	got, err := cache.GetLatest(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAssessmentCacheInvalidate(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()
	facilityID := uuid.New()

	require.NoError(t, cache.SetLatest(ctx, testAssessment(facilityID)))
	require.NoError(t, cache.Invalidate(ctx, facilityID))

	got, err := cache.GetLatest(ctx, facilityID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAssessmentCacheExpiry(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()
	facilityID := uuid.New()

	require.NoError(t, cache.SetLatest(ctx, testAssessment(facilityID)))
	mr.FastForward(2 * time.Minute)

	got, err := cache.GetLatest(ctx, facilityID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAssessmentCacheNewWriteReplacesOld(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()
	facilityID := uuid.New()

	first := testAssessment(facilityID)
	require.NoError(t, cache.SetLatest(ctx, first))

	second := testAssessment(facilityID)
	second.OverallScore = 61.25
	second.Grade = "D"
	require.NoError(t, cache.SetLatest(ctx, second))

	got, err := cache.GetLatest(ctx, facilityID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, second.ID, got.ID)
	assert.Equal(t, 61.25, got.OverallScore)
}
