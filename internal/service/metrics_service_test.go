package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatheredValue(t *testing.T, m *MetricsService, name string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name || len(family.GetMetric()) == 0 {
			continue
		}
		metric := family.GetMetric()[0]
		if gauge := metric.GetGauge(); gauge != nil {
			return gauge.GetValue()
		}
		return metric.GetCounter().GetValue()
	}
	t.Fatalf("metric %s not gathered", name)
	return 0
}

func TestCacheServiceRecordsHitRatio(t *testing.T) {
	metrics := NewMetricsService()
	cache := NewCacheService(newMemoryCacheRepo(), metrics, time.Minute, nil, true)
	ctx := context.Background()

	var ids []int64
	hit, err := cache.Get(ctx, "hierarchy:manager:1", &ids)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, "hierarchy:manager:1", []int64{1, 2}, 0))
	hit, err = cache.Get(ctx, "hierarchy:manager:1", &ids)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []int64{1, 2}, ids)

	assert.Equal(t, 1.0, gatheredValue(t, metrics, "cache_hits_total"))
	assert.Equal(t, 1.0, gatheredValue(t, metrics, "cache_misses_total"))
	assert.Equal(t, 0.5, gatheredValue(t, metrics, "cache_hit_ratio"))
}

func TestCacheServiceDisabledIsNoop(t *testing.T) {
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, nil, 0, nil, false)

	assert.False(t, cache.Enabled())
	require.NoError(t, cache.Set(context.Background(), "k", 1, 0))
	assert.Empty(t, repo.entries)

	var nilCache *CacheService
	assert.False(t, nilCache.Enabled())
	hit, err := nilCache.Get(context.Background(), "k", new(int))
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMetricsServiceNilReceiverIsSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest("GET", "/reports", 200, time.Millisecond)
		m.RecordTransition("submit", "ok")
		m.RecordAccessDenied("read")
		m.RecordCacheOperation(true, time.Millisecond)
	})
	assert.Nil(t, m.Registry())
}
