package mapbox

import (
	"context"
	"errors"
	"testing"

	"github.com/couchcryptid/sfaf-etl/internal/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingGeocoder struct {
	calls  int
	result domain.GeocodingResult
	err    error
}

func (m *countingGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	m.calls++
	return m.result, m.err
}

func TestCachedGeocoder_CacheHit(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{PlaceName: "Larissa", FormattedAddress: "Larissa, Thessaly, Greece"},
	}
	metrics := testMetrics()
	cached := NewCachedGeocoder(inner, 10, metrics)

	r1, err := cached.ReverseGeocode(context.Background(), 39.983333, 22.441667)
	require.NoError(t, err)
	r2, err := cached.ReverseGeocode(context.Background(), 39.983333, 22.441667)
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("miss")), 0)
}

func TestCachedGeocoder_DifferentKeysMiss(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{PlaceName: "Place", FormattedAddress: "Place, Somewhere"},
	}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	_, _ = cached.ReverseGeocode(context.Background(), 39.983333, 22.441667)
	_, _ = cached.ReverseGeocode(context.Background(), -33.75, -70.25)

	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 2, cached.Len())
}

func TestCachedGeocoder_EmptyResultNotCached(t *testing.T) {
	inner := &countingGeocoder{}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	_, _ = cached.ReverseGeocode(context.Background(), 0.5, 0.5)
	_, _ = cached.ReverseGeocode(context.Background(), 0.5, 0.5)

	assert.Equal(t, 2, inner.calls)
	assert.Zero(t, cached.Len())
}

func TestCachedGeocoder_ErrorNotCached(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("status 500")}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	_, err := cached.ReverseGeocode(context.Background(), 1, 1)
	require.Error(t, err)
	assert.Zero(t, cached.Len())
}

func TestCachedGeocoder_Eviction(t *testing.T) {
	inner := &countingGeocoder{result: domain.GeocodingResult{FormattedAddress: "X"}}
	cached := NewCachedGeocoder(inner, 2, testMetrics())

	_, _ = cached.ReverseGeocode(context.Background(), 1, 1)
	_, _ = cached.ReverseGeocode(context.Background(), 2, 2)
	_, _ = cached.ReverseGeocode(context.Background(), 1, 1) // promotes (1,1)
	_, _ = cached.ReverseGeocode(context.Background(), 3, 3) // evicts (2,2)
	require.Equal(t, 3, inner.calls)

	_, _ = cached.ReverseGeocode(context.Background(), 1, 1)
	assert.Equal(t, 3, inner.calls, "recently used entry should survive")

	_, _ = cached.ReverseGeocode(context.Background(), 2, 2)
	assert.Equal(t, 4, inner.calls, "least recently used entry should be evicted")
}

func TestNewCachedGeocoder_NonPositiveSize(t *testing.T) {
	cached := NewCachedGeocoder(&countingGeocoder{}, 0, testMetrics())
	require.NotNil(t, cached.cache)
}
