package ephemeris

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	astromath "github.com/oxygene76/kbo-classifier/pkg/astronomy/math"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := OpenCache(filepath.Join(t.TempDir(), "ephemeris.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestCacheRoundTrip(t *testing.T) {
	cache := openTestCache(t)

	state := BodyState{
		Name:     "899",
		Mass:     5.1514e-5,
		Position: astromath.Vector3{X: 16.68, Y: -24.99, Z: 0.356},
		Velocity: astromath.Vector3{X: 0.944, Y: 0.646, Z: -0.035},
	}
	require.NoError(t, cache.Put("899", "2451545.00000000", false, state))

	got, ok, err := cache.Get("899", "2451545.00000000", false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, state, got)
}

func TestCacheMiss(t *testing.T) {
	cache := openTestCache(t)

	_, ok, err := cache.Get("899", "2451545.00000000", false)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheKeyedByFrameAndEpoch(t *testing.T) {
	cache := openTestCache(t)

	helio := BodyState{Name: "899", Position: astromath.Vector3{X: 30}}
	bary := BodyState{Name: "899", Position: astromath.Vector3{X: 30.01}}
	require.NoError(t, cache.Put("899", "2451545.00000000", false, helio))
	require.NoError(t, cache.Put("899", "2451545.00000000", true, bary))

	got, ok, err := cache.Get("899", "2451545.00000000", true)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, bary, got)

	// A different epoch is a miss, not a stale hit.
	_, ok, err = cache.Get("899", "2460000.00000000", false)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheReplace(t *testing.T) {
	cache := openTestCache(t)

	require.NoError(t, cache.Put("Eris", "2451545.00000000", false, BodyState{Name: "Eris", Mass: 0}))
	require.NoError(t, cache.Put("Eris", "2451545.00000000", false, BodyState{Name: "Eris", Mass: 8.4e-9}))

	got, ok, err := cache.Get("Eris", "2451545.00000000", false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 8.4e-9, got.Mass)
}
