package features

import (
	"math"
	"testing"

	"cosmossdk.io/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// sampleFromFunc builds a valid 101-checkpoint sample where column c at
// checkpoint k is f(c, k). Column indices follow a=1 .. omega=5.
func sampleFromFunc(t *testing.T, f func(c, k int) float64) *TrajectorySample {
	t.Helper()
	states := make([]OrbitalState, NumCheckpoints)
	for k := range states {
		states[k] = OrbitalState{
			Time:          float64(k) * CheckpointSpacing,
			SemiMajorAxis: f(1, k),
			Eccentricity:  f(2, k),
			Inclination:   f(3, k),
			AscendingNode: f(4, k),
			ArgPerihelion: f(5, k),
		}
	}
	sample, err := NewTrajectorySample(states)
	require.NoError(t, err)
	return sample
}

func TestExtractShapeAndOrdering(t *testing.T) {
	// Distinct per-column linear trends make ordering mistakes visible.
	sample := sampleFromFunc(t, func(c, k int) float64 {
		return float64(c)*100 + float64(k)*float64(c)
	})

	fv, err := Extract(sample)
	require.NoError(t, err)
	require.Len(t, fv, NumFeatures)

	names := FeatureNames()
	require.Len(t, names, NumFeatures)
	assert.Equal(t, "a_initial", names[0])
	assert.Equal(t, "a_rate_range", names[10])
	assert.Equal(t, "e_initial", names[11])
	assert.Equal(t, "omega_rate_range", names[54])

	// Column c has initial c*100, final c*100 + 100c, slope c per
	// checkpoint = c/1000 per year.
	for c := 1; c <= 5; c++ {
		base := (c - 1) * 11
		fc := float64(c)
		assert.InDelta(t, fc*100, fv[base+0], 1e-12, "initial of column %d", c)
		assert.InDelta(t, fc*100+100*fc, fv[base+1], 1e-12, "final of column %d", c)
		assert.InDelta(t, fc*100, fv[base+2], 1e-12, "min of column %d", c)
		assert.InDelta(t, fc*100+50*fc, fv[base+3], 1e-12, "mean of column %d", c)
		assert.InDelta(t, fc*100+100*fc, fv[base+4], 1e-12, "max of column %d", c)
		assert.InDelta(t, fc/1000, fv[base+8], 1e-15, "mean rate of column %d", c)
	}
}

func TestExtractIdempotent(t *testing.T) {
	sample := sampleFromFunc(t, func(c, k int) float64 {
		return math.Sin(float64(c*k)) * 40
	})

	first, err := Extract(sample)
	require.NoError(t, err)
	second, err := Extract(sample)
	require.NoError(t, err)

	// Bit-identical, not merely close.
	assert.Equal(t, first, second)
}

func TestExtractConstantTrajectory(t *testing.T) {
	const value = 43.7
	sample := sampleFromFunc(t, func(c, k int) float64 { return value })

	fv, err := Extract(sample)
	require.NoError(t, err)

	for c := 0; c < 5; c++ {
		base := c * 11
		for _, i := range []int{0, 1, 2, 3, 4} { // initial, final, min, mean, max
			assert.Equal(t, value, fv[base+i])
		}
		for _, i := range []int{5, 6, 7, 8, 9, 10} { // stdev, range, all rates
			assert.Equal(t, 0.0, fv[base+i])
		}
	}
}

func TestExtractMonotonicColumnConstantRate(t *testing.T) {
	// Evenly spaced checkpoints and a monotonically increasing column
	// give identical min/mean/max rates and zero rate range.
	sample := sampleFromFunc(t, func(c, k int) float64 {
		return 30 + 0.25*float64(k)
	})

	fv, err := Extract(sample)
	require.NoError(t, err)

	for c := 0; c < 5; c++ {
		base := c * 11
		rateMin, rateMean, rateMax, rateRange := fv[base+7], fv[base+8], fv[base+9], fv[base+10]
		assert.InDelta(t, rateMin, rateMean, 1e-15)
		assert.InDelta(t, rateMean, rateMax, 1e-15)
		assert.InDelta(t, 0.0, rateRange, 1e-15)
		assert.InDelta(t, 0.25/CheckpointSpacing, rateMean, 1e-15)
	}
}

func TestExtractPopulationStdev(t *testing.T) {
	// Alternating ±1 around 0 has population stdev exactly 1 only for an
	// even count; with 101 checkpoints compute the expected value directly.
	vals := make([]float64, NumCheckpoints)
	for k := range vals {
		if k%2 == 0 {
			vals[k] = 1
		} else {
			vals[k] = -1
		}
	}
	mean := 0.0
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	ss := 0.0
	for _, v := range vals {
		ss += (v - mean) * (v - mean)
	}
	want := math.Sqrt(ss / float64(len(vals))) // N divisor

	sample := sampleFromFunc(t, func(c, k int) float64 { return vals[k] })
	fv, err := Extract(sample)
	require.NoError(t, err)

	assert.InDelta(t, want, fv[5], 1e-12) // a_stdev
}

func TestExtractDegenerateTimestep(t *testing.T) {
	m := mat.NewDense(NumCheckpoints, NumColumns, nil)
	for k := 0; k < NumCheckpoints; k++ {
		m.Set(k, 0, float64(k))
		m.Set(k, 1, 40)
	}
	sample, err := SampleFromMatrix(m)
	require.NoError(t, err)

	// Force equal adjacent times after validation; the extractor must
	// still guard the division.
	sample.m.Set(50, 0, sample.m.At(49, 0))

	_, err = Extract(sample)
	require.Error(t, err)
	assert.True(t, errors.IsOf(err, ErrDegenerateTimestep))
}

func TestNewTrajectorySampleValidation(t *testing.T) {
	_, err := NewTrajectorySample(make([]OrbitalState, 50))
	require.Error(t, err)
	assert.True(t, errors.IsOf(err, ErrBadSample))

	states := make([]OrbitalState, NumCheckpoints)
	for k := range states {
		states[k].Time = float64(k)
	}
	states[10].Time = states[9].Time // not strictly increasing

	_, err = NewTrajectorySample(states)
	require.Error(t, err)
	assert.True(t, errors.IsOf(err, ErrBadSample))
}
