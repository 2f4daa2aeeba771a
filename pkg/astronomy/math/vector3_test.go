package math

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVectorArithmetic(t *testing.T) {
	a := Vector3{X: 1, Y: 2, Z: 3}
	b := Vector3{X: -4, Y: 5, Z: 0.5}

	assert.Equal(t, Vector3{X: -3, Y: 7, Z: 3.5}, a.Add(b))
	assert.Equal(t, Vector3{X: 5, Y: -3, Z: 2.5}, a.Sub(b))
	assert.Equal(t, Vector3{X: 2, Y: 4, Z: 6}, a.Scale(2))
	assert.Equal(t, a.Add(b.Scale(2)), a.AddScaled(b, 2))
	assert.Equal(t, 7.5, a.Dot(b))
}

func TestCrossProduct(t *testing.T) {
	x := Vector3{X: 1}
	y := Vector3{Y: 1}
	assert.Equal(t, Vector3{Z: 1}, x.Cross(y))
	assert.Equal(t, Vector3{Z: -1}, y.Cross(x))
	assert.True(t, x.Cross(x).IsZero())
}

func TestMagnitudeAndNormalize(t *testing.T) {
	v := Vector3{X: 3, Y: 4}
	assert.Equal(t, 5.0, v.Magnitude())

	unit := v.Normalize()
	assert.InDelta(t, 1.0, unit.Magnitude(), 1e-15)

	zero := Vector3{}
	assert.Equal(t, zero, zero.Normalize())
}

func TestDistance(t *testing.T) {
	a := Vector3{X: 1, Y: 1}
	b := Vector3{X: 4, Y: 5}
	assert.Equal(t, 5.0, a.Distance(b))
}

func TestIsFinite(t *testing.T) {
	assert.True(t, Vector3{X: 1, Y: 2, Z: 3}.IsFinite())
	assert.False(t, Vector3{X: math.NaN()}.IsFinite())
	assert.False(t, Vector3{Z: math.Inf(1)}.IsFinite())
}
