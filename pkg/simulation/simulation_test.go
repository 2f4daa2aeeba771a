package simulation

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cosmossdk.io/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	astromath "github.com/oxygene76/kbo-classifier/pkg/astronomy/math"
	"github.com/oxygene76/kbo-classifier/pkg/astronomy/nbody"
	"github.com/oxygene76/kbo-classifier/pkg/ephemeris"
	"github.com/oxygene76/kbo-classifier/pkg/features"
)

// stubProvider serves circular-orbit states for the bootstrap bodies
// without touching the network.
type stubProvider struct {
	fail map[string]bool
}

// circular places a body of the given mass on a circular orbit of radius
// a AU about a one-solar-mass primary.
func circular(name string, mass, a float64) ephemeris.BodyState {
	state := ephemeris.BodyState{Name: name, Mass: mass}
	if a > 0 {
		state.Position = astromath.Vector3{X: a}
		state.Velocity = astromath.Vector3{Y: 2 * math.Pi / math.Sqrt(a)}
	}
	return state
}

func (s *stubProvider) Lookup(_ context.Context, name string, _ float64, _ bool) (ephemeris.BodyState, error) {
	if s.fail[name] {
		return ephemeris.BodyState{}, errors.Wrapf(ephemeris.ErrLookup, "no match for %q", name)
	}
	switch name {
	case "10":
		return circular(name, 1, 0), nil
	case "599":
		return circular(name, 9.5479e-4, 5.2), nil
	case "699":
		return circular(name, 2.8577e-4, 9.58), nil
	case "799":
		return circular(name, 4.3662e-5, 19.2), nil
	case "899":
		return circular(name, 5.1514e-5, 30.05), nil
	default:
		return circular(name, 0, 39.5), nil
	}
}

// shortSchedule keeps the checkpoint count but compresses the span so
// runner tests stay fast.
func shortSchedule() []float64 {
	schedule := make([]float64, features.NumCheckpoints)
	for i := range schedule {
		schedule[i] = float64(i) * 0.1
	}
	return schedule
}

func TestDefaultSchedule(t *testing.T) {
	schedule := DefaultSchedule()
	require.Len(t, schedule, 101)
	assert.Equal(t, 0.0, schedule[0])
	assert.Equal(t, 100000.0, schedule[100])
	for i := 1; i < len(schedule); i++ {
		assert.Equal(t, 1000.0, schedule[i]-schedule[i-1])
	}
}

func TestNewSolarSystem(t *testing.T) {
	sys, err := NewSolarSystem(context.Background(), 2451545.0, &stubProvider{})
	require.NoError(t, err)

	require.Len(t, sys.Bodies, 5)
	assert.Equal(t, "Sun", sys.Bodies[0].ID)
	assert.Equal(t, "Neptune", sys.Bodies[4].ID)
	assert.Equal(t, 1.0, sys.Bodies[0].Mass)
	assert.InDelta(t, 5.1514e-5, sys.Bodies[4].Mass, 1e-12)
}

func TestNewSolarSystemLookupFailure(t *testing.T) {
	provider := &stubProvider{fail: map[string]bool{"699": true}}

	_, err := NewSolarSystem(context.Background(), 0, provider)
	require.Error(t, err)
	assert.True(t, errors.IsOf(err, ephemeris.ErrLookup))
	assert.Contains(t, err.Error(), "Saturn")
}

// testSystem builds Sun + Neptune + one test particle near the 3:2
// resonance region.
func testSystem(t *testing.T) *nbody.System {
	t.Helper()
	sys := nbody.NewSystem()
	sys.AddBody(nbody.Body{ID: "Sun", Mass: 1})
	sys.AddBody(nbody.Body{
		ID:       "Neptune",
		Mass:     5.1514e-5,
		Position: astromath.Vector3{X: 30.05},
		Velocity: astromath.Vector3{Y: 2 * math.Pi / math.Sqrt(30.05)},
	})
	sys.AddBody(nbody.Body{
		ID:       "target",
		Mass:     0,
		Position: astromath.Vector3{X: 39.4},
		Velocity: astromath.Vector3{Y: 2 * math.Pi / math.Sqrt(39.4) * 1.02, Z: 0.3},
	})
	return sys
}

func TestRunnerProducesSample(t *testing.T) {
	runner := &Runner{Schedule: shortSchedule()}
	sample, err := runner.Run(testSystem(t))
	require.NoError(t, err)

	for r := 0; r < features.NumCheckpoints; r++ {
		assert.InDelta(t, float64(r)*0.1, sample.At(r, 0), 1e-12)

		a := sample.At(r, 1)
		assert.Greater(t, a, 30.0)
		assert.Less(t, a, 50.0)

		for _, c := range []int{4, 5} { // Ω, ω columns
			angle := sample.At(r, c)
			assert.GreaterOrEqual(t, angle, 0.0)
			assert.Less(t, angle, 360.0)
		}
	}
}

func TestRunnerRequiresTarget(t *testing.T) {
	sys := nbody.NewSystem()
	sys.AddBody(nbody.Body{ID: "Sun", Mass: 1})

	runner := &Runner{Schedule: shortSchedule()}
	_, err := runner.Run(sys)
	require.Error(t, err)
	assert.True(t, errors.IsOf(err, nbody.ErrIntegrationFailure))
}

func TestRunnerTraceFile(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "run.trace")

	// Pre-existing content must be truncated, not appended to.
	require.NoError(t, os.WriteFile(tracePath, []byte("stale\n"), 0644))

	runner := &Runner{Schedule: shortSchedule(), TracePath: tracePath}
	_, err := runner.Run(testSystem(t))
	require.NoError(t, err)

	data, err := os.ReadFile(tracePath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 1+2*features.NumCheckpoints)
	assert.Equal(t, "id, t, a, e, i, Omega, omega, M", lines[0])

	for i, line := range lines[1:] {
		fields := strings.Fields(line)
		require.Len(t, fields, 8, "line %d", i+2)
		if i%2 == 0 {
			assert.Equal(t, "-1", fields[0], "perturber line %d", i+2)
		} else {
			assert.Equal(t, "0", fields[0], "target line %d", i+2)
		}
	}
}

func TestRunnerDeterministic(t *testing.T) {
	runner := &Runner{Schedule: shortSchedule()}

	first, err := runner.Run(testSystem(t))
	require.NoError(t, err)
	second, err := runner.Run(testSystem(t))
	require.NoError(t, err)

	for r := 0; r < features.NumCheckpoints; r++ {
		for c := 0; c < features.NumColumns; c++ {
			assert.Equal(t, first.At(r, c), second.At(r, c), "row %d col %d", r, c)
		}
	}
}
