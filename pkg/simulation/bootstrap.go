package simulation

import (
	"context"

	"cosmossdk.io/errors"

	"github.com/oxygene76/kbo-classifier/pkg/astronomy/nbody"
	"github.com/oxygene76/kbo-classifier/pkg/ephemeris"
)

// solarSystemBodies are the massive bodies of every scenario, looked up
// by Horizons command code (planet centers, not system barycenters).
var solarSystemBodies = []struct {
	Label   string
	Command string
}{
	{"Sun", "10"},
	{"Jupiter", "599"},
	{"Saturn", "699"},
	{"Uranus", "799"},
	{"Neptune", "899"},
}

// NewSolarSystem builds an N-body system with the Sun and the four giant
// planets resolved at the given Julian Date (epochJD <= 0 means today).
// The returned system carries no target body yet; callers append exactly
// one and hand the system to a Runner.
//
// A lookup failure surfaces as ephemeris.ErrLookup and is not retried.
func NewSolarSystem(ctx context.Context, epochJD float64, provider ephemeris.Provider) (*nbody.System, error) {
	sys := nbody.NewSystem()
	for _, b := range solarSystemBodies {
		state, err := provider.Lookup(ctx, b.Command, epochJD, false)
		if err != nil {
			return nil, errors.Wrapf(err, "bootstrapping %s at epoch %s", b.Label, ephemeris.FormatEpoch(epochJD))
		}
		sys.AddBody(nbody.Body{
			ID:       b.Label,
			Mass:     state.Mass,
			Position: state.Position,
			Velocity: state.Velocity,
		})
	}
	return sys, nil
}
