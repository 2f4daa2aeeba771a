package ephemeris

import (
	"context"
	"strconv"
	"time"

	"cosmossdk.io/errors"

	astromath "github.com/oxygene76/kbo-classifier/pkg/astronomy/math"
)

// ErrLookup is returned when a body name or epoch cannot be resolved by
// the ephemeris service. Lookups are never retried internally.
var ErrLookup = errors.Register("ephemeris", 2, "ephemeris lookup failed")

// BodyState is the resolved state of one body at an epoch, in the
// pipeline's working units (AU, AU/yr, solar masses).
type BodyState struct {
	Name     string
	Mass     float64 // solar masses; 0 when the catalog carries no mass
	Position astromath.Vector3
	Velocity astromath.Vector3
}

// Provider resolves body states by name and epoch. Implementations are
// the external collaborator boundary: the JPL Horizons client in
// production, a stub in tests.
type Provider interface {
	// Lookup resolves name at the given Julian Date. epochJD <= 0 means
	// "resolve at query time" (today). barycentric selects the solar
	// system barycenter as origin instead of the Sun.
	Lookup(ctx context.Context, name string, epochJD float64, barycentric bool) (BodyState, error)
}

// CurrentJulianDate returns the Julian Date of the current wall clock.
func CurrentJulianDate() float64 {
	return float64(time.Now().UnixMilli())/86400000.0 + 2440587.5
}

// FormatEpoch renders an epoch in the fixed-precision Julian-date form
// the ephemeris service expects. Non-positive epochs resolve to now.
func FormatEpoch(epochJD float64) string {
	if epochJD <= 0 {
		epochJD = CurrentJulianDate()
	}
	return strconv.FormatFloat(epochJD, 'f', 8, 64)
}
