package nbody

import (
	"math"

	"cosmossdk.io/errors"

	astromath "github.com/oxygene76/kbo-classifier/pkg/astronomy/math"
)

// ErrIntegrationFailure is returned when the stepper cannot advance the
// system to a requested time (divergent state or non-monotonic target).
var ErrIntegrationFailure = errors.Register("nbody", 2, "integration failure")

// encounterEta limits a substep to this fraction of the shortest
// separation-over-approach-speed timescale among pairs involving a
// gravity source. Close encounters shrink the step; wide systems keep
// the requested one.
const encounterEta = 0.1

// StepTo advances the system to time t (years) with leapfrog substeps of
// at most dt years, landing exactly on t. No overshoot-and-interpolate:
// the last substep is shortened as needed.
func (s *System) StepTo(t, dt float64) error {
	if dt <= 0 {
		return errors.Wrapf(ErrIntegrationFailure, "non-positive step %g", dt)
	}
	if t < s.Time {
		return errors.Wrapf(ErrIntegrationFailure, "target time %g precedes current time %g", t, s.Time)
	}
	for s.Time < t {
		h := math.Min(dt, s.encounterStep(dt))
		if remaining := t - s.Time; h > remaining {
			h = remaining
		}
		s.leapfrogStep(h)
	}
	// Guard against accumulated rounding leaving Time a hair off target.
	s.Time = t

	for i := range s.Bodies {
		if !s.Bodies[i].Position.IsFinite() || !s.Bodies[i].Velocity.IsFinite() {
			return errors.Wrapf(ErrIntegrationFailure, "body %s diverged at t=%g yr", s.Bodies[i].ID, s.Time)
		}
	}
	return nil
}

// encounterStep returns the largest substep that keeps every body from
// crossing more than a small fraction of its separation to a gravity
// source within one step.
func (s *System) encounterStep(dtMax float64) float64 {
	h := dtMax
	for i := range s.Bodies {
		for j := 0; j < s.NActive; j++ {
			if i == j {
				continue
			}
			r := s.Bodies[i].Position.Distance(s.Bodies[j].Position)
			vrel := s.Bodies[i].Velocity.Sub(s.Bodies[j].Velocity).Magnitude()
			if r <= 0 || vrel <= 0 {
				continue
			}
			if limit := encounterEta * r / vrel; limit < h {
				h = limit
			}
		}
	}
	return h
}

// leapfrogStep performs one kick-drift-kick step of size dt (2nd order,
// symplectic).
func (s *System) leapfrogStep(dt float64) {
	acc := s.accelerations()

	// Kick: half-step velocity update
	for i := range s.Bodies {
		s.Bodies[i].Velocity = s.Bodies[i].Velocity.AddScaled(acc[i], dt*0.5)
	}

	// Drift: full-step position update
	for i := range s.Bodies {
		s.Bodies[i].Position = s.Bodies[i].Position.AddScaled(s.Bodies[i].Velocity, dt)
	}

	// Kick: second half-step with recomputed accelerations
	acc = s.accelerations()
	for i := range s.Bodies {
		s.Bodies[i].Velocity = s.Bodies[i].Velocity.AddScaled(acc[i], dt*0.5)
	}

	s.Time += dt
}

// accelerations computes gravitational accelerations for all bodies.
// Only the first NActive bodies act as sources; test particles feel
// gravity without exerting any.
func (s *System) accelerations() []astromath.Vector3 {
	n := len(s.Bodies)
	acc := make([]astromath.Vector3, n)

	for i := 0; i < n; i++ {
		for j := 0; j < s.NActive; j++ {
			if i == j {
				continue
			}
			acc[i] = acc[i].Add(s.accelerationOn(i, j))
		}
	}

	return acc
}

// accelerationOn returns the acceleration on body i due to source j.
func (s *System) accelerationOn(i, j int) astromath.Vector3 {
	r := s.Bodies[j].Position.Sub(s.Bodies[i].Position)
	rMag := r.Magnitude()

	// Avoid singularity
	if rMag < 1e-10 {
		return astromath.Vector3{}
	}

	// Newton's law: a = G * M_j * r / |r|³
	return r.Scale(G * s.Bodies[j].Mass / (rMag * rMag * rMag))
}
