package nbody

import (
	"math"

	astromath "github.com/oxygene76/kbo-classifier/pkg/astronomy/math"
	"github.com/oxygene76/kbo-classifier/pkg/astronomy/orbital"
)

// Gravitational constant in AU³/(M☉·yr²). With a in AU, masses in solar
// masses and time in years, Kepler's third law gives G = 4π² exactly.
const G = 4 * math.Pi * math.Pi

// Body represents a celestial body in the N-body system
type Body struct {
	ID       string            // Identifier
	Mass     float64           // Mass in solar masses
	Position astromath.Vector3 // Position in AU
	Velocity astromath.Vector3 // Velocity in AU/yr
}

// System represents the N-body system. The first NActive bodies are
// gravity sources; any bodies after them are massless test particles
// that feel the sources but do not perturb anything.
type System struct {
	Bodies  []Body
	Time    float64 // years since the scenario epoch
	NActive int
}

// NewSystem creates an empty N-body system.
func NewSystem() *System {
	return &System{Bodies: make([]Body, 0, 8)}
}

// AddBody appends a body to the system.
func (s *System) AddBody(b Body) {
	s.Bodies = append(s.Bodies, b)
}

// SetActive marks the first n bodies as massive sources. Bodies beyond
// n are integrated as test particles regardless of their stored mass.
func (s *System) SetActive(n int) {
	if n > len(s.Bodies) {
		n = len(s.Bodies)
	}
	s.NActive = n
}

// TotalActiveMass returns the summed mass of the gravity sources.
func (s *System) TotalActiveMass() float64 {
	total := 0.0
	for i := 0; i < s.NActive; i++ {
		total += s.Bodies[i].Mass
	}
	return total
}

// Barycenter returns the center-of-mass position and velocity of the
// active bodies.
func (s *System) Barycenter() (pos, vel astromath.Vector3) {
	total := s.TotalActiveMass()
	if total == 0 {
		return
	}
	for i := 0; i < s.NActive; i++ {
		b := s.Bodies[i]
		pos = pos.AddScaled(b.Position, b.Mass)
		vel = vel.AddScaled(b.Velocity, b.Mass)
	}
	pos = pos.Scale(1 / total)
	vel = vel.Scale(1 / total)
	return
}

// RecenterToBarycenter shifts every body so the center of mass sits at
// the origin with zero net momentum. Removes bulk drift so orbital
// elements are computed about a stable reference.
func (s *System) RecenterToBarycenter() {
	comPos, comVel := s.Barycenter()
	for i := range s.Bodies {
		s.Bodies[i].Position = s.Bodies[i].Position.Sub(comPos)
		s.Bodies[i].Velocity = s.Bodies[i].Velocity.Sub(comVel)
	}
}

// ElementsOf returns the osculating orbital elements of body i relative
// to the center of mass of the active bodies.
func (s *System) ElementsOf(i int) orbital.OrbitalElements {
	comPos, comVel := s.Barycenter()
	relPos := s.Bodies[i].Position.Sub(comPos)
	relVel := s.Bodies[i].Velocity.Sub(comVel)
	mu := G * s.TotalActiveMass()
	return orbital.CartesianToOrbital(relPos, relVel, mu)
}

// KineticEnergy returns the total kinetic energy of the active bodies.
func (s *System) KineticEnergy() float64 {
	energy := 0.0
	for i := 0; i < s.NActive; i++ {
		b := s.Bodies[i]
		energy += 0.5 * b.Mass * b.Velocity.Dot(b.Velocity)
	}
	return energy
}

// PotentialEnergy returns the total gravitational potential energy of
// the active bodies.
func (s *System) PotentialEnergy() float64 {
	energy := 0.0
	for i := 0; i < s.NActive-1; i++ {
		for j := i + 1; j < s.NActive; j++ {
			r := s.Bodies[i].Position.Distance(s.Bodies[j].Position)
			if r > 1e-10 {
				energy -= G * s.Bodies[i].Mass * s.Bodies[j].Mass / r
			}
		}
	}
	return energy
}

// TotalEnergy returns kinetic plus potential energy. Conserved by the
// symplectic stepper up to truncation error; the runner reports its
// relative drift as a diagnostic.
func (s *System) TotalEnergy() float64 {
	return s.KineticEnergy() + s.PotentialEnergy()
}
