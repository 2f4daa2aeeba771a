package orbital

import (
	"math"

	astromath "github.com/oxygene76/kbo-classifier/pkg/astronomy/math"
)

// OrbitalElements represents Keplerian orbital elements.
// Angles are stored in radians; use ElementsFromDegrees for catalog input.
type OrbitalElements struct {
	SemiMajorAxis          float64 // a - Semi-major axis (AU)
	Eccentricity           float64 // e - Eccentricity (0-1)
	Inclination            float64 // i - Inclination (radians)
	LongitudeAscendingNode float64 // Ω - Longitude of ascending node (radians)
	ArgumentPerihelion     float64 // ω - Argument of perihelion (radians)
	MeanAnomaly            float64 // M - Mean anomaly at epoch (radians)
	Epoch                  float64 // JD - Julian date of epoch
}

// ElementsFromDegrees builds OrbitalElements from the degree-based catalog
// convention (i, Ω, ω, M in degrees).
func ElementsFromDegrees(a, e, incl, node, peri, meanAnom float64) OrbitalElements {
	return OrbitalElements{
		SemiMajorAxis:          a,
		Eccentricity:           e,
		Inclination:            incl * math.Pi / 180,
		LongitudeAscendingNode: node * math.Pi / 180,
		ArgumentPerihelion:     peri * math.Pi / 180,
		MeanAnomaly:            meanAnom * math.Pi / 180,
	}
}

// NormalizeDegrees wraps an angle into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// NormalizeRadians wraps an angle into [0, 2π).
func NormalizeRadians(rad float64) float64 {
	r := math.Mod(rad, 2*math.Pi)
	if r < 0 {
		r += 2 * math.Pi
	}
	return r
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 { return rad * 180 / math.Pi }

// ToCartesian converts orbital elements to cartesian position and velocity.
// mu is the gravitational parameter (G * M_central); position comes back in
// AU and velocity in AU per the time unit of mu.
func (oe OrbitalElements) ToCartesian(mu float64) (pos, vel astromath.Vector3) {
	// Solve Kepler's equation for eccentric anomaly
	E := oe.solveKeplersEquation()

	cosE := math.Cos(E)

	nu := 2.0 * math.Atan2(
		math.Sqrt(1+oe.Eccentricity)*math.Sin(E/2),
		math.Sqrt(1-oe.Eccentricity)*math.Cos(E/2),
	)

	// Distance from focus
	r := oe.SemiMajorAxis * (1 - oe.Eccentricity*cosE)

	// Position in orbital plane
	x := r * math.Cos(nu)
	y := r * math.Sin(nu)

	// Velocity in orbital plane
	factor := math.Sqrt(mu*oe.SemiMajorAxis) / r
	vx := -factor * math.Sin(E)
	vy := factor * math.Sqrt(1-oe.Eccentricity*oe.Eccentricity) * cosE

	// Rotation from perifocal to inertial frame
	cosOmega := math.Cos(oe.LongitudeAscendingNode)
	sinOmega := math.Sin(oe.LongitudeAscendingNode)
	cosI := math.Cos(oe.Inclination)
	sinI := math.Sin(oe.Inclination)
	cosW := math.Cos(oe.ArgumentPerihelion)
	sinW := math.Sin(oe.ArgumentPerihelion)

	r11 := cosOmega*cosW - sinOmega*sinW*cosI
	r12 := -cosOmega*sinW - sinOmega*cosW*cosI
	r21 := sinOmega*cosW + cosOmega*sinW*cosI
	r22 := -sinOmega*sinW + cosOmega*cosW*cosI
	r31 := sinW * sinI
	r32 := cosW * sinI

	pos.X = r11*x + r12*y
	pos.Y = r21*x + r22*y
	pos.Z = r31*x + r32*y

	vel.X = r11*vx + r12*vy
	vel.Y = r21*vx + r22*vy
	vel.Z = r31*vx + r32*vy

	return pos, vel
}

// solveKeplersEquation solves M = E - e*sin(E) for E by Newton-Raphson.
func (oe OrbitalElements) solveKeplersEquation() float64 {
	E := oe.MeanAnomaly
	if oe.Eccentricity > 0.8 {
		E = math.Pi // better initial guess for high eccentricity
	}

	tolerance := 1e-12
	maxIterations := 50

	for i := 0; i < maxIterations; i++ {
		f := E - oe.Eccentricity*math.Sin(E) - oe.MeanAnomaly
		fp := 1 - oe.Eccentricity*math.Cos(E)

		deltaE := f / fp
		E = E - deltaE

		if math.Abs(deltaE) < tolerance {
			break
		}
	}

	return E
}

// GetPerihelion returns the perihelion distance
func (oe OrbitalElements) GetPerihelion() float64 {
	return oe.SemiMajorAxis * (1 - oe.Eccentricity)
}

// GetAphelion returns the aphelion distance
func (oe OrbitalElements) GetAphelion() float64 {
	return oe.SemiMajorAxis * (1 + oe.Eccentricity)
}

// GetOrbitalPeriod returns the orbital period in the time unit of mu.
func (oe OrbitalElements) GetOrbitalPeriod(mu float64) float64 {
	return 2 * math.Pi * math.Sqrt(math.Pow(oe.SemiMajorAxis, 3)/mu)
}

// GetLongitudeOfPerihelion returns ϖ = Ω + ω, wrapped to [0, 2π).
func (oe OrbitalElements) GetLongitudeOfPerihelion() float64 {
	return NormalizeRadians(oe.LongitudeAscendingNode + oe.ArgumentPerihelion)
}

// CartesianToOrbital converts position and velocity vectors to orbital
// elements. mu must be in the same unit system as pos and vel.
func CartesianToOrbital(pos, vel astromath.Vector3, mu float64) OrbitalElements {
	// Specific angular momentum
	h := pos.Cross(vel)

	// Eccentricity vector
	r := pos.Magnitude()
	v := vel.Magnitude()
	eVec := vel.Cross(h).Scale(1.0 / mu).Sub(pos.Scale(1.0 / r))
	e := eVec.Magnitude()

	// Semi-major axis from the vis-viva relation
	a := 1.0 / (2.0/r - v*v/mu)

	// Inclination
	i := math.Acos(h.Z / h.Magnitude())

	// Longitude of ascending node from the node vector
	n := astromath.Vector3{X: 0, Y: 0, Z: 1}.Cross(h)
	Omega := 0.0
	if n.Magnitude() > 1e-10 {
		Omega = math.Atan2(n.Y, n.X)
		if Omega < 0 {
			Omega += 2 * math.Pi
		}
	}

	// Argument of perihelion
	omega := 0.0
	if n.Magnitude() > 1e-10 && e > 1e-10 {
		cosOmega := n.Dot(eVec) / (n.Magnitude() * e)
		cosOmega = math.Max(-1, math.Min(1, cosOmega))
		omega = math.Acos(cosOmega)
		if eVec.Z < 0 {
			omega = 2*math.Pi - omega
		}
	}

	// Mean anomaly via the eccentric anomaly
	E := 0.0
	if e > 1e-10 {
		cosE := (1 - r/a) / e
		cosE = math.Max(-1, math.Min(1, cosE))
		E = math.Acos(cosE)
		if pos.Dot(vel) < 0 {
			E = 2*math.Pi - E
		}
	}
	M := NormalizeRadians(E - e*math.Sin(E))

	return OrbitalElements{
		SemiMajorAxis:          a,
		Eccentricity:           e,
		Inclination:            i,
		LongitudeAscendingNode: Omega,
		ArgumentPerihelion:     omega,
		MeanAnomaly:            M,
	}
}
