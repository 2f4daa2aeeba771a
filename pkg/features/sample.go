package features

import (
	"cosmossdk.io/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	// NumCheckpoints is the fixed number of trajectory rows: checkpoints
	// at {0, 1000, ..., 100000} years.
	NumCheckpoints = 101

	// CheckpointSpacing is the interval between checkpoints in years.
	CheckpointSpacing = 1000.0

	// NumColumns is time plus the five orbital elements.
	NumColumns = 6

	// NumFeatures is 5 elements × 11 statistics.
	NumFeatures = 55
)

var (
	// ErrBadSample is returned for trajectory data that does not form a
	// valid 101×6 sample with strictly increasing time.
	ErrBadSample = errors.Register("features", 2, "malformed trajectory sample")

	// ErrDegenerateTimestep is returned when two adjacent checkpoints
	// share a timestamp, which would make the element rates undefined.
	ErrDegenerateTimestep = errors.Register("features", 3, "degenerate timestep between checkpoints")
)

// ElementNames lists the five orbital-element columns in their fixed
// order after the time column.
var ElementNames = []string{"a", "e", "i", "Omega", "omega"}

// StatNames lists the eleven per-element statistics in emission order.
var StatNames = []string{
	"initial", "final", "min", "mean", "max", "stdev", "range",
	"rate_min", "rate_mean", "rate_max", "rate_range",
}

// FeatureNames returns the 55 feature column names, `<element>_<stat>`,
// in the exact order Extract emits them.
func FeatureNames() []string {
	names := make([]string, 0, NumFeatures)
	for _, elem := range ElementNames {
		for _, stat := range StatNames {
			names = append(names, elem+"_"+stat)
		}
	}
	return names
}

// OrbitalState is one checkpoint of a body's osculating elements.
// Angles are in degrees; AscendingNode and ArgPerihelion are normalized
// to [0,360) at capture time, inclination is not wrapped.
type OrbitalState struct {
	Time          float64 // years since epoch
	SemiMajorAxis float64 // AU
	Eccentricity  float64
	Inclination   float64 // degrees, [0,180)
	AscendingNode float64 // Ω, degrees, [0,360)
	ArgPerihelion float64 // ω, degrees, [0,360)
}

// TrajectorySample is an immutable 101×6 time series of one body's
// orbital elements. Column 0 is time, columns 1..5 are a, e, i, Ω, ω.
type TrajectorySample struct {
	m *mat.Dense
}

// NewTrajectorySample builds a sample from checkpoint states, enforcing
// the row count and strictly increasing time.
func NewTrajectorySample(states []OrbitalState) (*TrajectorySample, error) {
	if len(states) != NumCheckpoints {
		return nil, errors.Wrapf(ErrBadSample, "got %d checkpoints, need %d", len(states), NumCheckpoints)
	}
	m := mat.NewDense(NumCheckpoints, NumColumns, nil)
	for r, st := range states {
		m.SetRow(r, []float64{
			st.Time, st.SemiMajorAxis, st.Eccentricity,
			st.Inclination, st.AscendingNode, st.ArgPerihelion,
		})
	}
	return fromDense(m)
}

// SampleFromMatrix wraps an existing 101×6 matrix (e.g. parsed from a
// file) after validating its shape and time ordering.
func SampleFromMatrix(m *mat.Dense) (*TrajectorySample, error) {
	r, c := m.Dims()
	if r != NumCheckpoints || c != NumColumns {
		return nil, errors.Wrapf(ErrBadSample, "got %dx%d matrix, need %dx%d", r, c, NumCheckpoints, NumColumns)
	}
	return fromDense(m)
}

func fromDense(m *mat.Dense) (*TrajectorySample, error) {
	for r := 1; r < NumCheckpoints; r++ {
		if m.At(r, 0) <= m.At(r-1, 0) {
			return nil, errors.Wrapf(ErrBadSample, "time not strictly increasing at row %d", r)
		}
	}
	return &TrajectorySample{m: m}, nil
}

// At returns the value at row r, column c.
func (s *TrajectorySample) At(r, c int) float64 {
	return s.m.At(r, c)
}

// Column copies column c into a fresh slice of length NumCheckpoints.
func (s *TrajectorySample) Column(c int) []float64 {
	col := make([]float64, NumCheckpoints)
	mat.Col(col, c, s.m)
	return col
}
