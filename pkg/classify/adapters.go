package classify

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"cosmossdk.io/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/oxygene76/kbo-classifier/internal/types"
	"github.com/oxygene76/kbo-classifier/pkg/astronomy/nbody"
	"github.com/oxygene76/kbo-classifier/pkg/astronomy/orbital"
	"github.com/oxygene76/kbo-classifier/pkg/ephemeris"
	"github.com/oxygene76/kbo-classifier/pkg/features"
	"github.com/oxygene76/kbo-classifier/pkg/simulation"
)

// Version is reported in result metadata.
const Version = "1.0.0"

// DefaultColumnOrder is the identity file-column mapping:
// t, a, e, i, Ω, ω.
var DefaultColumnOrder = []int{0, 1, 2, 3, 4, 5}

// TargetElements are the classical orbital elements of a target body at
// an epoch, in catalog units (a in AU, angles in degrees).
type TargetElements struct {
	SemiMajorAxis float64
	Eccentricity  float64
	Inclination   float64
	AscendingNode float64
	ArgPerihelion float64
	MeanAnomaly   float64

	// Barycentric marks the elements as relative to the solar system
	// barycenter rather than the Sun.
	Barycentric bool
}

// Pipeline binds the three input adapters to their collaborators. Each
// call owns its own simulation context; a Pipeline itself holds no
// per-request state and is safe to reuse sequentially.
type Pipeline struct {
	Ephemeris  ephemeris.Provider
	Classifier Classifier

	// InitialStep overrides the integrator step when positive.
	InitialStep float64

	// Schedule overrides the checkpoint times when non-nil.
	Schedule []float64

	// TracePath, when set, receives the simulation trace of the next
	// simulated run (overwritten per call).
	TracePath string
}

// FeaturesFromFile reads a tabular trajectory file, keeps the first 101
// rows, reorders columns per the index mapping (nil means identity), and
// extracts the 55-value feature vector.
func (p *Pipeline) FeaturesFromFile(path string, columns []int) ([]float64, error) {
	if columns == nil {
		columns = DefaultColumnOrder
	}
	if len(columns) != features.NumColumns {
		return nil, errors.Wrapf(ErrMalformedInput, "column mapping has %d entries, need %d", len(columns), features.NumColumns)
	}

	sample, err := readTrajectoryFile(path, columns)
	if err != nil {
		return nil, err
	}
	return features.Extract(sample)
}

// FeaturesFromElements bootstraps the solar system at the epoch, injects
// the target from its classical elements, runs the simulation, and
// extracts features. epochJD <= 0 means today.
func (p *Pipeline) FeaturesFromElements(ctx context.Context, epochJD float64, target TargetElements) ([]float64, error) {
	sys, err := simulation.NewSolarSystem(ctx, epochJD, p.Ephemeris)
	if err != nil {
		return nil, err
	}

	el := orbital.ElementsFromDegrees(
		target.SemiMajorAxis, target.Eccentricity, target.Inclination,
		target.AscendingNode, target.ArgPerihelion, target.MeanAnomaly)

	body := nbody.Body{ID: "target", Mass: 0}
	if target.Barycentric {
		// Elements given about the barycenter: place the body relative
		// to the current center of mass using the full system mass.
		sys.SetActive(len(sys.Bodies))
		mu := nbody.G * sys.TotalActiveMass()
		pos, vel := el.ToCartesian(mu)
		comPos, comVel := sys.Barycenter()
		body.Position = comPos.Add(pos)
		body.Velocity = comVel.Add(vel)
	} else {
		// Heliocentric: the bootstrapped frame is already Sun-centered.
		mu := nbody.G * sys.Bodies[0].Mass
		pos, vel := el.ToCartesian(mu)
		body.Position = sys.Bodies[0].Position.Add(pos)
		body.Velocity = sys.Bodies[0].Velocity.Add(vel)
	}
	sys.AddBody(body)

	return p.runAndExtract(sys)
}

// FeaturesFromJPL resolves a catalog designation through the ephemeris
// provider and proceeds as FeaturesFromElements from the simulation step
// onward. A missing catalog mass is accepted and defaults to zero.
func (p *Pipeline) FeaturesFromJPL(ctx context.Context, epochJD float64, designation string) ([]float64, error) {
	sys, err := simulation.NewSolarSystem(ctx, epochJD, p.Ephemeris)
	if err != nil {
		return nil, err
	}

	state, err := p.Ephemeris.Lookup(ctx, designation, epochJD, false)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving target %q", designation)
	}
	if state.Mass == 0 {
		log.Printf("No catalog mass for %q, proceeding as massless", designation)
	}

	sys.AddBody(nbody.Body{
		ID:       designation,
		Mass:     state.Mass,
		Position: state.Position,
		Velocity: state.Velocity,
	})

	return p.runAndExtract(sys)
}

func (p *Pipeline) runAndExtract(sys *nbody.System) ([]float64, error) {
	runner := &simulation.Runner{
		InitialStep: p.InitialStep,
		Schedule:    p.Schedule,
		TracePath:   p.TracePath,
	}
	sample, err := runner.Run(sys)
	if err != nil {
		return nil, err
	}
	return features.Extract(sample)
}

// ClassifyFile runs FeaturesFromFile and scores the result.
func (p *Pipeline) ClassifyFile(path string, columns []int) (*types.ClassificationResult, error) {
	start := time.Now()
	fv, err := p.FeaturesFromFile(path, columns)
	if err != nil {
		return nil, err
	}
	return p.finish(path, fv, start, types.ClassificationMetadata{
		Source:    "file",
		InputFile: path,
	})
}

// ClassifyElements runs FeaturesFromElements and scores the result.
func (p *Pipeline) ClassifyElements(ctx context.Context, epochJD float64, target TargetElements) (*types.ClassificationResult, error) {
	start := time.Now()
	fv, err := p.FeaturesFromElements(ctx, epochJD, target)
	if err != nil {
		return nil, err
	}
	object := fmt.Sprintf("a=%.3f e=%.3f i=%.3f", target.SemiMajorAxis, target.Eccentricity, target.Inclination)
	return p.finish(object, fv, start, types.ClassificationMetadata{
		Source: "elements",
		Epoch:  ephemeris.FormatEpoch(epochJD),
	})
}

// ClassifyJPL runs FeaturesFromJPL and scores the result.
func (p *Pipeline) ClassifyJPL(ctx context.Context, epochJD float64, designation string) (*types.ClassificationResult, error) {
	start := time.Now()
	fv, err := p.FeaturesFromJPL(ctx, epochJD, designation)
	if err != nil {
		return nil, err
	}
	return p.finish(designation, fv, start, types.ClassificationMetadata{
		Source: "jpl",
		Epoch:  ephemeris.FormatEpoch(epochJD),
	})
}

func (p *Pipeline) finish(object string, fv []float64, start time.Time, meta types.ClassificationMetadata) (*types.ClassificationResult, error) {
	pred, err := p.Classifier.Predict(fv)
	if err != nil {
		return nil, err
	}
	meta.TraceFile = p.TracePath
	meta.Version = Version
	return &types.ClassificationResult{
		Object:        object,
		Label:         pred.Label,
		Probabilities: pred.Probabilities,
		Features:      fv,
		Metadata:      meta,
		Timestamp:     start,
		Duration:      time.Since(start),
	}, nil
}

// readTrajectoryFile parses a whitespace- or comma-delimited numeric
// table, keeps the first 101 rows, and reorders columns per the mapping.
// Rows beyond 101 are silently ignored.
func readTrajectoryFile(path string, columns []int) (*features.TrajectorySample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedInput, err.Error())
	}

	m := mat.NewDense(features.NumCheckpoints, features.NumColumns, nil)
	row := 0
	for lineNo, line := range strings.Split(string(data), "\n") {
		if row == features.NumCheckpoints {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ' ' || r == '\t' || r == ','
		})
		vals := make([]float64, 0, len(fields))
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, errors.Wrapf(ErrMalformedInput, "line %d: bad numeric field %q", lineNo+1, f)
			}
			vals = append(vals, v)
		}

		for dst, src := range columns {
			if src < 0 || src >= len(vals) {
				return nil, errors.Wrapf(ErrMalformedInput, "line %d: column index %d out of range (%d fields)", lineNo+1, src, len(vals))
			}
			m.Set(row, dst, vals[src])
		}
		row++
	}

	if row < features.NumCheckpoints {
		return nil, errors.Wrapf(ErrInsufficientData, "%s has %d usable rows, need %d", path, row, features.NumCheckpoints)
	}

	sample, err := features.SampleFromMatrix(m)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedInput, err.Error())
	}
	return sample, nil
}
