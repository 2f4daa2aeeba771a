package simulation

import (
	"bufio"
	"fmt"
	"log"
	"math"
	"os"

	"cosmossdk.io/errors"

	"github.com/oxygene76/kbo-classifier/pkg/astronomy/nbody"
	"github.com/oxygene76/kbo-classifier/pkg/astronomy/orbital"
	"github.com/oxygene76/kbo-classifier/pkg/features"
)

// DefaultInitialStep is the integrator step in years. Substeps shrink
// automatically near close encounters.
const DefaultInitialStep = 0.1

// DefaultSchedule returns the fixed checkpoint times {0, 1000, ...,
// 100000} years.
func DefaultSchedule() []float64 {
	schedule := make([]float64, features.NumCheckpoints)
	for i := range schedule {
		schedule[i] = float64(i) * features.CheckpointSpacing
	}
	return schedule
}

// Runner advances a bootstrapped system through the checkpoint schedule
// and samples the target body's elements at each checkpoint. The target
// is always the last-added body and is integrated as a massless test
// particle; everything before it is a gravity source.
type Runner struct {
	// InitialStep overrides DefaultInitialStep when positive.
	InitialStep float64

	// Schedule overrides DefaultSchedule when non-nil. Must hold
	// features.NumCheckpoints strictly increasing times starting at 0.
	Schedule []float64

	// TracePath, when set, receives a plain-text trace of Neptune's and
	// the target's elements at every checkpoint. Any existing file at
	// that path is truncated.
	TracePath string
}

// Run integrates the system through all checkpoints and returns the
// target's trajectory sample. The relative total-energy drift is logged
// as a diagnostic only; a poor integration still returns its sample.
func (r *Runner) Run(sys *nbody.System) (*features.TrajectorySample, error) {
	if len(sys.Bodies) < 2 {
		return nil, errors.Wrap(nbody.ErrIntegrationFailure, "system needs at least one source and one target body")
	}
	target := len(sys.Bodies) - 1
	sys.SetActive(target)
	sys.RecenterToBarycenter()

	dt := r.InitialStep
	if dt <= 0 {
		dt = DefaultInitialStep
	}
	schedule := r.Schedule
	if schedule == nil {
		schedule = DefaultSchedule()
	}

	var trace *traceWriter
	if r.TracePath != "" {
		var err error
		trace, err = newTraceWriter(r.TracePath)
		if err != nil {
			return nil, err
		}
		defer trace.Close()
	}

	neptune := bodyIndex(sys, "Neptune")
	energyStart := sys.TotalEnergy()

	states := make([]features.OrbitalState, 0, len(schedule))
	for _, t := range schedule {
		if err := sys.StepTo(t, dt); err != nil {
			return nil, errors.Wrapf(err, "advancing to checkpoint t=%g yr", t)
		}

		el := sys.ElementsOf(target)
		states = append(states, checkpointState(t, el))

		if trace != nil {
			if neptune >= 0 {
				trace.Write(-1, t, sys.ElementsOf(neptune))
			}
			trace.Write(0, t, el)
		}
	}

	if energyStart != 0 {
		energyEnd := sys.TotalEnergy()
		log.Printf("Integration energy drift: %.3e (relative)", math.Abs((energyEnd-energyStart)/energyStart))
	}

	return features.NewTrajectorySample(states)
}

// checkpointState converts osculating elements to a checkpoint record:
// time in years, angles in degrees with Ω and ω wrapped to [0,360).
// Inclination is not wrapped.
func checkpointState(t float64, el orbital.OrbitalElements) features.OrbitalState {
	return features.OrbitalState{
		Time:          t,
		SemiMajorAxis: el.SemiMajorAxis,
		Eccentricity:  el.Eccentricity,
		Inclination:   orbital.Degrees(el.Inclination),
		AscendingNode: orbital.NormalizeDegrees(orbital.Degrees(el.LongitudeAscendingNode)),
		ArgPerihelion: orbital.NormalizeDegrees(orbital.Degrees(el.ArgumentPerihelion)),
	}
}

func bodyIndex(sys *nbody.System, id string) int {
	for i := range sys.Bodies {
		if sys.Bodies[i].ID == id {
			return i
		}
	}
	return -1
}

// traceWriter emits the optional companion trace: one header line, then
// two lines per checkpoint (id −1 = Neptune, id 0 = target) with
// whitespace-separated id, t, a, e, i, Ω, ω, M fields, angles in degrees.
type traceWriter struct {
	f  *os.File
	bw *bufio.Writer
}

func newTraceWriter(path string) (*traceWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := &traceWriter{f: f, bw: bufio.NewWriter(f)}
	fmt.Fprintln(w.bw, "id, t, a, e, i, Omega, omega, M")
	return w, nil
}

func (w *traceWriter) Write(id int, t float64, el orbital.OrbitalElements) {
	fmt.Fprintf(w.bw, "%d %.6f %.10g %.10g %.10g %.10g %.10g %.10g\n",
		id, t,
		el.SemiMajorAxis,
		el.Eccentricity,
		orbital.Degrees(el.Inclination),
		orbital.NormalizeDegrees(orbital.Degrees(el.LongitudeAscendingNode)),
		orbital.NormalizeDegrees(orbital.Degrees(el.ArgumentPerihelion)),
		orbital.NormalizeDegrees(orbital.Degrees(el.MeanAnomaly)))
}

func (w *traceWriter) Close() error {
	if err := w.bw.Flush(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
