package features

import (
	"cosmossdk.io/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Extract converts a trajectory sample into the fixed 55-value feature
// vector consumed by the classifier. For each element of {a, e, i, Ω, ω}
// it emits {initial, final, min, mean, max, stdev, range, rate_min,
// rate_mean, rate_max, rate_range}, where a rate is the first difference
// of the element divided by the first difference of time.
//
// Pure and deterministic: the same sample always yields bit-identical
// output. The population standard deviation (N divisor) is used.
func Extract(sample *TrajectorySample) ([]float64, error) {
	times := sample.Column(0)

	// First differences of time, shared by all element rates.
	dt := make([]float64, NumCheckpoints-1)
	for k := 0; k < NumCheckpoints-1; k++ {
		dt[k] = times[k+1] - times[k]
		if dt[k] == 0 {
			return nil, errors.Wrapf(ErrDegenerateTimestep, "checkpoints %d and %d share time %g", k, k+1, times[k])
		}
	}

	out := make([]float64, 0, NumFeatures)
	rates := make([]float64, NumCheckpoints-1)

	for c := 1; c < NumColumns; c++ {
		col := sample.Column(c)

		min := floats.Min(col)
		max := floats.Max(col)
		mean := stat.Mean(col, nil)
		// Population standard deviation (N divisor), not the sample one.
		stdev := stat.PopStdDev(col, nil)

		for k := 0; k < NumCheckpoints-1; k++ {
			rates[k] = (col[k+1] - col[k]) / dt[k]
		}
		rateMin := floats.Min(rates)
		rateMax := floats.Max(rates)
		rateMean := stat.Mean(rates, nil)

		out = append(out,
			col[0], col[NumCheckpoints-1],
			min, mean, max, stdev, max-min,
			rateMin, rateMean, rateMax, rateMax-rateMin,
		)
	}

	return out, nil
}
