package classify

import (
	"encoding/csv"
	"log"
	"os"
	"strconv"
	"strings"

	"cosmossdk.io/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/oxygene76/kbo-classifier/pkg/features"
)

// Training-table bookkeeping columns. Feature columns are matched by
// name (order-independent), unlike the runtime path which is strictly
// order-dependent.
const (
	IdentifierColumn = "Name"
	SecureColumn     = "Securely Classified"
	ClassColumn      = "Class"
)

// TrainingTable is the name-matched view of a training data file:
// identifiers, class labels, and the 55 feature columns for every row
// whose secure-classification flag is true.
type TrainingTable struct {
	IDs    []string
	Labels []string
	X      *mat.Dense // len(IDs) × features.NumFeatures
}

// LoadTrainingTable reads a comma-delimited training table. Rows whose
// secure flag is false are dropped; rows with unparsable fields are
// skipped with a warning, matching the tolerant training-side contract
// (the runtime file adapter stays strict).
func LoadTrainingTable(path string) (*TrainingTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedInput, err.Error())
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(ErrMalformedInput, err.Error())
	}
	if len(records) < 2 {
		return nil, errors.Wrapf(ErrInsufficientData, "%s has no data rows", path)
	}

	index := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		index[strings.TrimSpace(name)] = i
	}

	for _, required := range []string{IdentifierColumn, SecureColumn, ClassColumn} {
		if _, ok := index[required]; !ok {
			return nil, errors.Wrapf(ErrMalformedInput, "%s is missing column %q", path, required)
		}
	}
	featureNames := features.FeatureNames()
	featureCols := make([]int, len(featureNames))
	for i, name := range featureNames {
		col, ok := index[name]
		if !ok {
			return nil, errors.Wrapf(ErrMalformedInput, "%s is missing feature column %q", path, name)
		}
		featureCols[i] = col
	}

	table := &TrainingTable{}
	var rows []float64

	for lineNo, record := range records[1:] {
		secure, err := strconv.ParseBool(strings.TrimSpace(record[index[SecureColumn]]))
		if err != nil {
			log.Printf("Warning: skipping training row %d: bad secure flag %q", lineNo+2, record[index[SecureColumn]])
			continue
		}
		if !secure {
			continue
		}

		vals := make([]float64, len(featureCols))
		ok := true
		for i, col := range featureCols {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
			if err != nil {
				log.Printf("Warning: skipping training row %d: bad value %q in %s", lineNo+2, record[col], featureNames[i])
				ok = false
				break
			}
			vals[i] = v
		}
		if !ok {
			continue
		}

		table.IDs = append(table.IDs, strings.TrimSpace(record[index[IdentifierColumn]]))
		table.Labels = append(table.Labels, strings.TrimSpace(record[index[ClassColumn]]))
		rows = append(rows, vals...)
	}

	if len(table.IDs) == 0 {
		return nil, errors.Wrapf(ErrInsufficientData, "%s has no securely classified rows", path)
	}

	table.X = mat.NewDense(len(table.IDs), features.NumFeatures, rows)
	return table, nil
}
