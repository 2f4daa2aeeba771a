package classify

import (
	"math"

	"cosmossdk.io/errors"
	"github.com/dmitryikh/leaves"

	"github.com/oxygene76/kbo-classifier/pkg/features"
)

var (
	// ErrMalformedInput is returned for unparsable numeric content in an
	// input or training file.
	ErrMalformedInput = errors.Register("classify", 2, "malformed input")

	// ErrInsufficientData is returned when an input file has fewer than
	// the required number of trajectory rows.
	ErrInsufficientData = errors.Register("classify", 3, "insufficient data")

	// ErrClassifier is returned when the model backend cannot score a
	// feature vector.
	ErrClassifier = errors.Register("classify", 4, "classifier failure")
)

// Labels maps class indices to population names. It replaces the
// original notebook-level label dictionaries with explicit, passed-in
// configuration; there is no process-wide label state.
type Labels []string

// DefaultLabels is the dynamical population set the pretrained model was
// fitted on, in model output order.
var DefaultLabels = Labels{"Resonant", "Classical", "Detached", "Scattering"}

// Index returns the position of label in the set, or -1.
func (l Labels) Index(label string) int {
	for i, name := range l {
		if name == label {
			return i
		}
	}
	return -1
}

// Prediction is one classification outcome: the winning population label
// and the full probability distribution over the label set.
type Prediction struct {
	Label         string             `json:"label"`
	Probabilities map[string]float64 `json:"probabilities"`
}

// Classifier scores a 55-value feature vector. Implementations wrap the
// external gradient-boosting collaborator; tests inject stubs.
type Classifier interface {
	Predict(featureVector []float64) (Prediction, error)
}

// GBM is the production classifier: a pretrained LightGBM ensemble
// loaded through leaves, with a softmax over the raw per-class scores.
type GBM struct {
	model  *leaves.Ensemble
	labels Labels
}

// LoadGBM loads a pretrained LightGBM model file and binds it to a label
// set. The model's output width must match the label count.
func LoadGBM(modelPath string, labels Labels) (*GBM, error) {
	model, err := leaves.LGEnsembleFromFile(modelPath, false)
	if err != nil {
		return nil, errors.Wrapf(ErrClassifier, "loading model %s: %v", modelPath, err)
	}
	if model.NOutputGroups() != len(labels) {
		return nil, errors.Wrapf(ErrClassifier, "model has %d output groups, label set has %d", model.NOutputGroups(), len(labels))
	}
	return &GBM{model: model, labels: labels}, nil
}

// Predict implements Classifier.
func (g *GBM) Predict(featureVector []float64) (Prediction, error) {
	if len(featureVector) != features.NumFeatures {
		return Prediction{}, errors.Wrapf(ErrClassifier, "got %d features, model expects %d", len(featureVector), features.NumFeatures)
	}

	raw := make([]float64, g.model.NOutputGroups())
	if err := g.model.Predict(featureVector, 0, raw); err != nil {
		return Prediction{}, errors.Wrap(ErrClassifier, err.Error())
	}

	probs := softmax(raw)
	best := 0
	for i := range probs {
		if probs[i] > probs[best] {
			best = i
		}
	}

	dist := make(map[string]float64, len(g.labels))
	for i, label := range g.labels {
		dist[label] = probs[i]
	}
	return Prediction{Label: g.labels[best], Probabilities: dist}, nil
}

func softmax(raw []float64) []float64 {
	max := raw[0]
	for _, v := range raw[1:] {
		if v > max {
			max = v
		}
	}
	out := make([]float64, len(raw))
	sum := 0.0
	for i, v := range raw {
		out[i] = math.Exp(v - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
