package predictor

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
)

// Probabilities is the classifier output over the three signal classes.
type Probabilities struct {
	Neutral float64 `json:"neutral"`
	Long    float64 `json:"long"`
	Short   float64 `json:"short"`
}

// Neutral returns the uninformative prior used whenever no model is loaded
// or the feature window is too short.
func Neutral() Probabilities {
	return Probabilities{Neutral: 1.0 / 3.0, Long: 1.0 / 3.0, Short: 1.0 / 3.0}
}

// Model is a softmax linear classifier over the feature vector. Weights are
// trained offline; class order is fixed: neutral, long, short.
type Model struct {
	Features []string    `json:"features"`
	Weights  [][]float64 `json:"weights"` // [class][feature]
	Bias     []float64   `json:"bias"`    // [class]
}

const numClasses = 3

// Load reads a weight file. A missing file is not an error: the predictor
// runs in neutral mode and says so once.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("[predictor] no model at %s, running neutral", path)
			return nil, nil
		}
		return nil, fmt.Errorf("predictor: read model: %w", err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("predictor: parse model: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	log.Printf("[predictor] loaded model from %s (%d features)", path, len(m.Features))
	return &m, nil
}

func (m *Model) validate() error {
	if len(m.Weights) != numClasses || len(m.Bias) != numClasses {
		return fmt.Errorf("predictor: want %d classes, got %d weight rows and %d biases",
			numClasses, len(m.Weights), len(m.Bias))
	}
	want := len((&Features{}).vector())
	for c, row := range m.Weights {
		if len(row) != want {
			return fmt.Errorf("predictor: class %d has %d weights, want %d", c, len(row), want)
		}
	}
	return nil
}

// Score returns softmax class probabilities for the feature vector.
// A nil model scores neutral.
func (m *Model) Score(f *Features) Probabilities {
	if m == nil || f == nil {
		return Neutral()
	}

	x := f.vector()
	logits := make([]float64, numClasses)
	for c := 0; c < numClasses; c++ {
		z := m.Bias[c]
		for i, w := range m.Weights[c] {
			z += w * x[i]
		}
		logits[c] = z
	}

	// Shift by the max logit for numerical stability.
	max := logits[0]
	for _, z := range logits[1:] {
		if z > max {
			max = z
		}
	}
	var sum float64
	exps := make([]float64, numClasses)
	for c, z := range logits {
		exps[c] = math.Exp(z - max)
		sum += exps[c]
	}

	return Probabilities{
		Neutral: exps[0] / sum,
		Long:    exps[1] / sum,
		Short:   exps[2] / sum,
	}
}
