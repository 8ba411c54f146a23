package training

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"PrivacyScanner/internal/domain"
	"PrivacyScanner/internal/risk"
)

// Split shuffles samples deterministically and carves off a holdout
// fraction for evaluation. holdout is clamped to [0, 0.9].
func Split(samples []Sample, holdout float64, seed int64) (train, test []Sample) {
	if holdout < 0 {
		holdout = 0
	}
	if holdout > 0.9 {
		holdout = 0.9
	}

	shuffled := make([]Sample, len(samples))
	copy(shuffled, samples)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	testSize := int(float64(len(shuffled)) * holdout)
	return shuffled[testSize:], shuffled[:testSize]
}

// Train fits a forest on the samples and wraps it in a versioned artifact
// embedding the current feature schema.
func Train(samples []Sample, cfg risk.ForestConfig) (*risk.Artifact, error) {
	features := make([][]float64, len(samples))
	labels := make([]int, len(samples))
	for i, s := range samples {
		features[i] = s.Features
		labels[i] = s.Label
	}

	forest, err := risk.FitForest(features, labels, cfg)
	if err != nil {
		return nil, fmt.Errorf("train risk model: %w", err)
	}

	return &risk.Artifact{
		Version:   risk.ArtifactVersion,
		TrainedAt: time.Now().UTC(),
		Seed:      cfg.Seed,
		Schema:    domain.FeatureSchema(),
		Forest:    forest,
	}, nil
}

// ClassMetrics holds per-tier precision, recall and F1.
type ClassMetrics struct {
	Precision float64
	Recall    float64
	F1        float64
}

// Metrics summarizes holdout performance.
type Metrics struct {
	Samples   int
	Accuracy  float64
	Confusion [3][3]int // [actual][predicted]
	PerClass  [3]ClassMetrics
}

// Evaluate scores the forest against labeled samples by arg-max class.
func Evaluate(forest *risk.Forest, samples []Sample) Metrics {
	var m Metrics
	m.Samples = len(samples)
	if len(samples) == 0 {
		return m
	}

	correct := 0
	for _, s := range samples {
		probs := forest.Predict(s.Features)
		predicted := argmax(probs)
		m.Confusion[s.Label][predicted]++
		if predicted == s.Label {
			correct++
		}
	}
	m.Accuracy = float64(correct) / float64(len(samples))

	for class := 0; class < 3; class++ {
		tp := float64(m.Confusion[class][class])
		var predictedAs, actual float64
		for other := 0; other < 3; other++ {
			predictedAs += float64(m.Confusion[other][class])
			actual += float64(m.Confusion[class][other])
		}

		var cm ClassMetrics
		if predictedAs > 0 {
			cm.Precision = tp / predictedAs
		}
		if actual > 0 {
			cm.Recall = tp / actual
		}
		if cm.Precision+cm.Recall > 0 {
			cm.F1 = 2 * cm.Precision * cm.Recall / (cm.Precision + cm.Recall)
		}
		m.PerClass[class] = cm
	}
	return m
}

func argmax(probs []float64) int {
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return best
}

// String renders the metrics as a small report for the riskmodel command.
func (m Metrics) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "samples: %d\n", m.Samples)
	fmt.Fprintf(&b, "accuracy: %.4f\n", m.Accuracy)
	fmt.Fprintf(&b, "%-8s %9s %9s %9s\n", "class", "precision", "recall", "f1")
	for class, cm := range m.PerClass {
		fmt.Fprintf(&b, "%-8s %9.4f %9.4f %9.4f\n", labelTiers[class], cm.Precision, cm.Recall, cm.F1)
	}
	b.WriteString("confusion (rows actual, columns predicted):\n")
	fmt.Fprintf(&b, "%-8s %7s %7s %7s\n", "", labelTiers[0], labelTiers[1], labelTiers[2])
	for actual := 0; actual < 3; actual++ {
		fmt.Fprintf(&b, "%-8s %7d %7d %7d\n",
			labelTiers[actual],
			m.Confusion[actual][0], m.Confusion[actual][1], m.Confusion[actual][2])
	}
	return b.String()
}
