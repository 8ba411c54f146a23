package training

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"PrivacyScanner/internal/config"
	"PrivacyScanner/internal/domain"
	"PrivacyScanner/internal/risk"
)

func TestSynthesizeDeterministic(t *testing.T) {
	t.Parallel()

	cfg := config.Default().Risk
	first := Synthesize(200, 42, cfg)
	second := Synthesize(200, 42, cfg)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("synthesis not reproducible for fixed seed")
	}

	different := Synthesize(200, 43, cfg)
	if reflect.DeepEqual(first, different) {
		t.Fatalf("different seeds produced identical datasets")
	}
}

func TestSynthesizeCoversAllTiers(t *testing.T) {
	t.Parallel()

	samples := Synthesize(500, 42, config.Default().Risk)
	seen := map[int]bool{}
	for _, s := range samples {
		seen[s.Label] = true
		if len(s.Features) != len(domain.FeatureSchema()) {
			t.Fatalf("sample has %d features, schema has %d", len(s.Features), len(domain.FeatureSchema()))
		}
	}
	for class := 0; class < 3; class++ {
		if !seen[class] {
			t.Fatalf("class %d missing from synthesized data", class)
		}
	}
}

func TestCSVRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.csv")
	samples := Synthesize(50, 42, config.Default().Risk)

	if err := WriteCSV(path, samples); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	loaded, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("load csv: %v", err)
	}
	if !reflect.DeepEqual(samples, loaded) {
		t.Fatalf("csv round trip changed the dataset")
	}
}

func TestLoadCSVRejectsWrongHeader(t *testing.T) {
	t.Parallel()

	header := append([]string{}, domain.FeatureSchema()...)
	header[0] = "wrong_column"
	row := make([]string, len(header)+1)
	for i := range row {
		row[i] = "0"
	}
	row[len(row)-1] = "LOW"

	content := strings.Join(append(header, "label"), ",") + "\n" + strings.Join(row, ",") + "\n"
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	if _, err := LoadCSV(path); err == nil {
		t.Fatalf("expected header validation error")
	}
}

func TestLoadCSVRejectsUnknownLabel(t *testing.T) {
	t.Parallel()

	header := append(append([]string{}, domain.FeatureSchema()...), "label")
	row := make([]string, len(header))
	for i := range row {
		row[i] = "0"
	}
	row[len(row)-1] = "SEVERE"

	content := strings.Join(header, ",") + "\n" + strings.Join(row, ",") + "\n"
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	if _, err := LoadCSV(path); err == nil {
		t.Fatalf("expected label validation error")
	}
}

func TestSplitDeterministicAndDisjoint(t *testing.T) {
	t.Parallel()

	samples := Synthesize(100, 42, config.Default().Risk)

	train1, test1 := Split(samples, 0.2, 7)
	train2, test2 := Split(samples, 0.2, 7)
	if !reflect.DeepEqual(train1, train2) || !reflect.DeepEqual(test1, test2) {
		t.Fatalf("split not reproducible for fixed seed")
	}
	if len(test1) != 20 || len(train1) != 80 {
		t.Fatalf("unexpected split sizes: %d/%d", len(train1), len(test1))
	}
}

func TestTrainReproducible(t *testing.T) {
	t.Parallel()

	samples := Synthesize(300, 42, config.Default().Risk)
	cfg := risk.ForestConfig{Trees: 10, MaxDepth: 6, Seed: 42}

	first, err := Train(samples, cfg)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	second, err := Train(samples, cfg)
	if err != nil {
		t.Fatalf("train: %v", err)
	}

	if !reflect.DeepEqual(first.Forest, second.Forest) {
		t.Fatalf("training not reproducible for fixed seed and input")
	}
	if !reflect.DeepEqual(first.Schema, domain.FeatureSchema()) {
		t.Fatalf("artifact must embed the feature schema")
	}
	if first.Version != risk.ArtifactVersion {
		t.Fatalf("unexpected artifact version %d", first.Version)
	}
}

func TestEvaluateMetrics(t *testing.T) {
	t.Parallel()

	samples := Synthesize(600, 42, config.Default().Risk)
	trainSet, testSet := Split(samples, 0.2, 42)

	artifact, err := Train(trainSet, risk.ForestConfig{Trees: 30, MaxDepth: 10, Seed: 42})
	if err != nil {
		t.Fatalf("train: %v", err)
	}

	m := Evaluate(artifact.Forest, testSet)
	if m.Samples != len(testSet) {
		t.Fatalf("metrics cover %d samples, expected %d", m.Samples, len(testSet))
	}

	total := 0
	for actual := 0; actual < 3; actual++ {
		for predicted := 0; predicted < 3; predicted++ {
			total += m.Confusion[actual][predicted]
		}
	}
	if total != len(testSet) {
		t.Fatalf("confusion matrix sums to %d, expected %d", total, len(testSet))
	}
	if m.Accuracy < 0 || m.Accuracy > 1 {
		t.Fatalf("accuracy out of range: %v", m.Accuracy)
	}

	// The labels come from a deterministic weighted sum of the features,
	// so a forest this size must do much better than chance.
	if m.Accuracy < 0.5 {
		t.Fatalf("accuracy suspiciously low: %v", m.Accuracy)
	}
}

func TestEvaluateEmpty(t *testing.T) {
	t.Parallel()

	m := Evaluate(&risk.Forest{}, nil)
	if m.Samples != 0 || m.Accuracy != 0 {
		t.Fatalf("unexpected metrics for empty set: %+v", m)
	}
}
