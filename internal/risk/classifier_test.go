package risk

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"PrivacyScanner/internal/config"
	"PrivacyScanner/internal/domain"
)

func newFallbackClassifier(t *testing.T) *Classifier {
	t.Helper()
	return NewClassifier(config.Default().Risk, nil, nil)
}

func TestTierFor(t *testing.T) {
	t.Parallel()

	th := Thresholds{Low: 30, High: 60}
	cases := map[float64]domain.RiskTier{
		0:    domain.TierLow,
		29.9: domain.TierLow,
		30:   domain.TierMedium,
		59.9: domain.TierMedium,
		60:   domain.TierHigh,
		100:  domain.TierHigh,
	}
	for score, want := range cases {
		if got := TierFor(score, th); got != want {
			t.Fatalf("TierFor(%v) = %s, want %s", score, got, want)
		}
	}
}

func TestFallbackZeroVector(t *testing.T) {
	t.Parallel()

	result := newFallbackClassifier(t).Classify(domain.FeatureVector{})
	if result.Score != 0 {
		t.Fatalf("expected score 0 for zero vector, got %v", result.Score)
	}
	if result.Tier != domain.TierLow {
		t.Fatalf("expected LOW, got %s", result.Tier)
	}
	if result.ModelMode != domain.ModeFallback {
		t.Fatalf("expected fallback mode, got %s", result.ModelMode)
	}
}

func TestFallbackTierConsistentWithThresholds(t *testing.T) {
	t.Parallel()

	classifier := newFallbackClassifier(t)
	th := Thresholds{Low: config.Default().Risk.LowThreshold, High: config.Default().Risk.HighThreshold}

	vectors := []domain.FeatureVector{
		{},
		{EmailCount: 1},
		{PersonCount: 1, EmailCount: 1, PhoneCount: 1, EntityDensity: 0.5},
		{GovernmentIDCount: 2, FinancialAccountCount: 2, SensitiveKeywordCount: 6, EntityDensity: 0.9},
		{TextLength: 5000, WordCount: 900},
	}
	for _, fv := range vectors {
		result := classifier.Classify(fv)
		if result.Score < 0 || result.Score > 100 {
			t.Fatalf("score out of range: %v", result.Score)
		}
		if want := TierFor(result.Score, th); result.Tier != want {
			t.Fatalf("tier %s inconsistent with thresholds for score %v (want %s)",
				result.Tier, result.Score, want)
		}
		if result.Probability != FallbackProbability {
			t.Fatalf("expected fixed fallback probability, got %v", result.Probability)
		}
	}
}

func TestFallbackMonotonicity(t *testing.T) {
	t.Parallel()

	classifier := newFallbackClassifier(t)

	base := domain.FeatureVector{
		PersonCount:           1,
		EmailCount:            1,
		LocationCount:         1,
		TextLength:            200,
		WordCount:             40,
		EntityDensity:         0.002,
		SensitiveKeywordCount: 1,
	}
	baseScore := classifier.Classify(base).Score

	bumps := []func(domain.FeatureVector) domain.FeatureVector{
		func(v domain.FeatureVector) domain.FeatureVector { v.PersonCount++; return v },
		func(v domain.FeatureVector) domain.FeatureVector { v.EmailCount++; return v },
		func(v domain.FeatureVector) domain.FeatureVector { v.PhoneCount++; return v },
		func(v domain.FeatureVector) domain.FeatureVector { v.LocationCount++; return v },
		func(v domain.FeatureVector) domain.FeatureVector { v.OrganizationCount++; return v },
		func(v domain.FeatureVector) domain.FeatureVector { v.DateCount++; return v },
		func(v domain.FeatureVector) domain.FeatureVector { v.GovernmentIDCount++; return v },
		func(v domain.FeatureVector) domain.FeatureVector { v.FinancialAccountCount++; return v },
		func(v domain.FeatureVector) domain.FeatureVector { v.OtherCount++; return v },
		func(v domain.FeatureVector) domain.FeatureVector { v.TextLength += 100; return v },
		func(v domain.FeatureVector) domain.FeatureVector { v.EntityDensity += 0.002; return v },
		func(v domain.FeatureVector) domain.FeatureVector { v.SensitiveKeywordCount++; return v },
	}
	for i, bump := range bumps {
		if got := classifier.Classify(bump(base)).Score; got < baseScore {
			t.Fatalf("bump %d decreased score: %v -> %v", i, baseScore, got)
		}
	}
}

func TestFallbackDeterministic(t *testing.T) {
	t.Parallel()

	classifier := newFallbackClassifier(t)
	fv := domain.FeatureVector{EmailCount: 1, PhoneCount: 2, EntityDensity: 0.004}

	first := classifier.Classify(fv)
	for i := 0; i < 20; i++ {
		if got := classifier.Classify(fv); !reflect.DeepEqual(got, first) {
			t.Fatalf("classification not deterministic: %+v vs %+v", got, first)
		}
	}
}

// separableSamples builds a dataset where the email count alone decides
// the class, which a shallow forest learns exactly.
func separableSamples() ([][]float64, []int) {
	schema := domain.FeatureSchema()
	var samples [][]float64
	var labels []int
	for emails := 0; emails <= 5; emails++ {
		label := ClassLow
		if emails >= 1 {
			label = ClassMedium
		}
		if emails >= 3 {
			label = ClassHigh
		}
		for rep := 0; rep < 40; rep++ {
			row := make([]float64, len(schema))
			row[1] = float64(emails) // num_emails
			row[9] = float64(100 + rep)
			samples = append(samples, row)
			labels = append(labels, label)
		}
	}
	return samples, labels
}

func trainedClassifier(t *testing.T) *Classifier {
	t.Helper()

	samples, labels := separableSamples()
	forest, err := FitForest(samples, labels, ForestConfig{
		Trees:           20,
		MaxDepth:        4,
		MinLeafSamples:  2,
		FeaturesPerTree: len(domain.FeatureSchema()),
		Seed:            7,
	})
	if err != nil {
		t.Fatalf("fit forest: %v", err)
	}

	path := filepath.Join(t.TempDir(), "model.json")
	artifact := &Artifact{
		Version:   ArtifactVersion,
		TrainedAt: time.Now().UTC(),
		Seed:      7,
		Schema:    domain.FeatureSchema(),
		Forest:    forest,
	}
	if err := SaveArtifact(path, artifact); err != nil {
		t.Fatalf("save artifact: %v", err)
	}

	loader := NewLoader(path, nil)
	if err := loader.Load(); err != nil {
		t.Fatalf("load artifact: %v", err)
	}
	return NewClassifier(config.Default().Risk, loader, nil)
}

func TestTrainedModeClassification(t *testing.T) {
	t.Parallel()

	classifier := trainedClassifier(t)

	low := classifier.Classify(domain.FeatureVector{TextLength: 150})
	if low.ModelMode != domain.ModeTrained {
		t.Fatalf("expected trained mode, got %s", low.ModelMode)
	}
	if low.Tier != domain.TierLow {
		t.Fatalf("expected LOW for no entities, got %s (score %v)", low.Tier, low.Score)
	}

	high := classifier.Classify(domain.FeatureVector{EmailCount: 5, TextLength: 150})
	if high.Tier != domain.TierHigh {
		t.Fatalf("expected HIGH for five emails, got %s (score %v)", high.Tier, high.Score)
	}
	if high.Score <= low.Score {
		t.Fatalf("expected higher score for riskier vector: %v <= %v", high.Score, low.Score)
	}
	if high.Probability <= 0 || high.Probability > 1 {
		t.Fatalf("probability out of range: %v", high.Probability)
	}
}

func TestTrainedModeDeterministic(t *testing.T) {
	t.Parallel()

	classifier := trainedClassifier(t)
	fv := domain.FeatureVector{EmailCount: 2, TextLength: 150}

	first := classifier.Classify(fv)
	for i := 0; i < 20; i++ {
		if got := classifier.Classify(fv); !reflect.DeepEqual(got, first) {
			t.Fatalf("trained classification not deterministic: %+v vs %+v", got, first)
		}
	}
}

func TestSchemaMismatchForcesFallback(t *testing.T) {
	t.Parallel()

	samples, labels := separableSamples()
	forest, err := FitForest(samples, labels, ForestConfig{Trees: 5, MaxDepth: 3, Seed: 7})
	if err != nil {
		t.Fatalf("fit forest: %v", err)
	}

	staleSchema := append([]string{"legacy_feature"}, domain.FeatureSchema()...)
	path := filepath.Join(t.TempDir(), "model.json")
	artifact := &Artifact{
		Version:   ArtifactVersion,
		TrainedAt: time.Now().UTC(),
		Schema:    staleSchema,
		Forest:    forest,
	}
	if err := SaveArtifact(path, artifact); err != nil {
		t.Fatalf("save artifact: %v", err)
	}

	loader := NewLoader(path, nil)
	if err := loader.Load(); err == nil {
		t.Fatalf("expected schema mismatch error")
	}
	if loader.Current() != nil {
		t.Fatalf("mismatched artifact must not become current")
	}

	classifier := NewClassifier(config.Default().Risk, loader, nil)
	result := classifier.Classify(domain.FeatureVector{EmailCount: 5})
	if result.ModelMode != domain.ModeFallback {
		t.Fatalf("expected fallback mode after schema mismatch, got %s", result.ModelMode)
	}
}
