// Package training fits and evaluates the risk model offline. It is used
// by the riskmodel command, never on the request path.
package training

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strconv"

	"PrivacyScanner/internal/config"
	"PrivacyScanner/internal/domain"
	"PrivacyScanner/internal/risk"
)

// Sample is one labeled training row in feature-schema order.
type Sample struct {
	Features []float64
	Label    int
}

var tierLabels = map[string]int{
	string(domain.TierLow):    risk.ClassLow,
	string(domain.TierMedium): risk.ClassMedium,
	string(domain.TierHigh):   risk.ClassHigh,
}

var labelTiers = []string{
	string(domain.TierLow),
	string(domain.TierMedium),
	string(domain.TierHigh),
}

// LoadCSV reads a labeled dataset. The header must contain every feature
// name in schema order followed by a "label" column holding tier names.
func LoadCSV(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("dataset %s: header plus at least one row required", path)
	}

	schema := domain.FeatureSchema()
	header := rows[0]
	if len(header) != len(schema)+1 {
		return nil, fmt.Errorf("dataset %s: expected %d columns, got %d", path, len(schema)+1, len(header))
	}
	for i, name := range schema {
		if header[i] != name {
			return nil, fmt.Errorf("dataset %s: column %d is %q, expected %q", path, i, header[i], name)
		}
	}
	if header[len(schema)] != "label" {
		return nil, fmt.Errorf("dataset %s: last column is %q, expected \"label\"", path, header[len(schema)])
	}

	samples := make([]Sample, 0, len(rows)-1)
	for rowIdx, row := range rows[1:] {
		if len(row) != len(header) {
			return nil, fmt.Errorf("dataset %s: row %d has %d columns", path, rowIdx+2, len(row))
		}

		features := make([]float64, len(schema))
		for i := range schema {
			v, err := strconv.ParseFloat(row[i], 64)
			if err != nil {
				return nil, fmt.Errorf("dataset %s: row %d column %s: %w", path, rowIdx+2, schema[i], err)
			}
			features[i] = v
		}

		label, ok := tierLabels[row[len(schema)]]
		if !ok {
			return nil, fmt.Errorf("dataset %s: row %d: unknown label %q", path, rowIdx+2, row[len(schema)])
		}
		samples = append(samples, Sample{Features: features, Label: label})
	}
	return samples, nil
}

// WriteCSV writes samples in the layout LoadCSV reads.
func WriteCSV(path string, samples []Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset %s: %w", path, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	header := append(append([]string{}, domain.FeatureSchema()...), "label")
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write dataset header: %w", err)
	}

	row := make([]string, len(header))
	for _, s := range samples {
		for i, v := range s.Features {
			row[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		row[len(row)-1] = labelTiers[s.Label]
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write dataset row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// Synthesize generates a labeled dataset from random feature vectors. Each
// vector is labeled by the rule-based fallback scorer, so a model trained
// on it bootstraps from the rules and later retrains on real labels.
// Output is deterministic for a fixed seed and count.
func Synthesize(n int, seed int64, cfg config.RiskConfig) []Sample {
	rng := rand.New(rand.NewSource(seed))
	scorer := risk.NewClassifier(cfg, nil, nil)

	samples := make([]Sample, 0, n)
	for i := 0; i < n; i++ {
		fv := randomVector(rng)
		result := scorer.Classify(fv)

		samples = append(samples, Sample{
			Features: fv.Values(),
			Label:    tierLabels[string(result.Tier)],
		})
	}
	return samples
}

// randomVector draws a plausible feature vector: entity counts are sparse,
// text length and word count are correlated, and density follows from the
// counts rather than being sampled independently. Roughly a third of the
// vectors are benign (no entities at all) so the LOW class is represented.
func randomVector(rng *rand.Rand) domain.FeatureVector {
	if rng.Float64() < 0.35 {
		fv := domain.FeatureVector{TextLength: 20 + rng.Intn(2000)}
		fv.WordCount = fv.TextLength / (4 + rng.Intn(4))
		return fv
	}

	fv := domain.FeatureVector{
		PersonCount:           sparseCount(rng, 4),
		EmailCount:            sparseCount(rng, 3),
		PhoneCount:            sparseCount(rng, 3),
		LocationCount:         sparseCount(rng, 4),
		OrganizationCount:     sparseCount(rng, 3),
		DateCount:             sparseCount(rng, 4),
		GovernmentIDCount:     sparseCount(rng, 2),
		FinancialAccountCount: sparseCount(rng, 2),
		OtherCount:            sparseCount(rng, 3),
		SensitiveKeywordCount: sparseCount(rng, 5),
	}

	fv.TextLength = 20 + rng.Intn(2000)
	fv.WordCount = fv.TextLength / (4 + rng.Intn(4))

	// Rough bytes-per-entity estimate keeps density in the realistic
	// sub-0.5 range that extracted texts produce.
	entityBytes := float64(fv.KindCountSum()) * (8 + 10*rng.Float64())
	fv.EntityDensity = entityBytes / float64(fv.TextLength)
	if fv.EntityDensity > 1 {
		fv.EntityDensity = 1
	}
	return fv
}

// sparseCount is zero about half the time so benign texts are represented.
func sparseCount(rng *rand.Rand, max int) int {
	if rng.Float64() < 0.5 {
		return 0
	}
	return 1 + rng.Intn(max)
}
