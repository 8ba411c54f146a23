// Package risk scores feature vectors into a 0-100 privacy-risk score and
// a tier. Scoring runs in one of two modes: a trained random-forest model
// loaded from a versioned artifact, or a deterministic rule-based fallback
// when no usable model exists. Both modes share one threshold function so
// scores stay comparable across deployments.
package risk

import (
	"log/slog"

	"PrivacyScanner/internal/config"
	"PrivacyScanner/internal/domain"
	"PrivacyScanner/internal/ports"
)

// Tier score weights for the trained mode: the score is the
// probability-weighted mass over the class anchors.
const (
	anchorLow    = 25.0
	anchorMedium = 60.0
	anchorHigh   = 100.0
)

// FallbackProbability is reported whenever no calibrated class
// probability exists: fallback-mode scoring and the empty-input
// short-circuit both use it.
const FallbackProbability = 0.5

// Thresholds define the tier boundaries on the 0-100 score scale.
type Thresholds struct {
	Low  float64
	High float64
}

// TierFor maps a score to a tier: LOW below Low, MEDIUM below High, HIGH
// otherwise. Both scoring modes use this single function.
func TierFor(score float64, t Thresholds) domain.RiskTier {
	switch {
	case score < t.Low:
		return domain.TierLow
	case score < t.High:
		return domain.TierMedium
	default:
		return domain.TierHigh
	}
}

// Classifier scores feature vectors. It consults the loader on every call,
// so a hot-reloaded model takes effect without restarting.
type Classifier struct {
	loader     *Loader
	thresholds Thresholds
	weights    map[string]float64
	caps       map[string]float64
	logger     *slog.Logger
}

var _ ports.Classifier = (*Classifier)(nil)

// NewClassifier builds a classifier from the risk configuration. The
// loader may be nil, in which case every call uses the fallback scorer.
func NewClassifier(cfg config.RiskConfig, loader *Loader, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		loader:     loader,
		thresholds: Thresholds{Low: cfg.LowThreshold, High: cfg.HighThreshold},
		weights:    cfg.FallbackWeights,
		caps:       cfg.NormalizationCaps,
		logger:     logger,
	}
}

// Classify scores one feature vector. Identical vectors always produce
// identical results within a given model state.
func (c *Classifier) Classify(fv domain.FeatureVector) domain.RiskResult {
	if c.loader != nil {
		if artifact := c.loader.Current(); artifact != nil {
			return c.classifyTrained(artifact, fv)
		}
	}
	return c.classifyFallback(fv)
}

func (c *Classifier) classifyTrained(artifact *Artifact, fv domain.FeatureVector) domain.RiskResult {
	probs := artifact.Forest.Predict(fv.Values())

	score := anchorLow*probs[ClassLow] + anchorMedium*probs[ClassMedium] + anchorHigh*probs[ClassHigh]
	score = clampScore(score)

	// Tier follows the predicted class so a confident MEDIUM vote at the
	// band edge is never promoted by rounding.
	best := ClassLow
	for class, p := range probs {
		if p > probs[best] {
			best = class
		}
	}

	return domain.RiskResult{
		Score:       score,
		Tier:        tierForClass(best),
		Probability: probs[best],
		ModelMode:   domain.ModeTrained,
	}
}

func tierForClass(class int) domain.RiskTier {
	switch class {
	case ClassHigh:
		return domain.TierHigh
	case ClassMedium:
		return domain.TierMedium
	default:
		return domain.TierLow
	}
}

// classifyFallback computes a weighted sum of cap-normalized features.
// Each feature contributes weight * min(value/cap, 1); the sum is scaled
// to 0-100. Features missing a weight or with a non-positive cap
// contribute nothing.
func (c *Classifier) classifyFallback(fv domain.FeatureVector) domain.RiskResult {
	names := domain.FeatureSchema()
	values := fv.Values()

	score := 0.0
	for i, name := range names {
		weight := c.weights[name]
		limit := c.caps[name]
		if weight == 0 || limit <= 0 {
			continue
		}
		norm := values[i] / limit
		if norm > 1 {
			norm = 1
		}
		if norm < 0 {
			norm = 0
		}
		score += weight * norm
	}
	score = clampScore(score * 100)

	return domain.RiskResult{
		Score:       score,
		Tier:        TierFor(score, c.thresholds),
		Probability: FallbackProbability,
		ModelMode:   domain.ModeFallback,
	}
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
