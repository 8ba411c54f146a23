package ports

import (
	"context"

	"PrivacyScanner/internal/domain"
)

// Detector finds sensitive spans in raw text. Implementations must not
// fail the request: on internal error they return an empty slice and the
// pipeline proceeds with whatever the other detectors produced. They must
// tolerate empty and non-ASCII input and be safe for concurrent use.
type Detector interface {
	Name() string
	Detect(ctx context.Context, text string) []domain.Span
}

// Classifier maps a feature vector to a risk result. Implementations never
// error: when no usable trained model is loaded they score in fallback mode.
type Classifier interface {
	Classify(features domain.FeatureVector) domain.RiskResult
}

// Advisor generates privacy recommendations and an optional safe rewrite
// through an external, fallible text generator.
type Advisor interface {
	Recommend(ctx context.Context, text string, entities domain.CanonicalEntitySet, tier domain.RiskTier) ([]string, error)
	Rewrite(ctx context.Context, text string, entities domain.CanonicalEntitySet) (string, error)
}

// AnalysisRepository persists completed analyses for history and stats.
type AnalysisRepository interface {
	SaveAnalysis(ctx context.Context, analysis domain.Analysis) error
	RecentAnalyses(ctx context.Context, limit int) ([]domain.Analysis, error)
}

// ProfileSource fetches the publicly visible text of an external profile
// so it can be run through the same analysis pipeline.
type ProfileSource interface {
	FetchText(ctx context.Context, profileURL string) (string, error)
}
