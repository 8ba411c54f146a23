package domain

import "time"

// EntityKind categorizes a detected sensitive span. The set is open-ended:
// detectors map anything they cannot place into KindOther so the feature
// schema stays stable when detectors change.
type EntityKind string

const (
	KindPerson           EntityKind = "person-name"
	KindEmail            EntityKind = "email"
	KindPhone            EntityKind = "phone"
	KindLocation         EntityKind = "location"
	KindOrganization     EntityKind = "organization"
	KindDate             EntityKind = "date"
	KindGovernmentID     EntityKind = "government-id"
	KindFinancialAccount EntityKind = "financial-account"
	KindOther            EntityKind = "other"
)

// DetectorSource identifies which detector family produced a span.
type DetectorSource string

const (
	SourceNER     DetectorSource = "ner"
	SourcePattern DetectorSource = "pattern"
)

// Span is a typed, confidence-scored character range inside the input text.
// Offsets are half-open byte offsets: 0 <= Start < End <= len(text).
type Span struct {
	Kind       EntityKind     `json:"kind"`
	Text       string         `json:"text"`
	Start      int            `json:"start"`
	End        int            `json:"end"`
	Confidence float64        `json:"confidence"`
	Source     DetectorSource `json:"source"`
}

// Len returns the number of bytes the span covers.
func (s Span) Len() int { return s.End - s.Start }

// Overlaps reports whether two spans share at least one byte.
func (s Span) Overlaps(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

// CanonicalEntitySet is the merged detector output: ordered by Start and
// guaranteed non-overlapping. Produced only by the merger.
type CanonicalEntitySet []Span

// RiskTier is the coarse classification derived from the risk score.
type RiskTier string

const (
	TierLow    RiskTier = "LOW"
	TierMedium RiskTier = "MEDIUM"
	TierHigh   RiskTier = "HIGH"
)

// ModelMode distinguishes trained-model scoring from the rule fallback.
type ModelMode string

const (
	ModeTrained  ModelMode = "trained"
	ModeFallback ModelMode = "fallback"
)

// RiskResult is the classifier output. Score is comparable across modes;
// Tier is derived deterministically from the same classification that
// produced the score.
type RiskResult struct {
	Score       float64   `json:"score"`
	Tier        RiskTier  `json:"tier"`
	Probability float64   `json:"probability"`
	ModelMode   ModelMode `json:"model_mode"`
}

// AdvisorySource records how the advisory content was produced.
type AdvisorySource string

const (
	AdvisoryGenerated AdvisorySource = "generated"
	AdvisoryTemplate  AdvisorySource = "fallback-template"
)

// AdvisoryOutcome carries best-effort recommendations and an optional safe
// rewrite. It exists on an Analysis only when the policy chose to produce
// it; a skipped advisory step leaves the field nil entirely.
type AdvisoryOutcome struct {
	Recommendations []string       `json:"recommendations"`
	Rewrite         string         `json:"rewrite,omitempty"`
	Source          AdvisorySource `json:"source"`
}

// Analysis is the complete per-request record handed to the transport
// layer and, optionally, to the history repository.
type Analysis struct {
	ID             string             `json:"analysis_id"`
	InputText      string             `json:"input_text"`
	Entities       CanonicalEntitySet `json:"entities"`
	Features       FeatureVector      `json:"features"`
	Risk           RiskResult         `json:"risk"`
	Advisory       *AdvisoryOutcome   `json:"advisory,omitempty"`
	ProcessingTime time.Duration      `json:"processing_time"`
	CreatedAt      time.Time          `json:"timestamp"`
}
