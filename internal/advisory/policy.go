// Package advisory decides whether the external advice generator is worth
// calling for a given risk result and degrades to deterministic templates
// when it is unavailable or fails. The advisory step is best effort: it
// never blocks or fails the risk analysis itself.
package advisory

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"PrivacyScanner/internal/domain"
	"PrivacyScanner/internal/ports"
)

// Decision is the policy verdict for one request.
type Decision int

const (
	Skip Decision = iota
	Invoke
)

// Decide applies the invocation policy: invoke only when an advisor is
// available and either the risk tier is above LOW or the caller explicitly
// asked for advice regardless of tier.
func Decide(risk domain.RiskResult, available, requested bool) Decision {
	if !available {
		return Skip
	}
	if risk.Tier != domain.TierLow || requested {
		return Invoke
	}
	return Skip
}

// Service runs the advisory step for the pipeline.
type Service struct {
	advisor ports.Advisor
	timeout time.Duration
	logger  *slog.Logger
}

// NewService wraps an advisor. A nil advisor means the external generator
// is unavailable and the policy will skip.
func NewService(advisor ports.Advisor, timeout time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Service{advisor: advisor, timeout: timeout, logger: logger}
}

// Run produces the advisory outcome for one analysis, or nil when the
// policy skips. A skipped step is represented by the absent outcome, never
// by an empty one, so callers can tell skip from failure.
func (s *Service) Run(
	ctx context.Context,
	text string,
	entities domain.CanonicalEntitySet,
	risk domain.RiskResult,
	includeRecommendations, includeRewrite bool,
) *domain.AdvisoryOutcome {
	requested := includeRecommendations || includeRewrite
	if Decide(risk, s.advisor != nil, requested) == Skip {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	outcome := &domain.AdvisoryOutcome{Source: domain.AdvisoryGenerated}

	recs, err := s.advisor.Recommend(ctx, text, entities, risk.Tier)
	if err != nil || len(recs) == 0 {
		if err != nil {
			s.logger.Warn("advisory recommendations failed, using template", "error", err)
		}
		recs = TemplateRecommendations(entities, risk.Tier)
		outcome.Source = domain.AdvisoryTemplate
	}
	outcome.Recommendations = recs

	if includeRewrite {
		rewrite, err := s.advisor.Rewrite(ctx, text, entities)
		if err != nil || strings.TrimSpace(rewrite) == "" {
			if err != nil {
				s.logger.Warn("advisory rewrite failed, using redaction", "error", err)
			}
			rewrite = TemplateRewrite(text, entities)
			outcome.Source = domain.AdvisoryTemplate
		}
		outcome.Rewrite = rewrite
	}

	return outcome
}

// TemplateRecommendations builds the deterministic fallback advice list,
// keyed by which entity kinds were detected.
func TemplateRecommendations(entities domain.CanonicalEntitySet, tier domain.RiskTier) []string {
	kinds := make(map[domain.EntityKind]bool, len(entities))
	for _, sp := range entities {
		kinds[sp.Kind] = true
	}

	var recs []string
	if kinds[domain.KindEmail] || kinds[domain.KindPhone] {
		recs = append(recs, "Remove or hide direct contact information. Use platform messaging instead.")
	}
	if kinds[domain.KindPerson] {
		recs = append(recs, "Avoid using full real names. Use initials or usernames instead.")
	}
	if kinds[domain.KindLocation] {
		recs = append(recs, "Replace specific locations with general areas.")
	}
	if kinds[domain.KindDate] {
		recs = append(recs, "Generalize specific dates to protect timing information.")
	}
	if kinds[domain.KindGovernmentID] || kinds[domain.KindFinancialAccount] {
		recs = append(recs, "Never share government IDs or financial account numbers in text. Remove them entirely.")
	}
	if tier == domain.TierHigh {
		recs = append(recs, "HIGH RISK: consider not sharing this information publicly at all.")
	}
	if len(recs) == 0 {
		recs = append(recs, "Your text appears relatively safe. Continue being mindful of personal details.")
	}
	return recs
}

// TemplateRewrite redacts each canonical entity in place, replacing it
// with a kind-specific placeholder. Spans are applied back to front so
// earlier offsets stay valid.
func TemplateRewrite(text string, entities domain.CanonicalEntitySet) string {
	ordered := make([]domain.Span, len(entities))
	copy(ordered, entities)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Start > ordered[j].Start })

	out := text
	for _, sp := range ordered {
		if sp.Start < 0 || sp.End > len(out) || sp.End <= sp.Start {
			continue
		}
		out = out[:sp.Start] + placeholder(sp.Kind) + out[sp.End:]
	}
	return out
}

func placeholder(kind domain.EntityKind) string {
	switch kind {
	case domain.KindPerson:
		return "[name removed]"
	case domain.KindEmail:
		return "[email removed]"
	case domain.KindPhone:
		return "[phone removed]"
	case domain.KindLocation:
		return "[location removed]"
	case domain.KindOrganization:
		return "[organization removed]"
	case domain.KindDate:
		return "[date removed]"
	case domain.KindGovernmentID:
		return "[id removed]"
	case domain.KindFinancialAccount:
		return "[account removed]"
	default:
		return "[removed]"
	}
}
