package detector

import (
	"sort"

	"PrivacyScanner/internal/domain"
)

// MergeOptions tunes conflict resolution between overlapping candidates.
type MergeOptions struct {
	// PreferPattern resolves exact confidence and coverage ties in favor
	// of pattern-sourced spans: structural matches are considered more
	// precise than statistical ones for identifiers.
	PreferPattern bool
}

// Merge combines possibly-overlapping, possibly-duplicate spans from all
// detectors into one canonical set: ordered by start offset and strictly
// non-overlapping. Losing candidates are dropped whole, never spliced.
func Merge(spans []domain.Span, opts MergeOptions) domain.CanonicalEntitySet {
	candidates := make([]domain.Span, 0, len(spans))
	for _, sp := range spans {
		if sp.Start < 0 || sp.End <= sp.Start {
			continue
		}
		candidates = append(candidates, sp)
	}
	if len(candidates) == 0 {
		return domain.CanonicalEntitySet{}
	}

	// Full ordering keeps the sweep deterministic regardless of the order
	// detectors happened to finish in.
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.End != b.End {
			return a.End > b.End
		}
		if a.Source != b.Source {
			return a.Source == domain.SourcePattern
		}
		return a.Kind < b.Kind
	})

	merged := make(domain.CanonicalEntitySet, 0, len(candidates))
	for _, cand := range candidates {
		if len(merged) == 0 {
			merged = append(merged, cand)
			continue
		}

		last := merged[len(merged)-1]
		if cand.Start >= last.End {
			merged = append(merged, cand)
			continue
		}

		if beats(cand, last, opts) {
			merged[len(merged)-1] = cand
		}
	}

	return merged
}

// beats reports whether the challenger should displace an already accepted
// overlapping span: higher confidence wins, then larger coverage, then the
// configured source preference.
func beats(challenger, accepted domain.Span, opts MergeOptions) bool {
	if challenger.Confidence != accepted.Confidence {
		return challenger.Confidence > accepted.Confidence
	}
	if challenger.Len() != accepted.Len() {
		return challenger.Len() > accepted.Len()
	}
	if opts.PreferPattern {
		return challenger.Source == domain.SourcePattern && accepted.Source != domain.SourcePattern
	}
	return false
}
