package detector

import (
	"testing"

	"PrivacyScanner/internal/domain"
)

func span(kind domain.EntityKind, start, end int, conf float64, source domain.DetectorSource) domain.Span {
	return domain.Span{Kind: kind, Start: start, End: end, Confidence: conf, Source: source}
}

func TestMergeKeepsHigherConfidenceDuplicate(t *testing.T) {
	t.Parallel()

	merged := Merge([]domain.Span{
		span(domain.KindEmail, 10, 26, 0.90, domain.SourceNER),
		span(domain.KindEmail, 10, 26, 0.99, domain.SourcePattern),
	}, MergeOptions{})

	if len(merged) != 1 {
		t.Fatalf("expected exactly 1 span, got %d", len(merged))
	}
	if merged[0].Confidence != 0.99 {
		t.Fatalf("expected the 0.99 span to win, got confidence %v", merged[0].Confidence)
	}
}

func TestMergeNeverProducesOverlaps(t *testing.T) {
	t.Parallel()

	inputs := [][]domain.Span{
		{
			span(domain.KindPerson, 0, 8, 0.75, domain.SourceNER),
			span(domain.KindEmail, 5, 20, 0.99, domain.SourcePattern),
			span(domain.KindPhone, 18, 30, 0.95, domain.SourcePattern),
			span(domain.KindLocation, 30, 36, 0.84, domain.SourceNER),
		},
		{
			span(domain.KindDate, 0, 10, 0.88, domain.SourceNER),
			span(domain.KindDate, 3, 7, 0.88, domain.SourceNER),
			span(domain.KindDate, 7, 12, 0.88, domain.SourceNER),
		},
		{
			span(domain.KindOther, 4, 9, 0.90, domain.SourcePattern),
			span(domain.KindOther, 4, 9, 0.90, domain.SourcePattern),
		},
	}

	for _, spans := range inputs {
		merged := Merge(spans, MergeOptions{PreferPattern: true})
		for i := 1; i < len(merged); i++ {
			if merged[i].Start < merged[i-1].End {
				t.Fatalf("overlap in merged output: %+v follows %+v", merged[i], merged[i-1])
			}
		}
	}
}

func TestMergeOrderedByStart(t *testing.T) {
	t.Parallel()

	merged := Merge([]domain.Span{
		span(domain.KindPhone, 40, 52, 0.95, domain.SourcePattern),
		span(domain.KindPerson, 0, 8, 0.75, domain.SourceNER),
		span(domain.KindEmail, 15, 30, 0.99, domain.SourcePattern),
	}, MergeOptions{})

	if len(merged) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(merged))
	}
	for i := 1; i < len(merged); i++ {
		if merged[i].Start < merged[i-1].Start {
			t.Fatalf("output not ordered by start: %+v before %+v", merged[i-1], merged[i])
		}
	}
}

func TestMergeConfidenceTieFallsToCoverage(t *testing.T) {
	t.Parallel()

	merged := Merge([]domain.Span{
		span(domain.KindPerson, 0, 5, 0.80, domain.SourceNER),
		span(domain.KindPerson, 0, 12, 0.80, domain.SourceNER),
	}, MergeOptions{})

	if len(merged) != 1 {
		t.Fatalf("expected 1 span, got %d", len(merged))
	}
	if merged[0].End != 12 {
		t.Fatalf("expected the wider span to win, got end %d", merged[0].End)
	}
}

func TestMergePatternPreferenceBreaksExactTies(t *testing.T) {
	t.Parallel()

	spans := []domain.Span{
		span(domain.KindPhone, 0, 12, 0.95, domain.SourceNER),
		span(domain.KindPhone, 0, 12, 0.95, domain.SourcePattern),
	}

	preferred := Merge(spans, MergeOptions{PreferPattern: true})
	if len(preferred) != 1 || preferred[0].Source != domain.SourcePattern {
		t.Fatalf("expected pattern span to win the tie, got %+v", preferred)
	}
}

func TestMergeDropsInvalidSpans(t *testing.T) {
	t.Parallel()

	merged := Merge([]domain.Span{
		span(domain.KindEmail, -1, 5, 0.99, domain.SourcePattern),
		span(domain.KindEmail, 7, 7, 0.99, domain.SourcePattern),
		span(domain.KindEmail, 9, 4, 0.99, domain.SourcePattern),
	}, MergeOptions{})

	if len(merged) != 0 {
		t.Fatalf("expected invalid spans to be dropped, got %d", len(merged))
	}
}

func TestMergeEmptyInput(t *testing.T) {
	t.Parallel()

	merged := Merge(nil, MergeOptions{})
	if len(merged) != 0 {
		t.Fatalf("expected empty set, got %d spans", len(merged))
	}
}
