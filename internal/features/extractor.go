// Package features derives the fixed-shape numeric vector the classifier
// consumes. Extraction is a pure function: no I/O, deterministic, and every
// schema feature is always populated (absent kinds are explicit zeros).
package features

import (
	"strings"
	"unicode/utf8"

	"PrivacyScanner/internal/domain"
)

// Extractor computes feature vectors against a configured keyword list.
type Extractor struct {
	keywords []string
}

// NewExtractor lowercases the keyword list once up front.
func NewExtractor(keywords []string) *Extractor {
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			lowered = append(lowered, kw)
		}
	}
	return &Extractor{keywords: lowered}
}

// Extract summarizes the text and its canonical entities.
func (e *Extractor) Extract(text string, entities domain.CanonicalEntitySet) domain.FeatureVector {
	fv := domain.FeatureVector{
		TextLength: utf8.RuneCountInString(text),
		WordCount:  len(strings.Fields(text)),
	}

	entityBytes := 0
	for _, sp := range entities {
		entityBytes += sp.Len()
		switch sp.Kind {
		case domain.KindPerson:
			fv.PersonCount++
		case domain.KindEmail:
			fv.EmailCount++
		case domain.KindPhone:
			fv.PhoneCount++
		case domain.KindLocation:
			fv.LocationCount++
		case domain.KindOrganization:
			fv.OrganizationCount++
		case domain.KindDate:
			fv.DateCount++
		case domain.KindGovernmentID:
			fv.GovernmentIDCount++
		case domain.KindFinancialAccount:
			fv.FinancialAccountCount++
		default:
			fv.OtherCount++
		}
	}

	if len(text) > 0 {
		fv.EntityDensity = float64(entityBytes) / float64(len(text))
	}
	if fv.EntityDensity > 1 {
		fv.EntityDensity = 1
	}
	if fv.EntityDensity < 0 {
		fv.EntityDensity = 0
	}

	fv.SensitiveKeywordCount = e.countKeywords(text)
	return fv
}

// countKeywords counts how many configured keywords occur in the text at
// least once, case-insensitively.
func (e *Extractor) countKeywords(text string) int {
	if text == "" || len(e.keywords) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	count := 0
	for _, kw := range e.keywords {
		if strings.Contains(lower, kw) {
			count++
		}
	}
	return count
}
