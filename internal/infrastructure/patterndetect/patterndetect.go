// Package patterndetect implements the rule-based detector adapter. It
// finds structurally recognizable identifiers (emails, phone numbers,
// national IDs, card-like digit runs) with near-certain confidence when a
// strict pattern plus its validator agree.
package patterndetect

import (
	"context"
	"regexp"
	"strings"

	"PrivacyScanner/internal/domain"
	"PrivacyScanner/internal/ports"
)

type pattern struct {
	kind       domain.EntityKind
	re         *regexp.Regexp
	confidence float64
	validate   func(match string) bool
}

// Detector scans text with a fixed pattern table.
type Detector struct {
	patterns []pattern
}

var _ ports.Detector = (*Detector)(nil)

// New builds the detector with the built-in pattern table.
func New() *Detector {
	return &Detector{patterns: []pattern{
		{
			kind:       domain.KindEmail,
			re:         regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`),
			confidence: 0.99,
		},
		{
			kind:       domain.KindPhone,
			re:         regexp.MustCompile(`(?:\+?1[-. ]?)?(?:\(\d{3}\)[-. ]?|\d{3}[-. ])\d{3}[-. ]\d{4}`),
			confidence: 0.95,
		},
		{
			kind:       domain.KindGovernmentID,
			re:         regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
			confidence: 0.97,
			validate:   validSSN,
		},
		{
			kind:       domain.KindFinancialAccount,
			re:         regexp.MustCompile(`\b\d(?:[ \-]?\d){12,18}\b`),
			confidence: 0.96,
			validate:   luhnValid,
		},
		{
			kind:       domain.KindFinancialAccount,
			re:         regexp.MustCompile(`\b[A-Z]{2}\d{2}[A-Z0-9]{11,30}\b`),
			confidence: 0.95,
			validate:   ibanValid,
		},
		{
			kind:       domain.KindOther,
			re:         regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
			confidence: 0.90,
			validate:   validIPv4,
		},
	}}
}

// Name identifies the adapter inside the registry.
func (d *Detector) Name() string { return "pattern" }

// Detect returns one span per strict pattern match. It never fails; empty
// or non-matching text simply yields no spans.
func (d *Detector) Detect(_ context.Context, text string) []domain.Span {
	if text == "" {
		return nil
	}

	var spans []domain.Span
	for _, p := range d.patterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			match := text[loc[0]:loc[1]]
			if p.validate != nil && !p.validate(match) {
				continue
			}
			spans = append(spans, domain.Span{
				Kind:       p.kind,
				Text:       match,
				Start:      loc[0],
				End:        loc[1],
				Confidence: p.confidence,
				Source:     domain.SourcePattern,
			})
		}
	}
	return spans
}

// validSSN rejects the well-known invalid area/group/serial values.
func validSSN(match string) bool {
	parts := strings.SplitN(match, "-", 3)
	if len(parts) != 3 {
		return false
	}
	area, group, serial := parts[0], parts[1], parts[2]
	if area == "000" || area == "666" || area >= "900" {
		return false
	}
	return group != "00" && serial != "0000"
}

// luhnValid applies the Luhn checksum over the digits of a card-like run.
func luhnValid(match string) bool {
	var digits []int
	for _, r := range match {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// ibanValid runs the ISO 13616 mod-97 check.
func ibanValid(match string) bool {
	if len(match) < 15 || len(match) > 34 {
		return false
	}

	rearranged := match[4:] + match[:4]
	remainder := 0
	for _, r := range rearranged {
		var v int
		switch {
		case r >= '0' && r <= '9':
			v = int(r - '0')
		case r >= 'A' && r <= 'Z':
			v = int(r-'A') + 10
		default:
			return false
		}
		if v < 10 {
			remainder = (remainder*10 + v) % 97
		} else {
			remainder = (remainder*100 + v) % 97
		}
	}
	return remainder == 1
}

func validIPv4(match string) bool {
	for _, part := range strings.Split(match, ".") {
		if len(part) > 1 && part[0] == '0' {
			return false
		}
		n := 0
		for _, r := range part {
			n = n*10 + int(r-'0')
		}
		if n > 255 {
			return false
		}
	}
	return true
}
