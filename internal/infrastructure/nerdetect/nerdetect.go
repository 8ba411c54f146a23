// Package nerdetect implements the statistical-style detector adapter: a
// lexicon and cue driven named-entity recognizer for people, locations,
// organizations and dates. Confidences are calibrated per rule family and
// deliberately below the pattern detector's, mirroring how model-based NER
// output relates to strict structural matches.
package nerdetect

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"PrivacyScanner/internal/domain"
	"PrivacyScanner/internal/ports"
)

const (
	confDate        = 0.88
	confPersonCued  = 0.88
	confOrg         = 0.85
	confLocLexicon  = 0.84
	confLocCued     = 0.78
	confPersonMulti = 0.75
)

var tokenRe = regexp.MustCompile(`[\p{L}][\p{L}'\-]*`)

var (
	monthFirstDateRe = regexp.MustCompile(`(?i)\b(?:january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sep|sept|oct|nov|dec)\.?\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?\b`)
	dayFirstDateRe   = regexp.MustCompile(`(?i)\b\d{1,2}\s+(?:january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sep|sept|oct|nov|dec)\.?(?:\s+\d{4})?\b`)
	numericDateRe    = regexp.MustCompile(`\b\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4}\b`)
)

// Detector is the heuristic NER adapter.
type Detector struct{}

var _ ports.Detector = (*Detector)(nil)

// New builds the detector.
func New() *Detector { return &Detector{} }

// Name identifies the adapter inside the registry.
func (d *Detector) Name() string { return "ner" }

// Detect finds people, locations, organizations and dates. It never fails
// and tolerates empty and non-ASCII input.
func (d *Detector) Detect(_ context.Context, text string) []domain.Span {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	spans := detectDates(text)
	spans = append(spans, detectNames(text)...)
	return spans
}

func detectDates(text string) []domain.Span {
	var spans []domain.Span
	for _, re := range []*regexp.Regexp{monthFirstDateRe, dayFirstDateRe, numericDateRe} {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			spans = append(spans, domain.Span{
				Kind:       domain.KindDate,
				Text:       text[loc[0]:loc[1]],
				Start:      loc[0],
				End:        loc[1],
				Confidence: confDate,
				Source:     domain.SourceNER,
			})
		}
	}
	return spans
}

type token struct {
	text       string
	start, end int
}

func tokenize(text string) []token {
	locs := tokenRe.FindAllStringIndex(text, -1)
	tokens := make([]token, 0, len(locs))
	for _, loc := range locs {
		tokens = append(tokens, token{
			text:  text[loc[0]:loc[1]],
			start: loc[0],
			end:   loc[1],
		})
	}
	return tokens
}

func isCapitalized(word string) bool {
	r, _ := utf8.DecodeRuneInString(word)
	return unicode.IsUpper(r)
}

// detectNames groups adjacent capitalized tokens into chunks and classifies
// each chunk by organization suffix, location lexicon, cue word, or shape.
func detectNames(text string) []domain.Span {
	tokens := tokenize(text)

	var spans []domain.Span
	i := 0
	for i < len(tokens) {
		if !chunkable(tokens[i]) {
			i++
			continue
		}

		j := i
		for j+1 < len(tokens) && chunkable(tokens[j+1]) && adjacent(text, tokens[j], tokens[j+1]) {
			j++
		}

		chunk := tokens[i : j+1]
		var prev string
		if i > 0 {
			prev = strings.ToLower(tokens[i-1].text)
		}

		if sp, ok := classifyChunk(text, chunk, prev); ok {
			spans = append(spans, sp)
		}
		i = j + 1
	}
	return spans
}

func chunkable(t token) bool {
	if !isCapitalized(t.text) {
		return false
	}
	lower := strings.ToLower(t.text)
	return !chunkStopwords[lower] && !monthNames[lower]
}

// adjacent requires exactly one space between tokens so chunks never cross
// punctuation or line breaks.
func adjacent(text string, a, b token) bool {
	return b.start == a.end+1 && text[a.end] == ' '
}

func classifyChunk(text string, chunk []token, prev string) (domain.Span, bool) {
	joined := make([]string, len(chunk))
	for i, t := range chunk {
		joined[i] = t.text
	}
	phrase := strings.Join(joined, " ")

	span := domain.Span{
		Text:   text[chunk[0].start:chunk[len(chunk)-1].end],
		Start:  chunk[0].start,
		End:    chunk[len(chunk)-1].end,
		Source: domain.SourceNER,
	}

	for _, t := range chunk {
		if orgSuffixes[strings.ToLower(t.text)] {
			span.Kind = domain.KindOrganization
			span.Confidence = confOrg
			return span, true
		}
	}

	if locationLexicon[strings.ToLower(phrase)] {
		span.Kind = domain.KindLocation
		span.Confidence = confLocLexicon
		return span, true
	}

	if locationCues[prev] {
		span.Kind = domain.KindLocation
		span.Confidence = confLocCued
		return span, true
	}

	if personCues[prev] {
		span.Kind = domain.KindPerson
		span.Confidence = confPersonCued
		return span, true
	}

	// A bare multi-word capitalized chunk is most likely a full name.
	// Single capitalized tokens without any cue are too noisy to keep.
	if len(chunk) >= 2 {
		span.Kind = domain.KindPerson
		span.Confidence = confPersonMulti
		return span, true
	}

	return domain.Span{}, false
}

var chunkStopwords = map[string]bool{
	"a": true, "an": true, "the": true, "i": true, "i'm": true,
	"i've": true, "i'll": true, "i'd": true, "we're": true, "it's": true,
	"he's": true, "she's": true, "my": true, "our": true,
	"your": true, "his": true, "her": true, "their": true, "this": true,
	"that": true, "it": true, "he": true, "she": true, "they": true,
	"we": true, "you": true, "hi": true, "hello": true, "hey": true,
	"dear": true, "thanks": true, "thank": true, "please": true,
	"subject": true, "email": true, "phone": true, "call": true,
	"contact": true, "re": true, "ok": true, "yes": true, "no": true,
	"today": true, "tomorrow": true, "yesterday": true,
}

var monthNames = map[string]bool{
	"january": true, "february": true, "march": true, "april": true,
	"may": true, "june": true, "july": true, "august": true,
	"september": true, "october": true, "november": true, "december": true,
	"jan": true, "feb": true, "mar": true, "apr": true, "jun": true,
	"jul": true, "aug": true, "sep": true, "sept": true, "oct": true,
	"nov": true, "dec": true,
}

var personCues = map[string]bool{
	"i'm": true, "am": true, "is": true, "was": true, "meet": true,
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true,
	"name": true, "named": true, "called": true, "by": true,
	"doctor": true, "colleague": true, "friend": true,
}

var locationCues = map[string]bool{
	"in": true, "at": true, "from": true, "near": true, "visit": true,
	"visiting": true,
}

var orgSuffixes = map[string]bool{
	"inc": true, "llc": true, "corp": true, "corporation": true,
	"ltd": true, "limited": true, "gmbh": true, "co": true,
	"company": true, "hospital": true, "clinic": true, "university": true,
	"college": true, "school": true, "institute": true, "bank": true,
	"labs": true, "technologies": true, "systems": true, "group": true,
	"airlines": true, "airport": true, "agency": true, "department": true,
}

var locationLexicon = map[string]bool{
	"new york": true, "nyc": true, "new york city": true, "brooklyn": true,
	"los angeles": true, "san francisco": true, "chicago": true,
	"boston": true, "seattle": true, "austin": true, "miami": true,
	"springfield": true, "california": true, "texas": true,
	"washington": true, "london": true, "paris": true, "berlin": true,
	"madrid": true, "rome": true, "amsterdam": true, "dublin": true,
	"tokyo": true, "singapore": true, "sydney": true, "toronto": true,
	"vancouver": true, "mumbai": true, "bengaluru": true, "bangalore": true,
	"new delhi": true, "delhi": true, "hyderabad": true, "chennai": true,
	"pune": true, "kolkata": true, "dubai": true, "usa": true,
	"america": true, "canada": true, "india": true, "germany": true,
	"france": true, "spain": true, "italy": true, "japan": true,
	"australia": true, "england": true, "ireland": true,
}
