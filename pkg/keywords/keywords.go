// Package keywords implements the text analysis primitives shared by the
// knowledge store: keyword extraction with suffix-stripping stemming, a hybrid
// set-overlap similarity measure, and the query filter mini-language.
//
// Everything in this package is pure and stateless so it can be exercised
// directly in tests without a store on disk.
package keywords

import (
	"strings"
	"unicode"
)

// minTokenLength is the shortest token that survives keyword extraction.
const minTokenLength = 3

// stopWords are dropped during keyword extraction. The list is intentionally
// small: over-aggressive stop-wording hurts short titles more than it helps.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "but": true, "by": true, "for": true, "from": true, "has": true,
	"have": true, "in": true, "is": true, "it": true, "its": true, "of": true,
	"on": true, "or": true, "that": true, "the": true, "this": true, "to": true,
	"was": true, "were": true, "will": true, "with": true, "not": true,
	"can": true, "do": true, "does": true, "when": true, "which": true,
	"you": true, "your": true, "all": true, "also": true, "into": true,
	"than": true, "then": true, "they": true, "their": true, "there": true,
}

// Set is a collection of unique tokens.
type Set map[string]struct{}

// Has reports whether the set contains tok.
func (s Set) Has(tok string) bool {
	_, ok := s[tok]
	return ok
}

// Add inserts tok into the set.
func (s Set) Add(tok string) {
	s[tok] = struct{}{}
}

// Union returns a new set containing the members of both sets.
func (s Set) Union(other Set) Set {
	out := make(Set, len(s)+len(other))
	for k := range s {
		out.Add(k)
	}
	for k := range other {
		out.Add(k)
	}
	return out
}

// IntersectCount returns the number of tokens present in both sets.
func (s Set) IntersectCount(other Set) int {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	n := 0
	for k := range small {
		if large.Has(k) {
			n++
		}
	}
	return n
}

// Tokenize lower-cases text and splits it on non-alphanumeric boundaries.
// No filtering or stemming is applied.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Extract returns the stemmed keyword set for text: tokens are lower-cased,
// stop words and short tokens are dropped, and survivors are stemmed.
func Extract(text string) Set {
	out := make(Set)
	for _, tok := range Tokenize(text) {
		if len(tok) < minTokenLength || stopWords[tok] {
			continue
		}
		out.Add(Stem(tok))
	}
	return out
}

// RawTokens returns the unstemmed lower-case token set for text. Stop words
// are kept: exact-match filter terms (=term) must be able to hit them.
func RawTokens(text string) Set {
	out := make(Set)
	for _, tok := range Tokenize(text) {
		out.Add(tok)
	}
	return out
}

// derivationalSuffixes are stripped (at most one) after plural handling,
// longest first so "ization" wins over "ation".
var derivationalSuffixes = []string{
	"ization", "ational", "fulness", "ousness", "iveness",
	"ation", "ingly", "ment", "ness", "ance", "ence", "able", "ible",
	"ing", "ed", "ly",
}

// Stem reduces a lower-case token to a crude root by suffix stripping.
// It handles common plurals first, then at most one derivational suffix.
// The remainder is never shortened below three characters so that short
// roots ("use", "add") survive intact.
func Stem(tok string) string {
	switch {
	case strings.HasSuffix(tok, "ies") && len(tok) > 4:
		tok = tok[:len(tok)-3] + "y"
	case strings.HasSuffix(tok, "sses"):
		tok = tok[:len(tok)-2]
	case strings.HasSuffix(tok, "ss") || strings.HasSuffix(tok, "us"):
		// not plurals
	case strings.HasSuffix(tok, "s") && len(tok) > 3:
		tok = tok[:len(tok)-1]
	}
	for _, suf := range derivationalSuffixes {
		if strings.HasSuffix(tok, suf) && len(tok)-len(suf) >= 3 {
			tok = tok[:len(tok)-len(suf)]
			break
		}
	}
	// Final-e removal so "cache"/"caches"/"caching" converge on one root.
	if len(tok) > 4 && strings.HasSuffix(tok, "e") && !strings.HasSuffix(tok, "ee") {
		tok = tok[:len(tok)-1]
	}
	return tok
}
