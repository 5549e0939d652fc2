package keywords

import "strings"

// Doc is the pre-analyzed view of one entry's text that filter expressions
// and relevance scoring run against.
type Doc struct {
	titleStems   Set
	contentStems Set
	titleRaw     Set
	contentRaw   Set
	tags         map[string]bool
}

// NewDoc analyzes a (title, content, tags) triple once so that repeated
// filter evaluation does not re-tokenize.
func NewDoc(title, content string, tags []string) Doc {
	d := Doc{
		titleStems:   Extract(title),
		contentStems: Extract(content),
		titleRaw:     RawTokens(title),
		contentRaw:   RawTokens(content),
		tags:         make(map[string]bool, len(tags)),
	}
	for _, t := range tags {
		d.tags[strings.ToLower(t)] = true
	}
	return d
}

// Keywords returns the union of the doc's stemmed title and content keywords.
func (d Doc) Keywords() Set {
	return d.titleStems.Union(d.contentStems)
}

type atomKind int

const (
	atomStemmed atomKind = iota // bare term, matched against stemmed keywords
	atomExact                   // =term, matched against raw tokens
	atomTag                     // #tag, matched against tags
)

type atom struct {
	kind  atomKind
	value string
}

// term is one space-separated unit of a filter expression: a set of |-joined
// alternatives, possibly negated.
type term struct {
	negated bool
	alts    []atom
}

// Filter is a parsed filter expression. The grammar: space-separated terms
// are AND'd; A|B within a term is OR; a leading - negates the whole term;
// #tag matches a tag exactly; =term requires an exact unstemmed token; any
// other term is matched via the stemmed keyword set.
type Filter struct {
	terms []term
}

// ParseFilter parses a filter expression. An empty or blank expression
// yields an empty filter that matches everything.
func ParseFilter(expr string) Filter {
	var f Filter
	for _, field := range strings.Fields(expr) {
		t := term{}
		if strings.HasPrefix(field, "-") {
			t.negated = true
			field = field[1:]
		}
		for _, alt := range strings.Split(field, "|") {
			if alt == "" {
				continue
			}
			t.alts = append(t.alts, parseAtom(alt))
		}
		if len(t.alts) > 0 {
			f.terms = append(f.terms, t)
		}
	}
	return f
}

func parseAtom(s string) atom {
	switch {
	case strings.HasPrefix(s, "#"):
		return atom{kind: atomTag, value: strings.ToLower(s[1:])}
	case strings.HasPrefix(s, "="):
		return atom{kind: atomExact, value: strings.ToLower(s[1:])}
	default:
		return atom{kind: atomStemmed, value: Stem(strings.ToLower(s))}
	}
}

// Empty reports whether the filter has no terms.
func (f Filter) Empty() bool {
	return len(f.terms) == 0
}

// Matches reports whether the doc satisfies every term of the filter.
func (f Filter) Matches(d Doc) bool {
	for _, t := range f.terms {
		hit := false
		for _, a := range t.alts {
			if d.matchAtom(a) != matchNone {
				hit = true
				break
			}
		}
		if hit == t.negated {
			return false
		}
	}
	return true
}

type matchSite int

const (
	matchNone matchSite = iota
	matchContent
	matchTitle
)

func (d Doc) matchAtom(a atom) matchSite {
	switch a.kind {
	case atomTag:
		if d.tags[a.value] {
			return matchTitle // tags are as strong a signal as a title hit
		}
	case atomExact:
		if d.titleRaw.Has(a.value) {
			return matchTitle
		}
		if d.contentRaw.Has(a.value) {
			return matchContent
		}
	default:
		if d.titleStems.Has(a.value) {
			return matchTitle
		}
		if d.contentStems.Has(a.value) {
			return matchContent
		}
	}
	return matchNone
}

// Relevance weights per match site. Title hits matter more than body hits.
const (
	titleMatchWeight   = 2.0
	contentMatchWeight = 1.0
)

// Relevance scores the doc against the filter's positive terms, scaled by
// the entry's confidence. A doc matching every positive term in its title
// scores confidence; body-only matches score proportionally less. Negated
// terms contribute nothing (Matches has already enforced them).
func (f Filter) Relevance(d Doc, confidence float64) float64 {
	positive := 0
	score := 0.0
	for _, t := range f.terms {
		if t.negated {
			continue
		}
		positive++
		best := matchNone
		for _, a := range t.alts {
			if site := d.matchAtom(a); site > best {
				best = site
			}
		}
		switch best {
		case matchTitle:
			score += titleMatchWeight
		case matchContent:
			score += contentMatchWeight
		}
	}
	if positive == 0 {
		return 0
	}
	return score / (titleMatchWeight * float64(positive)) * confidence
}
