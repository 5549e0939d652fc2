package knowledge

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/entrhq/lore/pkg/keywords"
)

const (
	// dedupThreshold is the similarity above which a same-topic entry is a
	// duplicate candidate at store time.
	dedupThreshold = 0.35

	// preferenceThreshold is the lower bar used when surfacing related
	// preferences: cheap to over-surface, expensive to miss.
	preferenceThreshold = 0.20
	preferenceCap       = 3
)

// DedupCandidate is an existing entry suspiciously similar to a new one.
type DedupCandidate struct {
	Entry      *Entry
	Similarity float64
}

// similarCandidates scores e against pool, keeping entries above threshold,
// sorted by similarity descending and capped at max. Entries whose id is in
// exclude are skipped.
func similarCandidates(e *Entry, pool []*Entry, exclude map[string]bool, threshold float64, max int) []DedupCandidate {
	var out []DedupCandidate
	for _, other := range pool {
		if exclude[other.ID] {
			continue
		}
		sim := keywords.Similarity(e.Title, e.Content, other.Title, other.Content)
		if sim > threshold {
			out = append(out, DedupCandidate{Entry: other, Similarity: sim})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > max {
		out = out[:max]
	}
	return out
}

// Conflict detection thresholds. The base threshold is tiered: same-topic
// overlap is often legitimate variation, while cross-topic overlap this high
// is itself suspicious. These constants were calibrated against the
// max(Jaccard, containment) similarity formula; revisit them together.
const (
	conflictMinContentLength    = 40
	conflictSameTopicThreshold  = 0.60
	conflictCrossTopicThreshold = 0.42
	conflictTitleGate           = 0.30
	conflictLoweredThreshold    = 0.38
	conflictUserTrustBoost      = 1.3
	conflictOppositionBoost     = 1.25
)

// ConflictPair is two entries whose adjusted similarity suggests they
// contradict or duplicate each other. Similarity is the raw (unboosted)
// content similarity, reported for transparency.
type ConflictPair struct {
	A, B       *Entry
	Similarity float64
	Adjusted   float64
	Guidance   string
}

var negationWords = regexp.MustCompile(`(?i)\b(not|never|avoid|don'?t|shouldn'?t|must not|no longer|instead|deprecated|forbidden|disallowed)\b`)

// antonymPairs flag opposed prescriptions even when neither side uses
// negation words. Each side lists the surface and stemmed forms to match.
var antonymPairs = [][2][]string{
	{{"use", "uses", "using"}, {"avoid", "avoids", "avoiding"}},
	{{"always", "alway"}, {"never"}},
	{{"mutable", "mut"}, {"immutable", "immut"}},
	{{"enable", "enabl", "enabled"}, {"disable", "disabl", "disabled"}},
	{{"allow", "allowed"}, {"forbid", "forbidden"}},
	{{"sync", "synchronous"}, {"async", "asynchronous"}},
	{{"prefer", "preferred"}, {"avoid", "avoided"}},
}

// DetectConflicts runs pairwise conflict analysis over a caller-supplied
// result set. It is never run as a background sweep: callers hand it the
// entries a query or context search already surfaced. Pairs where either
// side's content is below the noise floor are skipped. The top maxPairs
// pairs by adjusted score are returned.
func DetectConflicts(entries []*Entry, maxPairs int) []ConflictPair {
	var pairs []ConflictPair
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			if p, ok := analyzePair(entries[i], entries[j]); ok {
				pairs = append(pairs, p)
			}
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Adjusted > pairs[j].Adjusted })
	if len(pairs) > maxPairs {
		pairs = pairs[:maxPairs]
	}
	return pairs
}

func analyzePair(a, b *Entry) (ConflictPair, bool) {
	if len(a.Content) < conflictMinContentLength || len(b.Content) < conflictMinContentLength {
		return ConflictPair{}, false
	}

	contentSim := keywords.Similarity(a.Title, a.Content, b.Title, b.Content)
	titleSim := keywords.Similarity(a.Title, "", b.Title, "")

	threshold := conflictCrossTopicThreshold
	if a.Topic == b.Topic {
		threshold = conflictSameTopicThreshold
	}
	// Near-identical titles mean the same subject: worth flagging even with
	// modest content overlap.
	if titleSim > conflictTitleGate && threshold > conflictLoweredThreshold {
		threshold = conflictLoweredThreshold
	}

	adjusted := contentSim
	if a.Trust == TrustUser && b.Trust == TrustUser {
		// Two human corrections disagreeing is the highest-signal case.
		adjusted *= conflictUserTrustBoost
	}
	if bothOpposed(a, b) {
		adjusted *= conflictOppositionBoost
	}

	if adjusted <= threshold {
		return ConflictPair{}, false
	}
	return ConflictPair{
		A:          a,
		B:          b,
		Similarity: contentSim,
		Adjusted:   adjusted,
		Guidance:   conflictGuidance(a, b),
	}, true
}

// bothOpposed reports negation/opposition language on both sides, or an
// explicit antonym-pair split across the two entries.
func bothOpposed(a, b *Entry) bool {
	if negationWords.MatchString(a.Title+" "+a.Content) && negationWords.MatchString(b.Title+" "+b.Content) {
		return true
	}
	aToks := opposableTokens(a)
	bToks := opposableTokens(b)
	for _, pair := range antonymPairs {
		left, right := pair[0], pair[1]
		if (hasAny(aToks, left) && hasAny(bToks, right)) || (hasAny(aToks, right) && hasAny(bToks, left)) {
			return true
		}
	}
	return false
}

// opposableTokens is the union of an entry's raw and stemmed tokens, so
// antonym variants match regardless of inflection.
func opposableTokens(e *Entry) keywords.Set {
	raw := keywords.RawTokens(e.Title + " " + e.Content)
	return raw.Union(keywords.Extract(e.Title + " " + e.Content))
}

func hasAny(set keywords.Set, words []string) bool {
	for _, w := range words {
		if set.Has(w) {
			return true
		}
	}
	return false
}

// conflictGuidance points the caller at the side worth trusting: higher
// confidence first, more recently accessed as the tie-breaker.
func conflictGuidance(a, b *Entry) string {
	switch {
	case a.Confidence > b.Confidence:
		return fmt.Sprintf("prefer %q (higher confidence)", a.Title)
	case b.Confidence > a.Confidence:
		return fmt.Sprintf("prefer %q (higher confidence)", b.Title)
	case a.LastAccessed.After(b.LastAccessed):
		return fmt.Sprintf("prefer %q (more recently accessed)", a.Title)
	default:
		return fmt.Sprintf("prefer %q (more recently accessed)", b.Title)
	}
}
