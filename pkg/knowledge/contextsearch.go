package knowledge

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/entrhq/lore/pkg/keywords"
)

const (
	defaultMinMatchRatio     = 0.2
	defaultMaxContextResults = 10

	staleDownWeight     = 0.7
	referenceBoost      = 1.3
	userZeroOverlapHalf = 0.5
)

// topicBoosts favor always-relevant topics during context search.
var topicBoosts = map[Topic]float64{
	TopicUser:         2.0,
	TopicPreferences:  1.8,
	TopicGotchas:      1.5,
	TopicConventions:  1.2,
	TopicArchitecture: 1.0,
	TopicRecentWork:   0.9,
}

func topicBoost(t Topic) float64 {
	if b, ok := topicBoosts[t]; ok {
		return b
	}
	return 1.1 // modules/<name>
}

// ContextSearch matches free-text context (a task description, a diff, an
// error message) against every entry. Entries below the match-ratio floor
// are discarded, except user-topic entries: identity is always contextually
// relevant, so they are exempt from the floor, and with zero keyword overlap
// they fall back to half their confidence. Stale entries are down-weighted
// rather than excluded.
func (s *Store) ContextSearch(_ context.Context, contextText string, maxResults int, branchFilter string, minMatchRatio float64) ContextResult {
	if maxResults <= 0 {
		maxResults = defaultMaxContextResults
	}
	if minMatchRatio <= 0 {
		minMatchRatio = defaultMinMatchRatio
	}

	snap := loadSnapshot(s.cfg.StoragePath)
	entries := s.filterBranch(snap.entries, branchFilter)

	ctxKeys := keywords.Extract(contextText)
	if len(ctxKeys) == 0 {
		return ContextResult{}
	}

	now := s.now()
	var matches []ContextMatch
	for _, e := range entries {
		entryKeys := keywords.Extract(e.Title).Union(keywords.Extract(e.Content))
		ratio := float64(entryKeys.IntersectCount(ctxKeys)) / float64(len(ctxKeys))
		fresh := IsFresh(e, s.cfg.Behavior, now)

		if ratio < minMatchRatio && e.Topic != TopicUser {
			continue
		}
		if ratio == 0 {
			// Only user entries reach here: with no overlap at all they fall
			// back to a flat half-confidence score.
			matches = append(matches, ContextMatch{
				Entry:      e,
				Score:      e.Confidence * userZeroOverlapHalf,
				MatchRatio: 0,
				Fresh:      fresh,
			})
			continue
		}

		score := ratio * e.Confidence * topicBoost(e.Topic)
		if !fresh {
			score *= staleDownWeight
		}
		if referencesMatchContext(e.References, ctxKeys) {
			// An exact file/symbol match is a stronger relevance signal
			// than bag-of-words overlap.
			score *= referenceBoost
		}
		matches = append(matches, ContextMatch{Entry: e, Score: score, MatchRatio: ratio, Fresh: fresh})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}

	surfaced := make([]*Entry, len(matches))
	for i, m := range matches {
		surfaced[i] = m.Entry
	}
	s.refreshAccess(snap, surfaced, now)

	return ContextResult{
		Matches:   matches,
		Conflicts: DetectConflicts(surfaced, s.cfg.Behavior.MaxConflictPairs),
	}
}

// referencesMatchContext reports whether any reference's basename, stemmed,
// appears among the context keywords.
func referencesMatchContext(references []string, ctxKeys keywords.Set) bool {
	for _, ref := range references {
		for _, tok := range keywords.Tokenize(filepath.Base(ref)) {
			if len(tok) < 3 {
				continue
			}
			if ctxKeys.Has(keywords.Stem(tok)) {
				return true
			}
		}
	}
	return false
}
