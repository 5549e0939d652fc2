package knowledge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimilarCandidates(t *testing.T) {
	incoming := &Entry{
		Title:   "Service layering",
		Content: "Handlers call services which call repositories for data access",
	}
	near := &Entry{
		ID:      "arch-near",
		Title:   "Layering of services",
		Content: "Handlers call services and services call repositories for data access",
	}
	far := &Entry{
		ID:      "arch-far",
		Title:   "Background job queue",
		Content: "Workers poll a queue table and mark jobs done",
	}

	out := similarCandidates(incoming, []*Entry{far, near}, nil, dedupThreshold, 3)
	require.Len(t, out, 1)
	assert.Equal(t, "arch-near", out[0].Entry.ID)
	assert.Greater(t, out[0].Similarity, dedupThreshold)
}

func TestSimilarCandidatesExcludesAndCaps(t *testing.T) {
	incoming := &Entry{Title: "Caching strategy", Content: "Cache invalidation happens on write through the cache layer"}
	pool := []*Entry{
		{ID: "a", Title: "Caching strategy", Content: "Cache invalidation happens on write through the cache layer"},
		{ID: "b", Title: "Cache strategy notes", Content: "Cache invalidation on write through the caching layer"},
		{ID: "c", Title: "Write-through caching", Content: "The cache layer invalidates on write"},
	}

	out := similarCandidates(incoming, pool, map[string]bool{"a": true}, dedupThreshold, 1)
	require.Len(t, out, 1)
	assert.NotEqual(t, "a", out[0].Entry.ID)
}

func TestSimilarCandidatesSortedDescending(t *testing.T) {
	incoming := &Entry{Title: "Retry policy", Content: "Requests retry three times with exponential backoff and jitter"}
	pool := []*Entry{
		{ID: "weak", Title: "Retry notes", Content: "Some requests retry on failure"},
		{ID: "strong", Title: "Retry policy", Content: "Requests retry three times with exponential backoff and jitter"},
	}
	out := similarCandidates(incoming, pool, nil, 0.1, 5)
	require.Len(t, out, 2)
	assert.Equal(t, "strong", out[0].Entry.ID)
	assert.GreaterOrEqual(t, out[0].Similarity, out[1].Similarity)
}

func conflictEntry(id string, topic Topic, trust Trust, conf float64, title, content string) *Entry {
	return &Entry{
		ID: id, Topic: topic, Trust: trust, Confidence: conf,
		Title: title, Content: content,
		LastAccessed: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestDetectConflictsOpposedPrescriptions(t *testing.T) {
	a := conflictEntry("conv-a", TopicConventions, TrustAgentInferred, 0.70,
		"Error handling convention",
		"Always use wrapped errors with fmt.Errorf and the %w verb for error chains")
	b := conflictEntry("conv-b", TopicConventions, TrustAgentInferred, 0.85,
		"Error handling convention update",
		"Never use wrapped errors; avoid fmt.Errorf chains and return sentinel errors instead")

	pairs := DetectConflicts([]*Entry{a, b}, 2)
	require.Len(t, pairs, 1)
	p := pairs[0]
	assert.Greater(t, p.Adjusted, p.Similarity, "opposition language should boost the score")
	assert.Contains(t, p.Guidance, "update", "guidance should prefer the higher-confidence side")
}

func TestDetectConflictsSkipsShortContent(t *testing.T) {
	a := conflictEntry("conv-a", TopicConventions, TrustUser, 1.0, "Tabs", "Use tabs")
	b := conflictEntry("conv-b", TopicConventions, TrustUser, 1.0, "Tabs", "Never use tabs")
	assert.Empty(t, DetectConflicts([]*Entry{a, b}, 2))
}

func TestDetectConflictsUserTrustBoost(t *testing.T) {
	// Same pair twice: once both user-trusted, once not. Only the boosted
	// variant should cross the same-topic threshold.
	content1 := "Always run database migrations before deploying the application binary"
	content2 := "Run the application binary first, migrations always come after deploying"

	inferred := DetectConflicts([]*Entry{
		conflictEntry("a", TopicConventions, TrustAgentInferred, 0.70, "Deploy order", content1),
		conflictEntry("b", TopicConventions, TrustAgentInferred, 0.70, "Deployment sequence", content2),
	}, 2)
	user := DetectConflicts([]*Entry{
		conflictEntry("a", TopicConventions, TrustUser, 1.0, "Deploy order", content1),
		conflictEntry("b", TopicConventions, TrustUser, 1.0, "Deployment sequence", content2),
	}, 2)

	if len(inferred) > 0 && len(user) > 0 {
		assert.Greater(t, user[0].Adjusted, inferred[0].Adjusted)
	} else {
		assert.GreaterOrEqual(t, len(user), len(inferred),
			"user-trusted pair must not be harder to flag than the inferred pair")
	}
}

func TestDetectConflictsCapsPairs(t *testing.T) {
	mk := func(id, title string) *Entry {
		return conflictEntry(id, TopicConventions, TrustUser, 1.0, title,
			"Always format code with gofmt before committing changes to the repository, never skip it")
	}
	entries := []*Entry{mk("a", "Formatting rule"), mk("b", "Formatting rule copy"), mk("c", "Formatting rule again")}
	pairs := DetectConflicts(entries, 2)
	assert.LessOrEqual(t, len(pairs), 2)
}

func TestDetectConflictsCrossTopicThresholdLower(t *testing.T) {
	// Identical entries in different topics: cross-topic threshold applies.
	content := "Connection pooling always uses a maximum of twenty connections per service instance"
	a := conflictEntry("arch-a", TopicArchitecture, TrustAgentInferred, 0.70, "Connection pooling", content)
	b := conflictEntry("got-b", TopicGotchas, TrustAgentInferred, 0.70, "Pool limits", "Never exceed twenty pooled connections per service instance, pooling breaks past that")

	pairs := DetectConflicts([]*Entry{a, b}, 2)
	require.NotEmpty(t, pairs)
	assert.Equal(t, "arch-a", pairs[0].A.ID)
}
