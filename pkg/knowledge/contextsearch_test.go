package knowledge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/lore/pkg/gitinfo"
)

func TestContextSearchMatchesAndKeepsUserEntries(t *testing.T) {
	s, _ := newTestStore(t, newTestClock(), gitinfo.Static{Branch: "main"})
	ctx := context.Background()

	gotcha := s.Store(ctx, StoreParams{
		Topic: TopicGotchas, Title: "Pool ceiling",
		Content: "Connections come from a shared pool with a hard limit.",
	})
	require.True(t, gotcha.Stored)
	user := s.Store(ctx, StoreParams{
		Topic: TopicUser, Title: "About the user",
		Content: "Works mostly on backend services.", Trust: TrustUser,
	})
	require.True(t, user.Stored)
	unrelated := s.Store(ctx, StoreParams{
		Topic: TopicConventions, Title: "Commit style", Content: "Imperative mood subjects.",
	})
	require.True(t, unrelated.Stored)

	result := s.ContextSearch(ctx, "connection pool exhaustion in the worker queue", 10, "", 0.2)
	s.Flush()

	byID := make(map[string]ContextMatch)
	for _, m := range result.Matches {
		byID[m.Entry.ID] = m
	}
	require.Contains(t, byID, gotcha.ID)
	require.Contains(t, byID, user.ID)
	assert.NotContains(t, byID, unrelated.ID, "entries below the match-ratio floor are dropped")

	assert.Greater(t, byID[gotcha.ID].MatchRatio, 0.0)
	// Identity entries survive zero overlap, at half confidence.
	assert.Zero(t, byID[user.ID].MatchRatio)
	assert.InDelta(t, 0.5, byID[user.ID].Score, 1e-9)
}

func TestContextSearchUserBelowFloorScoredByOverlap(t *testing.T) {
	s, _ := newTestStore(t, newTestClock(), gitinfo.Static{Branch: "main"})
	ctx := context.Background()

	user := s.Store(ctx, StoreParams{
		Topic: TopicUser, Title: "About the user",
		Content: "Maintains the deployment scripts.", Trust: TrustUser,
	})
	require.True(t, user.Stored)

	// Ten context keywords, exactly one of which ("deployment") the entry
	// shares: ratio 0.1, below the 0.2 floor but not zero. The identity
	// entry is kept and scored by its overlap, not the flat fallback.
	result := s.ContextSearch(ctx, "database pooling metrics dashboard tracing deployment pipeline caching retries alerting", 10, "", 0.2)
	s.Flush()

	require.Len(t, result.Matches, 1)
	m := result.Matches[0]
	assert.InDelta(t, 0.1, m.MatchRatio, 1e-9)
	assert.InDelta(t, 0.2, m.Score, 1e-9, "ratio x confidence x user boost, not confidence/2")
}

func TestContextSearchReferenceBoost(t *testing.T) {
	s, _ := newTestStore(t, newTestClock(), gitinfo.Static{Branch: "main"})
	ctx := context.Background()

	boosted := s.Store(ctx, StoreParams{
		Topic: TopicGotchas, Title: "Pool ceiling",
		Content:    "Connections come from a shared pool with a hard limit.",
		References: []string{"internal/db/pool.go"},
	})
	require.True(t, boosted.Stored)
	plain := s.Store(ctx, StoreParams{
		Topic: TopicGotchas, Title: "Pool limits",
		Content: "Connections come from a shared pool with a hard limit.",
	})
	require.True(t, plain.Stored)

	result := s.ContextSearch(ctx, "connection pool exhaustion worker", 10, "", 0.2)
	s.Flush()
	require.Len(t, result.Matches, 2)
	assert.Equal(t, boosted.ID, result.Matches[0].Entry.ID,
		"a referenced file named in the context outranks bag-of-words overlap")
	assert.InDelta(t, result.Matches[1].Score*referenceBoost, result.Matches[0].Score, 1e-9)
}

func TestContextSearchDownWeightsStale(t *testing.T) {
	clk := newTestClock()
	s, _ := newTestStore(t, clk, gitinfo.Static{Branch: "main"})
	now := clk.now().Truncate(time.Second)

	mk := func(id string, accessed time.Time) *Entry {
		return &Entry{
			ID: id, Topic: TopicGotchas, Title: "Pool ceiling",
			Content:    "Connections come from a shared pool with a hard limit.",
			Confidence: 0.70, Trust: TrustAgentInferred,
			Created: accessed, LastAccessed: accessed,
		}
	}
	require.NoError(t, s.writeEntryFile(mk("gotcha-fresh000000", now)))
	require.NoError(t, s.writeEntryFile(mk("gotcha-stale000000", now.AddDate(0, 0, -60))))

	result := s.ContextSearch(context.Background(), "connection pool exhaustion worker", 10, "", 0.2)
	s.Flush()
	require.Len(t, result.Matches, 2)
	assert.Equal(t, "gotcha-fresh000000", result.Matches[0].Entry.ID)
	assert.False(t, result.Matches[1].Fresh)
	assert.InDelta(t, result.Matches[0].Score*staleDownWeight, result.Matches[1].Score, 1e-9)
}

func TestContextSearchCapsResults(t *testing.T) {
	s, _ := newTestStore(t, newTestClock(), gitinfo.Static{Branch: "main"})
	ctx := context.Background()

	for _, title := range []string{"Pool ceiling", "Pool floor", "Pool walls"} {
		r := s.Store(ctx, StoreParams{
			Topic: TopicGotchas, Title: title,
			Content: "Connections come from a shared pool with a hard limit.",
		})
		require.True(t, r.Stored)
	}

	result := s.ContextSearch(ctx, "connection pool exhaustion worker", 2, "", 0.2)
	s.Flush()
	assert.Len(t, result.Matches, 2)
}

func TestContextSearchEmptyContext(t *testing.T) {
	s, _ := newTestStore(t, newTestClock(), gitinfo.Static{Branch: "main"})
	seedTopics(t, s)

	ctx := context.Background()
	assert.Empty(t, s.ContextSearch(ctx, "", 10, "", 0.2).Matches)
	assert.Empty(t, s.ContextSearch(ctx, "the and of", 10, "", 0.2).Matches,
		"stop words alone carry no context")
}

func TestContextSearchReportsConflicts(t *testing.T) {
	s, _ := newTestStore(t, newTestClock(), gitinfo.Static{Branch: "main"})
	ctx := context.Background()

	a := s.Store(ctx, StoreParams{
		Topic: TopicConventions, Title: "Error handling convention",
		Content: "Always use wrapped errors with fmt.Errorf and the %w verb for error chains.",
	})
	require.True(t, a.Stored)
	b := s.Store(ctx, StoreParams{
		Topic: TopicConventions, Title: "Error handling convention update",
		Content: "Never use wrapped errors; avoid fmt.Errorf chains and return sentinel errors instead.",
	})
	require.True(t, b.Stored)

	result := s.ContextSearch(ctx, "error handling wrapped errors convention", 10, "", 0.2)
	s.Flush()
	require.Len(t, result.Matches, 2)
	assert.NotEmpty(t, result.Conflicts, "contradictory surfaced entries must be flagged together")
}

func TestContextSearchRefreshesAccess(t *testing.T) {
	clk := newTestClock()
	s, _ := newTestStore(t, clk, gitinfo.Static{Branch: "main"})
	ctx := context.Background()

	stored := s.Store(ctx, StoreParams{
		Topic: TopicGotchas, Title: "Pool ceiling",
		Content: "Connections come from a shared pool with a hard limit.",
	})
	require.True(t, stored.Stored)

	clk.advanceDays(10)
	s.ContextSearch(ctx, "connection pool exhaustion worker", 10, "", 0.2)
	s.Flush()

	entry := mustReadEntry(t, stored.File)
	assert.Equal(t, clk.now().Truncate(time.Second), entry.LastAccessed)
}
