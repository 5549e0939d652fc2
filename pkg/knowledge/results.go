package knowledge

// Result types are closed variant sets: each operation either succeeds with
// its payload or fails with a typed reason. No partial or ambiguous state is
// representable, and expected failures (budget exceeded, not found) are
// ordinary values, never errors.

// StoreResult reports the outcome of a store operation. When Stored is
// false, Message carries the human-readable refusal. All advisory fields
// (Related, RelatedPreferences, EphemeralWarning) never cause failure.
type StoreResult struct {
	Stored  bool
	Topic   Topic
	Message string // set only on refusal

	ID          string
	File        string
	OverwroteID string // id of the entry replaced by this write, if any

	Related            []DedupCandidate // same-topic dedup candidates
	RelatedPreferences []DedupCandidate // preference-surfacing hits
	EphemeralWarning   string           // "" when no signals fired
}

func storeFailure(topic Topic, message string) StoreResult {
	return StoreResult{Topic: topic, Message: message}
}

// CorrectionAction selects what a correction does to its target.
type CorrectionAction string

const (
	ActionDelete  CorrectionAction = "delete"
	ActionAppend  CorrectionAction = "append"
	ActionReplace CorrectionAction = "replace"
)

// ParseCorrectionAction validates a raw action string.
func ParseCorrectionAction(s string) (CorrectionAction, bool) {
	switch a := CorrectionAction(s); a {
	case ActionDelete, ActionAppend, ActionReplace:
		return a, true
	}
	return "", false
}

// CorrectResult reports the outcome of a correction. A missing target is a
// typed failure (NotFound), not an exception.
type CorrectResult struct {
	Corrected bool
	ID        string
	Action    CorrectionAction
	NotFound  bool
	Message   string
}

// QueryMatch is one entry surfaced by a query. Score is the relevance score
// when a filter expression was applied, zero otherwise.
type QueryMatch struct {
	Entry *Entry
	Score float64
	Fresh bool
}

// QueryResult is a ranked result set plus conflicts detected within it.
type QueryResult struct {
	Matches   []QueryMatch
	Conflicts []ConflictPair
}

// ContextMatch is one entry surfaced by a context search.
type ContextMatch struct {
	Entry      *Entry
	Score      float64
	MatchRatio float64
	Fresh      bool
}

// ContextResult is a scored context-search result set plus conflicts
// detected within it.
type ContextResult struct {
	Matches   []ContextMatch
	Conflicts []ConflictPair
}

// Stats aggregates the store's current on-disk state.
type Stats struct {
	TotalEntries int
	ByTopic      map[Topic]int
	ByTrust      map[Trust]int

	// Freshness buckets. Unknown means the entry has zero provenance
	// sources, so freshness cannot be judged meaningfully.
	FreshEntries   int
	StaleEntries   int
	UnknownEntries int

	TagCounts map[Tag]int

	TotalBytes   int64
	BudgetBytes  int64
	CorruptFiles int
}

// BriefingResult is a token-budgeted digest plus renewal prompts.
type BriefingResult struct {
	Text     string
	Tokens   int     // estimate for Text
	Sections []Topic // topics included, in render order
	Stale    []*Entry
}
