package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"

	"github.com/entrhq/lore/pkg/ephemeral"
	"github.com/entrhq/lore/pkg/gitinfo"
	"github.com/entrhq/lore/pkg/keywords"
)

// DefaultBudgetBytes is the storage budget applied when none is configured.
const DefaultBudgetBytes = 5 << 20

// Config wires a Store to its environment. Zero-value fields get production
// defaults; tests inject a fixed clock and a Static git service.
type Config struct {
	RepoRoot    string // repository the store describes, for git lookups
	StoragePath string // root of the entry file tree
	BudgetBytes int64
	Behavior    Behavior
	Clock       func() time.Time
	Git         gitinfo.Service
	Scorer      ephemeral.Scorer
	Tokens      TokenEstimator
}

// Store owns the entry lifecycle against one storage root. It keeps no
// durable in-process cache: every read-oriented operation rebuilds its
// working set from disk, which is how concurrent processes sharing a store
// observe each other's writes.
type Store struct {
	cfg     Config
	refresh sync.WaitGroup
}

// NewStore builds a Store, filling unset Config fields with defaults.
func NewStore(cfg Config) *Store {
	if cfg.BudgetBytes <= 0 {
		cfg.BudgetBytes = DefaultBudgetBytes
	}
	if (cfg.Behavior == Behavior{}) {
		cfg.Behavior = DefaultBehavior()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Git == nil {
		cfg.Git = gitinfo.NewCLI()
	}
	if cfg.Scorer == nil {
		cfg.Scorer = ephemeral.NewFrequencyScorer()
	}
	if cfg.Tokens == nil {
		cfg.Tokens = HeuristicEstimator{}
	}
	return &Store{cfg: cfg}
}

// now returns the clock time truncated to whole seconds, matching the
// on-disk timestamp resolution so entries round-trip exactly.
func (s *Store) now() time.Time {
	return s.cfg.Clock().UTC().Truncate(time.Second)
}

// Flush waits for in-flight background lastAccessed writes. Only tests and
// shutdown paths need it; the writes are otherwise fire-and-forget.
func (s *Store) Flush() {
	s.refresh.Wait()
}

// StoreParams are the caller-supplied fields of a new entry. Topic and
// Trust arrive already validated through their parse functions.
type StoreParams struct {
	Topic      Topic
	Title      string
	Content    string
	Sources    []string
	Trust      Trust
	References []string
	Tags       []string
}

// Store persists a new entry. The storage budget is checked before any side
// effect: at or over budget, the write is refused with a structured failure.
// On success the result carries advisory dedup candidates, related
// preferences, and an ephemeral-content warning — none of which ever block
// the write.
func (s *Store) Store(_ context.Context, p StoreParams) StoreResult {
	snap := loadSnapshot(s.cfg.StoragePath)
	if snap.totalBytes >= s.cfg.BudgetBytes {
		return storeFailure(p.Topic, fmt.Sprintf(
			"storage budget exceeded: %d bytes used of a %d byte budget; delete or correct entries before storing more",
			snap.totalBytes, s.cfg.BudgetBytes))
	}

	now := s.now()
	trust := p.Trust
	if trust == "" {
		trust = TrustAgentInferred
	}

	entry := &Entry{
		ID:           NewEntryID(p.Topic),
		Topic:        p.Topic,
		Title:        strings.TrimSpace(p.Title),
		Content:      p.Content,
		Trust:        trust,
		Confidence:   trust.DefaultConfidence(),
		Sources:      p.Sources,
		References:   p.References,
		Created:      now,
		LastAccessed: now,
	}
	rawTags := p.Tags
	if p.Topic == TopicRecentWork {
		entry.Branch = s.cfg.Git.CurrentBranch(s.cfg.RepoRoot)
		// The branch doubles as a tag so branch work stays findable after the
		// entry ages out of the branch filter.
		rawTags = append(append([]string(nil), rawTags...), SanitizeBranch(entry.Branch))
	}
	entry.Tags = NormalizeTags(rawTags)
	if len(p.Sources) > 0 {
		if sha, ok := s.cfg.Git.HeadSHA(s.cfg.RepoRoot); ok {
			entry.GitSHA = sha
		}
	}

	// Same topic+title (and branch, for recent-work) is an explicit
	// overwrite: the prior file is deleted, never merged.
	overwroteID := s.deleteOverwritten(snap, entry)

	if err := s.writeEntryFile(entry); err != nil {
		return storeFailure(p.Topic, fmt.Sprintf("failed to persist entry: %v", err))
	}

	exclude := map[string]bool{entry.ID: true}
	if overwroteID != "" {
		exclude[overwroteID] = true
	}
	result := StoreResult{
		Stored:      true,
		Topic:       p.Topic,
		ID:          entry.ID,
		File:        entryPath(s.cfg.StoragePath, entry),
		OverwroteID: overwroteID,
		Related: similarCandidates(entry, topicEntries(snap.entries, p.Topic),
			exclude, dedupThreshold, s.cfg.Behavior.MaxDedupSuggestions),
	}
	if p.Topic != TopicPreferences && p.Topic != TopicUser {
		result.RelatedPreferences = similarCandidates(entry,
			topicEntries(snap.entries, TopicPreferences), exclude, preferenceThreshold, preferenceCap)
	}
	if p.Topic != TopicRecentWork {
		signals := ephemeral.Detect(entry.Title, entry.Content, s.cfg.Scorer)
		result.EphemeralWarning = ephemeral.FormatWarning(signals)
	}
	return result
}

// deleteOverwritten removes an existing entry with the identical topic+title
// (and branch, for recent-work) and returns its id, or "". The key is exact:
// a title differing only in case is a distinct entry.
func (s *Store) deleteOverwritten(snap *snapshot, entry *Entry) string {
	for _, other := range snap.entries {
		if other.Topic != entry.Topic || strings.TrimSpace(other.Title) != entry.Title {
			continue
		}
		if entry.Topic == TopicRecentWork && other.Branch != entry.Branch {
			continue
		}
		s.deleteEntryFile(snap.paths[other.ID], other.Topic)
		return other.ID
	}
	return ""
}

func (s *Store) writeEntryFile(e *Entry) error {
	path := entryPath(s.cfg.StoragePath, e)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("knowledge: init directory %s: %w", filepath.Dir(path), err)
	}
	return writeFileAtomic(path, Serialize(e))
}

// writeFileAtomic lands raw at path via tmp+rename. Every entry write goes
// through here, including corrections and lastAccessed refreshes: a crash
// mid-write may lose the write, but never the entry it was replacing, and no
// concurrent snapshot can observe a truncated file.
func writeFileAtomic(path string, raw []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("knowledge: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("knowledge: atomic rename %s: %w", path, err)
	}
	return nil
}

func (s *Store) deleteEntryFile(path string, topic Topic) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil {
		slog.Debug("knowledge: delete entry file", "path", path, "err", err)
		return
	}
	pruneEmptyDirs(filepath.Dir(path), topicRoot(s.cfg.StoragePath, topic))
}

// Query retrieves entries by scope, branch filter, and an optional filter
// expression. Scope "*" matches everything; "modules/*"-style patterns match
// by glob; anything else matches the exact topic or its "scope/..." subtree.
// Surfaced entries get their lastAccessed refreshed and persisted in the
// background; the response never waits on those writes.
func (s *Store) Query(_ context.Context, scope, filterExpr, branchFilter string) QueryResult {
	snap := loadSnapshot(s.cfg.StoragePath)

	entries := s.filterBranch(matchScope(snap.entries, scope), branchFilter)

	filter := keywords.ParseFilter(filterExpr)
	now := s.now()
	var matches []QueryMatch
	for _, e := range entries {
		doc := keywords.NewDoc(e.Title, e.Content, e.TagStrings())
		if !filter.Matches(doc) {
			continue
		}
		m := QueryMatch{Entry: e, Fresh: IsFresh(e, s.cfg.Behavior, now)}
		if !filter.Empty() {
			m.Score = filter.Relevance(doc, e.Confidence)
		}
		matches = append(matches, m)
	}

	if filter.Empty() {
		sort.SliceStable(matches, func(i, j int) bool {
			a, b := matches[i].Entry, matches[j].Entry
			if a.Confidence != b.Confidence {
				return a.Confidence > b.Confidence
			}
			return a.LastAccessed.After(b.LastAccessed)
		})
	} else {
		sort.SliceStable(matches, func(i, j int) bool {
			if matches[i].Score != matches[j].Score {
				return matches[i].Score > matches[j].Score
			}
			a, b := matches[i].Entry, matches[j].Entry
			if a.Confidence != b.Confidence {
				return a.Confidence > b.Confidence
			}
			return a.LastAccessed.After(b.LastAccessed)
		})
	}

	surfaced := make([]*Entry, len(matches))
	for i, m := range matches {
		surfaced[i] = m.Entry
	}
	s.refreshAccess(snap, surfaced, now)

	return QueryResult{
		Matches:   matches,
		Conflicts: DetectConflicts(surfaced, s.cfg.Behavior.MaxConflictPairs),
	}
}

// matchScope filters entries by a scope pattern.
func matchScope(entries []*Entry, scope string) []*Entry {
	if scope == "" || scope == "*" {
		return entries
	}
	var match func(Topic) bool
	if strings.ContainsAny(scope, "*?[") {
		g, err := glob.Compile(scope, '/')
		if err != nil {
			return nil
		}
		match = func(t Topic) bool { return g.Match(string(t)) }
	} else {
		match = func(t Topic) bool {
			return string(t) == scope || strings.HasPrefix(string(t), scope+"/")
		}
	}
	var out []*Entry
	for _, e := range entries {
		if match(e.Topic) {
			out = append(out, e)
		}
	}
	return out
}

// filterBranch applies the branch filter to recent-work entries only: an
// empty filter means the current branch, "*" means all branches, and any
// other value names a branch literally.
func (s *Store) filterBranch(entries []*Entry, branchFilter string) []*Entry {
	if branchFilter == "*" {
		return entries
	}
	target := branchFilter
	if target == "" {
		target = s.cfg.Git.CurrentBranch(s.cfg.RepoRoot)
	}
	var out []*Entry
	for _, e := range entries {
		if e.Topic == TopicRecentWork && e.Branch != target {
			continue
		}
		out = append(out, e)
	}
	return out
}

// refreshAccess bumps lastAccessed on surfaced entries and persists them in
// the background. The writes are best-effort: one lost to a crash or a race
// is acceptable and silently absorbed.
func (s *Store) refreshAccess(snap *snapshot, entries []*Entry, now time.Time) {
	type pending struct {
		path string
		raw  []byte
	}
	var writes []pending
	for _, e := range entries {
		path, ok := snap.paths[e.ID]
		if !ok {
			continue
		}
		e.LastAccessed = now
		writes = append(writes, pending{path: path, raw: Serialize(e)})
	}
	if len(writes) == 0 {
		return
	}
	s.refresh.Add(1)
	go func() {
		defer s.refresh.Done()
		for _, w := range writes {
			if err := writeFileAtomic(w.path, w.raw); err != nil {
				slog.Debug("knowledge: lastAccessed refresh dropped", "path", w.path, "err", err)
			}
		}
	}()
}

// Correct mutates or deletes an entry by id. Any successful correction is a
// user resolution: trust becomes user and confidence 1.0, and the corrected
// entry is by construction not re-analyzed for dedup or conflicts here.
func (s *Store) Correct(_ context.Context, id, correction string, action CorrectionAction) CorrectResult {
	snap := loadSnapshot(s.cfg.StoragePath)
	entry := snap.byID(id)
	if entry == nil {
		return CorrectResult{
			ID:       id,
			Action:   action,
			NotFound: true,
			Message:  fmt.Sprintf("no entry with id %q", id),
		}
	}
	path := snap.paths[id]

	switch action {
	case ActionDelete:
		s.deleteEntryFile(path, entry.Topic)
		return CorrectResult{Corrected: true, ID: id, Action: action}
	case ActionAppend:
		entry.Content = strings.TrimRight(entry.Content, "\n") + "\n\n" + correction
	case ActionReplace:
		entry.Content = correction
	default:
		return CorrectResult{ID: id, Action: action, Message: fmt.Sprintf("unknown action %q", action)}
	}

	entry.Trust = TrustUser
	entry.Confidence = 1.0
	entry.LastAccessed = s.now()
	if err := writeFileAtomic(path, Serialize(entry)); err != nil {
		return CorrectResult{ID: id, Action: action, Message: fmt.Sprintf("failed to persist correction: %v", err)}
	}
	return CorrectResult{Corrected: true, ID: id, Action: action}
}

// Stats reloads from disk and aggregates the store's current state.
func (s *Store) Stats(_ context.Context) Stats {
	snap := loadSnapshot(s.cfg.StoragePath)
	now := s.now()

	stats := Stats{
		TotalEntries: len(snap.entries),
		ByTopic:      make(map[Topic]int),
		ByTrust:      make(map[Trust]int),
		TagCounts:    make(map[Tag]int),
		TotalBytes:   snap.totalBytes,
		BudgetBytes:  s.cfg.BudgetBytes,
		CorruptFiles: snap.corrupt,
	}
	for _, e := range snap.entries {
		stats.ByTopic[e.Topic]++
		stats.ByTrust[e.Trust]++
		for _, t := range e.Tags {
			stats.TagCounts[t]++
		}
		switch {
		case len(e.Sources) == 0:
			stats.UnknownEntries++
		case IsFresh(e, s.cfg.Behavior, now):
			stats.FreshEntries++
		default:
			stats.StaleEntries++
		}
	}
	return stats
}

func topicEntries(entries []*Entry, topic Topic) []*Entry {
	var out []*Entry
	for _, e := range entries {
		if e.Topic == topic {
			out = append(out, e)
		}
	}
	return out
}
