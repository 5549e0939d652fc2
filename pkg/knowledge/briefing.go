package knowledge

import (
	"context"
	"sort"
	"strings"
	"time"
)

// briefingOrder is the fixed section order; module topics slot in
// alphabetically between conventions and recent-work.
var briefingOrder = []Topic{
	TopicUser,
	TopicPreferences,
	TopicGotchas,
	TopicArchitecture,
	TopicConventions,
}

// stalePriority ranks topics by how dangerous a stale entry is: gotchas rot
// fastest because code changes invalidate them.
func stalePriority(t Topic) int {
	switch t {
	case TopicGotchas:
		return 0
	case TopicArchitecture, TopicConventions:
		return 1
	case TopicRecentWork:
		return 3
	default: // preferences, modules/<name>
		return 2
	}
}

// Briefing assembles a token-budgeted digest of current entries, grouped by
// topic, for a session start. Sections are appended whole: once at least
// one section is in, the first section that would overflow the budget is
// dropped rather than truncated mid-section. It also collects stale entries
// for the caller to render as renewal prompts; surfacing them here does not
// refresh their lastAccessed.
func (s *Store) Briefing(_ context.Context, budgetTokens int) BriefingResult {
	snap := loadSnapshot(s.cfg.StoragePath)
	branch := s.cfg.Git.CurrentBranch(s.cfg.RepoRoot)
	now := s.now()

	grouped := make(map[Topic][]*Entry)
	for _, e := range snap.entries {
		if e.Topic == TopicRecentWork && e.Branch != branch {
			continue
		}
		grouped[e.Topic] = append(grouped[e.Topic], e)
	}

	var moduleTopics []Topic
	for t := range grouped {
		if t.IsModule() {
			moduleTopics = append(moduleTopics, t)
		}
	}
	sort.Slice(moduleTopics, func(i, j int) bool { return moduleTopics[i] < moduleTopics[j] })

	order := make([]Topic, 0, len(briefingOrder)+len(moduleTopics)+1)
	order = append(order, briefingOrder...)
	order = append(order, moduleTopics...)
	order = append(order, TopicRecentWork)

	var sb strings.Builder
	var result BriefingResult
	for _, topic := range order {
		entries := grouped[topic]
		if len(entries) == 0 {
			continue
		}
		section := renderSection(topic, entries, s.cfg.Behavior, now)
		cost := s.cfg.Tokens.Estimate(section)
		if len(result.Sections) > 0 && result.Tokens+cost > budgetTokens {
			break
		}
		sb.WriteString(section)
		result.Tokens += cost
		result.Sections = append(result.Sections, topic)
	}
	result.Text = sb.String()
	result.Stale = s.collectStale(grouped, now)
	return result
}

// renderSection renders one topic section: a header plus one bullet per
// entry, confidence-sorted, with a [!] prefix for gotchas and a [stale]
// suffix when freshness fails.
func renderSection(topic Topic, entries []*Entry, b Behavior, now time.Time) string {
	sorted := make([]*Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Confidence > sorted[j].Confidence })

	var sb strings.Builder
	sb.WriteString("## " + string(topic) + "\n\n")
	for _, e := range sorted {
		sb.WriteString("- ")
		if topic == TopicGotchas {
			sb.WriteString("[!] ")
		}
		sb.WriteString(e.Title)
		if line := oneLine(e.Content); line != "" {
			sb.WriteString(": " + line)
		}
		if !IsFresh(e, b, now) {
			sb.WriteString(" [stale]")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	return sb.String()
}

func oneLine(content string) string {
	return strings.Join(strings.Fields(content), " ")
}

// collectStale gathers up to MaxStaleEntries stale entries, most dangerous
// topics first and oldest-accessed first within a tier.
func (s *Store) collectStale(grouped map[Topic][]*Entry, now time.Time) []*Entry {
	var stale []*Entry
	for _, entries := range grouped {
		for _, e := range entries {
			if !IsFresh(e, s.cfg.Behavior, now) {
				stale = append(stale, e)
			}
		}
	}
	sort.SliceStable(stale, func(i, j int) bool {
		pi, pj := stalePriority(stale[i].Topic), stalePriority(stale[j].Topic)
		if pi != pj {
			return pi < pj
		}
		return stale[i].LastAccessed.Before(stale[j].LastAccessed)
	})
	if len(stale) > s.cfg.Behavior.MaxStaleEntries {
		stale = stale[:s.cfg.Behavior.MaxStaleEntries]
	}
	return stale
}
