package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/lore/pkg/knowledge"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	idStyle      = lipgloss.NewStyle().Faint(true)
	staleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	alertStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func renderStore(r knowledge.StoreResult) {
	if !r.Stored {
		fmt.Println(alertStyle.Render("not stored:"), r.Message)
		return
	}
	fmt.Println(okStyle.Render("stored"), r.ID, idStyle.Render(r.File))
	if r.OverwroteID != "" {
		fmt.Println(warnStyle.Render("overwrote"), r.OverwroteID)
	}
	for _, c := range r.Related {
		fmt.Printf("  similar (%.2f): %s %s\n", c.Similarity, c.Entry.Title, idStyle.Render(c.Entry.ID))
	}
	for _, c := range r.RelatedPreferences {
		fmt.Printf("  related preference (%.2f): %s %s\n", c.Similarity, c.Entry.Title, idStyle.Render(c.Entry.ID))
	}
	if r.EphemeralWarning != "" {
		fmt.Println(warnStyle.Render("warning:"), r.EphemeralWarning)
	}
}

func renderQuery(r knowledge.QueryResult, detail bool) {
	for _, m := range r.Matches {
		line := fmt.Sprintf("[%s] %s (%.2f)", m.Entry.Topic, m.Entry.Title, m.Entry.Confidence)
		if !m.Fresh {
			line += " " + staleStyle.Render("[stale]")
		}
		fmt.Println(line, idStyle.Render(m.Entry.ID))
		if detail && m.Entry.Content != "" {
			for _, l := range strings.Split(m.Entry.Content, "\n") {
				fmt.Println("    " + l)
			}
		}
	}
	renderConflicts(r.Conflicts)
}

func renderSearch(r knowledge.ContextResult) {
	for _, m := range r.Matches {
		line := fmt.Sprintf("%.3f [%s] %s", m.Score, m.Entry.Topic, m.Entry.Title)
		if !m.Fresh {
			line += " " + staleStyle.Render("[stale]")
		}
		fmt.Println(line, idStyle.Render(m.Entry.ID))
	}
	renderConflicts(r.Conflicts)
}

func renderConflicts(pairs []knowledge.ConflictPair) {
	for _, p := range pairs {
		fmt.Println(alertStyle.Render("possible conflict"),
			fmt.Sprintf("(similarity %.2f): %q vs %q — %s", p.Similarity, p.A.Title, p.B.Title, p.Guidance))
	}
}

func renderCorrect(r knowledge.CorrectResult) {
	switch {
	case r.Corrected:
		fmt.Println(okStyle.Render(string(r.Action)), r.ID)
	case r.NotFound:
		fmt.Println(alertStyle.Render("not found:"), r.ID)
	default:
		fmt.Println(alertStyle.Render("failed:"), r.Message)
	}
}

func renderStats(s knowledge.Stats) {
	fmt.Println(headingStyle.Render("entries:"), s.TotalEntries)
	fmt.Printf("%s %d fresh, %d stale, %d unknown\n",
		headingStyle.Render("freshness:"), s.FreshEntries, s.StaleEntries, s.UnknownEntries)
	fmt.Printf("%s %d / %d bytes\n", headingStyle.Render("storage:"), s.TotalBytes, s.BudgetBytes)
	if s.CorruptFiles > 0 {
		fmt.Println(warnStyle.Render("corrupt files:"), s.CorruptFiles)
	}

	topics := make([]knowledge.Topic, 0, len(s.ByTopic))
	for t := range s.ByTopic {
		topics = append(topics, t)
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i] < topics[j] })
	for _, t := range topics {
		fmt.Printf("  %-16s %d\n", t, s.ByTopic[t])
	}

	if len(s.TagCounts) > 0 {
		tags := make([]knowledge.Tag, 0, len(s.TagCounts))
		for t := range s.TagCounts {
			tags = append(tags, t)
		}
		sort.Slice(tags, func(i, j int) bool {
			if s.TagCounts[tags[i]] != s.TagCounts[tags[j]] {
				return s.TagCounts[tags[i]] > s.TagCounts[tags[j]]
			}
			return tags[i] < tags[j]
		})
		fmt.Print(headingStyle.Render("tags:"))
		for _, t := range tags {
			fmt.Printf(" %s(%d)", t, s.TagCounts[t])
		}
		fmt.Println()
	}
}

func renderBriefing(b knowledge.BriefingResult) {
	fmt.Print(b.Text)
	if len(b.Stale) > 0 {
		fmt.Println(staleStyle.Render("needs renewal:"))
		for _, e := range b.Stale {
			fmt.Printf("  [%s] %s %s\n", e.Topic, e.Title, idStyle.Render(e.ID))
		}
	}
	fmt.Println(idStyle.Render(fmt.Sprintf("~%d tokens", b.Tokens)))
}
