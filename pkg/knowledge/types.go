// Package knowledge implements the persistent knowledge store: topic-scoped
// markdown entries on disk, relevance-ranked retrieval, duplicate and
// conflict detection, freshness tracking, and token-budgeted briefings.
package knowledge

import (
	"regexp"
	"strings"
	"time"
)

// Topic is a validated knowledge scope: one of the fixed set or a
// "modules/<name>" namespace. Construct via ParseTopic; a Topic in hand is
// trusted everywhere downstream.
type Topic string

const (
	TopicUser          Topic = "user"
	TopicPreferences   Topic = "preferences"
	TopicArchitecture  Topic = "architecture"
	TopicConventions   Topic = "conventions"
	TopicGotchas       Topic = "gotchas"
	TopicRecentWork    Topic = "recent-work"
	moduleTopicPrefix        = "modules/"
)

var fixedTopics = map[Topic]bool{
	TopicUser:         true,
	TopicPreferences:  true,
	TopicArchitecture: true,
	TopicConventions:  true,
	TopicGotchas:      true,
	TopicRecentWork:   true,
}

// ParseTopic validates a raw topic string. Unknown values are rejected,
// never coerced.
func ParseTopic(s string) (Topic, bool) {
	t := Topic(s)
	if fixedTopics[t] {
		return t, true
	}
	if name, ok := strings.CutPrefix(s, moduleTopicPrefix); ok && name != "" && !strings.Contains(name, "/") {
		return t, true
	}
	return "", false
}

// IsModule reports whether the topic is a modules/<name> namespace.
func (t Topic) IsModule() bool {
	return strings.HasPrefix(string(t), moduleTopicPrefix)
}

// ModuleName returns the <name> part of a modules/<name> topic, or "".
func (t Topic) ModuleName() string {
	name, _ := strings.CutPrefix(string(t), moduleTopicPrefix)
	if name == string(t) {
		return ""
	}
	return name
}

// idPrefixes maps each fixed topic to the short prefix used in entry ids.
var idPrefixes = map[Topic]string{
	TopicUser:         "user",
	TopicPreferences:  "pref",
	TopicArchitecture: "arch",
	TopicConventions:  "conv",
	TopicGotchas:      "gotcha",
	TopicRecentWork:   "work",
}

func (t Topic) idPrefix() string {
	if p, ok := idPrefixes[t]; ok {
		return p
	}
	return "mod"
}

// Trust is a validated provenance tier. Construct via ParseTrust.
type Trust string

const (
	TrustUser           Trust = "user"
	TrustAgentConfirmed Trust = "agent-confirmed"
	TrustAgentInferred  Trust = "agent-inferred"
)

// ParseTrust validates a raw trust string.
func ParseTrust(s string) (Trust, bool) {
	switch t := Trust(s); t {
	case TrustUser, TrustAgentConfirmed, TrustAgentInferred:
		return t, true
	}
	return "", false
}

// DefaultConfidence is the confidence an entry starts with at each tier.
func (t Trust) DefaultConfidence() float64 {
	switch t {
	case TrustUser:
		return 1.0
	case TrustAgentConfirmed:
		return 0.85
	default:
		return 0.70
	}
}

const (
	// MaxTags is the most tags a single entry may carry.
	MaxTags = 10

	minTagLength = 2
	maxTagLength = 50
)

var tagPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Tag is a validated lowercase slug. Construct via ParseTag.
type Tag string

// ParseTag validates a raw tag string.
func ParseTag(s string) (Tag, bool) {
	if len(s) < minTagLength || len(s) > maxTagLength || !tagPattern.MatchString(s) {
		return "", false
	}
	return Tag(s), true
}

// NormalizeTags validates a raw tag list, silently dropping invalid and
// duplicate values and capping the result at MaxTags. Invalid tags are a
// boundary condition, not an error.
func NormalizeTags(raw []string) []Tag {
	var out []Tag
	seen := make(map[Tag]bool)
	for _, s := range raw {
		tag, ok := ParseTag(strings.ToLower(strings.TrimSpace(s)))
		if !ok || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
		if len(out) == MaxTags {
			break
		}
	}
	return out
}

// Entry is the unit of stored knowledge.
type Entry struct {
	ID           string
	Topic        Topic
	Title        string
	Content      string
	Confidence   float64
	Trust        Trust
	Sources      []string
	References   []string
	Tags         []Tag
	Created      time.Time
	LastAccessed time.Time
	GitSHA       string // set only when Sources is non-empty at store time
	Branch       string // set only for recent-work entries
}

// TagStrings returns the entry's tags as plain strings.
func (e *Entry) TagStrings() []string {
	out := make([]string, len(e.Tags))
	for i, t := range e.Tags {
		out[i] = string(t)
	}
	return out
}
