package knowledge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTopic(t *testing.T) {
	valid := []string{"user", "preferences", "architecture", "conventions", "gotchas", "recent-work", "modules/auth", "modules/payment-service"}
	for _, s := range valid {
		topic, ok := ParseTopic(s)
		assert.True(t, ok, s)
		assert.Equal(t, Topic(s), topic)
	}

	invalid := []string{"", "notes", "Modules/auth", "modules/", "modules/a/b", "recent_work", "user "}
	for _, s := range invalid {
		_, ok := ParseTopic(s)
		assert.False(t, ok, s)
	}
}

func TestTopicModuleHelpers(t *testing.T) {
	topic, ok := ParseTopic("modules/auth")
	assert.True(t, ok)
	assert.True(t, topic.IsModule())
	assert.Equal(t, "auth", topic.ModuleName())

	assert.False(t, TopicGotchas.IsModule())
	assert.Equal(t, "", TopicGotchas.ModuleName())
}

func TestParseTrustAndDefaultConfidence(t *testing.T) {
	for raw, want := range map[string]float64{
		"user":            1.0,
		"agent-confirmed": 0.85,
		"agent-inferred":  0.70,
	} {
		trust, ok := ParseTrust(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, trust.DefaultConfidence())
	}

	_, ok := ParseTrust("gospel")
	assert.False(t, ok)
	_, ok = ParseTrust("")
	assert.False(t, ok)
}

func TestNormalizeTags(t *testing.T) {
	tags := NormalizeTags([]string{"DB", "db", " Caching ", "x", "-bad", "sql-tuning", "has space", strings.Repeat("a", 51)})
	assert.Equal(t, []Tag{"db", "caching", "sql-tuning"}, tags)
}

func TestNormalizeTagsCapsAtMax(t *testing.T) {
	raw := []string{"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7", "t8", "t9", "t10", "t11"}
	tags := NormalizeTags(raw)
	assert.Len(t, tags, MaxTags)
	assert.Equal(t, Tag("t9"), tags[MaxTags-1])
}

func TestNewEntryIDPrefixes(t *testing.T) {
	tests := map[Topic]string{
		TopicUser:         "user-",
		TopicPreferences:  "pref-",
		TopicArchitecture: "arch-",
		TopicConventions:  "conv-",
		TopicGotchas:      "gotcha-",
		TopicRecentWork:   "work-",
		"modules/auth":    "mod-",
	}
	for topic, prefix := range tests {
		id := NewEntryID(topic)
		assert.True(t, strings.HasPrefix(id, prefix), "id %q for topic %s", id, topic)
		assert.Len(t, strings.TrimPrefix(id, prefix), 12)
	}
	assert.NotEqual(t, NewEntryID(TopicGotchas), NewEntryID(TopicGotchas))
}
